// Package models defines data structures used throughout the daily questions application.
package models

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"
)

// QuestionType identifies the input widget used to answer a question.
type QuestionType string

// Supported question types.
const (
	QuestionTypeText     QuestionType = "text"
	QuestionTypeSelect   QuestionType = "select"
	QuestionTypeCheckbox QuestionType = "checkbox"
	QuestionTypeRadio    QuestionType = "radio"
)

// AllQuestionTypes returns every supported question type.
func AllQuestionTypes() []QuestionType {
	return []QuestionType{QuestionTypeText, QuestionTypeSelect, QuestionTypeCheckbox, QuestionTypeRadio}
}

// IsValidQuestionType reports whether t names a supported question type.
func IsValidQuestionType(t string) bool {
	switch QuestionType(t) {
	case QuestionTypeText, QuestionTypeSelect, QuestionTypeCheckbox, QuestionTypeRadio:
		return true
	}
	return false
}

// RequiresOptions reports whether the question type needs a non-empty option list.
func (t QuestionType) RequiresOptions() bool {
	switch t {
	case QuestionTypeSelect, QuestionTypeCheckbox, QuestionTypeRadio:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID           int            `json:"id" yaml:"id"`
	Username     string         `json:"username" yaml:"username"`
	Email        sql.NullString `json:"email" yaml:"email"`
	PasswordHash sql.NullString `json:"-" yaml:"-"` // Omit from JSON responses
	IsAdmin      bool           `json:"is_admin" yaml:"is_admin"`
	LastActive   sql.NullTime   `json:"last_active" yaml:"last_active"`
	CreatedAt    time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" yaml:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for User to handle sql.NullString and sql.NullTime properly
func (u User) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID         int        `json:"id"`
		Username   string     `json:"username"`
		Email      *string    `json:"email"`
		IsAdmin    bool       `json:"is_admin"`
		LastActive *time.Time `json:"last_active"`
		CreatedAt  time.Time  `json:"created_at"`
		UpdatedAt  time.Time  `json:"updated_at"`
	}{
		ID:         u.ID,
		Username:   u.Username,
		Email:      nullStringToPointer(u.Email),
		IsAdmin:    u.IsAdmin,
		LastActive: nullTimeToPointer(u.LastActive),
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	})
}

// Helper functions for converting sql.Null types to pointers
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func nullTimeToPointer(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

func nullInt64ToPointer(ni sql.NullInt64) *int64 {
	if ni.Valid {
		return &ni.Int64
	}
	return nil
}

// Question represents a daily question that a user answers each day.
// AssignedUserID of NULL or 0 means the question is global (shown to everyone).
type Question struct {
	ID             int            `json:"id" yaml:"id"`
	Text           string         `json:"text" yaml:"text"`
	Type           QuestionType   `json:"type" yaml:"type"`
	Options        sql.NullString `json:"options" yaml:"options"` // comma-joined option list
	Active         bool           `json:"active" yaml:"active"`
	AssignedUserID sql.NullInt64  `json:"assigned_user_id" yaml:"assigned_user_id"`
	Description    sql.NullString `json:"description" yaml:"description"`
	IsRequired     bool           `json:"is_required" yaml:"is_required"`
	Category       string         `json:"category" yaml:"category"`
	CreatedAt      time.Time      `json:"created_at" yaml:"created_at"`
}

// OptionsList returns the question's options as a slice, empty for text questions.
func (q *Question) OptionsList() []string {
	return SplitOptions(q.Options)
}

// SplitOptions parses a stored comma-joined options column into a slice.
func SplitOptions(raw sql.NullString) []string {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return []string{}
	}
	parts := strings.Split(raw.String, ",")
	options := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	return options
}

// IsGlobal reports whether the question is visible to every user.
func (q *Question) IsGlobal() bool {
	return !q.AssignedUserID.Valid || q.AssignedUserID.Int64 == 0
}

// OwnedBy reports whether the question belongs to the given user's daily set:
// either global or assigned directly to them.
func (q *Question) OwnedBy(userID int) bool {
	return q.IsGlobal() || q.AssignedUserID.Int64 == int64(userID)
}

// MarshalJSON customizes JSON marshaling for Question, rendering the stored
// comma-joined options as a list.
func (q Question) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID             int          `json:"id"`
		Text           string       `json:"text"`
		Type           QuestionType `json:"type"`
		Options        []string     `json:"options"`
		Active         bool         `json:"active"`
		AssignedUserID *int64       `json:"assigned_user_id"`
		Description    *string      `json:"description"`
		IsRequired     bool         `json:"is_required"`
		Category       string       `json:"category"`
		CreatedAt      time.Time    `json:"created_at"`
	}{
		ID:             q.ID,
		Text:           q.Text,
		Type:           q.Type,
		Options:        q.OptionsList(),
		Active:         q.Active,
		AssignedUserID: nullInt64ToPointer(q.AssignedUserID),
		Description:    nullStringToPointer(q.Description),
		IsRequired:     q.IsRequired,
		Category:       q.Category,
		CreatedAt:      q.CreatedAt,
	})
}

// ParseOptionsInput normalizes free-form option input (one option per line,
// optionally prefixed with "-") into the stored comma-joined form.
func ParseOptionsInput(raw string) string {
	lines := strings.Split(raw, "\n")
	options := make([]string, 0, len(lines))
	for _, line := range lines {
		opt := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if opt != "" {
			options = append(options, opt)
		}
	}
	return strings.Join(options, ",")
}

// Response represents a single answer to a question on a particular day.
type Response struct {
	ID         int       `json:"id" yaml:"id"`
	QuestionID int       `json:"question_id" yaml:"question_id"`
	Answer     string    `json:"answer" yaml:"answer"`
	Date       time.Time `json:"date" yaml:"date"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// ResponseWithQuestion joins a response with its question for display.
type ResponseWithQuestion struct {
	Response
	QuestionText string       `json:"question_text" yaml:"question_text"`
	QuestionType QuestionType `json:"question_type" yaml:"question_type"`
	Category     string       `json:"category" yaml:"category"`
}

// DaySheetEntry is one row of a user's answer sheet for a single day: every
// question they own paired with that day's answer, if any.
type DaySheetEntry struct {
	QuestionID   int          `json:"question_id" yaml:"question_id"`
	QuestionText string       `json:"question_text" yaml:"question_text"`
	QuestionType QuestionType `json:"question_type" yaml:"question_type"`
	Options      []string     `json:"options" yaml:"options"`
	Category     string       `json:"category" yaml:"category"`
	IsRequired   bool         `json:"is_required" yaml:"is_required"`
	Answer       string       `json:"answer" yaml:"answer"`
	Answered     bool         `json:"answered" yaml:"answered"`
}

// ReconcileResult summarizes a daily answer submission: how many previous
// answers were replaced, how many new ones were written, and which submitted
// question ids were skipped because the user does not own them.
type ReconcileResult struct {
	Deleted            int   `json:"deleted" yaml:"deleted"`
	Inserted           int   `json:"inserted" yaml:"inserted"`
	SkippedQuestionIDs []int `json:"skipped_question_ids,omitempty" yaml:"skipped_question_ids,omitempty"`
}

// StatsSummary describes a user's answering activity as of a point in time.
type StatsSummary struct {
	TotalAssigned        int        `json:"total_assigned" yaml:"total_assigned"`
	AnsweredToday        int        `json:"answered_today" yaml:"answered_today"`
	PendingToday         int        `json:"pending_today" yaml:"pending_today"`
	CompletionPct        int        `json:"completion_pct" yaml:"completion_pct"`
	LastAnswerAt         *time.Time `json:"last_answer_at" yaml:"last_answer_at"`
	LastAnswerRelative   string     `json:"last_answer_relative" yaml:"last_answer_relative"`
	DistinctActiveDays   int        `json:"distinct_active_days" yaml:"distinct_active_days"`
	ConsecutiveDayStreak int        `json:"consecutive_day_streak" yaml:"consecutive_day_streak"`
}

// DailyActivity is one day of answering activity, used for weekly charts.
type DailyActivity struct {
	Date  time.Time `json:"date" yaml:"date"`
	Count int       `json:"count" yaml:"count"`
}

// MarshalJSON renders the activity date as YYYY-MM-DD.
func (d DailyActivity) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}{
		Date:  d.Date.Format("2006-01-02"),
		Count: d.Count,
	})
}

// UserActivitySummary is a per-user row on the admin dashboard.
type UserActivitySummary struct {
	UserID        int          `json:"user_id" yaml:"user_id"`
	Username      string       `json:"username" yaml:"username"`
	ResponseCount int          `json:"response_count" yaml:"response_count"`
	LastActive    sql.NullTime `json:"last_active" yaml:"last_active"`
}

// MarshalJSON handles the nullable last-active timestamp.
func (s UserActivitySummary) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		UserID        int        `json:"user_id"`
		Username      string     `json:"username"`
		ResponseCount int        `json:"response_count"`
		LastActive    *time.Time `json:"last_active"`
	}{
		UserID:        s.UserID,
		Username:      s.Username,
		ResponseCount: s.ResponseCount,
		LastActive:    nullTimeToPointer(s.LastActive),
	})
}

// AdminDashboard aggregates system-wide counts for the admin view.
type AdminDashboard struct {
	TotalUsers      int                   `json:"total_users" yaml:"total_users"`
	TotalQuestions  int                   `json:"total_questions" yaml:"total_questions"`
	ActiveQuestions int                   `json:"active_questions" yaml:"active_questions"`
	TotalResponses  int                   `json:"total_responses" yaml:"total_responses"`
	ResponsesToday  int                   `json:"responses_today" yaml:"responses_today"`
	Categories      []string              `json:"categories" yaml:"categories"`
	Users           []UserActivitySummary `json:"users" yaml:"users"`
}
