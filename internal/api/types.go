// Package api defines the request and response payloads of the HTTP API.
package api

// LoginRequest is the payload for password login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignupRequest is the payload for creating an account.
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email,omitempty"`
}

// CreateQuestionRequest is the payload for creating a question.
// Options accepts one option per line, optionally prefixed with "-".
type CreateQuestionRequest struct {
	Text           string `json:"text" binding:"required"`
	Type           string `json:"type" binding:"required"`
	Options        string `json:"options,omitempty"`
	Description    string `json:"description,omitempty"`
	Category       string `json:"category,omitempty"`
	IsRequired     bool   `json:"is_required,omitempty"`
	AssignedUserID *int   `json:"assigned_user_id,omitempty"`
}

// UpdateQuestionRequest is the payload for editing a question.
type UpdateQuestionRequest struct {
	Text           string `json:"text" binding:"required"`
	Type           string `json:"type" binding:"required"`
	Options        string `json:"options,omitempty"`
	Description    string `json:"description,omitempty"`
	Category       string `json:"category,omitempty"`
	IsRequired     bool   `json:"is_required,omitempty"`
	AssignedUserID *int   `json:"assigned_user_id,omitempty"`
}

// SubmitResponsesRequest is the payload for submitting a day's answers.
// Answers maps question id to the submitted answer text; multi-select
// answers arrive comma-joined. Date is optional YYYY-MM-DD, defaulting
// to today.
type SubmitResponsesRequest struct {
	Date    string         `json:"date,omitempty"`
	Answers map[int]string `json:"answers" binding:"required,min=1"`
}

// SuccessResponse is a generic acknowledgement payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// VersionResponse reports build information.
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}
