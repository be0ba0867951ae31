package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"dailyquestions/internal/config"
	"dailyquestions/internal/models"
	"dailyquestions/internal/observability"
	contextutils "dailyquestions/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// ResponseServiceInterface defines the interface for daily response management.
type ResponseServiceInterface interface {
	ReconcileResponses(ctx context.Context, userID int, date time.Time, answers map[int]string) (*models.ReconcileResult, error)
	GetResponsesForDay(ctx context.Context, userID int, date time.Time) ([]models.ResponseWithQuestion, error)
	GetDaySheet(ctx context.Context, userID int, date time.Time) ([]models.DaySheetEntry, error)
	GetResponsesForUser(ctx context.Context, userID int, limit int) ([]models.ResponseWithQuestion, error)
}

// ResponseService provides methods for recording and reading daily responses.
type ResponseService struct {
	db     *sql.DB
	cfg    *config.Config
	logger *observability.Logger
}

// NewResponseServiceWithLogger creates a new ResponseService instance with logger
func NewResponseServiceWithLogger(db *sql.DB, cfg *config.Config, logger *observability.Logger) *ResponseService {
	return &ResponseService{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// ownedQuestionIDsTx loads the set of active question ids the user owns,
// inside the given transaction so the reconcile sees a consistent view.
func (s *ResponseService) ownedQuestionIDsTx(ctx context.Context, tx *sql.Tx, userID int) (map[int]struct{}, error) {
	query := `SELECT id FROM questions
		WHERE active = TRUE AND (assigned_user_id IS NULL OR assigned_user_id = 0 OR assigned_user_id = $1)`
	rows, err := tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query owned question ids")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	owned := make(map[int]struct{})
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			s.logger.Error(ctx, "Failed to scan question id", scanErr)
			continue
		}
		owned[id] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "error iterating question id rows")
	}
	return owned, nil
}

// ReconcileResponses replaces the user's answers for the given day in a single
// transaction: the day's existing responses are deleted and the submitted
// answers inserted in their place. Answers for questions the user does not own
// are skipped rather than failing the whole submission, and their ids are
// reported in the result. A user who owns no questions gets a no-op.
func (s *ResponseService) ReconcileResponses(ctx context.Context, userID int, date time.Time, answers map[int]string) (result0 *models.ReconcileResult, err error) {
	ctx, span := observability.TraceResponseFunction(ctx, "reconcile_responses",
		observability.AttributeUserID(userID),
		observability.AttributeDate(date.Format(contextutils.DateLayout)),
		observability.AttributeAnswerCount(len(answers)),
	)
	defer observability.FinishSpan(span, &err)

	if userID <= 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "user ID must be positive")
	}
	if date.IsZero() {
		return nil, contextutils.WrapError(contextutils.ErrInvalidResponseDate, "response date cannot be empty")
	}
	day := contextutils.StartOfDay(date)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.logger.Error(ctx, "Failed to rollback transaction", rollbackErr)
			}
		}
	}()

	owned, err := s.ownedQuestionIDsTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	result := &models.ReconcileResult{}
	if len(owned) == 0 {
		// Nothing to reconcile against: leave the day untouched.
		if err = tx.Commit(); err != nil {
			return nil, contextutils.WrapError(err, "failed to commit transaction")
		}
		s.logger.Info(ctx, "Reconcile skipped, user owns no questions", map[string]interface{}{"user_id": userID})
		return result, nil
	}

	deleteQuery := `DELETE FROM responses r USING questions q
		WHERE r.question_id = q.id
		AND (q.assigned_user_id IS NULL OR q.assigned_user_id = 0 OR q.assigned_user_id = $1)
		AND r.date::date = $2::date`
	deleteResult, err := tx.ExecContext(ctx, deleteQuery, userID, day)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to delete existing responses")
	}
	deleted, err := deleteResult.RowsAffected()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get rows affected")
	}
	result.Deleted = int(deleted)

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO responses (question_id, answer, date, created_at) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to prepare insert statement")
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close statement", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	questionIDs := make([]int, 0, len(answers))
	for questionID := range answers {
		questionIDs = append(questionIDs, questionID)
	}
	sort.Ints(questionIDs)

	// Stored timestamps carry the target date with the current time of day,
	// so same-day resubmissions keep a usable ordering.
	now := time.Now()
	stamp := day.Add(now.Sub(contextutils.StartOfDay(now)))
	for _, questionID := range questionIDs {
		if _, ok := owned[questionID]; !ok {
			result.SkippedQuestionIDs = append(result.SkippedQuestionIDs, questionID)
			s.logger.Warn(ctx, "Skipping answer for unowned question", map[string]interface{}{
				"user_id":     userID,
				"question_id": questionID,
			})
			continue
		}
		if _, err = stmt.ExecContext(ctx, questionID, answers[questionID], stamp, now); err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to insert response for question %d", questionID)
		}
		result.Inserted++
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(err, "failed to commit transaction")
	}

	span.SetAttributes(
		attribute.Int("responses.deleted", result.Deleted),
		attribute.Int("responses.inserted", result.Inserted),
		attribute.Int("responses.skipped", len(result.SkippedQuestionIDs)),
	)
	s.logger.Info(ctx, "Reconciled daily responses", map[string]interface{}{
		"user_id":  userID,
		"date":     day.Format(contextutils.DateLayout),
		"deleted":  result.Deleted,
		"inserted": result.Inserted,
		"skipped":  len(result.SkippedQuestionIDs),
	})
	return result, nil
}

// responseWithQuestionFields joins response rows with their question metadata.
const responseWithQuestionFields = `r.id, r.question_id, r.answer, r.date, r.created_at, q.text, q.type, q.category`

// GetResponsesForDay returns the user's responses for a single day, joined
// with the question text they answer.
func (s *ResponseService) GetResponsesForDay(ctx context.Context, userID int, date time.Time) (result0 []models.ResponseWithQuestion, err error) {
	ctx, span := observability.TraceResponseFunction(ctx, "get_responses_for_day",
		observability.AttributeUserID(userID),
		observability.AttributeDate(date.Format(contextutils.DateLayout)),
	)
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + responseWithQuestionFields + ` FROM responses r
		JOIN questions q ON q.id = r.question_id
		WHERE (q.assigned_user_id IS NULL OR q.assigned_user_id = 0 OR q.assigned_user_id = $1)
		AND r.date::date = $2::date
		ORDER BY q.category, q.id`
	return s.queryResponses(ctx, query, userID, contextutils.StartOfDay(date))
}

// GetDaySheet returns the user's answer sheet for a single day: every active
// question they own, left-joined with that day's answer so unanswered
// questions still appear.
func (s *ResponseService) GetDaySheet(ctx context.Context, userID int, date time.Time) (result0 []models.DaySheetEntry, err error) {
	ctx, span := observability.TraceResponseFunction(ctx, "get_day_sheet",
		observability.AttributeUserID(userID),
		observability.AttributeDate(date.Format(contextutils.DateLayout)),
	)
	defer observability.FinishSpan(span, &err)

	query := `SELECT q.id, q.text, q.type, q.options, q.category, q.is_required,
			COALESCE(r.answer, '') AS answer, r.id IS NOT NULL AS answered
		FROM questions q
		LEFT JOIN responses r ON r.question_id = q.id AND r.date::date = $2::date
		WHERE q.active = TRUE
		AND (q.assigned_user_id IS NULL OR q.assigned_user_id = 0 OR q.assigned_user_id = $1)
		ORDER BY q.category, q.id`
	rows, err := s.db.QueryContext(ctx, query, userID, contextutils.StartOfDay(date))
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query day sheet")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var entries []models.DaySheetEntry
	for rows.Next() {
		var entry models.DaySheetEntry
		var options sql.NullString
		if scanErr := rows.Scan(
			&entry.QuestionID, &entry.QuestionText, &entry.QuestionType, &options,
			&entry.Category, &entry.IsRequired, &entry.Answer, &entry.Answered,
		); scanErr != nil {
			s.logger.Error(ctx, "Failed to scan day sheet row", scanErr)
			continue
		}
		entry.Options = models.SplitOptions(options)
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "error iterating day sheet rows")
	}

	return entries, nil
}

// GetResponsesForUser returns the user's most recent responses across all days.
func (s *ResponseService) GetResponsesForUser(ctx context.Context, userID int, limit int) (result0 []models.ResponseWithQuestion, err error) {
	ctx, span := observability.TraceResponseFunction(ctx, "get_responses_for_user",
		observability.AttributeUserID(userID),
		observability.AttributeLimit(limit),
	)
	defer observability.FinishSpan(span, &err)

	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + responseWithQuestionFields + ` FROM responses r
		JOIN questions q ON q.id = r.question_id
		WHERE (q.assigned_user_id IS NULL OR q.assigned_user_id = 0 OR q.assigned_user_id = $1)
		ORDER BY r.date DESC, q.category, q.id
		LIMIT $2`
	return s.queryResponses(ctx, query, userID, limit)
}

// queryResponses runs a joined response SELECT and scans the rows.
func (s *ResponseService) queryResponses(ctx context.Context, query string, args ...interface{}) ([]models.ResponseWithQuestion, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query responses")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var responses []models.ResponseWithQuestion
	for rows.Next() {
		response := models.ResponseWithQuestion{}
		if scanErr := rows.Scan(
			&response.ID, &response.QuestionID, &response.Answer, &response.Date,
			&response.CreatedAt, &response.QuestionText, &response.QuestionType, &response.Category,
		); scanErr != nil {
			s.logger.Error(ctx, "Failed to scan response row", scanErr)
			continue
		}
		responses = append(responses, response)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "error iterating response rows")
	}

	return responses, nil
}
