package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"dailyquestions/internal/config"
	"dailyquestions/internal/models"
	"dailyquestions/internal/observability"
	contextutils "dailyquestions/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// QuestionServiceInterface defines the interface for question management.
type QuestionServiceInterface interface {
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestionByID(ctx context.Context, id int) (*models.Question, error)
	GetQuestionsForUser(ctx context.Context, userID int) ([]models.Question, error)
	GetAllQuestions(ctx context.Context) ([]models.Question, error)
	UpdateQuestion(ctx context.Context, question *models.Question) error
	SetQuestionActive(ctx context.Context, id int, active bool) error
	DeleteQuestion(ctx context.Context, id int) error
	GetOwnedQuestionIDs(ctx context.Context, userID int) (map[int]struct{}, error)
	GetCategories(ctx context.Context, userID int) ([]string, error)
}

// QuestionService provides methods for question management.
type QuestionService struct {
	db     *sql.DB
	cfg    *config.Config
	logger *observability.Logger
}

// questionSelectFields contains all question fields for SELECT queries
const questionSelectFields = `id, text, type, options, active, assigned_user_id, description, is_required, category, created_at`

// NewQuestionServiceWithLogger creates a new QuestionService instance with logger
func NewQuestionServiceWithLogger(db *sql.DB, cfg *config.Config, logger *observability.Logger) *QuestionService {
	return &QuestionService{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// normalizeQuestion validates and normalizes a question before persisting.
// Choice-type questions without options are downgraded to free text, and a
// missing category falls back to the default.
func (s *QuestionService) normalizeQuestion(question *models.Question) error {
	question.Text = strings.TrimSpace(question.Text)
	if question.Text == "" {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "question text cannot be empty")
	}

	if !models.IsValidQuestionType(string(question.Type)) {
		return contextutils.WrapErrorf(contextutils.ErrInvalidQuestionType, "unknown question type %q", question.Type)
	}

	if question.Type.RequiresOptions() && len(question.OptionsList()) == 0 {
		question.Type = models.QuestionTypeText
		question.Options = sql.NullString{}
	}
	if !question.Type.RequiresOptions() {
		question.Options = sql.NullString{}
	}

	if strings.TrimSpace(question.Category) == "" {
		question.Category = config.DefaultQuestionCategory
	}

	// Normalize a zero assignment to a NULL (global) one
	if question.AssignedUserID.Valid && question.AssignedUserID.Int64 == 0 {
		question.AssignedUserID = sql.NullInt64{}
	}

	return nil
}

// CreateQuestion persists a new question, filling in its ID and CreatedAt.
func (s *QuestionService) CreateQuestion(ctx context.Context, question *models.Question) (err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "create_question",
		observability.AttributeQuestionType(string(question.Type)),
		observability.AttributeCategory(question.Category),
	)
	defer observability.FinishSpan(span, &err)

	if err = s.normalizeQuestion(question); err != nil {
		return err
	}

	query := `INSERT INTO questions (text, type, options, active, assigned_user_id, description, is_required, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	now := time.Now()
	err = s.db.QueryRowContext(ctx, query,
		question.Text, question.Type, question.Options, question.Active,
		question.AssignedUserID, question.Description, question.IsRequired,
		question.Category, now,
	).Scan(&question.ID)
	if err != nil {
		return contextutils.WrapError(err, "failed to insert question")
	}
	question.CreatedAt = now

	span.SetAttributes(observability.AttributeQuestionID(question.ID))
	s.logger.Info(ctx, "Created question", map[string]interface{}{
		"question_id": question.ID,
		"type":        string(question.Type),
		"category":    question.Category,
	})
	return nil
}

// GetQuestionByID returns the question with the given id, or nil if absent.
func (s *QuestionService) GetQuestionByID(ctx context.Context, id int) (result0 *models.Question, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "get_question_by_id", observability.AttributeQuestionID(id))
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + questionSelectFields + ` FROM questions WHERE id = $1`
	question := &models.Question{}
	err = s.db.QueryRowContext(ctx, query, id).Scan(
		&question.ID, &question.Text, &question.Type, &question.Options,
		&question.Active, &question.AssignedUserID, &question.Description,
		&question.IsRequired, &question.Category, &question.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, contextutils.WrapError(err, "failed to query question")
	}
	return question, nil
}

// GetQuestionsForUser returns the active questions that make up the user's
// daily set: global questions plus those assigned directly to them, grouped
// by category.
func (s *QuestionService) GetQuestionsForUser(ctx context.Context, userID int) (result0 []models.Question, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "get_questions_for_user", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + questionSelectFields + ` FROM questions
		WHERE active = TRUE AND (assigned_user_id IS NULL OR assigned_user_id = 0 OR assigned_user_id = $1)
		ORDER BY category, id`
	questions, err := s.queryQuestions(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("questions.count", len(questions)))
	return questions, nil
}

// GetAllQuestions returns every question, inactive ones included, for the admin view.
func (s *QuestionService) GetAllQuestions(ctx context.Context) (result0 []models.Question, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "get_all_questions")
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + questionSelectFields + ` FROM questions ORDER BY category, id`
	questions, err := s.queryQuestions(ctx, query)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("questions.count", len(questions)))
	return questions, nil
}

// queryQuestions runs a question SELECT and scans the rows.
func (s *QuestionService) queryQuestions(ctx context.Context, query string, args ...interface{}) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query questions")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var questions []models.Question
	for rows.Next() {
		question := models.Question{}
		if scanErr := rows.Scan(
			&question.ID, &question.Text, &question.Type, &question.Options,
			&question.Active, &question.AssignedUserID, &question.Description,
			&question.IsRequired, &question.Category, &question.CreatedAt,
		); scanErr != nil {
			s.logger.Error(ctx, "Failed to scan question row", scanErr)
			continue
		}
		questions = append(questions, question)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "error iterating question rows")
	}

	return questions, nil
}

// UpdateQuestion updates an existing question's content and assignment.
func (s *QuestionService) UpdateQuestion(ctx context.Context, question *models.Question) (err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "update_question", observability.AttributeQuestionID(question.ID))
	defer observability.FinishSpan(span, &err)

	if err = s.normalizeQuestion(question); err != nil {
		return err
	}

	query := `UPDATE questions SET text = $1, type = $2, options = $3, assigned_user_id = $4,
		description = $5, is_required = $6, category = $7 WHERE id = $8`
	result, err := s.db.ExecContext(ctx, query,
		question.Text, question.Type, question.Options, question.AssignedUserID,
		question.Description, question.IsRequired, question.Category, question.ID,
	)
	if err != nil {
		return contextutils.WrapError(err, "failed to update question")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrQuestionNotFound, "question with ID %d not found", question.ID)
	}

	return nil
}

// SetQuestionActive toggles whether the question appears in daily sets.
func (s *QuestionService) SetQuestionActive(ctx context.Context, id int, active bool) (err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "set_question_active",
		observability.AttributeQuestionID(id),
		attribute.Bool("question.active", active),
	)
	defer observability.FinishSpan(span, &err)

	result, err := s.db.ExecContext(ctx, `UPDATE questions SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return contextutils.WrapError(err, "failed to update question active flag")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrQuestionNotFound, "question with ID %d not found", id)
	}

	return nil
}

// DeleteQuestion removes a question and all responses recorded against it.
func (s *QuestionService) DeleteQuestion(ctx context.Context, id int) (err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "delete_question", observability.AttributeQuestionID(id))
	defer observability.FinishSpan(span, &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return contextutils.WrapError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.logger.Error(ctx, "Failed to rollback transaction", rollbackErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM responses WHERE question_id = $1`, id); err != nil {
		return contextutils.WrapError(err, "failed to delete question responses")
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete question")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		err = contextutils.WrapErrorf(contextutils.ErrQuestionNotFound, "question with ID %d not found", id)
		return err
	}

	if err = tx.Commit(); err != nil {
		return contextutils.WrapError(err, "failed to commit transaction")
	}

	s.logger.Info(ctx, "Deleted question", map[string]interface{}{"question_id": id})
	return nil
}

// GetOwnedQuestionIDs returns the set of active question ids the user owns,
// i.e. global questions plus those assigned to them.
func (s *QuestionService) GetOwnedQuestionIDs(ctx context.Context, userID int) (result0 map[int]struct{}, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "get_owned_question_ids", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	query := `SELECT id FROM questions
		WHERE active = TRUE AND (assigned_user_id IS NULL OR assigned_user_id = 0 OR assigned_user_id = $1)`
	rows, err := s.db.QueryContext(ctx, query, userID)
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

	span.SetAttributes(attribute.Int("questions.count", len(owned)))
	return owned, nil
}

// GetCategories returns the distinct categories among the user's active
// questions, sorted alphabetically.
func (s *QuestionService) GetCategories(ctx context.Context, userID int) (result0 []string, err error) {
	ctx, span := observability.TraceQuestionFunction(ctx, "get_categories", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	query := `SELECT DISTINCT category FROM questions
		WHERE active = TRUE AND (assigned_user_id IS NULL OR assigned_user_id = 0 OR assigned_user_id = $1)
		ORDER BY category`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query question categories")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var categories []string
	for rows.Next() {
		var category string
		if scanErr := rows.Scan(&category); scanErr != nil {
			s.logger.Error(ctx, "Failed to scan category", scanErr)
			continue
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "error iterating category rows")
	}

	return categories, nil
}
