package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"dailyquestions/internal/api"
	"dailyquestions/internal/config"
	"dailyquestions/internal/models"
	"dailyquestions/internal/observability"
	"dailyquestions/internal/services"
	contextutils "dailyquestions/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// QuestionHandler handles question management HTTP requests
type QuestionHandler struct {
	questionService services.QuestionServiceInterface
	config          *config.Config
	logger          *observability.Logger
}

// NewQuestionHandler creates a new QuestionHandler instance
func NewQuestionHandler(questionService services.QuestionServiceInterface, cfg *config.Config, logger *observability.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		config:          cfg,
		logger:          logger,
	}
}

// questionIDParam parses the :id path parameter.
func questionIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		HandleValidationError(c, "question id", c.Param("id"), "must be a positive integer")
		return 0, false
	}
	return id, true
}

// questionFromRequest builds a question from a create/update payload.
func questionFromRequest(text, questionType, options, description, category string, isRequired bool, assignedUserID *int) *models.Question {
	question := &models.Question{
		Text:        text,
		Type:        models.QuestionType(questionType),
		Description: sql.NullString{String: description, Valid: description != ""},
		Category:    category,
		IsRequired:  isRequired,
		Active:      true,
	}
	if parsed := models.ParseOptionsInput(options); parsed != "" {
		question.Options = sql.NullString{String: parsed, Valid: true}
	}
	if assignedUserID != nil {
		question.AssignedUserID = sql.NullInt64{Int64: int64(*assignedUserID), Valid: true}
	}
	return question
}

// ListQuestions returns the authenticated user's daily question set.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "list_questions")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	questions, err := h.questionService.GetQuestionsForUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to list questions", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("questions.count", len(questions)))
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// ListCategories returns the distinct categories among the user's questions.
func (h *QuestionHandler) ListCategories(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "list_categories")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	categories, err := h.questionService.GetCategories(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to list categories", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListAllQuestions returns every question, for the admin view.
func (h *QuestionHandler) ListAllQuestions(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "list_all_questions")
	defer observability.FinishSpan(span, nil)

	questions, err := h.questionService.GetAllQuestions(c.Request.Context())
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to list all questions", err)
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("questions.count", len(questions)))
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// GetQuestion returns a single question by id.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_question")
	defer observability.FinishSpan(span, nil)

	id, ok := questionIDParam(c)
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeQuestionID(id))

	question, err := h.questionService.GetQuestionByID(c.Request.Context(), id)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if question == nil {
		HandleAppError(c, contextutils.ErrQuestionNotFound)
		return
	}

	c.JSON(http.StatusOK, question)
}

// CreateQuestion creates a new question.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "create_question")
	defer observability.FinishSpan(span, nil)

	var req api.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return
	}

	question := questionFromRequest(req.Text, req.Type, req.Options, req.Description, req.Category, req.IsRequired, req.AssignedUserID)
	if err := h.questionService.CreateQuestion(c.Request.Context(), question); err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(observability.AttributeQuestionID(question.ID))
	c.JSON(http.StatusCreated, question)
}

// UpdateQuestion edits an existing question.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "update_question")
	defer observability.FinishSpan(span, nil)

	id, ok := questionIDParam(c)
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeQuestionID(id))

	var req api.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return
	}

	question := questionFromRequest(req.Text, req.Type, req.Options, req.Description, req.Category, req.IsRequired, req.AssignedUserID)
	question.ID = id
	if err := h.questionService.UpdateQuestion(c.Request.Context(), question); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// ToggleQuestionActive flips whether the question appears in daily sets.
func (h *QuestionHandler) ToggleQuestionActive(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "toggle_question_active")
	defer observability.FinishSpan(span, nil)

	id, ok := questionIDParam(c)
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeQuestionID(id))

	question, err := h.questionService.GetQuestionByID(c.Request.Context(), id)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if question == nil {
		HandleAppError(c, contextutils.ErrQuestionNotFound)
		return
	}

	if err := h.questionService.SetQuestionActive(c.Request.Context(), id, !question.Active); err != nil {
		HandleAppError(c, err)
		return
	}

	question.Active = !question.Active
	c.JSON(http.StatusOK, question)
}

// DeleteQuestion removes a question and its responses.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_question")
	defer observability.FinishSpan(span, nil)

	id, ok := questionIDParam(c)
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeQuestionID(id))

	if err := h.questionService.DeleteQuestion(c.Request.Context(), id); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.SuccessResponse{
		Success: true,
		Message: "Question deleted",
	})
}
