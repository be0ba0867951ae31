package handlers

import (
	"net/http"
	"strconv"
	"time"

	"dailyquestions/internal/api"
	"dailyquestions/internal/config"
	"dailyquestions/internal/observability"
	"dailyquestions/internal/services"
	contextutils "dailyquestions/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ResponseHandler handles daily response HTTP requests
type ResponseHandler struct {
	responseService services.ResponseServiceInterface
	config          *config.Config
	logger          *observability.Logger
}

// NewResponseHandler creates a new ResponseHandler instance
func NewResponseHandler(responseService services.ResponseServiceInterface, cfg *config.Config, logger *observability.Logger) *ResponseHandler {
	return &ResponseHandler{
		responseService: responseService,
		config:          cfg,
		logger:          logger,
	}
}

// dateQueryOrToday parses an optional YYYY-MM-DD value, defaulting to today.
func dateQueryOrToday(value string) (time.Time, error) {
	if value == "" {
		return contextutils.StartOfDay(time.Now()), nil
	}
	return contextutils.ParseDate(value)
}

// SubmitResponses replaces the authenticated user's answers for a day.
func (h *ResponseHandler) SubmitResponses(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_responses")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req api.SubmitResponsesRequest
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

	date, err := dateQueryOrToday(req.Date)
	if err != nil {
		HandleValidationError(c, "date", req.Date, "must be formatted as YYYY-MM-DD")
		return
	}

	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeDate(date.Format(contextutils.DateLayout)),
		observability.AttributeAnswerCount(len(req.Answers)),
	)

	result, err := h.responseService.ReconcileResponses(c.Request.Context(), userID, date, req.Answers)
	if err != nil {
		// The cause is logged server-side; the client gets a generic failure
		h.logger.Error(c.Request.Context(), "Failed to save responses", err, map[string]interface{}{
			"user_id": userID,
			"date":    date.Format(contextutils.DateLayout),
		})
		if contextutils.IsError(err, contextutils.ErrInvalidInput) || contextutils.IsError(err, contextutils.ErrInvalidResponseDate) {
			HandleAppError(c, err)
			return
		}
		StandardizeHTTPError(c, http.StatusInternalServerError, "Failed to save responses", "")
		return
	}

	span.SetAttributes(
		attribute.Int("responses.inserted", result.Inserted),
		attribute.Int("responses.skipped", len(result.SkippedQuestionIDs)),
	)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Responses saved",
		"result":  result,
	})
}

// GetResponsesForDay returns the user's answers for one day.
func (h *ResponseHandler) GetResponsesForDay(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_responses_for_day")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	date, err := dateQueryOrToday(c.Query("date"))
	if err != nil {
		HandleValidationError(c, "date", c.Query("date"), "must be formatted as YYYY-MM-DD")
		return
	}

	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeDate(date.Format(contextutils.DateLayout)),
	)

	responses, err := h.responseService.GetResponsesForDay(c.Request.Context(), userID, date)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":      date.Format(contextutils.DateLayout),
		"responses": responses,
	})
}

// GetDaySheet returns the user's answer sheet for a day: every owned active
// question with that day's answer, unanswered ones included.
func (h *ResponseHandler) GetDaySheet(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_day_sheet")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	date, err := dateQueryOrToday(c.Query("date"))
	if err != nil {
		HandleValidationError(c, "date", c.Query("date"), "must be formatted as YYYY-MM-DD")
		return
	}

	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeDate(date.Format(contextutils.DateLayout)),
	)

	sheet, err := h.responseService.GetDaySheet(c.Request.Context(), userID, date)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  date.Format(contextutils.DateLayout),
		"sheet": sheet,
	})
}

// GetResponseHistory returns the user's most recent answers across days.
func (h *ResponseHandler) GetResponseHistory(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_response_history")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			HandleValidationError(c, "limit", raw, "must be a positive integer")
			return
		}
		limit = parsed
	}

	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeLimit(limit),
	)

	responses, err := h.responseService.GetResponsesForUser(c.Request.Context(), userID, limit)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"responses": responses})
}
