package handlers

import (
	"net/http"
	"time"

	"dailyquestions/internal/config"
	"dailyquestions/internal/observability"
	"dailyquestions/internal/services"
	contextutils "dailyquestions/internal/utils"

	"github.com/gin-gonic/gin"
)

// StatsHandler handles statistics HTTP requests
type StatsHandler struct {
	statsService services.StatsServiceInterface
	config       *config.Config
	logger       *observability.Logger
}

// NewStatsHandler creates a new StatsHandler instance
func NewStatsHandler(statsService services.StatsServiceInterface, cfg *config.Config, logger *observability.Logger) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		config:       cfg,
		logger:       logger,
	}
}

// asOfQueryOrNow parses an optional YYYY-MM-DD as-of value, defaulting to now.
func asOfQueryOrNow(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	return contextutils.ParseDate(value)
}

// GetSummary returns the user's answering summary.
func (h *StatsHandler) GetSummary(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_stats_summary")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	asOf, err := asOfQueryOrNow(c.Query("as_of"))
	if err != nil {
		HandleValidationError(c, "as_of", c.Query("as_of"), "must be formatted as YYYY-MM-DD")
		return
	}

	span.SetAttributes(observability.AttributeUserID(userID))

	summary := h.statsService.ComputeSummary(c.Request.Context(), userID, asOf)
	c.JSON(http.StatusOK, summary)
}

// GetWeeklyActivity returns per-day answer counts for the last seven days.
func (h *StatsHandler) GetWeeklyActivity(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_weekly_activity")
	defer observability.FinishSpan(span, nil)

	userID, ok := GetUserIDFromSession(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	asOf, err := asOfQueryOrNow(c.Query("as_of"))
	if err != nil {
		HandleValidationError(c, "as_of", c.Query("as_of"), "must be formatted as YYYY-MM-DD")
		return
	}

	span.SetAttributes(observability.AttributeUserID(userID))

	activity, err := h.statsService.GetWeeklyActivity(c.Request.Context(), userID, asOf)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

// GetAdminDashboard returns site-wide totals for the admin view.
func (h *StatsHandler) GetAdminDashboard(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_admin_dashboard")
	defer observability.FinishSpan(span, nil)

	dashboard, err := h.statsService.GetAdminDashboard(c.Request.Context())
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to build admin dashboard", err)
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
