package handlers

import (
	"net/http"
	"strconv"

	"dailyquestions/internal/api"
	"dailyquestions/internal/config"
	"dailyquestions/internal/middleware"
	"dailyquestions/internal/observability"
	"dailyquestions/internal/services"
	contextutils "dailyquestions/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// AdminHandler handles admin user-management HTTP requests
type AdminHandler struct {
	userService services.UserServiceInterface
	config      *config.Config
	logger      *observability.Logger
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(userService services.UserServiceInterface, cfg *config.Config, logger *observability.Logger) *AdminHandler {
	return &AdminHandler{
		userService: userService,
		config:      cfg,
		logger:      logger,
	}
}

func userIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		HandleValidationError(c, "user id", c.Param("id"), "must be a positive integer")
		return 0, false
	}
	return id, true
}

// ListUsers returns every registered user.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_list_users")
	defer observability.FinishSpan(span, nil)

	users, err := h.userService.GetAllUsers(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("users.count", len(users)))
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// DeleteUser removes a user along with their questions and responses.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_delete_user")
	defer observability.FinishSpan(span, nil)

	id, ok := userIDParam(c)
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeUserID(id))

	// An admin cannot delete their own account
	if sessionUserID := c.GetInt(middleware.UserIDKey); sessionUserID == id {
		HandleAppError(c, contextutils.WrapError(contextutils.ErrInvalidInput, "cannot delete your own account"))
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.SuccessResponse{
		Success: true,
		Message: "User deleted",
	})
}

// SetUserAdmin grants or revokes admin privileges.
func (h *AdminHandler) SetUserAdmin(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "admin_set_user_admin")
	defer observability.FinishSpan(span, nil)

	id, ok := userIDParam(c)
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeUserID(id))

	var req struct {
		IsAdmin bool `json:"is_admin"`
	}
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

	if err := h.userService.SetAdmin(c.Request.Context(), id, req.IsAdmin); err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(attribute.Bool("user.is_admin", req.IsAdmin))
	c.JSON(http.StatusOK, api.SuccessResponse{
		Success: true,
		Message: "Admin flag updated",
	})
}
