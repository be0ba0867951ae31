package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	contextutils "dailyquestions/internal/utils"
)

func setupTestTracer() func() {
	// Set up a no-op tracer provider for testing
	tp := noop.NewTracerProvider()
	otel.SetTracerProvider(tp)

	// Return cleanup function
	return func() {
		otel.SetTracerProvider(nil)
	}
}

func setupGinWithSessions() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Setup sessions
	store := cookie.NewStore([]byte("test-secret-key"))
	router.Use(sessions.Sessions("test-session", store))

	return router
}

func TestGinMiddleware_BasicFunctionality(t *testing.T) {
	cleanup := setupTestTracer()
	defer cleanup()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware("test-service"))

	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "middleware working",
		})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "middleware working", resp["message"])
}

func TestGinMiddlewareWithErrorHandling_ClientError(t *testing.T) {
	cleanup := setupTestTracer()
	defer cleanup()

	router := setupGinWithSessions()
	router.Use(GinMiddlewareWithErrorHandling("test-service"))

	router.GET("/bad", func(c *gin.Context) {
		_ = c.Error(contextutils.ErrInvalidInput)
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
	})

	req, _ := http.NewRequest("GET", "/bad", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDetermineErrorSeverity(t *testing.T) {
	assert.Equal(t, string(contextutils.SeverityError), determineErrorSeverity(http.StatusInternalServerError, nil))
	assert.Equal(t, string(contextutils.SeverityWarn), determineErrorSeverity(http.StatusBadRequest, nil))
	assert.Equal(t, string(contextutils.SeverityInfo), determineErrorSeverity(http.StatusOK, nil))

	ginErrs := []*gin.Error{{Err: contextutils.ErrRecordNotFound}}
	assert.Equal(t, string(contextutils.SeverityInfo), determineErrorSeverity(http.StatusNotFound, ginErrs))
}
