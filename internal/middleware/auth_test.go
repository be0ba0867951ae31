package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAdminService struct {
	isAdmin    bool
	err        error
	lastUserID int
}

func (m *mockAdminService) IsAdmin(_ context.Context, userID int) (bool, error) {
	m.lastUserID = userID
	return m.isAdmin, m.err
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("test-session", store))
	return router
}

func setSessionCookie(t *testing.T, router *gin.Engine, values map[string]interface{}) *http.Cookie {
	setupPath := "/setup-session-" + t.Name()
	router.GET(setupPath, func(c *gin.Context) {
		session := sessions.Default(c)
		for k, v := range values {
			session.Set(k, v)
		}
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", setupPath, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestRequireAuth_Success(t *testing.T) {
	router := newTestRouter()
	cookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   42,
		UsernameKey: "alice",
	})

	router.GET("/resource", RequireAuth(), func(c *gin.Context) {
		assert.Equal(t, 42, c.GetInt(UserIDKey))
		assert.Equal(t, "alice", c.GetString(UsernameKey))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest("GET", "/resource", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_Float64UserID(t *testing.T) {
	router := newTestRouter()
	cookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   float64(7),
		UsernameKey: "bob",
	})

	router.GET("/resource", RequireAuth(), func(c *gin.Context) {
		assert.Equal(t, 7, c.GetInt(UserIDKey))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest("GET", "/resource", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_NoSession(t *testing.T) {
	router := newTestRouter()
	router.GET("/resource", RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	req := httptest.NewRequest("GET", "/resource", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestRequireAuth_MissingUsername(t *testing.T) {
	router := newTestRouter()
	cookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey: 42,
	})

	router.GET("/resource", RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	req := httptest.NewRequest("GET", "/resource", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin_Success(t *testing.T) {
	router := newTestRouter()
	cookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   1,
		UsernameKey: "admin",
	})

	mock := &mockAdminService{isAdmin: true}
	router.GET("/admin", RequireAdmin(mock), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, mock.lastUserID)
}

func TestRequireAdmin_Forbidden(t *testing.T) {
	router := newTestRouter()
	cookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   2,
		UsernameKey: "mortal",
	})

	mock := &mockAdminService{isAdmin: false}
	router.GET("/admin", RequireAdmin(mock), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")
}

func TestRequireAdmin_CheckError(t *testing.T) {
	router := newTestRouter()
	cookie := setSessionCookie(t, router, map[string]interface{}{
		UserIDKey:   3,
		UsernameKey: "carol",
	})

	mock := &mockAdminService{err: errors.New("db down")}
	router.GET("/admin", RequireAdmin(mock), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAdmin_NoSession(t *testing.T) {
	router := newTestRouter()
	mock := &mockAdminService{isAdmin: true}
	router.GET("/admin", RequireAdmin(mock), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"should": "not happen"})
	})

	req := httptest.NewRequest("GET", "/admin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
