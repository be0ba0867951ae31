package services

import (
	"context"
	"errors"
	"testing"

	"dailyquestions/internal/config"
	"dailyquestions/internal/observability"
	contextutils "dailyquestions/internal/utils"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func newTestUserService() *UserService {
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	return NewUserServiceWithLogger(nil, &config.Config{}, logger)
}

func TestUserService_CreateUserWithPassword_Validation(t *testing.T) {
	service := newTestUserService()
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		email    string
	}{
		{name: "empty username", username: "", password: "secret", email: ""},
		{name: "whitespace username", username: "   ", password: "secret", email: ""},
		{name: "username too short", username: "ab", password: "secret", email: ""},
		{name: "username with spaces", username: "some user", password: "secret", email: ""},
		{name: "empty password", username: "validuser", password: "", email: ""},
		{name: "invalid email", username: "validuser", password: "secret", email: "not-an-email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := service.CreateUserWithPassword(ctx, tt.username, tt.password, tt.email)
			assert.Error(t, err)
			assert.Nil(t, user)
			assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
		})
	}
}

func TestUserService_UpdateUserPassword_EmptyPassword(t *testing.T) {
	service := newTestUserService()

	err := service.UpdateUserPassword(context.Background(), 1, "")
	assert.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}

func TestUserService_EnsureAdminUserExists_Validation(t *testing.T) {
	service := newTestUserService()
	ctx := context.Background()

	assert.Error(t, service.EnsureAdminUserExists(ctx, "", "password"))
	assert.Error(t, service.EnsureAdminUserExists(ctx, "admin", ""))
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.False(t, isDuplicateKeyError(nil))
	assert.False(t, isDuplicateKeyError(errors.New("some other error")))
	assert.False(t, isDuplicateKeyError(&pq.Error{Code: "23503"}))
	assert.True(t, isDuplicateKeyError(&pq.Error{Code: "23505"}))
}
