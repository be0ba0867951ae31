// Package services contains the business logic for users, questions,
// responses, and statistics.
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

	"github.com/lib/pq"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceInterface defines the interface for user-related operations.
// This allows for easier mocking in tests.
type UserServiceInterface interface {
	CreateUserWithPassword(ctx context.Context, username, password, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, userID int, newPassword string) error
	UpdateLastActive(ctx context.Context, userID int) error
	GetAllUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, userID int) error
	SetAdmin(ctx context.Context, userID int, isAdmin bool) error
	IsAdmin(ctx context.Context, userID int) (bool, error)
	EnsureAdminUserExists(ctx context.Context, adminUsername, adminPassword string) error
	ResetDatabase(ctx context.Context) error
	GetDB() *sql.DB
}

// UserService provides methods for user management.
type UserService struct {
	db     *sql.DB
	cfg    *config.Config
	logger *observability.Logger
}

// userSelectFields contains all user fields for SELECT queries
const userSelectFields = `id, username, email, password_hash, is_admin, last_active, created_at, updated_at`

// scanUserFromRow scans a database row into a models.User struct
func (s *UserService) scanUserFromRow(row *sql.Row) (result0 *models.User, err error) {
	user := &models.User{}
	err = row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsAdmin, &user.LastActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// getUserByQuery is a shared method for getting a user by any query
func (s *UserService) getUserByQuery(ctx context.Context, query string, args ...interface{}) (result0 *models.User, err error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	var user *models.User
	user, err = s.scanUserFromRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found is not an error here
		}
		return nil, err
	}
	return user, nil
}

// NewUserServiceWithLogger creates a new UserService instance with logger
func NewUserServiceWithLogger(db *sql.DB, cfg *config.Config, logger *observability.Logger) *UserService {
	return &UserService{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// CreateUserWithPassword creates a new user with password authentication.
// Email is optional and stored as NULL when empty.
func (s *UserService) CreateUserWithPassword(ctx context.Context, username, password, email string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "create_user_with_password", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)

	// Validate username is not empty
	if len(strings.TrimSpace(username)) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "username cannot be empty")
	}
	if !contextutils.IsValidUsername(username) {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "username must be 3-50 characters with no spaces")
	}
	if password == "" {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "password cannot be empty")
	}
	if email != "" && !contextutils.IsValidEmail(email) {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "invalid email address")
	}

	// Hash the password using bcrypt
	var hashedPassword []byte
	hashedPassword, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var emailValue sql.NullString
	if email != "" {
		emailValue = sql.NullString{String: email, Valid: true}
	}

	query := `INSERT INTO users (username, email, password_hash, is_admin, last_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	now := time.Now()
	var id int
	err = s.db.QueryRowContext(ctx, query, username, emailValue, string(hashedPassword), false, now, now, now).Scan(&id)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, contextutils.ErrRecordExists
		}
		return nil, err
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "user was created but could not be retrieved from database")
	}

	return user, nil
}

// AuthenticateUser verifies a username/password pair and returns the user on success.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "authenticate_user", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)
	// Get user by username
	var user *models.User
	user, err = s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidCredentials, "user not found")
	}

	// Check if password hash exists
	if !user.PasswordHash.Valid {
		return nil, contextutils.WrapError(contextutils.ErrInvalidCredentials, "user has no password set")
	}

	// Compare provided password with stored hash
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(password))
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidCredentials, "invalid password")
	}

	return user, nil
}

// GetUserByID returns the user with the given id, or nil if absent.
func (s *UserService) GetUserByID(ctx context.Context, id int) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_id", attribute.Int("user.id", id))
	defer observability.FinishSpan(span, &err)
	query := `SELECT ` + userSelectFields + ` FROM users WHERE id = $1`
	return s.getUserByQuery(ctx, query, id)
}

// GetUserByUsername returns the user with the given username, or nil if absent.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_username", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)
	query := `SELECT ` + userSelectFields + ` FROM users WHERE username = $1`
	return s.getUserByQuery(ctx, query, username)
}

// GetUserByEmail returns the user with the given email, or nil if absent.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_email")
	defer observability.FinishSpan(span, &err)
	query := `SELECT ` + userSelectFields + ` FROM users WHERE email = $1`
	return s.getUserByQuery(ctx, query, email)
}

// UpdateUserPassword sets a new bcrypt-hashed password for the user.
func (s *UserService) UpdateUserPassword(ctx context.Context, userID int, newPassword string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_user_password", attribute.Int("user.id", userID))
	defer observability.FinishSpan(span, &err)

	if newPassword == "" {
		return contextutils.WrapError(contextutils.ErrInvalidInput, "password cannot be empty")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return contextutils.WrapError(err, "failed to hash password")
	}

	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, string(hashedPassword), time.Now(), userID)
	if err != nil {
		return contextutils.WrapError(err, "failed to update password")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user with ID %d not found", userID)
	}

	return nil
}

// UpdateLastActive records the user's most recent activity timestamp.
func (s *UserService) UpdateLastActive(ctx context.Context, userID int) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_last_active", attribute.Int("user.id", userID))
	defer observability.FinishSpan(span, &err)

	query := `UPDATE users SET last_active = $1 WHERE id = $2`
	var result sql.Result
	result, err = s.db.ExecContext(ctx, query, time.Now(), userID)
	if err != nil {
		return contextutils.WrapError(err, "failed to update user last active timestamp")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user with ID %d not found", userID)
	}

	return nil
}

// GetAllUsers returns every user ordered by username.
func (s *UserService) GetAllUsers(ctx context.Context) (result0 []models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_all_users")
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + userSelectFields + ` FROM users ORDER BY username`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query users")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var users []models.User
	for rows.Next() {
		user := models.User{}
		if scanErr := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.IsAdmin, &user.LastActive, &user.CreatedAt, &user.UpdatedAt,
		); scanErr != nil {
			s.logger.Error(ctx, "Failed to scan user row", scanErr)
			continue
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "error iterating user rows")
	}

	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users, nil
}

// DeleteUser removes a user along with their questions and responses.
func (s *UserService) DeleteUser(ctx context.Context, userID int) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "delete_user", attribute.Int("user.id", userID))
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

	// Responses to the user's personal questions go first, then the
	// questions, then the user row itself.
	if _, err = tx.ExecContext(ctx, `DELETE FROM responses WHERE question_id IN (SELECT id FROM questions WHERE assigned_user_id = $1)`, userID); err != nil {
		return contextutils.WrapError(err, "failed to delete user responses")
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM questions WHERE assigned_user_id = $1`, userID); err != nil {
		return contextutils.WrapError(err, "failed to delete user questions")
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return contextutils.WrapError(err, "failed to delete user")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		err = contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user with ID %d not found", userID)
		return err
	}

	if err = tx.Commit(); err != nil {
		return contextutils.WrapError(err, "failed to commit transaction")
	}

	s.logger.Info(ctx, "Deleted user", map[string]interface{}{"user_id": userID})
	return nil
}

// SetAdmin grants or revokes admin privileges for a user.
func (s *UserService) SetAdmin(ctx context.Context, userID int, isAdmin bool) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "set_admin",
		attribute.Int("user.id", userID),
		attribute.Bool("user.is_admin", isAdmin),
	)
	defer observability.FinishSpan(span, &err)

	query := `UPDATE users SET is_admin = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, isAdmin, time.Now(), userID)
	if err != nil {
		return contextutils.WrapError(err, "failed to update admin flag")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user with ID %d not found", userID)
	}

	return nil
}

// IsAdmin reports whether the user has admin privileges.
func (s *UserService) IsAdmin(ctx context.Context, userID int) (result0 bool, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "is_admin", attribute.Int("user.id", userID))
	defer observability.FinishSpan(span, &err)

	var isAdmin bool
	err = s.db.QueryRowContext(ctx, `SELECT is_admin FROM users WHERE id = $1`, userID).Scan(&isAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, contextutils.WrapError(err, "failed to query admin flag")
	}
	return isAdmin, nil
}

// EnsureAdminUserExists creates the configured admin account on startup,
// updating its password and admin flag if they have drifted.
func (s *UserService) EnsureAdminUserExists(ctx context.Context, adminUsername, adminPassword string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "ensure_admin_user_exists", attribute.String("admin.username", adminUsername))
	defer observability.FinishSpan(span, &err)

	if adminUsername == "" {
		return contextutils.ErrorWithContextf("admin username cannot be empty")
	}
	if adminPassword == "" {
		return contextutils.ErrorWithContextf("admin password cannot be empty")
	}

	var existingUser *models.User
	existingUser, err = s.GetUserByUsername(ctx, adminUsername)
	if err != nil {
		return contextutils.WrapError(err, "failed to check if admin user exists")
	}

	if existingUser != nil {
		if !existingUser.IsAdmin {
			if adminErr := s.SetAdmin(ctx, existingUser.ID, true); adminErr != nil {
				s.logger.Warn(ctx, "Failed to set admin flag on existing admin user", map[string]interface{}{"error": adminErr.Error()})
			}
		}

		if existingUser.PasswordHash.Valid {
			if bcrypt.CompareHashAndPassword([]byte(existingUser.PasswordHash.String), []byte(adminPassword)) == nil {
				s.logger.Info(ctx, "Admin user already exists with correct password", map[string]interface{}{"username": adminUsername})
				return nil
			}
		}

		if err = s.UpdateUserPassword(ctx, existingUser.ID, adminPassword); err != nil {
			return contextutils.WrapError(err, "failed to update admin user password")
		}
		s.logger.Info(ctx, "Updated password for admin user", map[string]interface{}{"username": adminUsername})
		return nil
	}

	user, err := s.CreateUserWithPassword(ctx, adminUsername, adminPassword, "")
	if err != nil {
		return contextutils.WrapError(err, "failed to create admin user")
	}
	if err = s.SetAdmin(ctx, user.ID, true); err != nil {
		return contextutils.WrapError(err, "failed to grant admin privileges")
	}

	s.logger.Info(ctx, "Created admin user", map[string]interface{}{"username": adminUsername})
	return nil
}

// ResetDatabase deletes all application data. Intended for the admin CLI only.
func (s *UserService) ResetDatabase(ctx context.Context) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "reset_database")
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

	// Order matters: responses reference questions.
	for _, table := range []string{"responses", "questions", "users"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return contextutils.WrapErrorf(err, "failed to clear table %s", table)
		}
	}

	if err = tx.Commit(); err != nil {
		return contextutils.WrapError(err, "failed to commit transaction")
	}

	s.logger.Warn(ctx, "Database reset: all users, questions, and responses deleted")
	return nil
}

// GetDB exposes the underlying database handle for test helpers.
func (s *UserService) GetDB() *sql.DB {
	return s.db
}

// isDuplicateKeyError checks for a PostgreSQL unique constraint violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	// PostgreSQL error code 23505 is for unique constraint violations
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" {
			return true
		}
	}

	return false
}
