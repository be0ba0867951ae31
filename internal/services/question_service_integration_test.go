//go:build integration
// +build integration

package services

import (
	"context"
	"database/sql"
	"testing"

	"dailyquestions/internal/config"
	"dailyquestions/internal/models"
	"dailyquestions/internal/observability"
	contextutils "dailyquestions/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntegrationQuestionService(t *testing.T, db *sql.DB) *QuestionService {
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	return NewQuestionServiceWithLogger(db, &config.Config{}, logger)
}

func TestQuestionService_CreateAndGet(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	questionService := newIntegrationQuestionService(t, db)
	ctx := context.Background()

	question := &models.Question{
		Text:    "How did you sleep?",
		Type:    models.QuestionTypeSelect,
		Options: sql.NullString{String: "well,poorly", Valid: true},
		Active:  true,
	}
	require.NoError(t, questionService.CreateQuestion(ctx, question))
	require.NotZero(t, question.ID)
	assert.Equal(t, config.DefaultQuestionCategory, question.Category)

	fetched, err := questionService.GetQuestionByID(ctx, question.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "How did you sleep?", fetched.Text)
	assert.Equal(t, []string{"well", "poorly"}, fetched.OptionsList())
	assert.True(t, fetched.IsGlobal())

	missing, err := questionService.GetQuestionByID(ctx, 99999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestQuestionService_GetQuestionsForUser(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	cfg := &config.Config{}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	userService := NewUserServiceWithLogger(db, cfg, logger)
	questionService := newIntegrationQuestionService(t, db)
	ctx := context.Background()

	alice, err := userService.CreateUserWithPassword(ctx, "alice", "password", "")
	require.NoError(t, err)
	bob, err := userService.CreateUserWithPassword(ctx, "bob", "password", "")
	require.NoError(t, err)

	global := &models.Question{Text: "Mood?", Type: models.QuestionTypeText, Active: true}
	require.NoError(t, questionService.CreateQuestion(ctx, global))

	aliceOnly := &models.Question{
		Text:           "Practice piano?",
		Type:           models.QuestionTypeText,
		Active:         true,
		AssignedUserID: sql.NullInt64{Int64: int64(alice.ID), Valid: true},
	}
	require.NoError(t, questionService.CreateQuestion(ctx, aliceOnly))

	inactive := &models.Question{Text: "Retired question", Type: models.QuestionTypeText, Active: false}
	require.NoError(t, questionService.CreateQuestion(ctx, inactive))

	aliceQuestions, err := questionService.GetQuestionsForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceQuestions, 2)

	bobQuestions, err := questionService.GetQuestionsForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobQuestions, 1)
	assert.Equal(t, global.ID, bobQuestions[0].ID)

	owned, err := questionService.GetOwnedQuestionIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)
	_, hasPersonal := owned[aliceOnly.ID]
	assert.True(t, hasPersonal)

	all, err := questionService.GetAllQuestions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestQuestionService_UpdateAndToggle(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	questionService := newIntegrationQuestionService(t, db)
	ctx := context.Background()

	question := &models.Question{Text: "Original?", Type: models.QuestionTypeText, Active: true}
	require.NoError(t, questionService.CreateQuestion(ctx, question))

	question.Text = "Updated?"
	question.Category = "Health"
	require.NoError(t, questionService.UpdateQuestion(ctx, question))

	fetched, err := questionService.GetQuestionByID(ctx, question.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated?", fetched.Text)
	assert.Equal(t, "Health", fetched.Category)

	require.NoError(t, questionService.SetQuestionActive(ctx, question.ID, false))
	fetched, err = questionService.GetQuestionByID(ctx, question.ID)
	require.NoError(t, err)
	assert.False(t, fetched.Active)

	t.Run("update missing question", func(t *testing.T) {
		ghost := &models.Question{ID: 99999, Text: "Ghost?", Type: models.QuestionTypeText}
		err := questionService.UpdateQuestion(ctx, ghost)
		require.Error(t, err)
		assert.True(t, contextutils.IsError(err, contextutils.ErrQuestionNotFound))
	})

	t.Run("toggle missing question", func(t *testing.T) {
		err := questionService.SetQuestionActive(ctx, 99999, true)
		require.Error(t, err)
		assert.True(t, contextutils.IsError(err, contextutils.ErrQuestionNotFound))
	})
}

func TestQuestionService_GetCategories(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	cfg := &config.Config{}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	userService := NewUserServiceWithLogger(db, cfg, logger)
	questionService := newIntegrationQuestionService(t, db)
	ctx := context.Background()

	alice, err := userService.CreateUserWithPassword(ctx, "alice", "password", "")
	require.NoError(t, err)
	bob, err := userService.CreateUserWithPassword(ctx, "bob", "password", "")
	require.NoError(t, err)

	for _, q := range []*models.Question{
		{Text: "Mood?", Type: models.QuestionTypeText, Active: true},
		{Text: "Hours slept?", Type: models.QuestionTypeText, Active: true, Category: "Health"},
		{Text: "Steps?", Type: models.QuestionTypeText, Active: true, Category: "Health"},
		{
			Text:           "Bob's question",
			Type:           models.QuestionTypeText,
			Active:         true,
			Category:       "Work",
			AssignedUserID: sql.NullInt64{Int64: int64(bob.ID), Valid: true},
		},
		{Text: "Retired question", Type: models.QuestionTypeText, Active: false, Category: "Archive"},
	} {
		require.NoError(t, questionService.CreateQuestion(ctx, q))
	}

	// Alice sees globals only: bob's category and the inactive one stay out
	categories, err := questionService.GetCategories(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{config.DefaultQuestionCategory, "Health"}, categories)

	bobCategories, err := questionService.GetCategories(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{config.DefaultQuestionCategory, "Health", "Work"}, bobCategories)
}

func TestQuestionService_DeleteQuestionCascades(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	cfg := &config.Config{}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	userService := NewUserServiceWithLogger(db, cfg, logger)
	questionService := newIntegrationQuestionService(t, db)
	responseService := NewResponseServiceWithLogger(db, cfg, logger)
	ctx := context.Background()

	user, err := userService.CreateUserWithPassword(ctx, "alice", "password", "")
	require.NoError(t, err)

	question := &models.Question{Text: "Mood?", Type: models.QuestionTypeText, Active: true}
	require.NoError(t, questionService.CreateQuestion(ctx, question))

	day := mustParseDay(t, "2025-06-15")
	_, err = responseService.ReconcileResponses(ctx, user.ID, day, map[int]string{question.ID: "fine"})
	require.NoError(t, err)

	require.NoError(t, questionService.DeleteQuestion(ctx, question.ID))

	gone, err := questionService.GetQuestionByID(ctx, question.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	responses, err := responseService.GetResponsesForDay(ctx, user.ID, day)
	require.NoError(t, err)
	assert.Empty(t, responses)

	err = questionService.DeleteQuestion(ctx, question.ID)
	require.Error(t, err)
	assert.True(t, contextutils.IsError(err, contextutils.ErrQuestionNotFound))
}
