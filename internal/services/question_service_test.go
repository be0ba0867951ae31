package services

import (
	"database/sql"
	"testing"

	"dailyquestions/internal/config"
	"dailyquestions/internal/models"
	"dailyquestions/internal/observability"
	contextutils "dailyquestions/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuestionService() *QuestionService {
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	return NewQuestionServiceWithLogger(nil, &config.Config{}, logger)
}

func TestQuestionService_NormalizeQuestion(t *testing.T) {
	service := newTestQuestionService()

	t.Run("empty text rejected", func(t *testing.T) {
		question := &models.Question{Text: "  ", Type: models.QuestionTypeText}
		err := service.normalizeQuestion(question)
		assert.Error(t, err)
		assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		question := &models.Question{Text: "How was your day?", Type: "essay"}
		err := service.normalizeQuestion(question)
		assert.Error(t, err)
		assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidQuestionType))
	})

	t.Run("select without options downgrades to text", func(t *testing.T) {
		question := &models.Question{Text: "Mood?", Type: models.QuestionTypeSelect}
		require.NoError(t, service.normalizeQuestion(question))
		assert.Equal(t, models.QuestionTypeText, question.Type)
		assert.False(t, question.Options.Valid)
	})

	t.Run("select keeps options", func(t *testing.T) {
		question := &models.Question{
			Text:    "Mood?",
			Type:    models.QuestionTypeSelect,
			Options: sql.NullString{String: "good,bad", Valid: true},
		}
		require.NoError(t, service.normalizeQuestion(question))
		assert.Equal(t, models.QuestionTypeSelect, question.Type)
		assert.Equal(t, []string{"good", "bad"}, question.OptionsList())
	})

	t.Run("text type drops stray options", func(t *testing.T) {
		question := &models.Question{
			Text:    "Anything else?",
			Type:    models.QuestionTypeText,
			Options: sql.NullString{String: "yes,no", Valid: true},
		}
		require.NoError(t, service.normalizeQuestion(question))
		assert.False(t, question.Options.Valid)
	})

	t.Run("missing category gets default", func(t *testing.T) {
		question := &models.Question{Text: "Sleep hours?", Type: models.QuestionTypeText}
		require.NoError(t, service.normalizeQuestion(question))
		assert.Equal(t, config.DefaultQuestionCategory, question.Category)
	})

	t.Run("zero assignment becomes global", func(t *testing.T) {
		question := &models.Question{
			Text:           "Workout?",
			Type:           models.QuestionTypeCheckbox,
			Options:        sql.NullString{String: "yes,no", Valid: true},
			AssignedUserID: sql.NullInt64{Int64: 0, Valid: true},
		}
		require.NoError(t, service.normalizeQuestion(question))
		assert.False(t, question.AssignedUserID.Valid)
		assert.True(t, question.IsGlobal())
	})

	t.Run("text trimmed", func(t *testing.T) {
		question := &models.Question{Text: "  Gratitude?  ", Type: models.QuestionTypeText}
		require.NoError(t, service.normalizeQuestion(question))
		assert.Equal(t, "Gratitude?", question.Text)
	})
}
