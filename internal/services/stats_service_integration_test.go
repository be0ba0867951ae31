//go:build integration
// +build integration

package services

import (
	"context"
	"testing"
	"time"

	"dailyquestions/internal/config"
	"dailyquestions/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsService_ComputeSummary(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	cfg := &config.Config{}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	statsService := NewStatsServiceWithLogger(db, cfg, logger)
	f := setupReconcileFixture(t, db)
	ctx := context.Background()

	asOf := mustParseDay(t, "2025-06-15").Add(18 * time.Hour)

	t.Run("no activity yields zeroes", func(t *testing.T) {
		summary := statsService.ComputeSummary(ctx, f.user.ID, asOf)
		require.NotNil(t, summary)
		assert.Equal(t, 3, summary.TotalAssigned)
		assert.Equal(t, 0, summary.AnsweredToday)
		assert.Equal(t, 3, summary.PendingToday)
		assert.Equal(t, 0, summary.CompletionPct)
		assert.Nil(t, summary.LastAnswerAt)
		assert.Equal(t, 0, summary.ConsecutiveDayStreak)
	})

	// Two non-blank answers and one blank for today, plus activity on the
	// two preceding days.
	for _, date := range []string{"2025-06-13", "2025-06-14"} {
		_, err := f.responseService.ReconcileResponses(ctx, f.user.ID, mustParseDay(t, date), map[int]string{f.mood.ID: "ok"})
		require.NoError(t, err)
	}
	_, err := f.responseService.ReconcileResponses(ctx, f.user.ID, mustParseDay(t, "2025-06-15"), map[int]string{
		f.mood.ID:     "good",
		f.sleep.ID:    "well",
		f.personal.ID: "   ",
	})
	require.NoError(t, err)

	t.Run("summary reflects activity", func(t *testing.T) {
		summary := statsService.ComputeSummary(ctx, f.user.ID, asOf)
		require.NotNil(t, summary)
		assert.Equal(t, 3, summary.TotalAssigned)
		assert.Equal(t, 2, summary.AnsweredToday, "blank answer should not count as answered")
		assert.Equal(t, 1, summary.PendingToday)
		assert.Equal(t, 67, summary.CompletionPct)
		require.NotNil(t, summary.LastAnswerAt)
		assert.NotEmpty(t, summary.LastAnswerRelative)
		assert.Equal(t, 3, summary.DistinctActiveDays)
		assert.Equal(t, 3, summary.ConsecutiveDayStreak)
	})

	t.Run("streak resets without activity today", func(t *testing.T) {
		nextWeek := mustParseDay(t, "2025-06-20")
		summary := statsService.ComputeSummary(ctx, f.user.ID, nextWeek)
		require.NotNil(t, summary)
		assert.Equal(t, 0, summary.ConsecutiveDayStreak)
		assert.Equal(t, 3, summary.DistinctActiveDays)
	})

	t.Run("failure yields zeroed summary", func(t *testing.T) {
		require.NoError(t, db.Close())
		summary := statsService.ComputeSummary(ctx, f.user.ID, asOf)
		require.NotNil(t, summary)
		assert.Equal(t, 0, summary.TotalAssigned)
		assert.Equal(t, 0, summary.AnsweredToday)
	})
}

func TestStatsService_GetWeeklyActivity(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	cfg := &config.Config{}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	statsService := NewStatsServiceWithLogger(db, cfg, logger)
	f := setupReconcileFixture(t, db)
	ctx := context.Background()

	_, err := f.responseService.ReconcileResponses(ctx, f.user.ID, mustParseDay(t, "2025-06-14"), map[int]string{
		f.mood.ID:  "ok",
		f.sleep.ID: "well",
	})
	require.NoError(t, err)
	_, err = f.responseService.ReconcileResponses(ctx, f.user.ID, mustParseDay(t, "2025-06-15"), map[int]string{f.mood.ID: "good"})
	require.NoError(t, err)

	activity, err := statsService.GetWeeklyActivity(ctx, f.user.ID, mustParseDay(t, "2025-06-15"))
	require.NoError(t, err)
	require.Len(t, activity, 7)

	assert.Equal(t, "2025-06-09", activity[0].Date.Format("2006-01-02"))
	assert.Equal(t, 0, activity[0].Count)
	assert.Equal(t, 2, activity[5].Count)
	assert.Equal(t, 1, activity[6].Count)
}

func TestStatsService_GetAdminDashboard(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	cfg := &config.Config{}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	statsService := NewStatsServiceWithLogger(db, cfg, logger)
	f := setupReconcileFixture(t, db)
	ctx := context.Background()

	_, err := f.responseService.ReconcileResponses(ctx, f.user.ID, mustParseDay(t, "2025-06-15"), map[int]string{f.mood.ID: "good"})
	require.NoError(t, err)

	dashboard, err := statsService.GetAdminDashboard(ctx)
	require.NoError(t, err)
	require.NotNil(t, dashboard)
	assert.Equal(t, 2, dashboard.TotalUsers)
	assert.Equal(t, 4, dashboard.TotalQuestions)
	assert.Equal(t, 4, dashboard.ActiveQuestions)
	assert.Equal(t, 1, dashboard.TotalResponses)
	assert.Equal(t, 0, dashboard.ResponsesToday)
	assert.Equal(t, []string{"General"}, dashboard.Categories)
	require.Len(t, dashboard.Users, 2)
	assert.Equal(t, "alice", dashboard.Users[0].Username)
}
