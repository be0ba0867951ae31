package services

import (
	"context"
	"database/sql"
	"math"
	"time"

	"dailyquestions/internal/config"
	"dailyquestions/internal/models"
	"dailyquestions/internal/observability"
	contextutils "dailyquestions/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// StatsServiceInterface defines the interface for response statistics.
type StatsServiceInterface interface {
	ComputeSummary(ctx context.Context, userID int, asOf time.Time) *models.StatsSummary
	GetWeeklyActivity(ctx context.Context, userID int, asOf time.Time) ([]models.DailyActivity, error)
	GetAdminDashboard(ctx context.Context) (*models.AdminDashboard, error)
}

// StatsService computes per-user answering statistics.
type StatsService struct {
	db     *sql.DB
	cfg    *config.Config
	logger *observability.Logger
}

// NewStatsServiceWithLogger creates a new StatsService instance with logger
func NewStatsServiceWithLogger(db *sql.DB, cfg *config.Config, logger *observability.Logger) *StatsService {
	return &StatsService{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// ownedResponsesFilter joins responses to the user's question set.
const ownedResponsesFilter = `FROM responses r
	JOIN questions q ON q.id = r.question_id
	WHERE (q.assigned_user_id IS NULL OR q.assigned_user_id = 0 OR q.assigned_user_id = $1)`

// ComputeSummary builds the user's dashboard summary as of the given moment.
// Statistics are decoration on the dashboard, so a database failure never
// propagates: the error is logged and a zeroed summary returned instead.
func (s *StatsService) ComputeSummary(ctx context.Context, userID int, asOf time.Time) *models.StatsSummary {
	ctx, span := observability.TraceStatsFunction(ctx, "compute_summary",
		observability.AttributeUserID(userID),
		observability.AttributeDate(asOf.Format(contextutils.DateLayout)),
	)
	defer span.End()

	summary, err := s.computeSummary(ctx, userID, asOf)
	if err != nil {
		s.logger.Error(ctx, "Failed to compute stats summary", err, map[string]interface{}{"user_id": userID})
		return &models.StatsSummary{}
	}

	span.SetAttributes(
		attribute.Int("stats.total_assigned", summary.TotalAssigned),
		attribute.Int("stats.answered_today", summary.AnsweredToday),
		attribute.Int("stats.streak", summary.ConsecutiveDayStreak),
	)
	return summary
}

func (s *StatsService) computeSummary(ctx context.Context, userID int, asOf time.Time) (*models.StatsSummary, error) {
	summary := &models.StatsSummary{}
	day := contextutils.StartOfDay(asOf)

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions
		WHERE active = TRUE AND (assigned_user_id IS NULL OR assigned_user_id = 0 OR assigned_user_id = $1)`,
		userID).Scan(&summary.TotalAssigned)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to count assigned questions")
	}

	// Blank answers mark the day as active but do not count as answered.
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) `+ownedResponsesFilter+
		` AND r.date::date = $2::date AND TRIM(r.answer) <> ''`,
		userID, day).Scan(&summary.AnsweredToday)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to count today's answers")
	}

	summary.PendingToday = summary.TotalAssigned - summary.AnsweredToday
	if summary.PendingToday < 0 {
		summary.PendingToday = 0
	}
	if summary.TotalAssigned > 0 {
		summary.CompletionPct = int(math.Round(float64(summary.AnsweredToday) / float64(summary.TotalAssigned) * 100))
	}

	var lastAnswer sql.NullTime
	err = s.db.QueryRowContext(ctx, `SELECT MAX(r.created_at) `+ownedResponsesFilter, userID).Scan(&lastAnswer)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query last answer time")
	}
	if lastAnswer.Valid {
		t := lastAnswer.Time
		summary.LastAnswerAt = &t
		summary.LastAnswerRelative = contextutils.FormatRelativeTime(t, asOf)
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT r.date::date) `+ownedResponsesFilter, userID).
		Scan(&summary.DistinctActiveDays)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to count active days")
	}

	days, err := s.activeDays(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary.ConsecutiveDayStreak = computeStreak(days, asOf)

	return summary, nil
}

// activeDays returns the distinct days with any recorded response, newest first.
func (s *StatsService) activeDays(ctx context.Context, userID int) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT r.date::date AS day `+ownedResponsesFilter+
		` ORDER BY day DESC`, userID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query active days")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if scanErr := rows.Scan(&day); scanErr != nil {
			s.logger.Error(ctx, "Failed to scan day row", scanErr)
			continue
		}
		days = append(days, day)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "error iterating day rows")
	}
	return days, nil
}

// computeStreak counts consecutive active days ending on asOf's date. Days
// must be sorted newest first. A day without activity as of asOf breaks the
// streak immediately, so the result is 0 unless asOf's own date is active.
func computeStreak(days []time.Time, asOf time.Time) int {
	expected := contextutils.StartOfDay(asOf)
	streak := 0
	for _, day := range days {
		if !contextutils.SameDay(day, expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

// GetWeeklyActivity returns per-day answer counts for the seven days ending
// on asOf's date. Days without activity appear with a zero count.
func (s *StatsService) GetWeeklyActivity(ctx context.Context, userID int, asOf time.Time) (result0 []models.DailyActivity, err error) {
	ctx, span := observability.TraceStatsFunction(ctx, "get_weekly_activity",
		observability.AttributeUserID(userID),
		observability.AttributeDate(asOf.Format(contextutils.DateLayout)),
	)
	defer observability.FinishSpan(span, &err)

	end := contextutils.StartOfDay(asOf)
	start := end.AddDate(0, 0, -6)

	rows, err := s.db.QueryContext(ctx, `SELECT r.date::date AS day, COUNT(*) `+ownedResponsesFilter+
		` AND r.date::date BETWEEN $2::date AND $3::date AND TRIM(r.answer) <> ''
		GROUP BY day`, userID, start, end)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query weekly activity")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var day time.Time
		var count int
		if scanErr := rows.Scan(&day, &count); scanErr != nil {
			s.logger.Error(ctx, "Failed to scan activity row", scanErr)
			continue
		}
		counts[day.Format(contextutils.DateLayout)] = count
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "error iterating activity rows")
	}

	activity := make([]models.DailyActivity, 0, 7)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		activity = append(activity, models.DailyActivity{
			Date:  d,
			Count: counts[d.Format(contextutils.DateLayout)],
		})
	}
	return activity, nil
}

// GetAdminDashboard returns site-wide totals plus per-user activity summaries.
func (s *StatsService) GetAdminDashboard(ctx context.Context) (result0 *models.AdminDashboard, err error) {
	ctx, span := observability.TraceStatsFunction(ctx, "get_admin_dashboard")
	defer observability.FinishSpan(span, &err)

	dashboard := &models.AdminDashboard{}
	err = s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM questions),
		(SELECT COUNT(*) FROM questions WHERE active = TRUE),
		(SELECT COUNT(*) FROM responses),
		(SELECT COUNT(*) FROM responses WHERE date::date = CURRENT_DATE)`).
		Scan(&dashboard.TotalUsers, &dashboard.TotalQuestions, &dashboard.ActiveQuestions,
			&dashboard.TotalResponses, &dashboard.ResponsesToday)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query dashboard totals")
	}

	dashboard.Categories, err = s.dashboardCategories(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT u.id, u.username, COUNT(r.id) AS response_count, u.last_active
		FROM users u
		LEFT JOIN questions q ON (q.assigned_user_id IS NULL OR q.assigned_user_id = 0 OR q.assigned_user_id = u.id)
		LEFT JOIN responses r ON r.question_id = q.id
		GROUP BY u.id, u.username, u.last_active
		ORDER BY u.username`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query user summaries")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	for rows.Next() {
		summary := models.UserActivitySummary{}
		if scanErr := rows.Scan(&summary.UserID, &summary.Username,
			&summary.ResponseCount, &summary.LastActive); scanErr != nil {
			s.logger.Error(ctx, "Failed to scan user summary row", scanErr)
			continue
		}
		dashboard.Users = append(dashboard.Users, summary)
	}
	if err = rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "error iterating user summary rows")
	}

	return dashboard, nil
}

func (s *StatsService) dashboardCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM questions ORDER BY category`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query dashboard categories")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var categories []string
	for rows.Next() {
		var category string
		if scanErr := rows.Scan(&category); scanErr != nil {
			s.logger.Error(ctx, "Failed to scan category row", scanErr)
			continue
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "error iterating category rows")
	}
	return categories, nil
}
