package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/olehkravets/satzwerk/internal/models"
	"github.com/olehkravets/satzwerk/pkg/config"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
	"github.com/olehkravets/satzwerk/pkg/export"
	"github.com/olehkravets/satzwerk/pkg/storage"
)

type statsRepository interface {
	UserStats(ctx context.Context, userID int64) (*models.UserStats, error)
	WeeklyActivity(ctx context.Context, userID int64, from, to time.Time) (*models.WeeklyActivity, error)
	TopCategories(ctx context.Context, userID int64, since time.Time, limit int) ([]models.CategoryShare, error)
	ActiveUserIDs(ctx context.Context, from, to time.Time) ([]int64, error)
}

// StatsService computes learner progress aggregates and the weekly summary,
// and renders the summary as a downloadable artifact.
type StatsService struct {
	stats   statsRepository
	cache   *CacheService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	store   *storage.LocalStorage
	signer  *storage.SignedURLSigner
	penalty int
	logger  *zap.Logger
}

// NewStatsService builds the service. The cache is optional; when present,
// weekly summaries are served read-through from it.
func NewStatsService(stats statsRepository, cache *CacheService, store *storage.LocalStorage, signer *storage.SignedURLSigner, cfg config.JobsConfig, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		stats:   stats,
		cache:   cache,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		store:   store,
		signer:  signer,
		penalty: cfg.MissedDayPenalty,
		logger:  logger,
	}
}

// Me returns the caller's overall progress aggregates.
func (s *StatsService) Me(ctx context.Context, userID int64) (*models.UserStats, error) {
	stats, err := s.stats.UserStats(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stats")
	}
	return stats, nil
}

// weekRange returns the Monday..Sunday span containing the given instant.
func weekRange(at time.Time) (time.Time, time.Time) {
	weekday := int(at.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location()).
		AddDate(0, 0, -(weekday - 1))
	return start, start.AddDate(0, 0, 6)
}

// Weekly computes the composite weekly summary. The weekly score rewards
// accuracy and consistency: average score minus average session minutes,
// minus a fixed penalty per day without practice.
func (s *StatsService) Weekly(ctx context.Context, userID int64, at time.Time) (*models.WeeklySummary, error) {
	from, to := weekRange(at)

	cacheKey := fmt.Sprintf("weekly:%d:%s", userID, from.Format("2006-01-02"))
	var cached models.WeeklySummary
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	activity, err := s.stats.WeeklyActivity(ctx, userID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly activity")
	}
	categories, err := s.stats.TopCategories(ctx, userID, from, 5)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mistake categories")
	}

	missed := 7 - activity.PracticedDays
	if missed < 0 {
		missed = 0
	}
	score := activity.AverageScore - activity.AvgSessionMinutes - float64(missed*s.penalty)

	summary := &models.WeeklySummary{
		UserID:            userID,
		WeekStart:         from,
		WeekEnd:           to,
		AverageScore:      activity.AverageScore,
		AvgSessionMinutes: activity.AvgSessionMinutes,
		PracticedDays:     activity.PracticedDays,
		MissedDays:        missed,
		WeeklyScore:       score,
		MasteredThisWeek:  activity.MasteredThisWeek,
		TopCategories:     categories,
	}

	// Summaries for past weeks never change; the current week's entry is
	// invalidated whenever a grade lands.
	_ = s.cache.Set(ctx, cacheKey, summary, 0)
	return summary, nil
}

// Export renders the weekly summary as csv or pdf, stores the artifact and
// attaches a signed download token.
func (s *StatsService) Export(ctx context.Context, userID int64, at time.Time, format string) (*models.WeeklySummary, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "pdf"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	summary, err := s.Weekly(ctx, userID, at)
	if err != nil {
		return nil, err
	}

	data := summaryDataset(summary)
	var rendered []byte
	switch format {
	case "csv":
		rendered, err = s.csv.Render(data)
	default:
		title := fmt.Sprintf("Weekly practice summary %s", summary.WeekStart.Format("2006-01-02"))
		rendered, err = s.pdf.Render(data, title)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render summary")
	}

	filename := fmt.Sprintf("weekly/%d_%s.%s", userID, summary.WeekStart.Format("2006-01-02"), format)
	relPath, err := s.store.Save(filename, rendered)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store summary")
	}

	exportID := fmt.Sprintf("%d-%s", userID, summary.WeekStart.Format("20060102"))
	token, _, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	summary.DownloadURL = "/api/v1/stats/weekly/download?token=" + token

	s.logger.Info("weekly summary exported",
		zap.Int64("user_id", userID),
		zap.String("format", format),
		zap.String("file", relPath))
	return summary, nil
}

// Download resolves a signed token to the stored artifact.
func (s *StatsService) Download(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	return file, nil
}

// PrecomputeWeekly renders last week's summary for every active learner.
// Runs from the weekly scheduler so the artifacts are ready before anyone
// asks for them.
func (s *StatsService) PrecomputeWeekly(ctx context.Context, at time.Time) (int, error) {
	from, to := weekRange(at.AddDate(0, 0, -7))
	ids, err := s.stats.ActiveUserIDs(ctx, from, to)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active users")
	}
	exported := 0
	for _, id := range ids {
		if _, err := s.Export(ctx, id, from, "pdf"); err != nil {
			s.logger.Warn("weekly precompute failed for user",
				zap.Int64("user_id", id),
				zap.Error(err))
			continue
		}
		exported++
	}
	return exported, nil
}

// CleanupExports deletes stored artifacts older than the TTL.
func (s *StatsService) CleanupExports(ttl time.Duration) (int, error) {
	deleted, err := s.store.CleanupOlderThan(ttl)
	if err != nil {
		return 0, err
	}
	if len(deleted) > 0 {
		s.logger.Info("cleaned up old exports", zap.Int("deleted", len(deleted)))
	}
	return len(deleted), nil
}

func summaryDataset(summary *models.WeeklySummary) export.Dataset {
	rows := []map[string]string{{
		"Metric": "Average score",
		"Value":  fmt.Sprintf("%.1f", summary.AverageScore),
	}, {
		"Metric": "Average session minutes",
		"Value":  fmt.Sprintf("%.1f", summary.AvgSessionMinutes),
	}, {
		"Metric": "Practiced days",
		"Value":  fmt.Sprintf("%d", summary.PracticedDays),
	}, {
		"Metric": "Missed days",
		"Value":  fmt.Sprintf("%d", summary.MissedDays),
	}, {
		"Metric": "Weekly score",
		"Value":  fmt.Sprintf("%.1f", summary.WeeklyScore),
	}, {
		"Metric": "Sentences mastered",
		"Value":  fmt.Sprintf("%d", summary.MasteredThisWeek),
	}}
	for _, cat := range summary.TopCategories {
		rows = append(rows, map[string]string{
			"Metric": "Mistakes: " + cat.MainCategory,
			"Value":  fmt.Sprintf("%d (%.1f%%)", cat.Mistakes, cat.Share),
		})
	}
	return export.Dataset{Headers: []string{"Metric", "Value"}, Rows: rows}
}
