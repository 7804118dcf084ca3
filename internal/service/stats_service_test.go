package service

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehkravets/satzwerk/internal/models"
	"github.com/olehkravets/satzwerk/pkg/config"
	appErrors "github.com/olehkravets/satzwerk/pkg/errors"
	"github.com/olehkravets/satzwerk/pkg/storage"
)

type stubStats struct {
	stats         *models.UserStats
	activity      *models.WeeklyActivity
	categories    []models.CategoryShare
	active        []int64
	from, to      time.Time
	activityCalls int
}

func (s *stubStats) UserStats(_ context.Context, _ int64) (*models.UserStats, error) {
	return s.stats, nil
}

func (s *stubStats) WeeklyActivity(_ context.Context, _ int64, from, to time.Time) (*models.WeeklyActivity, error) {
	s.from, s.to = from, to
	s.activityCalls++
	return s.activity, nil
}

func (s *stubStats) TopCategories(_ context.Context, _ int64, _ time.Time, _ int) ([]models.CategoryShare, error) {
	return s.categories, nil
}

func (s *stubStats) ActiveUserIDs(_ context.Context, _, _ time.Time) ([]int64, error) {
	return s.active, nil
}

func newStatsService(t *testing.T, stats *stubStats) *StatsService {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	return NewStatsService(stats, nil, store, signer, config.JobsConfig{MissedDayPenalty: 20}, nil)
}

type memCacheRepo struct {
	entries map[string][]byte
}

func (m *memCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = raw
	return nil
}

func (m *memCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	m.entries = nil
	return nil
}

func TestWeeklyScoreFormula(t *testing.T) {
	stats := &stubStats{activity: &models.WeeklyActivity{
		AverageScore:      80,
		AvgSessionMinutes: 15,
		PracticedDays:     5,
		MasteredThisWeek:  4,
	}}
	svc := newStatsService(t, stats)

	summary, err := svc.Weekly(context.Background(), 42, time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, 2, summary.MissedDays)
	// 80 - 15 - 2*20
	assert.InDelta(t, 25.0, summary.WeeklyScore, 0.001)
	assert.Equal(t, time.Monday, summary.WeekStart.Weekday())
	assert.Equal(t, time.Sunday, summary.WeekEnd.Weekday())
}

func TestWeeklyWindowCoversMondayToSunday(t *testing.T) {
	stats := &stubStats{activity: &models.WeeklyActivity{}}
	svc := newStatsService(t, stats)

	// A Sunday belongs to the week that started six days earlier.
	_, err := svc.Weekly(context.Background(), 42, time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), stats.from)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), stats.to)
}

func TestWeeklyServesSecondCallFromCache(t *testing.T) {
	stats := &stubStats{activity: &models.WeeklyActivity{AverageScore: 90, PracticedDays: 7}}
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	cache := NewCacheService(&memCacheRepo{}, nil, time.Minute, nil, true)
	svc := NewStatsService(stats, cache, store, signer, config.JobsConfig{MissedDayPenalty: 20}, nil)

	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	first, err := svc.Weekly(context.Background(), 42, at)
	require.NoError(t, err)
	second, err := svc.Weekly(context.Background(), 42, at)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.activityCalls)
	assert.InDelta(t, first.WeeklyScore, second.WeeklyScore, 0.001)
}

func TestExportCSVRoundTrip(t *testing.T) {
	stats := &stubStats{
		activity: &models.WeeklyActivity{AverageScore: 74.5, PracticedDays: 7},
		categories: []models.CategoryShare{
			{MainCategory: "Cases", Mistakes: 12, Share: 48.0},
		},
	}
	svc := newStatsService(t, stats)

	summary, err := svc.Export(context.Background(), 42, time.Now(), "csv")

	require.NoError(t, err)
	require.NotEmpty(t, summary.DownloadURL)

	token := strings.TrimPrefix(summary.DownloadURL, "/api/v1/stats/weekly/download?token=")
	file, err := svc.Download(token)
	require.NoError(t, err)
	defer file.Close()

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Average score")
	assert.Contains(t, string(content), "Mistakes: Cases")
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := newStatsService(t, &stubStats{activity: &models.WeeklyActivity{}})

	_, err := svc.Export(context.Background(), 42, time.Now(), "xlsx")

	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestDownloadRejectsTamperedToken(t *testing.T) {
	svc := newStatsService(t, &stubStats{activity: &models.WeeklyActivity{}})

	_, err := svc.Download("abc.123.def.badsignature")

	assert.Error(t, err)
}

func TestPrecomputeWeeklyExportsActiveUsers(t *testing.T) {
	stats := &stubStats{
		activity: &models.WeeklyActivity{AverageScore: 70, PracticedDays: 3},
		active:   []int64{7, 42},
	}
	svc := newStatsService(t, stats)

	exported, err := svc.PrecomputeWeekly(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 2, exported)
}
