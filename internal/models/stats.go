package models

import "time"

// UserStats aggregates a learner's overall progress.
type UserStats struct {
	UserID           int64   `db:"user_id" json:"user_id"`
	TotalAttempts    int     `db:"total_attempts" json:"total_attempts"`
	AverageScore     float64 `db:"average_score" json:"average_score"`
	OpenMistakes     int     `db:"open_mistakes" json:"open_mistakes"`
	MasteredTotal    int     `db:"mastered_total" json:"mastered_total"`
	AttemptsToday    int     `db:"attempts_today" json:"attempts_today"`
	AverageToday     float64 `db:"average_today" json:"average_today"`
	SessionsThisWeek int     `db:"sessions_this_week" json:"sessions_this_week"`
}

// CategoryShare ranks one taxonomy category by its share of recent mistakes.
type CategoryShare struct {
	MainCategory string  `db:"main_category" json:"main_category"`
	Mistakes     int     `db:"mistakes" json:"mistakes"`
	Share        float64 `db:"share" json:"share"`
}

// WeeklySummary is the composite weekly progress report. WeeklyScore is
// avg(score) minus average session minutes minus 20 per missed practice day.
type WeeklySummary struct {
	UserID            int64           `json:"user_id"`
	WeekStart         time.Time       `json:"week_start"`
	WeekEnd           time.Time       `json:"week_end"`
	AverageScore      float64         `json:"average_score"`
	AvgSessionMinutes float64         `json:"avg_session_minutes"`
	PracticedDays     int             `json:"practiced_days"`
	MissedDays        int             `json:"missed_days"`
	WeeklyScore       float64         `json:"weekly_score"`
	MasteredThisWeek  int             `json:"mastered_this_week"`
	TopCategories     []CategoryShare `json:"top_categories"`
	DownloadURL       string          `json:"download_url,omitempty"`
}

// WeeklyActivity is the raw weekly aggregate the summary is computed from.
type WeeklyActivity struct {
	AverageScore      float64 `db:"average_score"`
	AvgSessionMinutes float64 `db:"avg_session_minutes"`
	PracticedDays     int     `db:"practiced_days"`
	MasteredThisWeek  int     `db:"mastered_this_week"`
}

// Topic is a subject area for generated practice sentences.
type Topic struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// SystemMetrics is the aggregate counter snapshot served on /ready.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	TranslationsGraded       uint64    `json:"translations_graded"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
