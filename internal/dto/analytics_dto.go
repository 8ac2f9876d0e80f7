package dto

import "time"

// AnalyticsFilter narrows analytics queries by department and timeframe.
type AnalyticsFilter struct {
	Department string `query:"department"`
	Timeframe  string `query:"timeframe" validate:"omitempty,oneof=1month 3months 6months 1year"`
}

// OverviewResponse summarizes activity volume and outcomes for a window.
type OverviewResponse struct {
	TotalStudents      int64   `json:"total_students"`
	TotalActivities    int64   `json:"total_activities"`
	VerifiedActivities int64   `json:"verified_activities"`
	PendingActivities  int64   `json:"pending_activities"`
	RejectedActivities int64   `json:"rejected_activities"`
	TotalCredits       int64   `json:"total_credits"`
	AverageGPA         float64 `json:"average_gpa"`
	CompletionRate     float64 `json:"completion_rate"`
}

// TrendPoint is one calendar-month bucket in the trends series.
type TrendPoint struct {
	Month      string `json:"month"`
	Activities int64  `json:"activities"`
	Verified   int64  `json:"verified"`
	Students   int64  `json:"students"`
}

// DepartmentStats aggregates per-department performance.
type DepartmentStats struct {
	Name         string  `json:"name"`
	Students     int64   `json:"students"`
	Activities   int64   `json:"activities"`
	Verified     int64   `json:"verified"`
	TotalCredits int64   `json:"total_credits"`
	AverageGPA   float64 `json:"avg_gpa"`
}

// TypeDistribution reports count and share for one activity type.
type TypeDistribution struct {
	Name       string  `json:"name"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TopPerformer is one ranked entry in the top performers list.
type TopPerformer struct {
	Rank               int     `json:"rank"`
	Name               string  `json:"name"`
	Department         string  `json:"department"`
	Activities         int64   `json:"activities"`
	VerifiedActivities int64   `json:"verified_activities"`
	Credits            int64   `json:"credits"`
	GPA                float64 `json:"gpa"`
	Score              float64 `json:"score"`
}

// AccreditationCategory tracks verified credit hours against a requirement.
type AccreditationCategory struct {
	Name     string `json:"name"`
	Hours    int64  `json:"hours"`
	Required int64  `json:"required"`
	Status   string `json:"status"`
}

// AccreditationResponse reports progress toward accreditation requirements.
type AccreditationResponse struct {
	TotalHours           int64                   `json:"total_hours"`
	RequiredHours        int64                   `json:"required_hours"`
	CompletionPercentage float64                 `json:"completion_percentage"`
	Categories           []AccreditationCategory `json:"categories"`
}

// ReportResponse bundles every analytics view into one document.
type ReportResponse struct {
	GeneratedAt   time.Time             `json:"generated_at"`
	Timeframe     string                `json:"timeframe"`
	Department    string                `json:"department"`
	Overview      OverviewResponse      `json:"overview"`
	Trends        []TrendPoint          `json:"trends"`
	Departments   []DepartmentStats     `json:"departments"`
	ActivityTypes []TypeDistribution    `json:"activity_types"`
	TopPerformers []TopPerformer        `json:"top_performers"`
	Accreditation AccreditationResponse `json:"accreditation"`
}
