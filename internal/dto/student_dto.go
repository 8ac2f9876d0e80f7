package dto

// StudentStats summarizes one student's submission record.
type StudentStats struct {
	TotalActivities    int64          `json:"total_activities"`
	VerifiedActivities int64          `json:"verified_activities"`
	PendingActivities  int64          `json:"pending_activities"`
	RejectedActivities int64          `json:"rejected_activities"`
	TotalCredits       int64          `json:"total_credits"`
	VerificationRate   float64        `json:"verification_rate"`
	ActivityTypes      map[string]int `json:"activity_types,omitempty"`
}

// MonthlyProgress is one calendar-month bucket in the student progress series.
type MonthlyProgress struct {
	Month      string `json:"month"`
	Activities int    `json:"activities"`
	Verified   int    `json:"verified"`
	Credits    int    `json:"credits"`
}

// StudentDashboardResponse aggregates everything the student landing page shows.
type StudentDashboardResponse struct {
	Stats            StudentStats       `json:"stats"`
	RecentActivities []ActivityResponse `json:"recent_activities"`
	ActivityTypes    map[string]int     `json:"activity_types"`
	MonthlyData      []MonthlyProgress  `json:"monthly_data"`
}

// StudentProfileResponse pairs the profile with submission statistics.
type StudentProfileResponse struct {
	User  UserResponse `json:"user"`
	Stats StudentStats `json:"stats"`
}

// PortfolioPersonalInfo carries the identity block of a portfolio.
type PortfolioPersonalInfo struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Department string  `json:"department"`
	Year       string  `json:"year"`
	GPA        float64 `json:"gpa"`
	StudentID  string  `json:"student_id"`
}

// PortfolioAchievement is a highlighted verified activity.
type PortfolioAchievement struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Date        string `json:"date"`
}

// PortfolioSkills groups skills derived from verified activity types.
type PortfolioSkills struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
}

// PortfolioResponse is the shareable digital portfolio document.
type PortfolioResponse struct {
	PersonalInfo PortfolioPersonalInfo  `json:"personal_info"`
	Activities   []ActivityResponse     `json:"activities"`
	Achievements []PortfolioAchievement `json:"achievements"`
	Skills       PortfolioSkills        `json:"skills"`
}

// StudentWithStats is the faculty view of a student row.
type StudentWithStats struct {
	User  UserResponse `json:"user"`
	Stats StudentStats `json:"stats"`
}

// StudentListResponse wraps a paginated faculty student listing.
type StudentListResponse struct {
	Students    []StudentWithStats `json:"students"`
	Total       int64              `json:"total"`
	CurrentPage int                `json:"current_page"`
	TotalPages  int                `json:"total_pages"`
}

// StudentDetailResponse is the faculty drill-down for one student.
type StudentDetailResponse struct {
	Student    UserResponse       `json:"student"`
	Activities []ActivityResponse `json:"activities"`
	Stats      StudentStats       `json:"stats"`
}
