package database

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/models"
)

// SeedDemo populates the demo backend with a small set of accounts and
// activities so the API is usable without a configured database. All demo
// accounts share the password "password123".
func SeedDemo(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	studentID := "CS2023001"
	// Keep this document inside what the profile endpoint accepts: theme is
	// light/dark/system and only the known flat keys are allowed.
	prefs := datatypes.JSON([]byte(`{"theme":"system","email_notifications":true,"public_portfolio":true}`))

	student := models.User{
		Name:         "Alex Johnson",
		Email:        "student@demo.com",
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		StudentID:    &studentID,
		Department:   "Computer Science",
		Year:         models.YearSenior,
		GPA:          3.8,
		IsActive:     true,
		Preferences:  prefs,
	}
	faculty := models.User{
		Name:         "Dr. Sarah Wilson",
		Email:        "faculty@demo.com",
		PasswordHash: string(hash),
		Role:         models.RoleFaculty,
		Department:   "Faculty of Engineering",
		IsActive:     true,
	}
	admin := models.User{
		Name:         "Admin User",
		Email:        "admin@demo.com",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Department:   "Administration",
		IsActive:     true,
	}

	if err := db.Create(&student).Error; err != nil {
		return err
	}
	if err := db.Create(&faculty).Error; err != nil {
		return err
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	now := time.Now()
	verifiedAt := now.AddDate(0, 0, -14)

	activities := []models.Activity{
		{
			UserID:       student.ID,
			Title:        "Python Programming Certificate",
			Description:  "Completed Python programming course with distinction",
			Type:         models.ActivityTypeCertification,
			Organization: "Python Institute",
			Date:         now.AddDate(0, -1, 0),
			Credits:      3,
			Status:       models.ActivityStatusVerified,
			SubmittedAt:  now.AddDate(0, 0, -15),
			VerifiedAt:   &verifiedAt,
			VerifiedByID: &faculty.ID,
		},
		{
			UserID:       student.ID,
			Title:        "Tech Conference 2024",
			Description:  "Attended annual technology conference and presented research",
			Type:         models.ActivityTypeConference,
			Organization: "Tech Innovation Summit",
			Date:         now.AddDate(0, -1, -5),
			Credits:      2,
			Status:       models.ActivityStatusVerified,
			SubmittedAt:  now.AddDate(0, 0, -20),
			VerifiedAt:   &verifiedAt,
			VerifiedByID: &faculty.ID,
		},
		{
			UserID:       student.ID,
			Title:        "Community Volunteering Drive",
			Description:  "Organized a weekend coding workshop for local high school students",
			Type:         models.ActivityTypeVolunteering,
			Organization: "Code for Community",
			Date:         now.AddDate(0, 0, -7),
			Credits:      4,
			Status:       models.ActivityStatusPending,
			SubmittedAt:  now.AddDate(0, 0, -3),
		},
	}

	for i := range activities {
		if err := db.Create(&activities[i]).Error; err != nil {
			return err
		}
	}

	return nil
}
