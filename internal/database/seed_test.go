package database

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/models"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Activity{},
		&models.ActivityFile{},
		&models.ActivityComment{},
		&models.Notification{},
	))
	return db
}

func TestSeedDemoPreferencesMatchProfileRules(t *testing.T) {
	db := setupSeedDB(t)
	require.NoError(t, SeedDemo(db))

	var student models.User
	require.NoError(t, db.Where("role = ?", models.RoleStudent).First(&student).Error)

	// The profile endpoint only accepts these flat keys, so the demo account
	// must not ship with a document the API itself would reject.
	var prefs struct {
		Theme              string `json:"theme"`
		EmailNotifications bool   `json:"email_notifications"`
		PublicPortfolio    bool   `json:"public_portfolio"`
		Language           string `json:"language"`
	}
	decoder := json.NewDecoder(bytes.NewReader(student.Preferences))
	decoder.DisallowUnknownFields()
	require.NoError(t, decoder.Decode(&prefs))
	require.Contains(t, []string{"light", "dark", "system"}, prefs.Theme)
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	db := setupSeedDB(t)
	require.NoError(t, SeedDemo(db))
	require.NoError(t, SeedDemo(db))

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.Equal(t, int64(3), users)
}
