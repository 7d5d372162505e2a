package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
	"github.com/warden-sh/warden/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.AllowlistEntryModel{},
		&models.TimeRuleModel{},
		&models.EmergencyOverrideModel{},
		&models.OverrideRequestModel{},
		&models.ConsentRequestModel{},
		&models.DecisionLogModel{},
	)
	require.NoError(t, err)

	return db
}

func testLogger() logger.Interface { return logger.NewLogger() }
