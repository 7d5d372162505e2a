package migration

import (
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every model the schema migration covers.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.AllowlistEntryModel{},
		&models.TimeRuleModel{},
		&models.EmergencyOverrideModel{},
		&models.OverrideRequestModel{},
		&models.ConsentRequestModel{},
		&models.DecisionLogModel{},
	}
}
