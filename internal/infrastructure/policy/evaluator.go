package policy

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/shared/config"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// NewEvaluator builds the fallback policy evaluator selected by the
// configuration. A "none" backend returns a nil evaluator, which the
// enforcement pipeline treats as default-allow.
func NewEvaluator(cfg config.PolicyConfig, db *gorm.DB, log logger.Interface) (governance.PolicyEvaluator, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "opa":
		if cfg.OPAURL == "" {
			return nil, fmt.Errorf("policy backend is opa but opa_url is empty")
		}
		return NewOPAClient(cfg.OPAURL, log), nil
	case "casbin":
		if cfg.CasbinModelPath == "" {
			return nil, fmt.Errorf("policy backend is casbin but casbin_model_path is empty")
		}
		return NewCasbinEvaluator(db, cfg.CasbinModelPath, log)
	default:
		return nil, fmt.Errorf("unknown policy backend: %s", cfg.Backend)
	}
}
