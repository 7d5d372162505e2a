// Package config defines the configuration structures shared across layers.
package config

import "fmt"

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GetAddr returns the listen address in host:port form.
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	AddSource  bool   `mapstructure:"add_source"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GetAddr returns the redis address in host:port form.
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GovernanceConfig holds the enforcement engine settings. Cache TTLs are
// seconds; they default to the values the decision pipeline was tuned for
// (allowlist 60, time rules 300, emergency 10).
type GovernanceConfig struct {
	AllowlistCacheTTL int    `mapstructure:"allowlist_cache_ttl"`
	TimeRuleCacheTTL  int    `mapstructure:"time_rule_cache_ttl"`
	EmergencyCacheTTL int    `mapstructure:"emergency_cache_ttl"`
	MasterPIN         string `mapstructure:"master_pin"`
}

// PolicyConfig holds fallback policy evaluator settings.
type PolicyConfig struct {
	// Backend selects the evaluator implementation: "opa", "casbin", or
	// "none" (no fallback evaluator configured).
	Backend string `mapstructure:"backend"`
	// OPAURL is the full OPA data API URL for the decision document,
	// e.g. http://localhost:8181/v1/data/warden/authz.
	OPAURL string `mapstructure:"opa_url"`
	// TimeoutMS bounds a single evaluator call. The enforcement pipeline
	// denies on timeout.
	TimeoutMS int `mapstructure:"timeout_ms"`
	// CasbinModelPath is the casbin model file used by the casbin backend.
	CasbinModelPath string `mapstructure:"casbin_model_path"`
}
