package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// casbinAction is the action every tool invocation is checked against.
// Policies are (user, tool, execute) triples.
const casbinAction = "execute"

// CasbinEvaluator evaluates requests against casbin policies stored in the
// database via the gorm adapter.
type CasbinEvaluator struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   logger.Interface
}

func NewCasbinEvaluator(db *gorm.DB, modelPath string, log logger.Interface) (*CasbinEvaluator, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(modelPath, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	return &CasbinEvaluator{
		enforcer: enforcer,
		logger:   log,
	}, nil
}

var _ governance.PolicyEvaluator = (*CasbinEvaluator)(nil)

func (e *CasbinEvaluator) Name() string { return "casbin" }

func (e *CasbinEvaluator) Evaluate(ctx context.Context, input governance.PolicyInput) (governance.PolicyResult, error) {
	if err := ctx.Err(); err != nil {
		return governance.PolicyResult{}, err
	}

	e.mu.RLock()
	allowed, err := e.enforcer.Enforce(input.UserID, input.ToolName, casbinAction)
	e.mu.RUnlock()
	if err != nil {
		e.logger.Errorw("casbin evaluation failed", "error", err, "user_id", input.UserID, "tool_name", input.ToolName)
		return governance.PolicyResult{}, fmt.Errorf("casbin evaluation failed: %w", err)
	}

	if allowed {
		return governance.PolicyResult{Allow: true, Reason: "allowed by policy"}, nil
	}
	return governance.PolicyResult{Allow: false, Reason: "denied by policy"}, nil
}

// AddPolicy grants a user permission to execute a tool and persists the rule.
func (e *CasbinEvaluator) AddPolicy(userID string, toolName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.AddPolicy(userID, toolName, casbinAction); err != nil {
		return fmt.Errorf("failed to add policy: %w", err)
	}
	return e.enforcer.SavePolicy()
}

// RemovePolicy revokes a user's permission to execute a tool.
func (e *CasbinEvaluator) RemovePolicy(userID string, toolName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.RemovePolicy(userID, toolName, casbinAction); err != nil {
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	return e.enforcer.SavePolicy()
}

// ReloadPolicy re-reads all rules from storage, replacing the in-memory set.
func (e *CasbinEvaluator) ReloadPolicy() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to reload policy: %w", err)
	}
	return nil
}
