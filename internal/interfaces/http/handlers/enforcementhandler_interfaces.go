package handlers

import (
	"context"
	"time"

	"github.com/warden-sh/warden/internal/application/governance/dto"
	"github.com/warden-sh/warden/internal/domain/governance"
)

// EnforcementService defines the decision pipeline operations the handler
// depends on
type EnforcementService interface {
	Evaluate(ctx context.Context, req governance.AccessRequest) dto.DecisionResponse
	Decisions(ctx context.Context, req dto.ListDecisionsRequest) (*dto.ListDecisionsResponse, error)
	Statistics(ctx context.Context, since *time.Time) (*dto.DecisionStatsResponse, error)
}
