// Package services provides the application-level services of the
// governance engine.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warden-sh/warden/internal/application/governance/dto"
	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/shared/cacheutil"
	apperrors "github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// allowlistSnapshot is the cached view of active entries, indexed for the
// hot-path membership checks.
type allowlistSnapshot struct {
	byType map[governance.EntryType]map[string]*governance.AllowlistEntry
}

func (s *allowlistSnapshot) lookup(entryType governance.EntryType, identifier string, now time.Time) *governance.AllowlistEntry {
	entry, ok := s.byType[entryType][identifier]
	if !ok || !entry.IsEffective(now) {
		return nil
	}
	return entry
}

// AllowlistService manages trusted identifiers and answers bypass checks
// from a cached snapshot.
type AllowlistService struct {
	repo   governance.AllowlistRepository
	cache  *cacheutil.Value[*allowlistSnapshot]
	logger logger.Interface
}

// NewAllowlistService creates an AllowlistService with the given cache TTL.
func NewAllowlistService(repo governance.AllowlistRepository, cacheTTL time.Duration, log logger.Interface) *AllowlistService {
	return &AllowlistService{
		repo:   repo,
		cache:  cacheutil.NewValue[*allowlistSnapshot](cacheTTL),
		logger: log,
	}
}

func (s *AllowlistService) loadSnapshot(ctx context.Context) (*allowlistSnapshot, error) {
	entries, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load allowlist: %w", err)
	}

	snap := &allowlistSnapshot{byType: make(map[governance.EntryType]map[string]*governance.AllowlistEntry)}
	for _, e := range entries {
		m, ok := snap.byType[e.EntryType()]
		if !ok {
			m = make(map[string]*governance.AllowlistEntry)
			snap.byType[e.EntryType()] = m
		}
		m[e.Identifier()] = e
	}
	return snap, nil
}

// CheckDevice reports whether the device IP or MAC is allowlisted. The IP
// is consulted before the MAC.
func (s *AllowlistService) CheckDevice(ctx context.Context, deviceIP, deviceMAC string) (*governance.AllowlistEntry, error) {
	snap, err := s.cache.Get(ctx, s.loadSnapshot)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if deviceIP != "" {
		if normalized, err := governance.NormalizeIdentifier(deviceIP, governance.EntryTypeDeviceIP); err == nil {
			if entry := snap.lookup(governance.EntryTypeDeviceIP, normalized, now); entry != nil {
				return entry, nil
			}
		}
	}
	if deviceMAC != "" {
		if normalized, err := governance.NormalizeIdentifier(deviceMAC, governance.EntryTypeMAC); err == nil {
			if entry := snap.lookup(governance.EntryTypeMAC, normalized, now); entry != nil {
				return entry, nil
			}
		}
	}
	return nil, nil
}

// CheckUser reports whether the user is allowlisted.
func (s *AllowlistService) CheckUser(ctx context.Context, userID string) (*governance.AllowlistEntry, error) {
	if userID == "" {
		return nil, nil
	}
	snap, err := s.cache.Get(ctx, s.loadSnapshot)
	if err != nil {
		return nil, err
	}
	return snap.lookup(governance.EntryTypeUser, userID, time.Now().UTC()), nil
}

// Add creates an allowlist entry. Re-adding a deactivated identifier
// reactivates the existing entry instead of failing.
func (s *AllowlistService) Add(ctx context.Context, req dto.AddAllowlistEntryRequest, createdBy string) (*dto.AllowlistEntryResponse, error) {
	entryType := governance.EntryType(req.EntryType)
	if !entryType.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid entry type: %s", req.EntryType))
	}

	expiresAt, err := parseOptionalTime(req.ExpiresAt)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid expires_at", err.Error())
	}

	entry, err := governance.NewAllowlistEntry(req.Identifier, entryType, req.Name, req.Reason, createdBy, expiresAt)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	existing, err := s.repo.FindByIdentifier(ctx, entryType, entry.Identifier())
	if err != nil && !errors.Is(err, governance.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Active() && !existing.IsExpired(time.Now().UTC()) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("identifier %s is already allowlisted", entry.Identifier()))
		}
		existing.Reactivate(req.Name, req.Reason, expiresAt)
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.cache.Invalidate()
		s.logger.Infow("allowlist entry reactivated",
			"identifier", existing.Identifier(),
			"entry_type", existing.EntryType(),
			"created_by", createdBy,
		)
		return allowlistEntryToDTO(existing), nil
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		if apperrors.IsDuplicateError(err) {
			return nil, apperrors.NewConflictError(fmt.Sprintf("identifier %s is already allowlisted", entry.Identifier()))
		}
		return nil, err
	}

	s.cache.Invalidate()
	s.logger.Infow("allowlist entry added",
		"identifier", entry.Identifier(),
		"entry_type", entry.EntryType(),
		"created_by", createdBy,
	)
	return allowlistEntryToDTO(entry), nil
}

// Update modifies an entry's name, reason or expiry.
func (s *AllowlistService) Update(ctx context.Context, id uint, req dto.UpdateAllowlistEntryRequest) (*dto.AllowlistEntryResponse, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("allowlist entry not found")
		}
		return nil, err
	}

	name := entry.Name()
	if req.Name != nil {
		name = *req.Name
	}
	reason := entry.Reason()
	if req.Reason != nil {
		reason = *req.Reason
	}
	expiresAt := entry.ExpiresAt()
	if req.ExpiresAt != nil {
		if *req.ExpiresAt == "" {
			expiresAt = nil
		} else {
			parsed, err := parseOptionalTime(req.ExpiresAt)
			if err != nil {
				return nil, apperrors.NewValidationError("invalid expires_at", err.Error())
			}
			expiresAt = parsed
		}
	}

	entry.UpdateDetails(name, reason, expiresAt)
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.cache.Invalidate()
	return allowlistEntryToDTO(entry), nil
}

// Remove deactivates an entry. The row is kept for audit context.
func (s *AllowlistService) Remove(ctx context.Context, id uint) error {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return apperrors.NewNotFoundError("allowlist entry not found")
		}
		return err
	}
	if !entry.Active() {
		return apperrors.NewConflictError("allowlist entry is already inactive")
	}

	entry.Deactivate()
	if err := s.repo.Update(ctx, entry); err != nil {
		return err
	}

	s.cache.Invalidate()
	s.logger.Infow("allowlist entry removed",
		"identifier", entry.Identifier(),
		"entry_type", entry.EntryType(),
	)
	return nil
}

// Get fetches a single entry by ID.
func (s *AllowlistService) Get(ctx context.Context, id uint) (*dto.AllowlistEntryResponse, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("allowlist entry not found")
		}
		return nil, err
	}
	return allowlistEntryToDTO(entry), nil
}

// List returns entries matching the filter.
func (s *AllowlistService) List(ctx context.Context, req dto.ListAllowlistRequest) (*dto.ListAllowlistResponse, error) {
	var entryType *governance.EntryType
	if req.EntryType != nil && *req.EntryType != "" {
		et := governance.EntryType(*req.EntryType)
		if !et.IsValid() {
			return nil, apperrors.NewValidationError(fmt.Sprintf("invalid entry type: %s", *req.EntryType))
		}
		entryType = &et
	}

	entries, err := s.repo.List(ctx, entryType, req.IncludeInactive)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListAllowlistResponse{
		Entries: make([]*dto.AllowlistEntryResponse, 0, len(entries)),
		Total:   len(entries),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, allowlistEntryToDTO(e))
	}
	return resp, nil
}

// CountActive returns the number of active entries.
func (s *AllowlistService) CountActive(ctx context.Context) (int64, error) {
	return s.repo.CountActive(ctx)
}

// SweepExpired deactivates entries whose expiry has passed. Returns the
// number of entries swept.
func (s *AllowlistService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeactivateExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.cache.Invalidate()
		s.logger.Infow("expired allowlist entries deactivated", "count", n)
	}
	return n, nil
}

func allowlistEntryToDTO(e *governance.AllowlistEntry) *dto.AllowlistEntryResponse {
	return &dto.AllowlistEntryResponse{
		ID:         e.ID(),
		Identifier: e.Identifier(),
		EntryType:  e.EntryType().String(),
		Name:       e.Name(),
		Reason:     e.Reason(),
		CreatedBy:  e.CreatedBy(),
		Active:     e.Active(),
		ExpiresAt:  e.ExpiresAt(),
		CreatedAt:  e.CreatedAt(),
		UpdatedAt:  e.UpdatedAt(),
	}
}

func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	utc := t.UTC()
	return &utc, nil
}
