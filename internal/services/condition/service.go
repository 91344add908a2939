// Package condition exposes the condition engine as a service keyed by
// target ID. The combat scheduler drives round processing through it and
// ability/damage resolution queries it for aggregated effects.
package condition

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/thornmere/condition-engine/internal/domain/catalog"
	"github.com/thornmere/condition-engine/internal/domain/conditions"
	"github.com/thornmere/condition-engine/internal/domain/events"
	engerr "github.com/thornmere/condition-engine/internal/errors"
	"github.com/thornmere/condition-engine/internal/repositories/instances"
)

// RoundOutcome bundles the start and end results of one processed round
type RoundOutcome struct {
	Start *conditions.RoundStartResult
	End   *conditions.RoundEndResult
}

// Service manages conditions for all targets (characters, monsters, objects)
type Service interface {
	// Apply applies a condition to a target
	Apply(ctx context.Context, targetID string, input *conditions.ApplyInput) (*conditions.ApplyOutcome, error)

	// Remove removes a condition, or one stack of it
	Remove(ctx context.Context, targetID, templateID string, removeAllStacks bool) (bool, error)

	// RemoveByCategory removes all conditions of a category from a target
	RemoveByCategory(ctx context.Context, targetID, categoryID string) ([]*conditions.Instance, error)

	// ClearAll removes conditions in bulk, filterable by negativity/category
	ClearAll(ctx context.Context, targetID string, onlyNegative bool, onlyCategory string) (int, error)

	// Suppress mutes a condition without removing it
	Suppress(ctx context.Context, targetID, templateID string) (bool, error)

	// Unsuppress reactivates a suppressed condition
	Unsuppress(ctx context.Context, targetID, templateID string) (bool, error)

	// ActiveConditions returns a target's conditions for display
	ActiveConditions(ctx context.Context, targetID string, includeSuppressed bool) ([]*conditions.Instance, error)

	// HasCondition checks whether a target carries a condition
	HasCondition(ctx context.Context, targetID, templateID string, includeSuppressed bool) (bool, error)

	// CapabilityStatus reports whether a capability is blocked or reduced
	CapabilityStatus(ctx context.Context, targetID, capability string) (*conditions.CapabilityStatus, error)

	// CheckModifier aggregates check modifiers for a check type
	CheckModifier(ctx context.Context, targetID, checkType string) (*conditions.CheckResult, error)

	// ResistanceModifier aggregates resistance modifiers for a damage type
	ResistanceModifier(ctx context.Context, targetID, damageType string) (*conditions.ResistanceResult, error)

	// TurnOrderModifier sums turn-order deltas of active conditions
	TurnOrderModifier(ctx context.Context, targetID string) (int, error)

	// AggroPriority returns the strongest active taunt priority
	AggroPriority(ctx context.Context, targetID string) (int, error)

	// ProcessDamage resolves condition reactions to a damage event
	ProcessDamage(ctx context.Context, targetID, damageType string) (*conditions.DamageResult, error)

	// ProcessRoundStart evaluates start-of-round damage ticks
	ProcessRoundStart(ctx context.Context, targetID string) (*conditions.RoundStartResult, error)

	// ProcessRoundEnd advances duration, expiry and stage progression
	ProcessRoundEnd(ctx context.Context, targetID string) (*conditions.RoundEndResult, error)

	// ProcessRound runs a full round for many targets concurrently
	ProcessRound(ctx context.Context, targetIDs []string) (map[string]*RoundOutcome, error)
}

// ServiceConfig holds the service dependencies
type ServiceConfig struct {
	Catalog    *catalog.Catalog
	Repository instances.Repository
	EventBus   *events.EventBus
}

type service struct {
	mu         sync.RWMutex
	managers   map[string]*conditions.Manager // targetID -> Manager
	catalog    *catalog.Catalog
	repository instances.Repository
	eventBus   *events.EventBus
}

// NewService creates a new condition service
func NewService(cfg *ServiceConfig) (Service, error) {
	if cfg == nil {
		return nil, engerr.InvalidArgument("config cannot be nil")
	}
	if cfg.Catalog == nil {
		return nil, engerr.InvalidArgument("catalog is required")
	}
	if cfg.Repository == nil {
		return nil, engerr.InvalidArgument("repository is required")
	}

	return &service{
		managers:   make(map[string]*conditions.Manager),
		catalog:    cfg.Catalog,
		repository: cfg.Repository,
		eventBus:   cfg.EventBus,
	}, nil
}

// getOrCreateManager returns the target's manager, hydrating it from the
// repository on first use
func (s *service) getOrCreateManager(ctx context.Context, targetID string) (*conditions.Manager, error) {
	if targetID == "" {
		return nil, engerr.InvalidArgument("target ID is required")
	}

	s.mu.RLock()
	manager, exists := s.managers[targetID]
	s.mu.RUnlock()
	if exists {
		return manager, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if manager, exists := s.managers[targetID]; exists {
		return manager, nil
	}

	manager = conditions.NewManager(targetID, s.catalog, s.eventBus)
	stored, err := s.repository.Get(ctx, targetID)
	if err != nil {
		return nil, engerr.Wrapf(err, "failed to load conditions for target %s", targetID)
	}
	if len(stored) > 0 {
		if err := manager.Hydrate(stored); err != nil {
			return nil, err
		}
	}

	s.managers[targetID] = manager
	return manager, nil
}

// persist writes the target's current snapshot through the repository
func (s *service) persist(ctx context.Context, targetID string, manager *conditions.Manager) error {
	if err := s.repository.Save(ctx, targetID, manager.Snapshot()); err != nil {
		return engerr.Wrapf(err, "failed to persist conditions for target %s", targetID)
	}
	return nil
}

func (s *service) Apply(ctx context.Context, targetID string, input *conditions.ApplyInput) (*conditions.ApplyOutcome, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return nil, err
	}

	outcome, err := manager.Apply(input)
	if err != nil {
		return nil, err
	}
	if outcome.Success {
		if err := s.persist(ctx, targetID, manager); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

func (s *service) Remove(ctx context.Context, targetID, templateID string, removeAllStacks bool) (bool, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return false, err
	}

	removed := manager.Remove(templateID, removeAllStacks)
	if removed {
		if err := s.persist(ctx, targetID, manager); err != nil {
			return false, err
		}
	}
	return removed, nil
}

func (s *service) RemoveByCategory(ctx context.Context, targetID, categoryID string) ([]*conditions.Instance, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return nil, err
	}

	removed, err := manager.RemoveByCategory(categoryID)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		if err := s.persist(ctx, targetID, manager); err != nil {
			return nil, err
		}
	}
	return removed, nil
}

func (s *service) ClearAll(ctx context.Context, targetID string, onlyNegative bool, onlyCategory string) (int, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return 0, err
	}

	count, err := manager.ClearAll(onlyNegative, onlyCategory)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		if err := s.persist(ctx, targetID, manager); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (s *service) Suppress(ctx context.Context, targetID, templateID string) (bool, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return false, err
	}

	found := manager.Suppress(templateID)
	if found {
		if err := s.persist(ctx, targetID, manager); err != nil {
			return false, err
		}
	}
	return found, nil
}

func (s *service) Unsuppress(ctx context.Context, targetID, templateID string) (bool, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return false, err
	}

	found := manager.Unsuppress(templateID)
	if found {
		if err := s.persist(ctx, targetID, manager); err != nil {
			return false, err
		}
	}
	return found, nil
}

func (s *service) ActiveConditions(ctx context.Context, targetID string, includeSuppressed bool) ([]*conditions.Instance, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return manager.ActiveConditions(includeSuppressed), nil
}

func (s *service) HasCondition(ctx context.Context, targetID, templateID string, includeSuppressed bool) (bool, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return false, err
	}
	return manager.HasCondition(templateID, includeSuppressed), nil
}

func (s *service) CapabilityStatus(ctx context.Context, targetID, capability string) (*conditions.CapabilityStatus, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return manager.CapabilityStatus(capability), nil
}

func (s *service) CheckModifier(ctx context.Context, targetID, checkType string) (*conditions.CheckResult, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return manager.CheckModifier(checkType), nil
}

func (s *service) ResistanceModifier(ctx context.Context, targetID, damageType string) (*conditions.ResistanceResult, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return manager.ResistanceModifier(damageType), nil
}

func (s *service) TurnOrderModifier(ctx context.Context, targetID string) (int, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return 0, err
	}
	return manager.TurnOrderModifier(), nil
}

func (s *service) AggroPriority(ctx context.Context, targetID string) (int, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return 0, err
	}
	return manager.AggroPriority(), nil
}

func (s *service) ProcessDamage(ctx context.Context, targetID, damageType string) (*conditions.DamageResult, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return nil, err
	}

	result := manager.ProcessDamage(damageType)
	if len(result.Removed) > 0 {
		if err := s.persist(ctx, targetID, manager); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *service) ProcessRoundStart(ctx context.Context, targetID string) (*conditions.RoundStartResult, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return manager.ProcessRoundStart(), nil
}

func (s *service) ProcessRoundEnd(ctx context.Context, targetID string) (*conditions.RoundEndResult, error) {
	manager, err := s.getOrCreateManager(ctx, targetID)
	if err != nil {
		return nil, err
	}

	result := manager.ProcessRoundEnd()
	if err := s.persist(ctx, targetID, manager); err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessRound runs start and end processing for many targets. Targets are
// independent, so they are processed concurrently.
func (s *service) ProcessRound(ctx context.Context, targetIDs []string) (map[string]*RoundOutcome, error) {
	outcomes := make([]*RoundOutcome, len(targetIDs))

	g, ctx := errgroup.WithContext(ctx)
	for i, targetID := range targetIDs {
		i, targetID := i, targetID
		g.Go(func() error {
			start, err := s.ProcessRoundStart(ctx, targetID)
			if err != nil {
				return err
			}
			end, err := s.ProcessRoundEnd(ctx, targetID)
			if err != nil {
				return err
			}
			outcomes[i] = &RoundOutcome{Start: start, End: end}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[string]*RoundOutcome, len(targetIDs))
	for i, targetID := range targetIDs {
		result[targetID] = outcomes[i]
	}
	return result, nil
}
