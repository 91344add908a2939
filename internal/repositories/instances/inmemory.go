package instances

import (
	"context"
	"sort"
	"sync"

	"github.com/thornmere/condition-engine/internal/domain/conditions"
	engerr "github.com/thornmere/condition-engine/internal/errors"
)

// InMemoryRepository is an in-memory implementation of the instance
// repository, useful for testing and single-process servers
type InMemoryRepository struct {
	mu        sync.RWMutex
	snapshots map[string][]*conditions.Instance
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() Repository {
	return &InMemoryRepository{
		snapshots: make(map[string][]*conditions.Instance),
	}
}

// Save stores the target's full instance set
func (r *InMemoryRepository) Save(ctx context.Context, targetID string, insts []*conditions.Instance) error {
	if targetID == "" {
		return engerr.InvalidArgument("target ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(insts) == 0 {
		delete(r.snapshots, targetID)
		return nil
	}

	snapshot := make([]*conditions.Instance, 0, len(insts))
	for _, inst := range insts {
		snapshot = append(snapshot, inst.Clone())
	}
	r.snapshots[targetID] = snapshot
	return nil
}

// Get retrieves the target's instance set
func (r *InMemoryRepository) Get(ctx context.Context, targetID string) ([]*conditions.Instance, error) {
	if targetID == "" {
		return nil, engerr.InvalidArgument("target ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot, exists := r.snapshots[targetID]
	if !exists {
		return nil, nil
	}

	result := make([]*conditions.Instance, 0, len(snapshot))
	for _, inst := range snapshot {
		result = append(result, inst.Clone())
	}
	return result, nil
}

// Delete removes the target's snapshot
func (r *InMemoryRepository) Delete(ctx context.Context, targetID string) error {
	if targetID == "" {
		return engerr.InvalidArgument("target ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.snapshots, targetID)
	return nil
}

// ListTargets returns the IDs of all targets with a stored snapshot
func (r *InMemoryRepository) ListTargets(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]string, 0, len(r.snapshots))
	for targetID := range r.snapshots {
		targets = append(targets, targetID)
	}
	sort.Strings(targets)
	return targets, nil
}
