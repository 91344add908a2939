package instances

//go:generate mockgen -destination=mock/mock.go -package=mockinstances -source=interface.go

import (
	"context"

	"github.com/thornmere/condition-engine/internal/domain/conditions"
)

// Repository persists per-target condition instance snapshots. A snapshot is
// the complete instance set of one target; each Save replaces the previous
// snapshot atomically.
type Repository interface {
	// Save stores the target's full instance set. An empty set removes the
	// stored snapshot.
	Save(ctx context.Context, targetID string, instances []*conditions.Instance) error

	// Get retrieves the target's instance set. A target with no stored
	// snapshot yields an empty set, not an error.
	Get(ctx context.Context, targetID string) ([]*conditions.Instance, error)

	// Delete removes the target's snapshot
	Delete(ctx context.Context, targetID string) error

	// ListTargets returns the IDs of all targets with a stored snapshot
	ListTargets(ctx context.Context) ([]string, error)
}
