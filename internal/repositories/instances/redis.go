package instances

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/thornmere/condition-engine/internal/domain/conditions"
	engerr "github.com/thornmere/condition-engine/internal/errors"
)

const targetIndexKey = "conditions:targets"

// redisRepo implements the Repository interface using Redis. Snapshots are
// stored as JSON under one key per target, with a set indexing which targets
// currently hold conditions.
type redisRepo struct {
	client redis.UniversalClient
}

// NewRedis creates a Redis-backed instance repository
func NewRedis(client redis.UniversalClient) Repository {
	return &redisRepo{client: client}
}

func snapshotKey(targetID string) string {
	return fmt.Sprintf("conditions:target:%s", targetID)
}

// Save stores the target's full instance set
func (r *redisRepo) Save(ctx context.Context, targetID string, insts []*conditions.Instance) error {
	if targetID == "" {
		return engerr.InvalidArgument("target ID is required")
	}

	if len(insts) == 0 {
		return r.Delete(ctx, targetID)
	}

	jsonData, err := json.Marshal(insts)
	if err != nil {
		return engerr.Wrapf(err, "failed to marshal snapshot for target %s", targetID)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, snapshotKey(targetID), string(jsonData), 0)
	pipe.SAdd(ctx, targetIndexKey, targetID)
	if _, err := pipe.Exec(ctx); err != nil {
		return engerr.Wrapf(err, "failed to save snapshot for target %s", targetID)
	}

	return nil
}

// Get retrieves the target's instance set
func (r *redisRepo) Get(ctx context.Context, targetID string) ([]*conditions.Instance, error) {
	if targetID == "" {
		return nil, engerr.InvalidArgument("target ID is required")
	}

	jsonData, err := r.client.Get(ctx, snapshotKey(targetID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, engerr.Wrapf(err, "failed to get snapshot for target %s", targetID)
	}

	var insts []*conditions.Instance
	if err := json.Unmarshal(jsonData, &insts); err != nil {
		return nil, engerr.Wrapf(err, "failed to unmarshal snapshot for target %s", targetID)
	}

	return insts, nil
}

// Delete removes the target's snapshot
func (r *redisRepo) Delete(ctx context.Context, targetID string) error {
	if targetID == "" {
		return engerr.InvalidArgument("target ID is required")
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, snapshotKey(targetID))
	pipe.SRem(ctx, targetIndexKey, targetID)
	if _, err := pipe.Exec(ctx); err != nil {
		return engerr.Wrapf(err, "failed to delete snapshot for target %s", targetID)
	}

	return nil
}

// ListTargets returns the IDs of all targets with a stored snapshot
func (r *redisRepo) ListTargets(ctx context.Context) ([]string, error) {
	targets, err := r.client.SMembers(ctx, targetIndexKey).Result()
	if err != nil {
		return nil, engerr.Wrap(err, "failed to list condition targets")
	}
	return targets, nil
}
