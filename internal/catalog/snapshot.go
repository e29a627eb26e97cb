package catalog

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// SnapshotService serves point-in-time snapshots of single items, caching
// them so repeated pricing lookups for a popular item do not hammer the
// repository.
type SnapshotService struct {
	repo  Repository
	cache Cache
	sfg   singleflight.Group // prevents cache stampede per item id
}

func NewSnapshotService(repo Repository, cache Cache) *SnapshotService {
	return &SnapshotService{
		repo:  repo,
		cache: cache,
	}
}

// Snapshot returns the item with its variations and add-ons. Cache errors
// other than a miss are logged and fall through to the repository.
func (s *SnapshotService) Snapshot(ctx context.Context, itemID string) (*Snapshot, error) {
	v, err, _ := s.sfg.Do(itemID, func() (interface{}, error) {
		snap, err := s.cache.Get(ctx, itemID)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			slog.WarnContext(ctx, "snapshot cache get failed", "item_id", itemID, "error", err)
		}

		snap, err = s.load(ctx, itemID)
		if err != nil {
			return nil, err
		}

		go func() {
			if err := s.cache.Set(context.Background(), itemID, snap); err != nil {
				slog.Warn("snapshot cache set failed", "item_id", itemID, "error", err)
			}
		}()

		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (s *SnapshotService) load(ctx context.Context, itemID string) (*Snapshot, error) {
	item, err := s.repo.ItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	variations, err := s.repo.VariationsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	addons, err := s.repo.AddonsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Item: *item, Variations: variations, Addons: addons}, nil
}
