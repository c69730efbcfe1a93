package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/CalTopSoft/backend-devhub/internal/model"
	"github.com/CalTopSoft/backend-devhub/internal/storage"
)

// Package assets decides where a project's binaries live for a given
// lifecycle state and performs the storage moves, guaranteeing
// all-or-nothing effect for a promotion batch.

// ErrPromotionFailed means a move batch failed; every completed move was
// reversed before returning, so the caller observes a no-op.
var ErrPromotionFailed = errors.New("asset promotion failed")

// Item pairs an asset record with the kind slot it occupies, which scopes
// its permanent path.
type Item struct {
	Kind  model.AssetKind
	Asset *model.AssetRecord
}

// Move records one completed relocation so it can be reversed if the batch
// must be undone after the fact.
type Move struct {
	Asset   *model.AssetRecord
	FromKey string
	ToKey   string
}

// Manager translates target placements into object-storage operations.
type Manager struct {
	store           storage.Storage
	log             *zap.Logger
	discardAttempts int
	presignExpiry   time.Duration
}

// NewManager creates an asset lifecycle manager over the given storage.
func NewManager(store storage.Storage, log *zap.Logger) *Manager {
	return &Manager{
		store:           store,
		log:             log,
		discardAttempts: 3,
		presignExpiry:   7 * 24 * time.Hour,
	}
}

// Promote moves every staged or draft-staged item to its permanent path
// under projectID, mutating each record's storage key and display URL.
// On a mid-batch failure every completed move is reversed and
// ErrPromotionFailed is returned; storage is left exactly as found.
// The returned moves let the caller undo the batch later, e.g. when the
// surrounding transition fails to commit.
func (m *Manager) Promote(ctx context.Context, projectID string, items []Item) ([]Move, error) {
	var done []Move
	for _, it := range items {
		a := it.Asset
		if !a.Stored() {
			continue
		}
		if storage.IsPermanent(a.StorageKey) {
			continue
		}
		dst := storage.PermanentKey(projectID, string(it.Kind), a.FileName)
		info, err := m.store.Move(ctx, a.StorageKey, dst)
		if err != nil {
			m.Rollback(ctx, done)
			return nil, fmt.Errorf("%w: move %s to %s: %v", ErrPromotionFailed, a.StorageKey, dst, err)
		}
		done = append(done, Move{Asset: a, FromKey: a.StorageKey, ToKey: info.Key})
		a.StorageKey = info.Key
		if url, perr := m.store.PresignGet(ctx, info.Key, m.presignExpiry); perr == nil {
			a.DisplayURL = url
		} else {
			m.log.Warn("presign after promote failed", zap.String("key", info.Key), zap.Error(perr))
		}
	}
	return done, nil
}

// Rollback reverses completed moves, newest first. A move that cannot be
// reversed has its promoted copy deleted instead, so no orphan survives.
func (m *Manager) Rollback(ctx context.Context, moves []Move) {
	for i := len(moves) - 1; i >= 0; i-- {
		mv := moves[i]
		if _, err := m.store.Move(ctx, mv.ToKey, mv.FromKey); err != nil {
			m.log.Warn("promotion rollback move failed",
				zap.String("from", mv.ToKey),
				zap.String("to", mv.FromKey),
				zap.Error(err))
			if delErr := m.store.Delete(ctx, mv.ToKey); delErr != nil && !errors.Is(delErr, storage.ErrObjectNotFound) {
				m.log.Error("promotion rollback delete failed; object left for operational cleanup",
					zap.String("key", mv.ToKey),
					zap.Error(delErr))
			}
		}
		mv.Asset.StorageKey = mv.FromKey
	}
}

// Discard deletes every stored record in the set. Failures are retried a
// bounded number of times and then logged; they never propagate, since the
// invariant protected is "never keep a file the user can no longer
// reference", not "never leak storage".
func (m *Manager) Discard(ctx context.Context, records []*model.AssetRecord) {
	for _, a := range records {
		if !a.Stored() {
			continue
		}
		key := a.StorageKey
		var err error
		for attempt := 1; attempt <= m.discardAttempts; attempt++ {
			err = m.store.Delete(ctx, key)
			if err == nil || errors.Is(err, storage.ErrObjectNotFound) {
				err = nil
				break
			}
			m.log.Warn("asset discard attempt failed",
				zap.String("key", key),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		if err != nil {
			m.log.Error("asset discard failed; object left for operational cleanup",
				zap.String("key", key),
				zap.Error(err))
		}
	}
}

// Replace swaps one asset slot: the new record is promoted first and the
// old one deleted only after promotion succeeds, so the project never
// points at zero valid assets.
func (m *Manager) Replace(ctx context.Context, projectID string, kind model.AssetKind, oldAsset, newAsset *model.AssetRecord) error {
	if _, err := m.Promote(ctx, projectID, []Item{{Kind: kind, Asset: newAsset}}); err != nil {
		return err
	}
	if oldAsset.Stored() {
		m.Discard(ctx, []*model.AssetRecord{oldAsset})
	}
	return nil
}
