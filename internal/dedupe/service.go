// Package dedupe is the Dedupe Service (spec §4.10): a single-instance,
// cancelable cursor-paged scan over hashed images that removes or deletes
// duplicates in batches, reporting progress via internal/events. Grounded
// almost verbatim on app-main/src/ipc/dedupe_service.rs's
// run_dedupe_batched, translating its Arc<AtomicBool> cancel flag and
// tokio::spawn_blocking scan task into a Go atomic.Bool guard and a plain
// goroutine.
package dedupe

import (
	"sync/atomic"

	"github.com/kabegame/kabegame-sub003/internal/errorx"
	"github.com/kabegame/kabegame-sub003/internal/events"
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

// DefaultBatchSize is used when a caller requests batch_size <= 0.
const DefaultBatchSize = 200

// Service runs at most one dedupe scan at a time. The zero value is not
// usable; construct with New.
type Service struct {
	store       *storage.Storage
	broadcaster *events.Broadcaster

	running atomic.Bool
	cancel  atomic.Bool
}

// New builds a Service scanning store and publishing progress to
// broadcaster.
func New(store *storage.Storage, broadcaster *events.Broadcaster) *Service {
	return &Service{store: store, broadcaster: broadcaster}
}

// Start launches a batched scan in its own goroutine. Concurrent starts
// fail fast with a Busy error rather than queuing, matching the
// original's "去重正在进行中" rejection.
func (s *Service) Start(deleteFiles bool, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if !s.running.CompareAndSwap(false, true) {
		return errorx.New(errorx.Busy, "dedupe scan already in progress")
	}
	s.cancel.Store(false)

	go func() {
		defer s.running.Store(false)
		s.run(deleteFiles, batchSize)
	}()
	return nil
}

// Cancel requests that a running scan stop at its next batch boundary,
// reporting whether a scan was actually in flight.
func (s *Service) Cancel() bool {
	if !s.running.Load() {
		return false
	}
	s.cancel.Store(true)
	return true
}

func (s *Service) run(deleteFiles bool, batchSize int) {
	total, err := s.store.GetDedupeTotalHashImagesCount()
	if err != nil {
		return
	}

	seenHashes := make(map[string]bool)
	var processed, removedTotal, batchIndex int
	var cursor *storage.DedupeCursor

	settings, err := s.store.GetSettings()
	if err != nil {
		return
	}
	currentWallpaper := settings.CurrentWallpaperImageID

	for {
		if s.cancel.Load() {
			s.emitFinished(processed, total, removedTotal, true)
			return
		}

		batch, err := s.store.GetDedupeBatch(cursor, batchSize)
		if err != nil || len(batch) == 0 {
			break
		}
		last := batch[len(batch)-1].Cursor()
		cursor = &last
		processed += len(batch)

		var removeIDs []types.ImageID
		for _, row := range batch {
			if row.Hash == "" {
				continue
			}
			if seenHashes[row.Hash] {
				removeIDs = append(removeIDs, row.ID)
			} else {
				seenHashes[row.Hash] = true
			}
		}

		if len(removeIDs) > 0 {
			s.removeBatch(deleteFiles, removeIDs)

			if currentWallpaper != nil && containsID(removeIDs, *currentWallpaper) {
				_ = s.store.SetCurrentWallpaperImageID(nil)
				currentWallpaper = nil
			}
			removedTotal += len(removeIDs)
		}

		s.broadcaster.Publish(events.DedupeProgress, map[string]any{
			"processed":  processed,
			"total":      total,
			"removed":    removedTotal,
			"batchIndex": batchIndex,
		})
		batchIndex++
	}

	s.emitFinished(processed, total, removedTotal, false)
}

func (s *Service) removeBatch(deleteFiles bool, ids []types.ImageID) {
	reason := "remove"
	if deleteFiles {
		reason = "delete"
		_ = s.store.BatchDeleteImages(ids)
	} else {
		_ = s.store.BatchRemoveImages(ids)
	}
	s.broadcaster.Publish(events.ImagesChange, map[string]any{
		"reason":   reason,
		"imageIds": ids,
	})
}

func (s *Service) emitFinished(processed, total, removedTotal int, canceled bool) {
	s.broadcaster.Publish(events.DedupeFinished, map[string]any{
		"processed": processed,
		"total":     total,
		"removed":   removedTotal,
		"canceled":  canceled,
	})
}

func containsID(ids []types.ImageID, target types.ImageID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
