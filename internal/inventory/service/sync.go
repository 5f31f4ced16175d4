package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pharmanet/pharmanet-backend/internal/inventory/repository"
	"github.com/pharmanet/pharmanet-backend/pkg/errors"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
)

// SyncStatus is the coordinator's connectivity state
type SyncStatus string

// Coordinator states
const (
	StatusOnline  SyncStatus = "online"
	StatusOffline SyncStatus = "offline"
	StatusSyncing SyncStatus = "syncing"
)

// RemoteStore is the remote system of record local changes are
// flushed to. Both calls must be idempotent: a failed flush is
// retried with the same payload (at-least-once).
type RemoteStore interface {
	SaveMovements(ctx context.Context, movements []*repository.StockMovement) error
	UpsertItems(ctx context.Context, items []*repository.InventoryItem) error
}

// SyncEventPublisher is notified after each successful flush
type SyncEventPublisher interface {
	PublishSyncCompleted(ctx context.Context, flushed int, duration time.Duration)
}

// PendingChange is one locally applied mutation waiting for outbound
// sync. Movement is nil for changes that only touched item fields
// (provisioning at zero stock, reservations).
type PendingChange struct {
	Movement *repository.StockMovement
	Item     *repository.InventoryItem
}

// SyncResult reports the outcome of a queue flush
type SyncResult struct {
	Flushed   int           `json:"flushed"`
	Remaining int           `json:"remaining"`
	Status    SyncStatus    `json:"status"`
	Duration  time.Duration `json:"duration"`
}

// SyncCoordinator reconciles locally queued mutations with the remote
// system of record under unreliable connectivity.
//
// Transitions: Online -> Offline on connectivity loss; Offline ->
// Syncing automatically on restoration; Syncing -> Online on a
// successful flush, Syncing -> Offline on a failed one. The queue is
// preserved across failures; changes are never dropped.
//
// Enqueue never blocks on an in-flight flush: the remote round-trip
// happens outside the coordinator's lock.
type SyncCoordinator struct {
	mu        sync.Mutex
	status    SyncStatus
	queue     []PendingChange
	remote    RemoteStore
	publisher SyncEventPublisher
	logger    *logger.Logger
	cancel    context.CancelFunc
}

// NewSyncCoordinator creates a coordinator over the given remote store
func NewSyncCoordinator(remote RemoteStore, startOnline bool, log *logger.Logger) *SyncCoordinator {
	status := StatusOffline
	if startOnline {
		status = StatusOnline
	}

	return &SyncCoordinator{
		status: status,
		remote: remote,
		logger: log,
	}
}

// SetPublisher attaches the sync event publisher
func (c *SyncCoordinator) SetPublisher(p SyncEventPublisher) {
	c.publisher = p
}

// Enqueue queues a locally applied mutation for outbound sync.
// Implements ChangeQueue; accepted in every state, including while a
// flush is in flight.
func (c *SyncCoordinator) Enqueue(change PendingChange) {
	c.mu.Lock()
	c.queue = append(c.queue, change)
	pending := len(c.queue)
	c.mu.Unlock()

	c.logger.Debug().Int("pending", pending).Msg("change queued for sync")
}

// Status returns the current coordinator state
func (c *SyncCoordinator) Status() SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// PendingCount returns the number of queued changes
func (c *SyncCoordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// SetOnline feeds the host platform's connectivity signal. Restoring
// connectivity triggers an immediate flush of the pending queue.
func (c *SyncCoordinator) SetOnline(ctx context.Context, online bool) {
	c.mu.Lock()

	if !online {
		wasOnline := c.status != StatusOffline
		c.status = StatusOffline
		c.mu.Unlock()
		if wasOnline {
			c.logger.Info().Msg("connectivity lost, queuing changes locally")
		}
		return
	}

	if c.status != StatusOffline {
		c.mu.Unlock()
		return
	}

	c.status = StatusOnline
	c.mu.Unlock()

	c.logger.Info().Msg("connectivity restored, syncing pending changes")

	if _, err := c.SyncInventory(ctx); err != nil {
		c.logger.Error().Err(err).Msg("automatic sync after reconnect failed")
	}
}

// SyncInventory drains the pending queue against the remote store.
// Offline attempts fail immediately with a typed error and leave the
// queue untouched. On a failed flush every change stays queued and the
// coordinator drops to Offline until connectivity is signalled again.
func (c *SyncCoordinator) SyncInventory(ctx context.Context) (*SyncResult, error) {
	c.mu.Lock()

	switch c.status {
	case StatusOffline:
		c.mu.Unlock()
		return nil, errors.SyncUnavailable()
	case StatusSyncing:
		c.mu.Unlock()
		return nil, errors.Conflict("sync already in progress")
	}

	c.status = StatusSyncing
	flushCount := len(c.queue)
	snapshot := make([]PendingChange, flushCount)
	copy(snapshot, c.queue)
	c.mu.Unlock()

	start := time.Now()

	if flushCount == 0 {
		c.mu.Lock()
		if c.status == StatusSyncing {
			c.status = StatusOnline
		}
		status := c.status
		c.mu.Unlock()
		return &SyncResult{Status: status}, nil
	}

	movements := make([]*repository.StockMovement, 0, flushCount)
	itemIndex := make(map[string]int)
	items := make([]*repository.InventoryItem, 0, flushCount)
	for _, change := range snapshot {
		if change.Movement != nil {
			movements = append(movements, change.Movement)
		}
		if change.Item != nil {
			// Last snapshot per item wins.
			if at, seen := itemIndex[change.Item.ID]; seen {
				items[at] = change.Item
			} else {
				itemIndex[change.Item.ID] = len(items)
				items = append(items, change.Item)
			}
		}
	}

	err := c.remote.SaveMovements(ctx, movements)
	if err == nil {
		err = c.remote.UpsertItems(ctx, items)
	}

	if err != nil {
		c.mu.Lock()
		c.status = StatusOffline
		remaining := len(c.queue)
		c.mu.Unlock()

		c.logger.Error().Err(err).Int("pending", remaining).Msg("sync failed, changes saved locally")
		return nil, errors.Wrap(err, "SYNC_FAILED", "sync failed, changes saved locally", http.StatusBadGateway)
	}

	c.mu.Lock()
	c.queue = append(c.queue[:0:0], c.queue[flushCount:]...)
	if c.status == StatusSyncing {
		c.status = StatusOnline
	}
	remaining := len(c.queue)
	status := c.status
	c.mu.Unlock()

	duration := time.Since(start)
	c.logger.Info().
		Int("flushed", flushCount).
		Int("remaining", remaining).
		Dur("duration", duration).
		Msg("sync completed")

	if c.publisher != nil {
		c.publisher.PublishSyncCompleted(ctx, flushCount, duration)
	}

	return &SyncResult{
		Flushed:   flushCount,
		Remaining: remaining,
		Status:    status,
		Duration:  duration,
	}, nil
}

// StartAutoFlush starts a background goroutine that periodically
// flushes the queue while online. Stop with StopAutoFlush.
func (c *SyncCoordinator) StartAutoFlush(ctx context.Context, interval time.Duration) {
	ctx, c.cancel = context.WithCancel(ctx)

	go func() {
		c.logger.Info().Dur("interval", interval).Msg("sync auto-flush started")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.logger.Info().Msg("sync auto-flush stopped")
				return
			case <-ticker.C:
				if c.Status() != StatusOnline || c.PendingCount() == 0 {
					continue
				}
				if _, err := c.SyncInventory(ctx); err != nil {
					c.logger.Error().Err(err).Msg("periodic sync failed")
				}
			}
		}
	}()
}

// StopAutoFlush stops the background flusher
func (c *SyncCoordinator) StopAutoFlush() {
	if c.cancel != nil {
		c.cancel()
	}
}
