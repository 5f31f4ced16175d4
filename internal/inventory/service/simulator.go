package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/pharmanet/pharmanet-backend/pkg/errors"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
)

// Simulator emulates concurrent point-of-sale activity by injecting
// randomized stock deltas through the ledger's public operations. It
// exists to exercise the ledger and alerting logic in demo setups; a
// production deployment replaces it with real point-of-sale ingestion
// behind the same write API.
type Simulator struct {
	ledger   *Ledger
	interval time.Duration
	maxDelta int
	rnd      *rand.Rand
	logger   *logger.Logger
	cancel   context.CancelFunc
}

// NewSimulator creates a simulation driver over the given ledger
func NewSimulator(ledger *Ledger, interval time.Duration, maxDelta int, log *logger.Logger) *Simulator {
	if maxDelta < 1 {
		maxDelta = 1
	}

	return &Simulator{
		ledger:   ledger,
		interval: interval,
		maxDelta: maxDelta,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   log,
	}
}

// Start starts the simulation in a background goroutine
func (s *Simulator) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("point-of-sale simulation started")

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("point-of-sale simulation stopped")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop stops the simulation goroutine
func (s *Simulator) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// tick applies one randomized delta to a random item. All mutations go
// through the public ledger operations, so invariants and alerting
// behave exactly as they would for real point-of-sale events.
func (s *Simulator) tick(ctx context.Context) {
	items := s.ledger.AllItems()
	if len(items) == 0 {
		return
	}

	item := items[s.rnd.Intn(len(items))]
	quantity := 1 + s.rnd.Intn(s.maxDelta)

	var err error
	if s.rnd.Intn(10) < 7 {
		_, err = s.ledger.RecordSale(ctx, item.PharmacyID, item.ProductID, quantity)
	} else {
		_, err = s.ledger.RecordRestock(ctx, item.PharmacyID, item.ProductID, quantity)
	}

	if err != nil {
		// Rejections are expected when stock runs dry.
		if errors.Is(err, errors.ErrInsufficientStock) {
			s.logger.Debug().
				Str("item_id", item.ID).
				Int("quantity", quantity).
				Msg("simulated sale rejected, stock exhausted")
			return
		}
		s.logger.Error().Err(err).Str("item_id", item.ID).Msg("simulated mutation failed")
	}
}
