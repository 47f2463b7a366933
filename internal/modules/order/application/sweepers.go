package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/saransh1220/album-market/internal/modules/order/domain"
	"github.com/saransh1220/album-market/internal/shared/clock"
)

// ExpirySweeper cancels orders left pending longer than the TTL.
type ExpirySweeper struct {
	orders domain.OrderRepository
	clock  clock.Clock
	ttl    time.Duration
	logger *slog.Logger
}

func NewExpirySweeper(orders domain.OrderRepository, clk clock.Clock, ttl time.Duration, logger *slog.Logger) *ExpirySweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &ExpirySweeper{orders: orders, clock: clk, ttl: ttl, logger: logger.With("component", "expiry_sweeper")}
}

// Sweep cancels every pending order created at or before now - ttl.
func (s *ExpirySweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	cutoff := now.Add(-s.ttl)

	n, err := s.orders.CancelStalePending(ctx, cutoff, now)
	if err != nil {
		s.logger.Error("expiry sweep failed", "cutoff", cutoff, "error", err)
		return 0, err
	}

	if n > 0 {
		ordersExpired.Add(float64(n))
		orderTransitions.WithLabelValues(string(domain.StatusPending), string(domain.StatusCancelled)).Add(float64(n))
	}
	s.logger.Info("expiry sweep finished", "cancelled", n, "cutoff", cutoff)
	return n, nil
}

func (s *ExpirySweeper) Run(ctx context.Context) error {
	_, err := s.Sweep(ctx)
	return err
}

// RetentionReaper deletes cancelled orders once the retention window has passed.
type RetentionReaper struct {
	orders    domain.OrderRepository
	uow       domain.UnitOfWork
	archiver  domain.OrderArchiver
	clock     clock.Clock
	retention time.Duration
	logger    *slog.Logger
}

// NewRetentionReaper builds a reaper. archiver may be nil.
func NewRetentionReaper(
	orders domain.OrderRepository,
	uow domain.UnitOfWork,
	archiver domain.OrderArchiver,
	clk clock.Clock,
	retention time.Duration,
	logger *slog.Logger,
) *RetentionReaper {
	if logger == nil {
		logger = slog.Default()
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &RetentionReaper{
		orders:    orders,
		uow:       uow,
		archiver:  archiver,
		clock:     clk,
		retention: retention,
		logger:    logger.With("component", "retention_reaper"),
	}
}

// Reap deletes cancelled orders whose cancellation is at or before now - retention.
// When an archiver is set, the deletion only commits if the archive write succeeds.
func (r *RetentionReaper) Reap(ctx context.Context) (int, error) {
	now := r.clock.Now()
	cutoff := now.Add(-r.retention)

	var purged []domain.Order
	err := r.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		purged, err = r.orders.PurgeCancelledBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		if r.archiver == nil || len(purged) == 0 {
			return nil
		}
		return r.archiver.Archive(ctx, now, purged)
	})
	if err != nil {
		r.logger.Error("retention reap failed", "cutoff", cutoff, "error", err)
		return 0, err
	}

	ordersPurged.Add(float64(len(purged)))
	r.logger.Info("retention reap finished", "purged", len(purged), "cutoff", cutoff)
	return len(purged), nil
}

func (r *RetentionReaper) Run(ctx context.Context) error {
	_, err := r.Reap(ctx)
	return err
}
