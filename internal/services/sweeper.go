package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"travelbackend/internal/domain"
	"travelbackend/internal/domain/models"
	"travelbackend/internal/metrics"
	"travelbackend/internal/repositories"
	"travelbackend/internal/utils"
	"travelbackend/internal/vendor"
)

// ErrSweepInProgress is returned when a pass is requested while one is running.
var ErrSweepInProgress = errors.New("sweep already in progress")

type SweepSummary struct {
	Processed int `json:"processed"`
	Confirmed int `json:"confirmed"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`
}

// Sweeper advances bookings the vendor left PENDING. Passes never overlap:
// the ticker loop, the admin endpoint and the CLI share one guard.
type Sweeper struct {
	Store       repositories.Store
	Vendor      vendor.Booker
	Interval    time.Duration
	Batch       int
	Concurrency int

	running sync.Mutex
}

// Run sweeps on every tick until ctx is cancelled. A tick that fires while a
// pass is still running is dropped.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	slog.Info("sweeper started", "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				if errors.Is(err, ErrSweepInProgress) {
					slog.Warn("sweep tick skipped, previous pass still running")
					continue
				}
				slog.Error("sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce runs a single pass. Per-booking failures are counted, never returned.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepSummary, error) {
	if !s.running.TryLock() {
		return SweepSummary{}, ErrSweepInProgress
	}
	defer s.running.Unlock()

	batch := s.Batch
	if batch <= 0 {
		batch = 100
	}
	pending, err := s.Store.Repos().Bookings.ListByStatus(ctx, models.StatusPending, batch)
	if err != nil {
		return SweepSummary{}, err
	}

	var confirmed, skipped, errored atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	limit := s.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, b := range pending {
		g.Go(func() error {
			res, err := s.sweepBooking(gctx, b)
			switch {
			case err != nil:
				errored.Add(1)
				slog.Error("sweep item failed", "booking_id", b.ID, "error", err)
			case res == "confirmed":
				confirmed.Add(1)
			case res == "skipped":
				skipped.Add(1)
			}
			if err != nil {
				res = "errored"
			}
			metrics.SweepItems.WithLabelValues(res).Inc()
			return nil
		})
	}
	_ = g.Wait()

	sum := SweepSummary{
		Processed: len(pending),
		Confirmed: int(confirmed.Load()),
		Skipped:   int(skipped.Load()),
		Errored:   int(errored.Load()),
	}
	metrics.SweepRuns.Inc()
	utils.LogEvent("", "sweeper", "sweep", "sweep finished",
		"processed", sum.Processed, "confirmed", sum.Confirmed, "skipped", sum.Skipped, "errored", sum.Errored)
	return sum, nil
}

// sweepBooking reports "confirmed", "skipped" or "unchanged".
func (s *Sweeper) sweepBooking(ctx context.Context, b models.Booking) (string, error) {
	ref := b.VendorRequest.TransactionRef()
	if ref == "" {
		slog.Warn("pending booking has no vendor transaction reference", "booking_id", b.ID)
		return "skipped", nil
	}

	status, err := s.Vendor.QueryStatus(ctx, ref)
	if err != nil {
		return "", err
	}
	if !status.AllConfirmed() {
		return "unchanged", nil
	}

	err = s.Store.WithTx(ctx, func(r repositories.Repos) error {
		locked, err := r.Bookings.GetForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		if locked.Status != models.StatusPending {
			return errAlreadyResolved
		}
		next := models.StatusConfirmed
		return r.Bookings.Update(ctx, locked.ID, locked.Status, models.BookingUpdate{
			Status:         &next,
			VendorResponse: status.Raw,
		})
	})
	switch {
	case errors.Is(err, errAlreadyResolved), domain.IsConflict(err):
		return "unchanged", nil
	case err != nil:
		return "", err
	}
	utils.LogEvent("", "sweeper", "confirm", "pending booking confirmed", "booking_id", b.ID)
	return "confirmed", nil
}

var errAlreadyResolved = errors.New("booking no longer pending")
