package alerts

import (
	"context"
	"log/slog"
	"sync"

	"github.com/preacpe/go-frost-alerts/internal/features"
	"github.com/preacpe/go-frost-alerts/internal/models"
	"github.com/preacpe/go-frost-alerts/internal/repository"
)

// Sender is the slice of the SMS service the dispatcher needs.
type Sender interface {
	SendFrostAlert(ctx context.Context, phone string, pred models.Prediction, meta features.Meta) (models.SMSResult, error)
}

type frostJob struct {
	phone string
	pred  models.Prediction
	meta  features.Meta
}

// Dispatcher fans frost alerts out to subscribers through a small worker
// pool, so one slow gateway call does not serialize the whole broadcast.
type Dispatcher struct {
	workers int
	jobs    chan frostJob
	sender  Sender
	repo    repository.SubscriberRepository
	wg      sync.WaitGroup
}

func NewDispatcher(workers, bufferSize int, sender Sender, repo repository.SubscriberRepository) *Dispatcher {
	return &Dispatcher{
		workers: workers,
		jobs:    make(chan frostJob, bufferSize),
		sender:  sender,
		repo:    repo,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	for i := 1; i <= d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-d.jobs:
			if !ok {
				return
			}
			result, err := d.sender.SendFrostAlert(ctx, job.phone, job.pred, job.meta)
			if err != nil {
				slog.Error("frost alert rejected", "phone", job.phone, "error", err)
				continue
			}
			if !result.Success {
				slog.Warn("frost alert delivery failed", "phone", job.phone, "error", result.Error)
			}
		}
	}
}

// BroadcastFrost queues one frost alert per subscriber and returns how many
// were queued. Delivery outcomes are logged by the workers.
func (d *Dispatcher) BroadcastFrost(ctx context.Context, pred models.Prediction, meta features.Meta) (int, error) {
	subs, err := d.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	for _, sub := range subs {
		d.jobs <- frostJob{
			phone: sub.Phone,
			pred:  pred,
			meta:  meta,
		}
	}

	slog.Info("frost broadcast queued", "subscribers", len(subs), "risk_level", pred.RiskLevel)
	return len(subs), nil
}

// Stop drains queued jobs and waits for the workers.
func (d *Dispatcher) Stop() {
	close(d.jobs)
	d.wg.Wait()
}
