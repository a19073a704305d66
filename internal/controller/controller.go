// Package controller drives the admission-controlled dispatch loop: per tick
// it takes a fresh snapshot of the backend's distribution counters, asks the
// admission estimator how many items may start, dispatches that many work-list
// items in order, and waits before rechecking.
package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mattjoyce/redistq/internal/admission"
	"github.com/mattjoyce/redistq/internal/content"
	"github.com/mattjoyce/redistq/internal/events"
	"github.com/mattjoyce/redistq/internal/log"
	"github.com/mattjoyce/redistq/internal/metrics"
)

// Config holds the loop's scheduling parameters.
type Config struct {
	Admission admission.Config
	Delay     time.Duration // inter-tick wait while work remains
}

// RunResult summarizes a completed (or cancelled) run.
type RunResult struct {
	ItemsDispatched int
	ItemsSkipped    int
	ActionsIssued   int
	ActionsFailed   int
	Ticks           int
}

// Status is a point-in-time view of loop progress for the status API.
type Status struct {
	Total      int       `json:"total"`
	Cursor     int       `json:"cursor"` // next 1-based index to dispatch
	Dispatched int       `json:"dispatched"`
	Skipped    int       `json:"skipped"`
	Ticks      int       `json:"ticks"`
	Waiting    bool      `json:"waiting"`
	StartedAt  time.Time `json:"started_at"`
}

// Controller owns the work list cursor and iteration policy. One run per
// Controller; the loop is strictly single-threaded.
type Controller struct {
	cfg     Config
	backend Backend
	hub     *events.Hub
	sink    Sink
	logger  *slog.Logger

	// wait suspends between ticks. Replaced in tests to avoid real sleeps.
	wait func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	status Status
}

// New creates a Controller. hub and sink may be nil.
func New(cfg Config, backend Backend, hub *events.Hub, sink Sink) *Controller {
	return &Controller{
		cfg:     cfg,
		backend: backend,
		hub:     hub,
		sink:    sink,
		logger:  log.WithComponent("controller"),
		wait:    sleepCtx,
	}
}

// Run dispatches every item of the work list, in ascending index order, under
// the admission policy. It returns once the list is exhausted or ctx is
// cancelled; per-item and per-action failures never abort the loop.
func (c *Controller) Run(ctx context.Context, list *content.WorkList) (*RunResult, error) {
	res := &RunResult{}
	total := list.Len()
	cursor := 1

	c.setStatus(func(s *Status) {
		s.Total = total
		s.Cursor = cursor
		s.StartedAt = time.Now().UTC()
	})

	c.logger.Info("run started", "items", total,
		"max_concurrent", c.cfg.Admission.MaxConcurrent,
		"target_threshold", c.cfg.Admission.TargetThreshold,
		"in_progress_threshold", c.cfg.Admission.InProgressThreshold,
		"delay", c.cfg.Delay)
	c.emit(ctx, events.TypeRunStart, map[string]any{"items": total})

	for cursor <= total {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.Ticks++
		metrics.TicksTotal.Inc()
		c.setStatus(func(s *Status) { s.Ticks = res.Ticks; s.Waiting = false })

		slots := c.admit(ctx)
		c.emit(ctx, events.TypeTick, map[string]any{"tick": res.Ticks, "slots": slots, "cursor": cursor})

		if slots == 0 {
			c.logger.Info("maximum concurrent updates reached, holding dispatch",
				"cursor", cursor, "tick", res.Ticks)
			c.emit(ctx, events.TypeAdmissionFull, map[string]any{"cursor": cursor})
		} else {
			// The admission budget for this tick is spent as a static count:
			// the backend is not re-queried between items.
			for i := 0; i < slots && cursor <= total; i++ {
				c.dispatchItem(ctx, list.At(cursor), res)
				cursor++
				c.setStatus(func(s *Status) {
					s.Cursor = cursor
					s.Dispatched = res.ItemsDispatched
					s.Skipped = res.ItemsSkipped
				})
				metrics.CursorPosition.Set(float64(cursor - 1))
			}
		}

		if cursor > total {
			break
		}

		c.logger.Info("waiting before next admission check",
			"delay", c.cfg.Delay, "remaining", total-cursor+1)
		c.emit(ctx, events.TypeWait, map[string]any{"delay_seconds": c.cfg.Delay.Seconds(), "remaining": total - cursor + 1})
		c.setStatus(func(s *Status) { s.Waiting = true })

		if err := c.wait(ctx, c.cfg.Delay); err != nil {
			return res, err
		}
	}

	c.logger.Info("run complete",
		"dispatched", res.ItemsDispatched, "skipped", res.ItemsSkipped,
		"actions", res.ActionsIssued, "action_failures", res.ActionsFailed,
		"ticks", res.Ticks)
	c.emit(ctx, events.TypeRunDone, map[string]any{
		"dispatched": res.ItemsDispatched,
		"skipped":    res.ItemsSkipped,
		"ticks":      res.Ticks,
	})
	return res, nil
}

// admit takes a fresh snapshot and computes this tick's budget. A failed
// status query is contained: it logs, yields zero slots, and the loop waits
// and rechecks on the next tick.
func (c *Controller) admit(ctx context.Context) int {
	snapshot, err := c.backend.DistributionStatus(ctx)
	if err != nil {
		c.logger.Error("distribution status query failed", "error", err)
		return 0
	}
	slots := admission.AvailableSlots(snapshot, c.cfg.Admission)
	metrics.AvailableSlots.Set(float64(slots))
	c.logger.Debug("admission check", "tracked", len(snapshot), "slots", slots)
	return slots
}

// dispatchItem issues the begin-distribution actions for one item. Every
// failure is contained; the caller advances the cursor exactly once no matter
// how many fan-out actions ran or failed.
func (c *Controller) dispatchItem(ctx context.Context, item content.Item, res *RunResult) {
	itemLogger := log.WithItem(item.Index, item.Name).With("kind", item.Kind.String())
	itemLogger.Info("dispatching item", "id", item.ID)

	fanout := []string{""}
	if item.Kind == content.KindApplication {
		names, err := c.backend.DeploymentTypeNames(ctx, item.Name)
		if err != nil {
			itemLogger.Error("deployment type lookup failed, skipping item", "error", err)
			c.emit(ctx, events.TypeItemSkip, map[string]any{
				"index": item.Index, "name": item.Name, "error": err.Error(),
			})
			res.ItemsSkipped++
			metrics.ItemsSkipped.Inc()
			return
		}
		fanout = names
	}

	c.emit(ctx, events.TypeItemDispatch, map[string]any{
		"index": item.Index, "kind": item.Kind.String(), "name": item.Name, "fanout": len(fanout),
	})

	for _, dt := range fanout {
		actionLogger := itemLogger
		if dt != "" {
			actionLogger = itemLogger.With("deployment_type", dt)
		}
		actionLogger.Info("starting distribution")
		c.emit(ctx, events.TypeActionStart, map[string]any{
			"index": item.Index, "name": item.Name, "deployment_type": dt,
		})

		res.ActionsIssued++
		metrics.ActionsIssued.Inc()
		if err := c.backend.BeginDistribution(ctx, item.Kind, item.ID, dt); err != nil {
			actionLogger.Error("begin distribution failed", "error", err)
			c.emit(ctx, events.TypeActionError, map[string]any{
				"index": item.Index, "name": item.Name, "deployment_type": dt, "error": err.Error(),
			})
			res.ActionsFailed++
			metrics.ActionsFailed.Inc()
			// Sibling fan-out actions still proceed.
		}
	}

	res.ItemsDispatched++
	metrics.ItemsDispatched.Inc()
}

// Status returns a copy of the current progress view.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) setStatus(f func(*Status)) {
	c.mu.Lock()
	f(&c.status)
	c.mu.Unlock()
}

// emit fans one state transition out to the hub and the journal sink.
func (c *Controller) emit(ctx context.Context, eventType string, data map[string]any) {
	if c.hub != nil {
		c.hub.Publish(eventType, data)
	}
	if c.sink != nil {
		c.sink.Record(ctx, eventType, data)
	}
}

// sleepCtx blocks for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
