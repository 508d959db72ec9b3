package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const enqueueTimeout = 5 * time.Second

// JobInserter is the part of river.Client the dispatcher uses.
type JobInserter interface {
	InsertMany(ctx context.Context, params []river.InsertManyParams) ([]*rivertype.JobInsertResult, error)
}

// Dispatcher enqueues one River job per event. It runs after the caller's
// unit of work has committed, so an enqueue failure loses the notification
// but never the state change. The insert runs in the background and Notify
// returns immediately.
type Dispatcher struct {
	inserter JobInserter
	log      *slog.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(inserter JobInserter, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{inserter: inserter, log: log}
}

var _ Notifier = (*Dispatcher)(nil)

func (d *Dispatcher) Notify(ctx context.Context, events ...Event) {
	if len(events) == 0 {
		return
	}
	params := make([]river.InsertManyParams, len(events))
	for i, ev := range events {
		params[i] = river.InsertManyParams{Args: NotifyArgs{Event: ev}}
	}
	ctx = context.WithoutCancel(ctx)
	kind := events[0].Kind

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, enqueueTimeout)
		defer cancel()
		if _, err := d.inserter.InsertMany(ctx, params); err != nil {
			d.log.ErrorContext(ctx, "enqueue notifications failed", "count", len(params), "kind", kind, "error", err)
			return
		}
		d.log.DebugContext(ctx, "notifications enqueued", "count", len(params), "kind", kind)
	}()
}

// Wait blocks until every pending enqueue has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inline delivers events synchronously through a Worker without a job
// queue. Tests use it to exercise rendering and delivery end to end.
type Inline struct {
	worker *Worker
	log    *slog.Logger
}

func NewInline(worker *Worker, log *slog.Logger) *Inline {
	if log == nil {
		log = slog.Default()
	}
	return &Inline{worker: worker, log: log}
}

var _ Notifier = (*Inline)(nil)

func (n *Inline) Notify(ctx context.Context, events ...Event) {
	ctx = context.WithoutCancel(ctx)
	for _, ev := range events {
		if err := n.worker.Deliver(ctx, ev); err != nil {
			n.log.WarnContext(ctx, "notification failed", "kind", ev.Kind, "error", err)
		}
	}
}

// Recorder keeps every event it is given.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ Notifier = (*Recorder)(nil)

func (r *Recorder) Notify(_ context.Context, events ...Event) {
	r.mu.Lock()
	r.events = append(r.events, events...)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfKind returns the recorded events of kind k.
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}
