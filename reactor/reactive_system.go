package reactor

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
)

// OnErrorFunc receives errors raised by effects that were run from a write
// or from the task queue rather than by a direct call.
type OnErrorFunc func(from *Effect, err error)

// ReactiveSystem is a tracking context: it owns the subscription registry and
// the active-computation stack. Independent systems never see each other's
// effects. A system is not safe for concurrent use; drive it from one
// goroutine.
type ReactiveSystem struct {
	registry *registry
	stack    activeStack

	lastID  uint64
	onError OnErrorFunc
	logger  *slog.Logger
	queue   TaskQueue

	runs, triggers, schedules uint64
}

type Option func(*ReactiveSystem)

// WithOnError installs a handler for errors raised by effects run from a
// write. With a handler the remaining effects of the fan-out still run;
// without one the first error stops the fan-out and is returned to the writer.
func WithOnError(fn OnErrorFunc) Option {
	return func(rs *ReactiveSystem) {
		rs.onError = fn
	}
}

// WithLogger sets the structured logger. Runs and writes are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(rs *ReactiveSystem) {
		if logger != nil {
			rs.logger = logger
		}
	}
}

// WithTaskQueue sets the queue deferred watchers submit their jobs to.
func WithTaskQueue(q TaskQueue) Option {
	return func(rs *ReactiveSystem) {
		rs.queue = q
	}
}

func CreateReactiveSystem(opts ...Option) *ReactiveSystem {
	rs := &ReactiveSystem{
		registry: newRegistry(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Active returns the effect reads are currently attributed to, if any.
func (rs *ReactiveSystem) Active() *Effect {
	return rs.stack.tracking()
}

// TaskQueue returns the queue deferred watchers use, or nil.
func (rs *ReactiveSystem) TaskQueue() TaskQueue {
	return rs.queue
}

// PauseTracking stops attributing reads until the matching ResumeTracking.
// The running effect is still skipped by writes made meanwhile.
func (rs *ReactiveSystem) PauseTracking() {
	rs.stack.pause()
}

// ResumeTracking ends the innermost pause. Without one it does nothing.
func (rs *ReactiveSystem) ResumeTracking() {
	rs.stack.resume()
}

// Untracked runs fn without attributing its reads to the active effect.
func (rs *ReactiveSystem) Untracked(fn func()) {
	rs.PauseTracking()
	defer rs.ResumeTracking()
	fn()
}

// Track records that the active effect read key of target. It is the onRead
// hook for observation layers and a no-op outside of an effect.
func Track[T any](rs *ReactiveSystem, target *T, kind TrackKind, key Key) {
	e := rs.stack.tracking()
	if e == nil || target == nil || !e.active {
		return
	}
	record(rs.registry, target, key, kind, e)
}

// Trigger reports a write to key of target and runs or schedules every
// effect that depends on it. It is the onWrite hook for observation layers.
//
// The currently running effect is skipped, so an effect that writes what it
// reads does not recurse into itself.
func Trigger[T any](rs *ReactiveSystem, target *T, kind TriggerKind, key Key) error {
	if target == nil {
		return ErrNilTarget
	}
	return rs.trigger(handleOf(target), kind, key)
}

func (rs *ReactiveSystem) trigger(handle any, kind TriggerKind, key Key) error {
	rs.triggers++
	toRun := rs.registry.collect(handle, kind, key)
	if len(toRun) == 0 {
		return nil
	}
	rs.logger.Debug("trigger", "kind", kind, "key", key, "effects", len(toRun))

	active := rs.stack.running()
	for _, e := range toRun {
		if e == active || !e.active {
			continue
		}

		var err error
		if e.scheduler != nil {
			rs.schedules++
			rs.logger.Debug("schedule", "effect", e.id)
			err = e.scheduler.Schedule(e)
		} else {
			_, err = e.Run()
		}
		if err == nil {
			continue
		}

		err = fmt.Errorf("effect %d triggered by %s %v: %w", e.id, kind, key, err)
		if rs.onError != nil {
			rs.onError(e, err)
			continue
		}
		return err
	}
	return nil
}

// report hands an error nobody can return to the error handler, or logs it.
func (rs *ReactiveSystem) report(from *Effect, err error) {
	if rs.onError != nil {
		rs.onError(from, err)
		return
	}
	rs.logger.Error("unhandled effect error", "effect", from.id, "error", err)
}

func (rs *ReactiveSystem) nextID() uint64 {
	rs.lastID++
	return rs.lastID
}

// Stats is a snapshot of the registry shape and lifetime counters.
type Stats struct {
	Objects       int
	Keys          int
	Sets          int
	Subscriptions int

	// Reclaimed counts observed objects the garbage collector released while
	// still subscribed.
	Reclaimed uint64

	Runs      uint64
	Triggers  uint64
	Schedules uint64
}

func (rs *ReactiveSystem) Stats() Stats {
	c := rs.registry.counts()
	return Stats{
		Objects:       c.objects,
		Keys:          c.keys,
		Sets:          c.sets,
		Subscriptions: c.subscriptions,
		Reclaimed:     c.reclaimed,
		Runs:          rs.runs,
		Triggers:      rs.triggers,
		Schedules:     rs.schedules,
	}
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"%s objects, %s keys, %s sets, %s subscriptions; %s runs, %s triggers, %s schedules",
		humanize.Comma(int64(s.Objects)),
		humanize.Comma(int64(s.Keys)),
		humanize.Comma(int64(s.Sets)),
		humanize.Comma(int64(s.Subscriptions)),
		humanize.Comma(int64(s.Runs)),
		humanize.Comma(int64(s.Triggers)),
		humanize.Comma(int64(s.Schedules)),
	)
}
