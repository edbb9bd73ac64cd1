package reactor

import "fmt"

type ErrFn func() error

// Callback is a tracked function producing a value.
type Callback[T any] func() (T, error)

type callback func() (any, error)

// Scheduler takes over re-running an effect when one of its dependencies
// changes. Without a scheduler the effect re-runs synchronously inside the
// write.
type Scheduler interface {
	Schedule(e *Effect) error
}

type SchedulerFunc func(e *Effect) error

func (f SchedulerFunc) Schedule(e *Effect) error {
	return f(e)
}

// Effect is a tracked computation. Every read made while its body runs
// subscribes it; a later write to any of those reads runs it again.
type Effect struct {
	id uint64
	rs *ReactiveSystem
	fn callback

	// dependency sets this effect is currently a member of
	memberships []*depSet
	active      bool

	lazy      bool
	scheduler Scheduler
}

type EffectOption func(e *Effect)

// Lazy skips the initial run; the effect tracks nothing until Run is called.
func Lazy() EffectOption {
	return func(e *Effect) {
		e.lazy = true
	}
}

// WithScheduler hands re-runs caused by writes to s.
func WithScheduler(s Scheduler) EffectOption {
	return func(e *Effect) {
		e.scheduler = s
	}
}

func newEffect(rs *ReactiveSystem, fn callback, opts ...EffectOption) *Effect {
	e := &Effect{
		id:     rs.nextID(),
		rs:     rs,
		fn:     fn,
		active: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateEffect wraps fn in an effect and, unless Lazy is given, runs it once.
// An error from that first run is returned along with the effect, which stays
// subscribed to whatever it read before failing.
func CreateEffect(rs *ReactiveSystem, fn ErrFn, opts ...EffectOption) (*Effect, error) {
	e := newEffect(rs, func() (any, error) {
		return nil, fn()
	}, opts...)

	if !e.lazy {
		if _, err := e.Run(); err != nil {
			return e, fmt.Errorf("error while running the effect: %w", err)
		}
	}
	return e, nil
}

func (e *Effect) ID() uint64 {
	return e.id
}

// Active reports whether the effect still tracks; false once stopped.
func (e *Effect) Active() bool {
	return e.active
}

// Dependencies is the number of dependency sets the last run subscribed to.
func (e *Effect) Dependencies() int {
	return len(e.memberships)
}

// Run re-executes the body now and returns its result. Dependencies from the
// previous run are dropped first, so only what this run reads stays
// subscribed. A stopped effect still runs its body but tracks nothing.
func (e *Effect) Run() (any, error) {
	rs := e.rs
	if !e.active {
		var (
			v   any
			err error
		)
		rs.Untracked(func() {
			v, err = e.fn()
		})
		return v, err
	}

	restore := rs.stack.push(e)
	defer restore()

	rs.registry.clearMemberships(e)
	rs.runs++
	rs.logger.Debug("effect run", "effect", e.id, "depth", rs.stack.depth())

	return e.fn()
}

// Stop unsubscribes the effect from everything, permanently.
func (e *Effect) Stop() {
	if !e.active {
		return
	}
	e.active = false
	e.rs.registry.clearMemberships(e)
}
