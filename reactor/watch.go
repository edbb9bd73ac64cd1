package reactor

import (
	"fmt"
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// Flush selects when a watcher callback runs relative to the write that
// caused it.
type Flush uint8

const (
	// FlushSync runs the callback inside the write.
	FlushSync Flush = iota
	// FlushPost submits the callback to the system's TaskQueue.
	FlushPost
)

type WatchCallback[T any] func(newValue, oldValue T)

// StopFunc disposes a watcher.
type StopFunc func()

// Traversable is implemented by observed objects so a watcher can read
// everything reachable from them.
type Traversable interface {
	Keys() []Key
	Get(key Key) any
}

type watchOptions struct {
	immediate bool
	once      bool
	flush     Flush
}

type WatchOption func(o *watchOptions)

// Immediate invokes the callback once at creation, with the zero value as
// the old value.
func Immediate() WatchOption {
	return func(o *watchOptions) {
		o.immediate = true
	}
}

// Once stops the watcher after the first callback caused by a change. The
// callback made at creation by Immediate does not count.
func Once() WatchOption {
	return func(o *watchOptions) {
		o.once = true
	}
}

func WithFlush(f Flush) WatchOption {
	return func(o *watchOptions) {
		o.flush = f
	}
}

type watcher[T any] struct {
	rs       *ReactiveSystem
	effect   *Effect
	cb       WatchCallback[T]
	opts     watchOptions
	oldValue T
}

func (w *watcher[T]) job(changed bool) error {
	v, err := w.effect.Run()
	if err != nil {
		return fmt.Errorf("watch getter: %w", err)
	}
	newValue, _ := v.(T)
	w.cb(newValue, w.oldValue)
	w.oldValue = newValue
	if changed && w.opts.once {
		w.effect.Stop()
	}
	return nil
}

func (w *watcher[T]) schedule(e *Effect) error {
	if w.opts.flush == FlushPost {
		w.rs.queue.Submit(func() {
			if err := w.job(true); err != nil {
				w.rs.report(e, err)
			}
		})
		return nil
	}
	return w.job(true)
}

// WatchFunc calls cb with the new and previous result of getter whenever
// something getter read changes.
func WatchFunc[T any](rs *ReactiveSystem, getter Callback[T], cb WatchCallback[T], opts ...WatchOption) (StopFunc, error) {
	if getter == nil {
		return nil, ErrUnsupportedSource
	}
	if cb == nil {
		return nil, ErrMissingCallback
	}

	w := &watcher[T]{rs: rs, cb: cb}
	for _, opt := range opts {
		opt(&w.opts)
	}
	if w.opts.flush == FlushPost && rs.queue == nil {
		return nil, ErrNoTaskQueue
	}

	w.effect = newEffect(rs,
		func() (any, error) {
			v, err := getter()
			return v, err
		},
		Lazy(),
		WithScheduler(SchedulerFunc(w.schedule)),
	)
	stop := StopFunc(w.effect.Stop)

	if w.opts.immediate {
		if err := w.job(false); err != nil {
			return stop, err
		}
		return stop, nil
	}

	v, err := w.effect.Run()
	if err != nil {
		return stop, fmt.Errorf("watch getter: %w", err)
	}
	w.oldValue, _ = v.(T)
	return stop, nil
}

// WatchObject watches every value reachable from source, at any depth. The
// callback receives source itself as both values.
func WatchObject[S Traversable](rs *ReactiveSystem, source S, cb WatchCallback[S], opts ...WatchOption) (StopFunc, error) {
	return WatchFunc(rs, func() (S, error) {
		traverse(source, mapset.NewThreadUnsafeSet[any]())
		return source, nil
	}, cb, opts...)
}

// Watch normalizes source: getter functions are watched for their result and
// Traversable objects are watched deeply. Any other source is rejected with
// ErrUnsupportedSource.
func Watch(rs *ReactiveSystem, source any, cb WatchCallback[any], opts ...WatchOption) (StopFunc, error) {
	var getter Callback[any]
	switch src := source.(type) {
	case Callback[any]:
		getter = src
	case func() (any, error):
		getter = src
	case func() any:
		if src == nil {
			break
		}
		getter = func() (any, error) {
			return src(), nil
		}
	case Traversable:
		getter = func() (any, error) {
			traverse(src, mapset.NewThreadUnsafeSet[any]())
			return src, nil
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedSource, source)
	}
	if getter == nil {
		return nil, ErrUnsupportedSource
	}
	return WatchFunc(rs, getter, cb, opts...)
}

type containerID struct {
	ptr uintptr
	len int
}

// traverse reads everything reachable from value so the running effect
// subscribes to all of it. Plain slices and maps are walked for observed
// values nested inside them.
func traverse(value any, seen mapset.Set[any]) {
	if value == nil {
		return
	}

	if t, ok := value.(Traversable); ok {
		if reflect.TypeOf(t).Comparable() && !seen.Add(t) {
			return
		}
		for _, key := range t.Keys() {
			traverse(t.Get(key), seen)
		}
		return
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() || !seen.Add(containerID{rv.Pointer(), rv.Len()}) {
			return
		}
		fallthrough
	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			traverse(rv.Index(i).Interface(), seen)
		}
	case reflect.Map:
		if rv.IsNil() || !seen.Add(containerID{rv.Pointer(), -1}) {
			return
		}
		iter := rv.MapRange()
		for iter.Next() {
			traverse(iter.Value().Interface(), seen)
		}
	}
}
