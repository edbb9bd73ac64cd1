package reactor

// Synthetic property dependents of a derived value subscribe to.
const derivedValueKey = "value"

// Derived is a lazily recomputed, memoized value. A write to anything the
// getter read only marks it dirty and notifies its own dependents; the getter
// runs again on the next Value call.
type Derived[T any] struct {
	rs     *ReactiveSystem
	effect *Effect
	setter func(T) error

	value T
	dirty bool
}

// DerivedPair is the getter/setter form of a derived value.
type DerivedPair[T any] struct {
	Get Callback[T]
	Set func(value T) error
}

// Computed creates a read-only derived value.
func Computed[T any](rs *ReactiveSystem, getter Callback[T]) *Derived[T] {
	return newDerived(rs, getter, nil)
}

// WritableComputed creates a derived value whose writes go to pair.Set. A
// pair without a setter behaves like Computed.
func WritableComputed[T any](rs *ReactiveSystem, pair DerivedPair[T]) (*Derived[T], error) {
	if pair.Get == nil {
		return nil, ErrMissingGetter
	}
	return newDerived(rs, pair.Get, pair.Set), nil
}

func newDerived[T any](rs *ReactiveSystem, getter Callback[T], setter func(T) error) *Derived[T] {
	d := &Derived[T]{
		rs:     rs,
		setter: setter,
		dirty:  true,
	}
	d.effect = newEffect(rs,
		func() (any, error) {
			v, err := getter()
			return v, err
		},
		Lazy(),
		WithScheduler(SchedulerFunc(d.invalidate)),
	)
	return d
}

func (d *Derived[T]) invalidate(*Effect) error {
	d.dirty = true
	return Trigger(d.rs, d, TriggerSet, derivedValueKey)
}

// Value returns the cached value, recomputing it first if a dependency
// changed since the last computation. A getter error leaves the value dirty.
func (d *Derived[T]) Value() (T, error) {
	Track(d.rs, d, TrackGet, derivedValueKey)
	if d.dirty {
		v, err := d.effect.Run()
		if err != nil {
			var zero T
			return zero, err
		}
		d.value, _ = v.(T)
		d.dirty = !d.effect.active
	}
	return d.value, nil
}

// SetValue passes v to the setter.
func (d *Derived[T]) SetValue(v T) error {
	if d.setter == nil {
		return ErrReadonlyDerived
	}
	return d.setter(v)
}

// Dirty reports whether the next Value call will recompute.
func (d *Derived[T]) Dirty() bool {
	return d.dirty
}

// Stop detaches the derived value from its dependencies. Later reads
// recompute every time without tracking.
func (d *Derived[T]) Stop() {
	d.effect.Stop()
	d.dirty = true
}
