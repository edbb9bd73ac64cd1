// Package observable provides observed containers that report their reads
// and writes to a reactor.ReactiveSystem.
package observable

import (
	"math"
	"reflect"
	"slices"
	"sort"

	"github.com/delaneyj/trackparty/reactor"
)

// Object is a map-backed observed object. Keys keep insertion order.
type Object struct {
	rs     *reactor.ReactiveSystem
	keys   []reactor.Key
	values map[reactor.Key]any
}

var _ reactor.Traversable = (*Object)(nil)

func New(rs *reactor.ReactiveSystem) *Object {
	return &Object{
		rs:     rs,
		values: map[reactor.Key]any{},
	}
}

// FromMap copies m into a new Object, keys in sorted order.
func FromMap(rs *reactor.ReactiveSystem, m map[string]any) *Object {
	o := New(rs)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.keys = append(o.keys, k)
		o.values[k] = m[k]
	}
	return o
}

func (o *Object) System() *reactor.ReactiveSystem {
	return o.rs
}

// Get returns the value at key, nil if absent.
func (o *Object) Get(key reactor.Key) any {
	v, _ := o.Lookup(key)
	return v
}

func (o *Object) Lookup(key reactor.Key) (any, bool) {
	reactor.Track(o.rs, o, reactor.TrackGet, key)
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Has(key reactor.Key) bool {
	reactor.Track(o.rs, o, reactor.TrackHas, key)
	_, ok := o.values[key]
	return ok
}

// Keys returns the keys in insertion order and subscribes to key-set changes.
func (o *Object) Keys() []reactor.Key {
	reactor.Track(o.rs, o, reactor.TrackIterate, reactor.IterateKey)
	return slices.Clone(o.keys)
}

func (o *Object) Len() int {
	reactor.Track(o.rs, o, reactor.TrackIterate, reactor.IterateKey)
	return len(o.keys)
}

// Set stores v at key. A new key is reported as an add; an existing key is
// reported as a set, and only if the value actually changed.
func (o *Object) Set(key reactor.Key, v any) error {
	old, exists := o.values[key]
	o.values[key] = v
	if !exists {
		o.keys = append(o.keys, key)
		return reactor.Trigger(o.rs, o, reactor.TriggerAdd, key)
	}
	if sameValue(old, v) {
		return nil
	}
	return reactor.Trigger(o.rs, o, reactor.TriggerSet, key)
}

// Delete removes key. Deleting a missing key reports nothing.
func (o *Object) Delete(key reactor.Key) error {
	if _, exists := o.values[key]; !exists {
		return nil
	}
	delete(o.values, key)
	if i := slices.Index(o.keys, key); i >= 0 {
		o.keys = slices.Delete(o.keys, i, i+1)
	}
	return reactor.Trigger(o.rs, o, reactor.TriggerDelete, key)
}

// sameValue compares by identity where Go can, and deeply otherwise, so
// storing a different *Object with equal contents still counts as a change.
// NaN is the same as NaN.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b || bothNaN(a, b)
	}
	return reflect.DeepEqual(a, b)
}

func bothNaN(a, b any) bool {
	switch reflect.TypeOf(a).Kind() {
	case reflect.Float32, reflect.Float64:
		fa, fb := reflect.ValueOf(a).Float(), reflect.ValueOf(b).Float()
		return math.IsNaN(fa) && math.IsNaN(fb)
	}
	return false
}
