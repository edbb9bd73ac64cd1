package observable

import (
	"errors"
	"fmt"
	"slices"

	"github.com/delaneyj/trackparty/reactor"
)

var ErrIndexOutOfRange = errors.New("observable: index out of range")

const lengthKey = "length"

// List is an observed sequence. Indices are int keys and the length is the
// "length" key, so growing or shrinking the list is reported both as
// structural changes and as a length write.
type List struct {
	rs    *reactor.ReactiveSystem
	items []any
}

var _ reactor.Traversable = (*List)(nil)

func NewList(rs *reactor.ReactiveSystem, items ...any) *List {
	return &List{
		rs:    rs,
		items: slices.Clone(items),
	}
}

func (l *List) Len() int {
	reactor.Track(l.rs, l, reactor.TrackGet, lengthKey)
	return len(l.items)
}

// At returns the item at i, nil past the end.
func (l *List) At(i int) any {
	reactor.Track(l.rs, l, reactor.TrackGet, i)
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

func (l *List) Keys() []reactor.Key {
	reactor.Track(l.rs, l, reactor.TrackIterate, reactor.IterateKey)
	keys := make([]reactor.Key, len(l.items))
	for i := range l.items {
		keys[i] = i
	}
	return keys
}

func (l *List) Get(key reactor.Key) any {
	switch k := key.(type) {
	case int:
		return l.At(k)
	case string:
		if k == lengthKey {
			return l.Len()
		}
	}
	return nil
}

// Values returns a copy of the items, subscribing to every index and to
// structural changes.
func (l *List) Values() []any {
	reactor.Track(l.rs, l, reactor.TrackIterate, reactor.IterateKey)
	for i := range l.items {
		reactor.Track(l.rs, l, reactor.TrackGet, i)
	}
	return slices.Clone(l.items)
}

// Set stores v at i. Setting past the end grows the list, filling the gap
// with nils, and reports an add of i and a set of the length.
func (l *List) Set(i int, v any) error {
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	if i < len(l.items) {
		if sameValue(l.items[i], v) {
			return nil
		}
		l.items[i] = v
		return reactor.Trigger(l.rs, l, reactor.TriggerSet, i)
	}

	for len(l.items) < i {
		l.items = append(l.items, nil)
	}
	l.items = append(l.items, v)
	if err := reactor.Trigger(l.rs, l, reactor.TriggerAdd, i); err != nil {
		return err
	}
	return reactor.Trigger(l.rs, l, reactor.TriggerSet, lengthKey)
}

func (l *List) Append(vs ...any) error {
	for _, v := range vs {
		if err := l.Set(len(l.items), v); err != nil {
			return err
		}
	}
	return nil
}

// Truncate shortens the list to n items, reporting the length write and a
// delete of every dropped index.
func (l *List) Truncate(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, n)
	}
	oldLen := len(l.items)
	if n >= oldLen {
		return nil
	}
	clear(l.items[n:])
	l.items = l.items[:n]

	if err := reactor.Trigger(l.rs, l, reactor.TriggerSet, lengthKey); err != nil {
		return err
	}
	for i := n; i < oldLen; i++ {
		if err := reactor.Trigger(l.rs, l, reactor.TriggerDelete, i); err != nil {
			return err
		}
	}
	return nil
}
