package observable_test

import (
	"testing"

	"github.com/delaneyj/trackparty/pkg/observable"
	"github.com/delaneyj/trackparty/reactor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListGrowReportsAddAndLength(t *testing.T) {
	rs := reactor.CreateReactiveSystem()
	l := observable.NewList(rs, "a")

	var lengths []int
	effect(t, rs, func() error {
		lengths = append(lengths, l.Len())
		return nil
	})
	var enumerated int
	effect(t, rs, func() error {
		enumerated++
		l.Keys()
		return nil
	})

	require.NoError(t, l.Set(0, "b"))
	assert.Equal(t, []int{1}, lengths)
	assert.Equal(t, 1, enumerated)

	require.NoError(t, l.Append("c"))
	assert.Equal(t, []int{1, 2}, lengths)
	assert.Equal(t, 2, enumerated)

	// the gap is filled with nils
	require.NoError(t, l.Set(4, "e"))
	assert.Equal(t, []any{"b", "c", nil, nil, "e"}, l.Values())
	assert.Equal(t, []int{1, 2, 5}, lengths)
}

func TestListAtTracksTheIndex(t *testing.T) {
	rs := reactor.CreateReactiveSystem()
	l := observable.NewList(rs, 1, 2)

	var seen []any
	effect(t, rs, func() error {
		seen = append(seen, l.At(2))
		return nil
	})
	assert.Equal(t, []any{nil}, seen)

	require.NoError(t, l.Set(0, 10))
	assert.Len(t, seen, 1)

	require.NoError(t, l.Append(3))
	assert.Equal(t, []any{nil, 3}, seen)

	require.NoError(t, l.Truncate(2))
	assert.Equal(t, []any{nil, 3, nil}, seen)
}

func TestListTruncate(t *testing.T) {
	rs := reactor.CreateReactiveSystem()
	l := observable.NewList(rs, 1, 2, 3)

	var sums []int
	effect(t, rs, func() error {
		sum := 0
		for _, v := range l.Values() {
			sum += v.(int)
		}
		sums = append(sums, sum)
		return nil
	})

	require.NoError(t, l.Truncate(5))
	assert.Equal(t, []int{6}, sums)

	require.NoError(t, l.Truncate(1))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 1, sums[len(sums)-1])

	assert.ErrorIs(t, l.Truncate(-1), observable.ErrIndexOutOfRange)
	assert.ErrorIs(t, l.Set(-1, 0), observable.ErrIndexOutOfRange)
}

func TestListGetByKey(t *testing.T) {
	rs := reactor.CreateReactiveSystem()
	l := observable.NewList(rs, "x", "y")

	assert.Equal(t, "y", l.Get(1))
	assert.Equal(t, 2, l.Get("length"))
	assert.Nil(t, l.Get("other"))
	assert.Nil(t, l.Get(7))
	assert.Equal(t, []reactor.Key{0, 1}, l.Keys())
}
