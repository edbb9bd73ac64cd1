package reactor_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/delaneyj/trackparty/pkg/observable"
	"github.com/delaneyj/trackparty/reactor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyEnumerationIsInvalidatedByStructuralChanges(t *testing.T) {
	rs := reactor.CreateReactiveSystem()
	s := observable.FromMap(rs, map[string]any{"a": 1})

	runs := 0
	var keys []reactor.Key
	mustEffect(t, rs, func() error {
		runs++
		keys = s.Keys()
		return nil
	})
	assert.Equal(t, 1, runs)

	// reassigning an existing key leaves the key set alone
	require.NoError(t, s.Set("a", 2))
	assert.Equal(t, 1, runs)

	require.NoError(t, s.Set("b", 1))
	assert.Equal(t, 2, runs)
	assert.Equal(t, []reactor.Key{"a", "b"}, keys)

	require.NoError(t, s.Delete("a"))
	assert.Equal(t, 3, runs)
	assert.Equal(t, []reactor.Key{"b"}, keys)

	require.NoError(t, s.Delete("missing"))
	assert.Equal(t, 3, runs)
}

func TestMembershipIsInvalidatedByAddAndDelete(t *testing.T) {
	rs := reactor.CreateReactiveSystem()
	s := observable.New(rs)

	runs := 0
	var has bool
	mustEffect(t, rs, func() error {
		runs++
		has = s.Has("c")
		return nil
	})
	assert.False(t, has)

	require.NoError(t, s.Set("other", 1))
	assert.Equal(t, 1, runs)

	require.NoError(t, s.Set("c", 1))
	assert.Equal(t, 2, runs)
	assert.True(t, has)

	require.NoError(t, s.Set("c", 2))
	assert.Equal(t, 2, runs)

	require.NoError(t, s.Delete("c"))
	assert.Equal(t, 3, runs)
	assert.False(t, has)
}

func TestRegistryPrunesEmptyLevels(t *testing.T) {
	rs := reactor.CreateReactiveSystem()
	a := observable.FromMap(rs, map[string]any{"x": 1, "y": 2})
	b := observable.FromMap(rs, map[string]any{"x": 1})

	first := mustEffect(t, rs, func() error {
		a.Get("x")
		a.Has("x")
		b.Get("x")
		return nil
	})
	second := mustEffect(t, rs, func() error {
		a.Get("x")
		a.Get("y")
		return nil
	})

	stats := rs.Stats()
	assert.Equal(t, 2, stats.Objects)
	assert.Equal(t, 3, stats.Keys)
	assert.Equal(t, 4, stats.Sets)
	assert.Equal(t, 5, stats.Subscriptions)
	assert.Equal(t, "2 objects, 3 keys, 4 sets, 5 subscriptions; 2 runs, 0 triggers, 0 schedules", stats.String())

	first.Stop()
	stats = rs.Stats()
	assert.Equal(t, 1, stats.Objects)
	assert.Equal(t, 2, stats.Keys)
	assert.Equal(t, 2, stats.Sets)
	assert.Equal(t, 2, stats.Subscriptions)

	second.Stop()
	stats = rs.Stats()
	assert.Zero(t, stats.Objects)
	assert.Zero(t, stats.Keys)
	assert.Zero(t, stats.Sets)
	assert.Zero(t, stats.Subscriptions)
}

func TestSystemsAreIndependent(t *testing.T) {
	rsA := reactor.CreateReactiveSystem()
	rsB := reactor.CreateReactiveSystem()
	s := observable.FromMap(rsA, map[string]any{"a": 1})

	runs := 0
	mustEffect(t, rsB, func() error {
		runs++
		s.Get("a")
		return nil
	})

	// the read went to rsA, which has no active effect
	require.NoError(t, s.Set("a", 2))
	assert.Equal(t, 1, runs)
	assert.Zero(t, rsB.Stats().Subscriptions)
}

func TestTriggerNilTarget(t *testing.T) {
	rs := reactor.CreateReactiveSystem()
	var s *observable.Object
	require.ErrorIs(t, reactor.Trigger(rs, s, reactor.TriggerSet, "a"), reactor.ErrNilTarget)
}

func TestRegistryReleasesCollectedObjects(t *testing.T) {
	rs := reactor.CreateReactiveSystem()

	holder := struct{ current *observable.Object }{
		current: observable.FromMap(rs, map[string]any{"a": 1}),
	}
	mustEffect(t, rs, func() error {
		if holder.current != nil {
			holder.current.Get("a")
		}
		return nil
	})
	require.Equal(t, 1, rs.Stats().Objects)

	// dropped without a write, so only the registry still knows about it
	holder.current = nil

	assert.Eventually(t, func() bool {
		runtime.GC()
		return rs.Stats().Objects == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRerunsKeepOneCleanupPerObject(t *testing.T) {
	rs := reactor.CreateReactiveSystem()

	holder := struct{ current *observable.Object }{
		current: observable.FromMap(rs, map[string]any{"a": 1}),
	}
	e := mustEffect(t, rs, func() error {
		if holder.current != nil {
			holder.current.Get("a")
		}
		return nil
	})
	// every run prunes the object entry and records it again
	for i := 0; i < 999; i++ {
		_, err := e.Run()
		require.NoError(t, err)
	}
	require.Equal(t, 1, rs.Stats().Objects)

	holder.current = nil
	assert.Eventually(t, func() bool {
		runtime.GC()
		return rs.Stats().Objects == 0
	}, 5*time.Second, 10*time.Millisecond)

	for i := 0; i < 3; i++ {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, uint64(1), rs.Stats().Reclaimed)
}

func TestStoppedSubscriptionsDoNotReportReclaim(t *testing.T) {
	rs := reactor.CreateReactiveSystem()

	holder := struct{ current *observable.Object }{
		current: observable.FromMap(rs, map[string]any{"a": 1}),
	}
	e := mustEffect(t, rs, func() error {
		holder.current.Get("a")
		return nil
	})
	e.Stop()
	holder.current = nil

	for i := 0; i < 3; i++ {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	assert.Zero(t, rs.Stats().Reclaimed)
}
