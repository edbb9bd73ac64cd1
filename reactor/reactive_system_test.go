package reactor_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/delaneyj/trackparty/pkg/observable"
	"github.com/delaneyj/trackparty/reactor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerSeesRunsAndUnhandledErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	q := reactor.NewMicrotaskQueue()
	rs := reactor.CreateReactiveSystem(reactor.WithLogger(logger), reactor.WithTaskQueue(q))
	s := observable.FromMap(rs, map[string]any{"a": 1})

	_, err := reactor.WatchFunc(rs, func() (int, error) {
		if s.Get("a").(int) > 1 {
			return 0, errors.New("too big")
		}
		return 1, nil
	}, func(newValue, oldValue int) {}, reactor.WithFlush(reactor.FlushPost))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "effect run")

	require.NoError(t, s.Set("a", 2))
	assert.Contains(t, buf.String(), "msg=trigger")
	assert.Contains(t, buf.String(), "msg=schedule")

	q.Drain()
	assert.Contains(t, buf.String(), "unhandled effect error")
	assert.Contains(t, buf.String(), "too big")
}

func TestStatsCountRunsTriggersAndSchedules(t *testing.T) {
	rs := reactor.CreateReactiveSystem()
	s := observable.FromMap(rs, map[string]any{"a": 1})
	d := reactor.Computed(rs, func() (int, error) {
		return s.Get("a").(int), nil
	})
	_, err := reactor.CreateEffect(rs, func() error {
		_, err := d.Value()
		return err
	})
	require.NoError(t, err)

	require.NoError(t, s.Set("a", 2))
	stats := rs.Stats()
	// effect and derived, twice each
	assert.Equal(t, uint64(4), stats.Runs)
	// the write, then the derived value notifying the effect
	assert.Equal(t, uint64(2), stats.Triggers)
	assert.Equal(t, uint64(1), stats.Schedules)
}
