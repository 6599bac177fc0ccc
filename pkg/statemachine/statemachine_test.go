package statemachine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/zkbridge/pkg/statemachine"
)

const (
	Pending  = statemachine.StringState("pending")
	Running  = statemachine.StringState("running")
	Done     = statemachine.StringState("done")
	Failed   = statemachine.StringState("failed")
	Run      = statemachine.StringEvent("run")
	Finish   = statemachine.StringEvent("finish")
	Fail     = statemachine.StringEvent("fail")
	Unlisted = statemachine.StringEvent("unlisted")
)

func TestMachine_Fire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	def := statemachine.MustDefinition(
		statemachine.WithTransition(Pending, Running, Run),
		statemachine.WithTransition(Running, Done, Finish),
		statemachine.WithTransition(Pending, Failed, Fail),
		statemachine.WithTransition(Running, Failed, Fail),
	)

	t.Run("walks the table", func(t *testing.T) {
		t.Parallel()

		m := def.Machine(Pending)
		require.NoError(t, m.Fire(ctx, Run, nil))
		require.NoError(t, m.Fire(ctx, Finish, nil))
		assert.Equal(t, Done, m.Current())
	})

	t.Run("terminal state accepts nothing", func(t *testing.T) {
		t.Parallel()

		m := def.Machine(Failed)
		err := m.Fire(ctx, Run, nil)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))
		assert.False(t, m.CanFire(ctx, Run, nil))
		assert.Equal(t, Failed, m.Current())
	})

	t.Run("machines share the table but not the state", func(t *testing.T) {
		t.Parallel()

		a, b := def.Machine(Pending), def.Machine(Running)
		require.NoError(t, a.Fire(ctx, Fail, nil))
		assert.Equal(t, Failed, a.Current())
		assert.Equal(t, Running, b.Current())
	})

	t.Run("unknown event", func(t *testing.T) {
		t.Parallel()

		err := def.Machine(Pending).Fire(ctx, Unlisted, nil)
		var nt *statemachine.ErrNoTransitionAvailable
		require.ErrorAs(t, err, &nt)
		assert.Equal(t, "pending", nt.StateName)
		assert.Equal(t, "unlisted", nt.EventName)
	})

	t.Run("nil inputs", func(t *testing.T) {
		t.Parallel()

		assert.ErrorIs(t, def.Machine(Pending).Fire(ctx, nil, nil), statemachine.ErrInvalidEvent)
		assert.ErrorIs(t, def.Machine(nil).Fire(ctx, Run, nil), statemachine.ErrInvalidState)

		_, err := statemachine.NewDefinition(statemachine.WithTransition(nil, Done, Finish))
		assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)
		assert.Panics(t, func() { statemachine.MustDefinition(statemachine.WithTransition(Pending, nil, Run)) })
	})

	t.Run("accepts ignores guards", func(t *testing.T) {
		t.Parallel()

		assert.True(t, def.Accepts(Pending, Run))
		assert.False(t, def.Accepts(Done, Run))
		assert.False(t, def.Accepts(nil, Run))
	})
}

func TestMachine_Guards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	allowed := func(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
		ok, _ := data.(bool)
		return ok
	}
	def := statemachine.MustDefinition(
		statemachine.WithTransition(Pending, Running, Run, allowed),
		statemachine.WithTransition(Pending, Failed, Fail),
	)

	m := def.Machine(Pending)
	err := m.Fire(ctx, Run, false)
	assert.True(t, statemachine.IsTransitionRejectedError(err))
	assert.False(t, statemachine.IsNoTransitionAvailableError(err))
	assert.Equal(t, Pending, m.Current())

	assert.True(t, m.CanFire(ctx, Run, true))
	require.NoError(t, m.Fire(ctx, Run, true))
	assert.Equal(t, Running, m.Current())
}

func TestMachine_Actions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("run in order with transition details", func(t *testing.T) {
		t.Parallel()

		var (
			mu  sync.Mutex
			log []string
		)
		record := func(tag string) statemachine.Action {
			return func(_ context.Context, from, to statemachine.State, ev statemachine.Event, data any) error {
				mu.Lock()
				defer mu.Unlock()
				log = append(log, tag+":"+from.Name()+">"+to.Name()+":"+ev.Name()+":"+data.(string))
				return nil
			}
		}
		def := statemachine.MustDefinition(
			statemachine.WithTransition(Pending, Running, Run),
			statemachine.WithAction(record("a")),
			statemachine.WithAction(record("b")),
			statemachine.WithAction(nil),
		)

		require.NoError(t, def.Machine(Pending).Fire(ctx, Run, "job-1"))
		assert.Equal(t, []string{"a:pending>running:run:job-1", "b:pending>running:run:job-1"}, log)
	})

	t.Run("failure aborts the transition", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("store unavailable")
		def := statemachine.MustDefinition(
			statemachine.WithTransition(Pending, Running, Run),
			statemachine.WithAction(func(context.Context, statemachine.State, statemachine.State, statemachine.Event, any) error {
				return boom
			}),
		)

		m := def.Machine(Pending)
		assert.ErrorIs(t, m.Fire(ctx, Run, nil), boom)
		assert.Equal(t, Pending, m.Current())
	})
}
