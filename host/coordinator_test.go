package host_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/framefsm"
	"github.com/comalice/framefsm/host"
	"github.com/comalice/framefsm/testutil"
)

type body struct{}

// TestLoopDrivesCoordinator tests deferred activation through the loop and
// delivery of every callback kind to the active state.
func TestLoopDrivesCoordinator(t *testing.T) {
	j := &testutil.Journal{}
	idle := testutil.NewProbe[*body]("idle", j)
	run := testutil.NewProbe[*body]("run", j)
	idle.OnInput = func(b framefsm.Binding[*body], event any) {
		if event == "go" {
			require.NoError(t, b.Machine.TransitionTo("run"))
		}
	}

	c, err := framefsm.NewBuilder[*body]("idle").
		Entity(&body{}).
		State("idle", idle).
		State("run", run).
		Build()
	require.NoError(t, err)

	loop := host.NewLoop(host.Config{PhysicsRate: 10 * time.Millisecond})
	loop.Add(c)
	require.NoError(t, c.ActivateInitial(loop))

	_, active := c.Active()
	assert.False(t, active, "activation waits for the first step")

	loop.Step(10 * time.Millisecond)
	assert.True(t, c.IsActive("idle"))

	require.NoError(t, loop.Send(host.InputKey, "space"))
	require.NoError(t, loop.Send(host.InputGeneral, "go"))
	loop.Step(10 * time.Millisecond)

	assert.True(t, c.IsActive("run"))
	assert.Equal(t, 1, j.Count("idle", framefsm.CallbackUnhandledKeyInput))
	assert.Equal(t, 1, j.Count("idle", framefsm.CallbackInput))
	assert.Equal(t, 1, j.Count("run", framefsm.CallbackPhysicsUpdate))
	assert.Equal(t, 1, j.Count("run", framefsm.CallbackUpdate))
	assert.Equal(t, 1, j.Count("idle", framefsm.CallbackUpdate))
}
