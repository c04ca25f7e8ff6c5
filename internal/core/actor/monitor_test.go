package actor

import (
	"errors"
	"testing"
	"time"

	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestMonitorPolls(t *testing.T) {
	logger := testLogger()
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	var refreshes atomic.Int32
	projectorPID := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		switch ctx.Message().(type) {
		case domain.RefreshRequest:
			n := refreshes.Add(1)
			resp := domain.RefreshResponse{}
			if n%2 == 0 {
				resp.ResponseError = errors.New("no answer")
			}
			ctx.Respond(resp)
		}
	}))

	monitorPID := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewMonitorActor(projectorPID, 50*time.Millisecond, time.Second, logger)
	}))

	// first poll fires right away, then on the interval, failures included
	assert.Eventually(t, func() bool {
		return refreshes.Load() >= 4
	}, 3*time.Second, 20*time.Millisecond)

	hcr, err := healthCheck(as.Root, monitorPID)
	require.NoError(t, err)
	assert.True(t, hcr.Healthy)
	assert.Equal(t, domain.ACTOR_ID_MONITOR, hcr.Id)
	assert.Contains(t, []string{"idle", "polling"}, hcr.State)
}

func TestMonitorSurvivesSilentProjector(t *testing.T) {
	logger := testLogger()
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	var refreshes atomic.Int32
	projectorPID := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		if _, ok := ctx.Message().(domain.RefreshRequest); ok {
			refreshes.Add(1)
		}
	}))

	monitorPID := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewMonitorActor(projectorPID, 50*time.Millisecond, 100*time.Millisecond, logger)
	}))

	assert.Eventually(t, func() bool {
		return refreshes.Load() >= 2
	}, 3*time.Second, 20*time.Millisecond)

	hcr, err := healthCheck(as.Root, monitorPID)
	require.NoError(t, err)
	assert.True(t, hcr.Healthy)
}
