package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	. "github.com/berfenger/optoma2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// MonitorActor polls the projector on a fixed cadence. The first poll is sent
// right after start.
type MonitorActor struct {
	ActorWithStates
	scheduler      *scheduler.TimerScheduler
	stash          *Stash
	projectorActor *actor.PID
	pollInterval   time.Duration
	requestTimeout time.Duration
	polls          uint
	failures       uint

	logger *zap.Logger
}

type monitorTick struct {
}

func NewMonitorActor(projectorActor *actor.PID, pollInterval, requestTimeout time.Duration, logger *zap.Logger) *MonitorActor {
	act := &MonitorActor{
		projectorActor: projectorActor,
		pollInterval:   pollInterval,
		requestTimeout: requestTimeout,
		stash:          &Stash{},
		logger:         ActorLogger(domain.ACTOR_ID_MONITOR, logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(MonitorStartingState{
		actor: act,
	})
	return act
}

func (state *MonitorActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

func (state *MonitorActor) healthResponse() domain.ActorHealthResponse {
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MONITOR,
		Healthy: true,
		State:   state.StateName(),
	}
}

// Starting state

type MonitorStartingState struct {
	actor *MonitorActor
}

func (state MonitorStartingState) Name() string {
	return "starting"
}

func (state MonitorStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("monitor@starting started", zap.Duration("interval", state.actor.pollInterval))
		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)
		ctx.Send(ctx.Self(), monitorTick{})
		state.actor.Become(MonitorIdleState{
			actor: state.actor,
		})
		state.actor.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("monitor@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Idle state

type MonitorIdleState struct {
	actor *MonitorActor
}

func (state MonitorIdleState) Name() string {
	return "idle"
}

func (state MonitorIdleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(state.actor.healthResponse())
	case monitorTick:
		state.actor.logger.Debug("monitor@idle tick")
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.projectorActor, domain.RefreshRequest{}, state.actor.requestTimeout), func(err error) any {
			return domain.RefreshResponse{
				ProjectorResponseMixIn: domain.ProjectorResponseMixIn{
					ActorResponseMixIn: domain.FailedResponse(err),
				},
			}
		})
		// schedule next tick
		state.actor.scheduler.RequestOnce(state.actor.pollInterval, ctx.Self(), monitorTick{})
		state.actor.BecomeStacked(MonitorPollingState{
			actor: state.actor,
		})
	default:
		state.actor.logger.Debug("monitor@idle: ignored", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Polling state

type MonitorPollingState struct {
	actor *MonitorActor
}

func (state MonitorPollingState) Name() string {
	return "polling"
}

func (state MonitorPollingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(state.actor.healthResponse())
	case domain.RefreshResponse:
		state.actor.polls++
		if msg.HasResponseError() {
			state.actor.failures++
			state.actor.logger.Error("monitor@polling RefreshResponse error", zap.Error(msg.GetResponseError()))
		} else {
			state.actor.logger.Debug("monitor@polling RefreshResponse",
				zap.Bool("available", msg.Status.Available),
				zap.Stringer("power", msg.Status.Power))
		}
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("monitor@polling: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}
