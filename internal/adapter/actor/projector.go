package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/internal/core/events"
	"github.com/berfenger/optoma2mqtt/internal/core/port"
	"github.com/berfenger/optoma2mqtt/internal/util/actorutil"
	"github.com/berfenger/optoma2mqtt/pkg/optoma"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// ProjectorActor is the only owner of the projector link. Requests run one at a
// time off the actor goroutine; other requests received meanwhile are stashed.
// A state update is published on the event stream after every request.
type ProjectorActor struct {
	behavior    actor.Behavior
	stash       *actorutil.Stash
	link        port.ProjectorLink
	eventStream *eventstream.EventStream
	scheduler   *scheduler.TimerScheduler
	taskTimeout time.Duration
	cancelTimer scheduler.CancelFunc
	logger      *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

// taskOverdue fires when a link operation outlives the task timeout.
type taskOverdue struct {
	startedAt time.Time
}

func NewProjectorActor(link port.ProjectorLink, eventStream *eventstream.EventStream, taskTimeout time.Duration, logger *zap.Logger) *ProjectorActor {
	act := &ProjectorActor{
		link:        link,
		eventStream: eventStream,
		taskTimeout: taskTimeout,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_PROJECTOR, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *ProjectorActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *ProjectorActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("projector@starting started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("projector@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *ProjectorActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("projector@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_PROJECTOR,
			Healthy: true,
			State:   availabilityState(state.link.Status()),
		})
	case domain.GetProjectorStatusRequest:
		state.logger.Debug("projector@default: GetProjectorStatusRequest")
		actorutil.ForRequest(msg).Respond(ctx, domain.GetProjectorStatusResponse{
			Status: state.link.Status(),
		})
	case domain.RefreshRequest:
		state.logger.Debug("projector@default: RefreshRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		state.runTask(ctx, sender, func() any {
			state.link.Refresh()
			return domain.RefreshResponse{
				ProjectorResponseMixIn: domain.ProjectorResponseMixIn{Status: state.link.Status()},
			}
		}, func(err error) any {
			return domain.RefreshResponse{
				ProjectorResponseMixIn: domain.ProjectorResponseMixIn{
					ActorResponseMixIn: domain.FailedResponse(err),
				},
			}
		})
	case domain.SetPowerRequest:
		state.logger.Debug("projector@default: SetPowerRequest", zap.Bool("on", msg.On))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		state.runTask(ctx, sender, func() any {
			if msg.On {
				state.link.Activate()
			} else {
				state.link.Deactivate()
			}
			return domain.SetPowerResponse{
				ProjectorResponseMixIn: domain.ProjectorResponseMixIn{Status: state.link.Status()},
			}
		}, func(err error) any {
			return domain.SetPowerResponse{
				ProjectorResponseMixIn: domain.ProjectorResponseMixIn{
					ActorResponseMixIn: domain.FailedResponse(err),
				},
			}
		})
	case taskOverdue:
		// the task already completed
	default:
		state.logger.Debug("projector@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *ProjectorActor) WaitingSerial(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("projector@WaitingSerial backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if state.cancelTimer != nil {
			state.cancelTimer()
			state.cancelTimer = nil
		}
		if resp, ok := msg.message.(domain.ProjectorResponse); ok && !resp.HasResponseError() {
			state.publish(resp.ProjectorStatus())
		} else if ok {
			state.logger.Error("projector@WaitingSerial task failed", zap.Error(resp.GetResponseError()))
		}
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_PROJECTOR,
			Healthy: true,
			State:   "busy",
		})
	case taskOverdue:
		// the link call can not be interrupted, keep waiting for it to return
		state.logger.Warn("projector@WaitingSerial link operation overdue", zap.Duration("elapsed", time.Since(msg.startedAt)))
	default:
		state.logger.Debug("projector@WaitingSerial stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// runTask performs one link operation on a background goroutine and pipes its
// outcome back to self. The actor stays in WaitingSerial until that outcome
// arrives, so link calls never overlap even when one outlives the task timeout.
func (state *ProjectorActor) runTask(ctx actor.Context, replyTo *actor.PID, fn func() any, onError func(error) any) {
	actorutil.NewBackgroundTaskNoError(ctx, func() *backgroundTaskResult {
		return &backgroundTaskResult{
			message: fn(),
			replyTo: replyTo,
		}
	}).Recover(func(err error) backgroundTaskResult {
		return backgroundTaskResult{
			message: onError(err),
			replyTo: replyTo,
		}
	}).PipeToAsync(ctx.Self())
	if state.scheduler != nil && state.taskTimeout > 0 {
		state.cancelTimer = state.scheduler.RequestOnce(state.taskTimeout, ctx.Self(), taskOverdue{startedAt: time.Now()})
	}
	state.behavior.BecomeStacked(state.WaitingSerial)
}

func (state *ProjectorActor) publish(st optoma.Status) {
	if state.eventStream == nil {
		return
	}
	for _, ev := range events.ProjectorStatusToUpdateEvents(st) {
		state.eventStream.Publish(ev)
	}
}

func availabilityState(st optoma.Status) string {
	if st.Available {
		return "available"
	}
	return "unavailable"
}
