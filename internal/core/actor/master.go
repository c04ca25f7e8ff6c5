package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/optoma2mqtt/internal/adapter/actor"
	"github.com/berfenger/optoma2mqtt/internal/config"
	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	. "github.com/berfenger/optoma2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type ProjectorActorProvider func(*eventstream.EventStream) *adactor.ProjectorActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck     healthCheckResult
	eventStream            *eventstream.EventStream
	projectorActor         *actor.PID
	mqttActor              *actor.PID
	monitorActor           *actor.PID
	projectorActorProvider ProjectorActorProvider
	mqttActorProvider      MQTTActorProvider
	logger                 *zap.Logger
}

type healthCheckResult struct {
	projectorActorHealthy bool
	mqttActorHealthy      bool
	monitorActorHealthy   bool
	checksReceived        int
	respondTo             *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, eventStream *eventstream.EventStream, projectorActorProvider ProjectorActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	if eventStream == nil {
		eventStream = &eventstream.EventStream{}
	}
	act := &MasterOfPuppetsActor{
		config:                 config,
		behavior:               actor.NewBehavior(),
		stash:                  &Stash{},
		logger:                 ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:            eventStream,
		projectorActorProvider: projectorActorProvider,
		mqttActorProvider:      mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start Projector child
		projectorActorPID, err := state.startProjectorActor(ctx)
		if err != nil {
			panic(err)
		}
		state.projectorActor = projectorActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start Monitor child
		monitorActorPID, err := state.startMonitorActor(ctx)
		if err != nil {
			panic(err)
		}
		state.monitorActor = monitorActorPID

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		// Projector Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.projectorActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_PROJECTOR,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// Monitor Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.monitorActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MONITOR,
				Healthy: false,
			}
		})

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedCommand:
		// redirect parsedCommand to actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command == nil {
			return
		}
		cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
		if err != nil {
			state.logger.Warn("master@default invalid command", zap.String("entity", msg.Command.DeviceId), zap.Error(err))
			return
		}
		switch pcmd := cmd.(type) {
		case domain.ProjectorRequest:
			ctx.Send(state.projectorActor, pcmd)
		}
	case domain.GetProjectorStatusRequest, domain.SetPowerRequest, domain.RefreshRequest:
		// keep the original sender so the projector answers it directly
		ctx.RequestWithCustomSender(state.projectorActor, msg, ctx.Sender())
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", ctx.Self().Id, domain.ACTOR_ID_PROJECTOR) {
			state.logger.Error("master@default projector error")
			panic(errors.New("projector terminated"))
		}
	case *actor.ReceiveTimeout:
		ctx.CancelReceiveTimeout()
	default:
		state.logger.Debug("master@default ignored", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.CancelReceiveTimeout()
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_PROJECTOR:
				state.currentHealthCheck.projectorActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.currentHealthCheck.mqttActorHealthy = true
			case domain.ACTOR_ID_MONITOR:
				state.currentHealthCheck.monitorActorHealthy = true
			}
		}
		if state.currentHealthCheck.allReceived() {
			ctx.CancelReceiveTimeout()
			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startProjectorActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	projectorProps := actor.PropsFromProducer(func() actor.Actor {
		return state.projectorActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	projectorActorPID, err := ctx.SpawnNamed(projectorProps, domain.ACTOR_ID_PROJECTOR)
	if err != nil {
		return nil, err
	}

	return projectorActorPID, nil
}

func (state *MasterOfPuppetsActor) startMonitorActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	// a poll must outlive the projector task it waits for
	requestTimeout := state.config.Projector.TaskTimeout() + time.Second

	monitorProps := actor.PropsFromProducer(func() actor.Actor {
		return NewMonitorActor(state.projectorActor, state.config.MonitorConfig.PollInterval(), requestTimeout, state.logger)
	}, actor.WithSupervisor(supervisor))
	monitorActorPID, err := ctx.SpawnNamed(monitorProps, domain.ACTOR_ID_MONITOR)
	if err != nil {
		return nil, err
	}

	return monitorActorPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.projectorActor, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.projectorActorHealthy = false
	state.mqttActorHealthy = false
	state.monitorActorHealthy = false
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == 3
}

func (state *healthCheckResult) allHealthy() bool {
	return state.projectorActorHealthy && state.mqttActorHealthy && state.monitorActorHealthy
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
