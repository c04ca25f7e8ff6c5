package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/optoma2mqtt/internal/config"
	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// HADiscoveryActor publishes the Home Assistant discovery config once the
// projector and MQTT actors report healthy, then goes idle.
type HADiscoveryActor struct {
	config                *config.Config
	behavior              actor.Behavior
	stash                 *actorutil.Stash
	projectorActor        *actor.PID
	mqttActor             *actor.PID
	projectorActorHealthy bool
	mqttActorHealthy      bool
	healthyRecv           int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, projectorActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:         config,
		projectorActor: projectorActor,
		mqttActor:      mqttActor,
		behavior:       actor.NewBehavior(),
		stash:          &actorutil.Stash{},
		logger:         actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// Check projector and MQTT actor healthy
		state.healthyRecv = 0
		state.projectorActorHealthy = false
		state.mqttActorHealthy = false
		// Projector Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.projectorActor, domain.ActorHealthRequest{}, 5*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_PROJECTOR,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 15*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_PROJECTOR:
				state.projectorActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {
			if !state.projectorActorHealthy || !state.mqttActorHealthy {
				panic(errors.New("MQTT Actor or Projector Actor are not healthy"))
			}
			sensors, switches := DiscoveryEntities(state.config)
			ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
				Sensors:  sensors,
				Switches: switches,
			})
			state.behavior.Become(state.Done)
			state.stash.UnstashAll(ctx)
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HA_DISCOVERY,
			Healthy: true,
			State:   "done",
		})
	default:
		state.logger.Debug("hadiscovery@done: ignored", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// DiscoveryEntities lists the bridge and projector entities announced to Home
// Assistant. Only the first entity of a device carries the full device block.
func DiscoveryEntities(cfg *config.Config) ([]domain.GenericSensor, []domain.GenericSwitch) {
	var sensors []domain.GenericSensor
	var switches []domain.GenericSwitch

	bridgeDevice := domain.BridgeDevice(cfg.MQTT.BaseTopic)
	sensors = append(sensors, domain.BridgeSensors(bridgeDevice)...)

	projectorDevice := domain.ProjectorDevice(cfg.Projector.Name, cfg.Projector.Filename)
	projectorDevice.ViaDevice = bridgeDevice.Id

	switches = append(switches, domain.ProjectorSwitches(projectorDevice)...)
	projectorSensors := domain.ProjectorSensors(domain.IdDevice(projectorDevice))
	sensors = append(sensors, projectorSensors...)

	return sensors, switches
}
