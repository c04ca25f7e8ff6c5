package actor

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/berfenger/optoma2mqtt/internal/config"
	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/internal/mqtt"
	"github.com/berfenger/optoma2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTActor struct {
	config       *config.Config
	behavior     actor.Behavior
	stash        *actorutil.Stash
	client       *mqtt.MQTTClient
	eventStream  *eventstream.EventStream
	subscription *eventstream.Subscription

	// sensor updates received before the command subscription, oldest first
	pending []domain.PublishSensorUpdateRequest
	logger  *zap.Logger
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	ReplyTo *actor.PID
	Event   bool
	Topic   string
	Error   error
}

type ParsedCommand struct {
	Command *mqtt.ParsedMQTTCommand
}

type rawMessage struct {
	topic   string
	message string
	retain  bool
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		eventStream: eventStream,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		// forward state updates, stashed until subscribed
		state.subscribeEvents(ctx)

		// create MQTT client
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), func(_ pahomqtt.Client) {
		}, func(_ pahomqtt.Client, err error) {
			ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		// subscribe to MQTT command topic
		state.client.SubscribeToCommandTopic(func(c pahomqtt.Client, m pahomqtt.Message) {
			cmd, err := state.client.ParseMQTTCommand(m)
			if err == nil && cmd != nil {
				ctx.Send(ctx.Self(), ParsedCommand{Command: cmd})
			}
		}, func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTSubscribed{})
			}
		}, 1*time.Second)
	case MQTTSubscribed:
		// init completed, transition to default state
		state.logger.Debug("mqtt@starting subscribed")
		state.behavior.Become(state.DefaultReceive)
		for _, req := range state.pending {
			state.publishSensorValue(ctx, req.Event, req.Retain, nil)
		}
		state.pending = nil
		state.stash.UnstashAll(ctx)
	case domain.PublishSensorUpdateRequest:
		state.pending = append(state.pending, msg)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting, *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting, *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case ParsedCommand:
		// route command to parent
		state.logger.Debug("mqtt@default parsedCommand", zap.Any("command", msg.Command))
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.Any("message", msg))
		state.publishMessage(ctx, msg.Topic, msg.Payload, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case publishResult:
		state.onPublishResult(ctx, msg)
	case domain.PublishSensorUpdateRequest:
		// receive message from event bus and publish to MQTT if needed
		state.logger.Debug("mqtt@default PublishSensorUpdateRequest", zap.String("type", fmt.Sprintf("%T", msg.Event)))
		state.publishSensorValue(ctx, msg.Event, msg.Retain, actorutil.ForRequest(msg).ReplyTo(ctx))
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishHADiscovery")
		err := state.PublishHomeAssistantDiscovery(msg.Sensors, msg.Switches)
		if err != nil {
			state.logger.Error("mqtt@default PublishHADiscovery error", zap.Error(err))
		}
		if msg.ReplyToRef != nil {
			actorutil.ForRequest(msg).Respond(ctx, domain.PublishDiscoveryResponse{
				ActorResponseMixIn: domain.FailedResponse(err),
			})
		}
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default ignored", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MQTTActor) event2MQTTMessage(event any) *rawMessage {
	return eventToMessage(state.client, event)
}

func eventToMessage(client *mqtt.MQTTClient, event any) *rawMessage {
	switch msg := event.(type) {
	case domain.SwitchSensorUpdateEvent:
		return &rawMessage{
			topic:   client.SwitchStateTopic(msg.Id),
			message: bool2MQTTPayload(msg.Value),
			retain:  true,
		}
	case domain.TextSensorUpdateEvent:
		return &rawMessage{
			topic:   client.SensorStateTopic(msg.Id),
			message: msg.Value,
			retain:  true,
		}
	case domain.AvailabilityUpdateEvent:
		return &rawMessage{
			topic:   client.ProjectorAvailabilityTopic(),
			message: online2MQTTPayload(msg.Value),
			retain:  true,
		}
	case domain.BridgeStateUpdateEvent:
		return &rawMessage{
			topic:   client.BridgeStateTopic(),
			message: online2MQTTPayload(msg.Value),
			retain:  true,
		}
	default:
		return nil
	}
}

// Publishes are handed to paho in arrival order and never wait for the broker,
// so a newer state can not be overtaken by an older one.
func (state *MQTTActor) publishSensorValue(ctx actor.Context, event domain.SensorUpdateEvent, retain bool, replyTo *actor.PID) {
	msg := state.event2MQTTMessage(event)
	if msg == nil {
		if replyTo != nil {
			ctx.Send(replyTo, domain.PublishSensorUpdateResponse{})
		}
		return
	}
	state.logger.Debug("mqtt@publish: sensor publish", zap.String("topic", msg.topic), zap.String("payload", msg.message))
	self := ctx.Self()
	root := ctx.ActorSystem().Root
	state.client.Publish(msg.topic, msg.message, 1, msg.retain || retain, func(err error) {
		root.Send(self, publishResult{ReplyTo: replyTo, Event: true, Topic: msg.topic, Error: err})
	}, 5*time.Second)
}

func (state *MQTTActor) publishMessage(ctx actor.Context, topic, payload string, retain bool, replyTo *actor.PID) {
	state.logger.Debug("mqtt@publish: message publish", zap.String("topic", topic), zap.String("payload", payload))
	self := ctx.Self()
	root := ctx.ActorSystem().Root
	state.client.Publish(topic, payload, 1, retain, func(err error) {
		root.Send(self, publishResult{ReplyTo: replyTo, Topic: topic, Error: err})
	}, 5*time.Second)
}

func (state *MQTTActor) onPublishResult(ctx actor.Context, msg publishResult) {
	if msg.Error != nil {
		state.logger.Error("mqtt@default could not publish a message", zap.String("topic", msg.Topic), zap.Error(msg.Error))
	}
	if msg.ReplyTo == nil {
		return
	}
	if msg.Event {
		ctx.Send(msg.ReplyTo, domain.PublishSensorUpdateResponse{
			ActorResponseMixIn: domain.FailedResponse(msg.Error),
		})
	} else {
		ctx.Send(msg.ReplyTo, domain.PublishMessageResponse{
			ActorResponseMixIn: domain.FailedResponse(msg.Error),
		})
	}
}

func (state *MQTTActor) PublishHomeAssistantDiscovery(sensors []domain.GenericSensor, switches []domain.GenericSwitch) error {
	for i := range sensors {
		msg := mqtt.GenericSensorToHADiscoveryMessage(state.client, sensors[i])
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		topic := state.client.HADiscoverySensorTopic(sensors[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	for i := range switches {
		msg := mqtt.GenericSwitchToHADiscoveryMessage(state.client, switches[i])
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		topic := state.client.HADiscoverySwitchTopic(switches[i])
		state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	}
	return nil
}

// subscribeEvents relays sensor updates from the event stream to this actor.
// The handler runs on the publisher goroutine, so it only enqueues.
func (state *MQTTActor) subscribeEvents(ctx actor.Context) {
	if state.eventStream == nil || state.subscription != nil {
		return
	}
	self := ctx.Self()
	root := ctx.ActorSystem().Root
	state.subscription = state.eventStream.Subscribe(func(evt any) {
		if ev, ok := evt.(domain.SensorUpdateEvent); ok {
			root.Send(self, domain.PublishSensorUpdateRequest{Event: ev})
		}
	})
}

func (state *MQTTActor) unsubscribeEvents() {
	if state.eventStream != nil && state.subscription != nil {
		state.eventStream.Unsubscribe(state.subscription)
		state.subscription = nil
	}
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	state.unsubscribeEvents()
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func bool2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ON
	} else {
		return mqtt.MQTT_PAYLOAD_OFF
	}
}

func online2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ONLINE
	}
	return mqtt.MQTT_PAYLOAD_OFFLINE
}

// Dummy actor. Behaves like a connected MQTT actor and records what it would
// have published.
func NewTestMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		eventStream: eventStream,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.client = mqtt.CreateMQTTClient(state.config, mqtt.OptsFromConfig(state.config), nil, nil)
		state.subscribeEvents(ctx)
	case *actor.Stopping:
		state.unsubscribeEvents()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@dummy ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case domain.PublishSensorUpdateRequest:
		if raw := state.event2MQTTMessage(msg.Event); raw != nil {
			recordPublished(state.config.MQTT.BaseTopic, *raw)
		}
		if msg.ReplyToRef != nil {
			ctx.Respond(domain.PublishSensorUpdateResponse{})
		}
	case domain.PublishMessageRequest:
		recordPublished(state.config.MQTT.BaseTopic, rawMessage{topic: msg.Topic, message: msg.Payload, retain: msg.Retain})
		if msg.ReplyToRef != nil {
			ctx.Respond(domain.PublishMessageResponse{})
		}
	case domain.PublishDiscoveryRequest:
		for i := range msg.Sensors {
			recordPublished(state.config.MQTT.BaseTopic, rawMessage{topic: state.client.HADiscoverySensorTopic(msg.Sensors[i]), retain: true})
		}
		for i := range msg.Switches {
			recordPublished(state.config.MQTT.BaseTopic, rawMessage{topic: state.client.HADiscoverySwitchTopic(msg.Switches[i]), retain: true})
		}
	case ParsedCommand:
		ctx.Send(ctx.Parent(), msg)
	}
}

// dummy publications, keyed by base topic so tests can run side by side
var (
	dummyPublishedMu sync.Mutex
	dummyPublished   = map[string][]rawMessage{}
)

func recordPublished(baseTopic string, msg rawMessage) {
	dummyPublishedMu.Lock()
	defer dummyPublishedMu.Unlock()
	dummyPublished[baseTopic] = append(dummyPublished[baseTopic], msg)
}

// DummyPublished returns the last payload the dummy actor published per topic.
func DummyPublished(baseTopic string) map[string]string {
	dummyPublishedMu.Lock()
	defer dummyPublishedMu.Unlock()
	last := make(map[string]string)
	for _, m := range dummyPublished[baseTopic] {
		last[m.topic] = m.message
	}
	return last
}
