package domain

import "github.com/berfenger/optoma2mqtt/pkg/optoma"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_PROJECTOR    = "projector"
	ACTOR_ID_MONITOR      = "monitor"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type GetProjectorStatusRequest struct {
	ActorRequestMixIn
}

type GetProjectorStatusResponse struct {
	ActorResponseMixIn
	Status optoma.Status
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors  []GenericSensor
	Switches []GenericSwitch
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
