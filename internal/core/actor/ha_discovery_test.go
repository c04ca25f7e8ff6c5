package actor

import (
	"testing"
	"time"

	adactor "github.com/berfenger/optoma2mqtt/internal/adapter/actor"
	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/internal/util"
	"github.com/berfenger/optoma2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoveryEntities(t *testing.T) {
	cfg := util.LoadTestConfig()
	sensors, switches := DiscoveryEntities(&cfg)

	require.Len(t, switches, 1)
	assert.Equal(t, domain.SWITCH_ID_PROJECTOR_POWER, switches[0].Id)
	assert.Equal(t, domain.BridgeDevice(cfg.MQTT.BaseTopic).Id, switches[0].Device.ViaDevice)
	assert.Equal(t, "Optoma Projector", switches[0].Device.Name)

	ids := make([]string, 0, len(sensors))
	for _, s := range sensors {
		ids = append(ids, s.Id)
	}
	assert.Equal(t, []string{
		domain.SENSOR_ID_BRIDGE_STATE,
		domain.SENSOR_ID_PROJECTOR_LAMP_HOURS,
		domain.SENSOR_ID_PROJECTOR_INPUT_SOURCE,
	}, ids)
	// projector sensors reference the device by id only
	assert.Empty(t, sensors[1].Device.Manufacturer)
	assert.Equal(t, switches[0].Device.Id, sensors[1].Device.Id)
}

func TestHADiscoveryActor(t *testing.T) {
	logger := testLogger()
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	cfg := util.LoadTestConfig()
	cfg.MQTT.BaseTopic = "hadiscovery_test"

	projectorPID := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewProjectorActor(newStubLink(), nil, time.Second, logger)
	}))
	mqttPID := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewTestMQTTActor(&cfg, &eventstream.EventStream{}, logger)
	}))
	discoveryPID := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&cfg, projectorPID, mqttPID, logger)
	}))

	bridge := domain.BridgeDevice(cfg.MQTT.BaseTopic)
	projector := domain.ProjectorDevice(cfg.Projector.Name, cfg.Projector.Filename)
	assert.Eventually(t, func() bool {
		published := adactor.DummyPublished(cfg.MQTT.BaseTopic)
		_, bridgeOk := published["homeassistant/binary_sensor/"+bridge.Id+"/bridge/config"]
		_, switchOk := published["homeassistant/switch/"+projector.Id+"/projector_power/config"]
		_, lampOk := published["homeassistant/sensor/"+projector.Id+"/"+domain.SENSOR_ID_PROJECTOR_LAMP_HOURS+"/config"]
		return bridgeOk && switchOk && lampOk
	}, 5*time.Second, 50*time.Millisecond)

	hcr, err := healthCheck(as.Root, discoveryPID)
	require.NoError(t, err)
	assert.Equal(t, "done", hcr.State)
}
