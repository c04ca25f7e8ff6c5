package actor

import (
	"testing"
	"time"

	adactor "github.com/berfenger/optoma2mqtt/internal/adapter/actor"
	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/internal/mqtt"
	"github.com/berfenger/optoma2mqtt/internal/util"
	"github.com/berfenger/optoma2mqtt/internal/util/actorutil"
	"github.com/berfenger/optoma2mqtt/pkg/optoma"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnMaster(t *testing.T, link *stubLink, baseTopic string, haDiscovery bool) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	logger := testLogger()
	as := actorutil.NewActorSystemWithZapLogger(logger)

	cfg := util.LoadTestConfig()
	cfg.MQTT.BaseTopic = baseTopic
	cfg.MQTT.HADiscoveryEnable = haDiscovery
	cfg.MonitorConfig.PollIntervalMillis = 100

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, &eventstream.EventStream{}, func(es *eventstream.EventStream) *adactor.ProjectorActor {
			return adactor.NewProjectorActor(link, es, cfg.Projector.TaskTimeout(), logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := as.Root.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)
	t.Cleanup(func() {
		as.Root.Stop(pid)
		as.Shutdown()
	})
	return as, pid
}

func TestMasterActor(t *testing.T) {
	link := newStubLink()
	as, pid := spawnMaster(t, link, "master_health_test", false)

	assert.Eventually(t, func() bool {
		hcr, err := healthCheck(as.Root, pid)
		return err == nil && hcr.Healthy
	}, 5*time.Second, 100*time.Millisecond)

	// the monitor keeps polling
	assert.Eventually(t, func() bool {
		return link.refreshCount() >= 2
	}, 5*time.Second, 50*time.Millisecond)

	assert.Eventually(t, func() bool {
		published := adactor.DummyPublished("master_health_test")
		return published["master_health_test/projector/availability"] == "online" &&
			published["master_health_test/switch/projector_power/state"] == "off"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestMasterForwardsRequests(t *testing.T) {
	link := newStubLink()
	as, pid := spawnMaster(t, link, "master_forward_test", false)

	res, err := as.Root.RequestFuture(pid, domain.SetPowerRequest{On: true}, 5*time.Second).Result()
	require.NoError(t, err)
	resp, ok := res.(domain.SetPowerResponse)
	require.True(t, ok)
	assert.False(t, resp.HasResponseError())
	assert.Equal(t, optoma.PowerOn, resp.Status.Power)

	res, err = as.Root.RequestFuture(pid, domain.GetProjectorStatusRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	statusResp, ok := res.(domain.GetProjectorStatusResponse)
	require.True(t, ok)
	assert.Equal(t, "Optoma Projector", statusResp.Status.Name)
	assert.Equal(t, optoma.PowerOn, statusResp.Status.Power)
}

func TestMasterRoutesMQTTCommands(t *testing.T) {
	link := newStubLink()
	as, pid := spawnMaster(t, link, "master_command_test", false)

	as.Root.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: domain.SWITCH_ID_PROJECTOR_POWER,
		Command:  mqtt.COMMAND_SWITCH,
		Payload:  "ON",
	}})
	assert.Eventually(t, func() bool {
		return link.Status().Power == optoma.PowerOn
	}, 5*time.Second, 50*time.Millisecond)

	// invalid payloads are dropped
	as.Root.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: domain.SWITCH_ID_PROJECTOR_POWER,
		Command:  mqtt.COMMAND_SWITCH,
		Payload:  "maybe",
	}})
	as.Root.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: domain.SWITCH_ID_PROJECTOR_POWER,
		Command:  mqtt.COMMAND_SWITCH,
		Payload:  "off",
	}})
	assert.Eventually(t, func() bool {
		return link.Status().Power == optoma.PowerOff
	}, 5*time.Second, 50*time.Millisecond)
}

func TestMasterPublishesDiscovery(t *testing.T) {
	link := newStubLink()
	_, _ = spawnMaster(t, link, "master_discovery_test", true)

	assert.Eventually(t, func() bool {
		published := adactor.DummyPublished("master_discovery_test")
		dev := domain.ProjectorDevice("Optoma Projector", "/dev/ttyUSB0")
		_, ok := published["homeassistant/switch/"+dev.Id+"/projector_power/config"]
		return ok
	}, 5*time.Second, 100*time.Millisecond)
}
