package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/internal/util/actorutil"
	"github.com/berfenger/optoma2mqtt/pkg/optoma"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// fakeLink records calls and fails the test on overlapping ones.
type fakeLink struct {
	mu       sync.Mutex
	status   optoma.Status
	calls    []string
	inFlight atomic.Int32
	overlap  atomic.Bool
	delay    time.Duration
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		status: optoma.Status{
			Name: "Optoma Projector",
			Path: "/dev/ttyUSB0",
			Attributes: map[string]string{
				optoma.ATTR_LAMP_HOURS:   optoma.STATE_UNKNOWN,
				optoma.ATTR_INPUT_SOURCE: optoma.STATE_UNKNOWN,
			},
		},
	}
}

func (f *fakeLink) enter(call string) {
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	time.Sleep(f.delay)
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeLink) leave() {
	f.inFlight.Add(-1)
}

func (f *fakeLink) Refresh() {
	f.enter("refresh")
	defer f.leave()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Available = true
	f.status.Power = optoma.PowerOn
	f.status.ConfirmedPower = optoma.PowerOn
	f.status.Attributes = map[string]string{
		optoma.ATTR_LAMP_HOURS:   "1234",
		optoma.ATTR_INPUT_SOURCE: "HDMI",
	}
}

func (f *fakeLink) Activate() {
	f.enter("activate")
	defer f.leave()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Power = optoma.PowerOn
}

func (f *fakeLink) Deactivate() {
	f.enter("deactivate")
	defer f.leave()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Power = optoma.PowerOff
}

func (f *fakeLink) Status() optoma.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.status
	st.Attributes = make(map[string]string, len(f.status.Attributes))
	for k, v := range f.status.Attributes {
		st.Attributes[k] = v
	}
	return st
}

func (f *fakeLink) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func spawnProjector(t *testing.T, link *fakeLink, es *eventstream.EventStream) (*actor.ActorSystem, *actor.PID) {
	return spawnProjectorWithTimeout(t, link, es, 2*time.Second)
}

func spawnProjectorWithTimeout(t *testing.T, link *fakeLink, es *eventstream.EventStream, taskTimeout time.Duration) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewProjectorActor(link, es, taskTimeout, logger)
	})
	return as, as.Root.Spawn(props)
}

func TestProjectorActorRefresh(t *testing.T) {
	link := newFakeLink()
	es := &eventstream.EventStream{}
	evCh := make(chan any, 16)
	sub := es.Subscribe(func(evt any) { evCh <- evt })
	defer es.Unsubscribe(sub)

	as, pid := spawnProjector(t, link, es)
	defer as.Shutdown()

	res, err := as.Root.RequestFuture(pid, domain.RefreshRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp, ok := res.(domain.RefreshResponse)
	require.True(t, ok)
	assert.False(t, resp.HasResponseError())
	assert.True(t, resp.Status.IsOn())
	assert.Equal(t, "1234", resp.Status.Attributes[optoma.ATTR_LAMP_HOURS])

	var received []any
	timeout := time.After(2 * time.Second)
	for len(received) < 4 {
		select {
		case ev := <-evCh:
			received = append(received, ev)
		case <-timeout:
			t.Fatalf("expected 4 events, got %d", len(received))
		}
	}
	assert.IsType(t, domain.AvailabilityUpdateEvent{}, received[0])
	assert.Equal(t, domain.SWITCH_ID_PROJECTOR_POWER, received[1].(domain.SwitchSensorUpdateEvent).SensorId())
}

func TestProjectorActorSetPower(t *testing.T) {
	link := newFakeLink()
	as, pid := spawnProjector(t, link, &eventstream.EventStream{})
	defer as.Shutdown()

	res, err := as.Root.RequestFuture(pid, domain.SetPowerRequest{On: true}, 5*time.Second).Result()
	require.NoError(t, err)
	assert.Equal(t, optoma.PowerOn, res.(domain.SetPowerResponse).Status.Power)

	res, err = as.Root.RequestFuture(pid, domain.SetPowerRequest{On: false}, 5*time.Second).Result()
	require.NoError(t, err)
	assert.Equal(t, optoma.PowerOff, res.(domain.SetPowerResponse).Status.Power)

	assert.Equal(t, []string{"activate", "deactivate"}, link.Calls())
}

func TestProjectorActorSerializesRequests(t *testing.T) {
	link := newFakeLink()
	link.delay = 50 * time.Millisecond
	as, pid := spawnProjector(t, link, nil)
	defer as.Shutdown()

	futures := []*actor.Future{
		as.Root.RequestFuture(pid, domain.RefreshRequest{}, 5*time.Second),
		as.Root.RequestFuture(pid, domain.SetPowerRequest{On: false}, 5*time.Second),
		as.Root.RequestFuture(pid, domain.GetProjectorStatusRequest{}, 5*time.Second),
		as.Root.RequestFuture(pid, domain.RefreshRequest{}, 5*time.Second),
	}
	for _, f := range futures {
		_, err := f.Result()
		require.NoError(t, err)
	}

	assert.False(t, link.overlap.Load(), "link calls overlapped")
	assert.Len(t, link.Calls(), 3)
}

func TestProjectorActorStatusDoesNoIO(t *testing.T) {
	link := newFakeLink()
	as, pid := spawnProjector(t, link, nil)
	defer as.Shutdown()

	res, err := as.Root.RequestFuture(pid, domain.GetProjectorStatusRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	st := res.(domain.GetProjectorStatusResponse).Status
	assert.Equal(t, optoma.PowerUnknown, st.Power)
	assert.Empty(t, link.Calls())

	res, err = as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	health := res.(domain.ActorHealthResponse)
	assert.True(t, health.Healthy)
	assert.Equal(t, "unavailable", health.State)
}

func TestProjectorActorAnswersHealthWhileBusy(t *testing.T) {
	link := newFakeLink()
	link.delay = 800 * time.Millisecond
	as, pid := spawnProjector(t, link, nil)
	defer as.Shutdown()

	refresh := as.Root.RequestFuture(pid, domain.RefreshRequest{}, 5*time.Second)
	assert.Eventually(t, func() bool {
		return link.inFlight.Load() == 1
	}, time.Second, 5*time.Millisecond)

	res, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond).Result()
	require.NoError(t, err)
	health := res.(domain.ActorHealthResponse)
	assert.True(t, health.Healthy)
	assert.Equal(t, "busy", health.State)

	res, err = refresh.Result()
	require.NoError(t, err)
	assert.False(t, res.(domain.RefreshResponse).HasResponseError())
}

func TestProjectorActorWaitsForOverdueTask(t *testing.T) {
	link := newFakeLink()
	link.delay = 300 * time.Millisecond
	as, pid := spawnProjectorWithTimeout(t, link, nil, 50*time.Millisecond)
	defer as.Shutdown()

	refresh := as.Root.RequestFuture(pid, domain.RefreshRequest{}, 5*time.Second)
	setPower := as.Root.RequestFuture(pid, domain.SetPowerRequest{On: false}, 5*time.Second)

	res, err := refresh.Result()
	require.NoError(t, err)
	assert.True(t, res.(domain.RefreshResponse).Status.Available)

	res, err = setPower.Result()
	require.NoError(t, err)
	assert.Equal(t, optoma.PowerOff, res.(domain.SetPowerResponse).Status.Power)

	assert.False(t, link.overlap.Load(), "link calls overlapped")
	assert.Equal(t, []string{"refresh", "deactivate"}, link.Calls())
}
