package actor

import (
	"sync"
	"time"

	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/pkg/optoma"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// stubLink is an always-reachable projector.
type stubLink struct {
	mu        sync.Mutex
	status    optoma.Status
	refreshes int
}

func newStubLink() *stubLink {
	return &stubLink{
		status: optoma.Status{
			Name:       "Optoma Projector",
			Path:       "/dev/ttyUSB0",
			Attributes: map[string]string{},
		},
	}
}

func (l *stubLink) Refresh() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshes++
	l.status.Available = true
	l.status.ConfirmedPower = l.status.Power
	if l.status.Power == optoma.PowerUnknown {
		l.status.Power = optoma.PowerOff
		l.status.ConfirmedPower = optoma.PowerOff
	}
}

func (l *stubLink) Activate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.Power = optoma.PowerOn
}

func (l *stubLink) Deactivate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.Power = optoma.PowerOff
}

func (l *stubLink) Status() optoma.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.status
	st.Attributes = map[string]string{}
	for k, v := range l.status.Attributes {
		st.Attributes[k] = v
	}
	return st
}

func (l *stubLink) refreshCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshes
}

func healthCheck(context *actor.RootContext, pid *actor.PID) (domain.ActorHealthResponse, error) {
	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, time.Second).Result()
	if err != nil {
		return domain.ActorHealthResponse{}, err
	}
	return res.(domain.ActorHealthResponse), nil
}

func testLogger() *zap.Logger {
	return zap.Must(zap.NewDevelopment())
}
