package optoma

import (
	"errors"
	"sync"
	"time"
)

var errFakeClosed = errors.New("fake: port closed")

// fakeDevice plays the projector side. Every open hands out a fresh fakePort.
type fakeDevice struct {
	responses  map[string]string
	openErr    error
	writeErr   error
	readErr    error
	blockWrite bool
	opens      int
	ports      []*fakePort
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{responses: map[string]string{}}
}

func (d *fakeDevice) respond(cmd Command, resp string) {
	d.responses[commands[cmd]] = resp
}

func (d *fakeDevice) open(path string, baudRate int) (Port, error) {
	d.opens++
	if d.openErr != nil {
		return nil, d.openErr
	}
	p := &fakePort{device: d}
	if d.blockWrite {
		p.unblock = make(chan struct{})
	}
	d.ports = append(d.ports, p)
	return p, nil
}

// writes returns every command written, across ports, in order.
func (d *fakeDevice) writes() []string {
	var all []string
	for _, p := range d.ports {
		p.mu.Lock()
		all = append(all, p.writes...)
		p.mu.Unlock()
	}
	return all
}

func (d *fakeDevice) allClosed() bool {
	for _, p := range d.ports {
		if !p.isClosed() {
			return false
		}
	}
	return true
}

type fakePort struct {
	device  *fakeDevice
	mu      sync.Mutex
	writes  []string
	pending []byte
	closed  bool
	unblock chan struct{}
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.unblock != nil {
		<-p.unblock
		return 0, errFakeClosed
	}
	if p.device.writeErr != nil {
		return 0, p.device.writeErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writes = append(p.writes, string(b))
	p.pending = []byte(p.device.responses[string(b)])
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.device.readErr != nil {
		return 0, p.device.readErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return 0, nil
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		if p.unblock != nil {
			close(p.unblock)
		}
	}
	return nil
}

func (p *fakePort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePort) SetReadTimeout(t time.Duration) error { return nil }
