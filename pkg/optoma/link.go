package optoma

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	ATTR_LAMP_HOURS   = "Lamp Hours"
	ATTR_INPUT_SOURCE = "Input Source"

	DEFAULT_NAME          = "Optoma Projector"
	DEFAULT_BAUD_RATE     = 9600
	DEFAULT_READ_TIMEOUT  = 1 * time.Second
	DEFAULT_WRITE_TIMEOUT = 1 * time.Second
)

// LinkConfig binds a link to one projector.
type LinkConfig struct {
	Path         string
	Name         string
	BaudRate     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Status is a point-in-time copy of the link state.
type Status struct {
	Name           string            `json:"name"`
	Path           string            `json:"path"`
	Available      bool              `json:"available"`
	Power          PowerState        `json:"power"`
	ConfirmedPower PowerState        `json:"confirmed_power"`
	Attributes     map[string]string `json:"attributes"`
}

func (s Status) IsOn() bool {
	return s.Power == PowerOn
}

// Link owns the serial path of one projector and speaks its command protocol.
// Every exchange opens the port, writes one command, reads one line and closes
// the port again, so a projector that drops the line or is power cycled is
// picked up again on the next call.
//
// A Link is not safe for concurrent use.
type Link struct {
	cfg        LinkConfig
	open       Opener
	port       Port
	logger     *zap.Logger
	instrument []Instrument

	power     PowerState
	confirmed PowerState
	available bool
	lampHours string
	source    string
}

type LinkOption func(*Link)

// WithOpener replaces the serial port opener.
func WithOpener(open Opener) LinkOption {
	return func(l *Link) {
		l.open = open
	}
}

// WithInstrument registers an exchange observer.
func WithInstrument(instrument Instrument) LinkOption {
	return func(l *Link) {
		l.instrument = append(l.instrument, instrument)
	}
}

func NewLink(cfg LinkConfig, logger *zap.Logger, opts ...LinkOption) *Link {
	if cfg.Name == "" {
		cfg.Name = DEFAULT_NAME
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DEFAULT_BAUD_RATE
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DEFAULT_READ_TIMEOUT
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DEFAULT_WRITE_TIMEOUT
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Link{
		cfg:       cfg,
		open:      OpenSerialPort,
		logger:    logger.With(zap.String("port", cfg.Path)),
		power:     PowerUnknown,
		confirmed: PowerUnknown,
		lampHours: STATE_UNKNOWN,
		source:    STATE_UNKNOWN,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Refresh polls the power state and, while the projector is on, the info record.
func (l *Link) Refresh() {
	resp, err := l.Exchange(CmdGetState)
	if err != nil {
		l.available = false
		return
	}

	state, ok := ParseState(resp)
	if !ok {
		l.logger.Warn("unrecognized state response", zap.String("response", resp))
		l.available = false
		return
	}
	l.power = state
	l.confirmed = state
	l.available = true

	if state != PowerOn {
		return
	}

	resp, err = l.Exchange(CmdInfo)
	if err != nil {
		l.available = false
		return
	}
	info, err := ParseInfo(resp)
	if err != nil {
		l.logger.Warn("discarding info record", zap.String("response", resp), zap.Error(err))
		return
	}
	l.lampHours = info.LampHours
	l.source = info.Source.String()
}

// Activate powers the projector on. The power indicator flips to on right away,
// whatever the outcome of the exchange; the next Refresh confirms it.
func (l *Link) Activate() {
	l.command(CmdPowerOn)
	l.power = PowerOn
}

// Deactivate powers the projector off, see Activate.
func (l *Link) Deactivate() {
	l.command(CmdPowerOff)
	l.power = PowerOff
}

func (l *Link) command(cmd Command) {
	resp, err := l.Exchange(cmd)
	if err != nil {
		l.available = false
		return
	}
	l.logger.Debug("command sent", zap.Stringer("command", cmd), zap.String("response", resp))
}

// Exchange performs one open-write-read-close cycle and returns the raw answer.
// The port is closed on every path.
func (l *Link) Exchange(cmd Command) (resp string, err error) {
	done := recordTimer(cmd, l.instrument)
	defer func() {
		if err != nil {
			l.logger.Error("problem communicating with projector", zap.Stringer("command", cmd), zap.Error(err))
		}
		done(err)
	}()

	data, err := cmd.Encode()
	if err != nil {
		return "", err
	}

	if l.port == nil {
		var port Port
		if port, err = l.open(l.cfg.Path, l.cfg.BaudRate); err != nil {
			return "", fmt.Errorf("%w: %w", ErrPortOpen, err)
		}
		l.port = port
	}
	defer func() {
		if cerr := l.closePort(); cerr != nil && err == nil {
			l.logger.Debug("closing serial port", zap.Error(cerr))
		}
	}()

	if err = l.port.SetReadTimeout(l.cfg.ReadTimeout); err != nil {
		return "", fmt.Errorf("setting read timeout: %w", err)
	}
	if err = writeWithTimeout(l.port, data, l.cfg.WriteTimeout); err != nil {
		return "", err
	}
	return readLine(l.port, l.cfg.ReadTimeout)
}

func (l *Link) closePort() error {
	p := l.port
	l.port = nil
	if p != nil {
		return p.Close()
	}
	return nil
}

func (l *Link) Name() string {
	return l.cfg.Name
}

func (l *Link) Path() string {
	return l.cfg.Path
}

func (l *Link) Available() bool {
	return l.available
}

func (l *Link) IsOn() bool {
	return l.power == PowerOn
}

// PowerState is the optimistic power indicator: set by Activate/Deactivate and
// overwritten by every successful Refresh.
func (l *Link) PowerState() PowerState {
	return l.power
}

// ConfirmedPowerState is the last power state reported by the projector.
func (l *Link) ConfirmedPowerState() PowerState {
	return l.confirmed
}

// Attribute returns a cached attribute, ATTR_LAMP_HOURS or ATTR_INPUT_SOURCE.
func (l *Link) Attribute(name string) (string, bool) {
	switch name {
	case ATTR_LAMP_HOURS:
		return l.lampHours, true
	case ATTR_INPUT_SOURCE:
		return l.source, true
	default:
		return "", false
	}
}

func (l *Link) Attributes() map[string]string {
	return map[string]string{
		ATTR_LAMP_HOURS:   l.lampHours,
		ATTR_INPUT_SOURCE: l.source,
	}
}

func (l *Link) Status() Status {
	return Status{
		Name:           l.cfg.Name,
		Path:           l.cfg.Path,
		Available:      l.available,
		Power:          l.power,
		ConfirmedPower: l.confirmed,
		Attributes:     l.Attributes(),
	}
}
