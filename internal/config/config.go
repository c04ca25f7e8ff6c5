package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel      zapcore.Level
	Projector     ProjectorConfig `mapstructure:"projector"`
	MQTT          MQTTConfig      `mapstructure:"mqtt"`
	MonitorConfig MonitorConfig   `mapstructure:"monitor"`
	Port          uint            `mapstructure:"port"`
	HttpLog       bool            `mapstructure:"http_log"`
}

type ProjectorConfig struct {
	Filename           string
	Name               string
	TimeoutMillis      uint32 `mapstructure:"timeout_millis"`
	WriteTimeoutMillis uint32 `mapstructure:"write_timeout_millis"`
	BaudRate           int    `mapstructure:"baud_rate"`
}

func (c ProjectorConfig) ReadTimeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

func (c ProjectorConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMillis) * time.Millisecond
}

// TaskTimeout bounds one actor task, which is at most two exchanges of one
// write and two reads each.
func (c ProjectorConfig) TaskTimeout() time.Duration {
	return 2*(c.WriteTimeout()+2*c.ReadTimeout()) + time.Second
}

type MonitorConfig struct {
	PollIntervalMillis uint32 `mapstructure:"poll_interval_millis"`
}

func (c MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

var (
	ErrEmptyFilename   = errors.New("projector.filename cannot be empty")
	ErrInvalidFilename = errors.New("projector.filename is not a serial device path")
	ErrPathTraversal   = errors.New("projector.filename contains path traversal")
	ErrInvalidTimeout  = errors.New("projector timeouts must be > 0")
	ErrInvalidBaudRate = errors.New("projector.baud_rate is not a standard rate")
)

var standardBaudRates = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

var (
	baseTopicRegexp   = regexp.MustCompile("^[a-z0-9_]+$")
	unixPortRegexp    = regexp.MustCompile(`^/dev/(tty[A-Za-z0-9._-]*|cu\.[A-Za-z0-9._-]+|serial/by-(id|path)/[A-Za-z0-9:._-]+)$`)
	windowsPortRegexp = regexp.MustCompile(`^(?i)COM[0-9]+$`)
)

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	if !baseTopicRegexp.MatchString(lowerBaseTopic) {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// ValidateProjectorConfig checks the serial settings. It does not touch the
// filesystem, see CheckDeviceExists.
func ValidateProjectorConfig(cfg ProjectorConfig) error {
	name := strings.TrimSpace(cfg.Filename)
	if name == "" {
		return ErrEmptyFilename
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrPathTraversal, name)
	}
	if !isValidPortName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	if cfg.TimeoutMillis == 0 || cfg.WriteTimeoutMillis == 0 {
		return ErrInvalidTimeout
	}
	if !slices.Contains(standardBaudRates, cfg.BaudRate) {
		return fmt.Errorf("%w: %d", ErrInvalidBaudRate, cfg.BaudRate)
	}
	return nil
}

func isValidPortName(name string) bool {
	if windowsPortRegexp.MatchString(name) {
		return true
	}
	return unixPortRegexp.MatchString(filepath.Clean(name)) && filepath.Clean(name) == name
}

// CheckDeviceExists fails when the device node is missing. Windows COM ports are
// not visible on the filesystem and are accepted as is.
func CheckDeviceExists(filename string) error {
	if windowsPortRegexp.MatchString(filename) {
		return nil
	}
	if _, err := os.Stat(filename); err != nil {
		return fmt.Errorf("projector device %s: %w", filename, err)
	}
	return nil
}
