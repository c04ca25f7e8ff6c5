package util

import (
	"github.com/berfenger/optoma2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Projector: config.ProjectorConfig{
			Filename:           "/dev/ttyUSB0",
			Name:               "Optoma Projector",
			TimeoutMillis:      100,
			WriteTimeoutMillis: 100,
			BaudRate:           9600,
		},
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "optoma",
			HADiscoveryTopic: "homeassistant",
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalMillis: 5000,
		},
		Port: 8080,
	}
}
