package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	adactor "github.com/berfenger/optoma2mqtt/internal/adapter/actor"
	"github.com/berfenger/optoma2mqtt/internal/config"
	"github.com/berfenger/optoma2mqtt/internal/core/actor"
	"github.com/berfenger/optoma2mqtt/internal/metrics"
	"github.com/berfenger/optoma2mqtt/internal/server"
	"github.com/berfenger/optoma2mqtt/internal/util/actorutil"
	"github.com/berfenger/optoma2mqtt/pkg/optoma"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	// metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		logger.Fatal("metrics registration failed", zap.Error(err))
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	eventStream := &eventstream.EventStream{}
	m.Subscribe(eventStream)
	defer m.Unsubscribe(eventStream)

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, eventStream, projectorActorProvider(cfg, m, logger), mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		logger.Error("cannot spawn master actor", zap.Error(err))
		return
	}

	server := server.NewServer(*cfg, ctx, pid, registry)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => OPTOMA_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("OPTOMA_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("optoma")
	// OPTOMA_PROJECTOR_FILENAME => projector.filename
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check projector
	if err := config.ValidateProjectorConfig(cfg.Projector); err != nil {
		return nil, err
	}
	if err := config.CheckDeviceExists(cfg.Projector.Filename); err != nil {
		return nil, err
	}

	// check bounds
	if cfg.MonitorConfig.PollIntervalMillis < 1000 {
		return nil, errors.New("config param monitor.poll_interval_millis should be >= 1000")
	}

	return &cfg, nil
}

func projectorActorProvider(cfg *config.Config, instrument optoma.Instrument, logger *zap.Logger) actor.ProjectorActorProvider {
	return func(es *eventstream.EventStream) *adactor.ProjectorActor {
		// a restarted actor starts from a fresh link, state Unknown
		link := optoma.NewLink(optoma.LinkConfig{
			Path:         cfg.Projector.Filename,
			Name:         cfg.Projector.Name,
			BaudRate:     cfg.Projector.BaudRate,
			ReadTimeout:  cfg.Projector.ReadTimeout(),
			WriteTimeout: cfg.Projector.WriteTimeout(),
		}, logger, optoma.WithInstrument(instrument))
		return adactor.NewProjectorActor(link, es, cfg.Projector.TaskTimeout(), logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	// keys without a default are only read from env when registered
	viper.SetDefault("projector.filename", "")
	viper.SetDefault("mqtt.host", "")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("projector.name", optoma.DEFAULT_NAME)
	viper.SetDefault("projector.timeout_millis", 1000)
	viper.SetDefault("projector.write_timeout_millis", 1000)
	viper.SetDefault("projector.baud_rate", optoma.DEFAULT_BAUD_RATE)
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "optoma")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("monitor.poll_interval_millis", 30000)
	viper.SetDefault("port", 8080)
	viper.SetDefault("http_log", false)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
