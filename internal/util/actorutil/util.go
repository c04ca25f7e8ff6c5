package actorutil

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

var ErrInvalidPayload = errors.New("invalid command payload")

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel, zap.PanicLevel, zap.FatalLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand maps a command received from Home Assistant to a
// projector request. Commands for unknown entities yield nil.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.ActorRequest, error) {
	if cmd.Command == mqtt.COMMAND_SWITCH && cmd.DeviceId == domain.SWITCH_ID_PROJECTOR_POWER {
		on, err := ParseSwitchPayload(cmd.Payload)
		if err != nil {
			return nil, err
		}
		return domain.SetPowerRequest{On: on}, nil
	}
	return nil, nil
}

func ParseSwitchPayload(payload string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case mqtt.MQTT_PAYLOAD_ON:
		return true, nil
	case mqtt.MQTT_PAYLOAD_OFF:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidPayload, payload)
	}
}
