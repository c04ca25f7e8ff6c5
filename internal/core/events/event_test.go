package events

import (
	"testing"

	"github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/pkg/optoma"

	"github.com/stretchr/testify/assert"
)

func status(available bool, power optoma.PowerState, lamp, source string) optoma.Status {
	return optoma.Status{
		Name:      "Optoma Projector",
		Path:      "/dev/ttyUSB0",
		Available: available,
		Power:     power,
		Attributes: map[string]string{
			optoma.ATTR_LAMP_HOURS:   lamp,
			optoma.ATTR_INPUT_SOURCE: source,
		},
	}
}

func TestStatusEventsUnknown(t *testing.T) {
	evs := ProjectorStatusToUpdateEvents(status(false, optoma.PowerUnknown, optoma.STATE_UNKNOWN, optoma.STATE_UNKNOWN))

	assert.Equal(t, []any{
		domain.AvailabilityUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: domain.SENSOR_ID_PROJECTOR_AVAILABILITY},
			Value:                  false,
		},
	}, evs)
}

func TestStatusEventsOn(t *testing.T) {
	evs := ProjectorStatusToUpdateEvents(status(true, optoma.PowerOn, "1234", "HDMI"))

	if assert.Len(t, evs, 4) {
		assert.Equal(t, true, evs[0].(domain.AvailabilityUpdateEvent).Value)
		sw := evs[1].(domain.SwitchSensorUpdateEvent)
		assert.Equal(t, domain.SWITCH_ID_PROJECTOR_POWER, sw.SensorId())
		assert.True(t, sw.Value)
		assert.Equal(t, "1234", evs[2].(domain.TextSensorUpdateEvent).Value)
		assert.Equal(t, domain.SENSOR_ID_PROJECTOR_INPUT_SOURCE, evs[3].(domain.TextSensorUpdateEvent).SensorId())
		assert.Equal(t, "HDMI", evs[3].(domain.TextSensorUpdateEvent).Value)
	}
}

func TestStatusEventsOffKeepsKnownAttributes(t *testing.T) {
	evs := ProjectorStatusToUpdateEvents(status(true, optoma.PowerOff, "0042", optoma.STATE_UNKNOWN))

	if assert.Len(t, evs, 3) {
		assert.False(t, evs[1].(domain.SwitchSensorUpdateEvent).Value)
		assert.Equal(t, domain.SENSOR_ID_PROJECTOR_LAMP_HOURS, evs[2].(domain.TextSensorUpdateEvent).SensorId())
	}
}
