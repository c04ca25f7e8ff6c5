package events

import (
	. "github.com/berfenger/optoma2mqtt/internal/core/domain"
	"github.com/berfenger/optoma2mqtt/pkg/optoma"
)

// ProjectorStatusToUpdateEvents maps a link snapshot to sensor updates. The
// power switch is left out while the state is unknown, and so is every
// attribute that was never read.
func ProjectorStatusToUpdateEvents(st optoma.Status) []any {
	var events []any

	// Availability
	events = append(events, AvailabilityUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_PROJECTOR_AVAILABILITY,
		},
		Value: st.Available,
	})
	// Power
	if st.Power != optoma.PowerUnknown {
		events = append(events, ProjectorPowerSwitchUpdateEvent(st.IsOn()))
	}
	// Lamp hours
	if v, ok := knownAttribute(st, optoma.ATTR_LAMP_HOURS); ok {
		events = append(events, TextSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_PROJECTOR_LAMP_HOURS,
			},
			Value: v,
		})
	}
	// Input source
	if v, ok := knownAttribute(st, optoma.ATTR_INPUT_SOURCE); ok {
		events = append(events, TextSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_PROJECTOR_INPUT_SOURCE,
			},
			Value: v,
		})
	}

	return events
}

func ProjectorPowerSwitchUpdateEvent(on bool) any {
	return SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SWITCH_ID_PROJECTOR_POWER,
		},
		Value: on,
	}
}

func knownAttribute(st optoma.Status, name string) (string, bool) {
	v, ok := st.Attributes[name]
	if !ok || v == "" || v == optoma.STATE_UNKNOWN {
		return "", false
	}
	return v, true
}
