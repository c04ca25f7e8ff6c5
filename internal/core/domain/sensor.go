package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE           = "bridge"
	SENSOR_ID_PROJECTOR_AVAILABILITY = "projector"
	SENSOR_ID_PROJECTOR_LAMP_HOURS   = "projector_lamp_hours"
	SENSOR_ID_PROJECTOR_INPUT_SOURCE = "projector_input_source"
	SWITCH_ID_PROJECTOR_POWER        = "projector_power"
	STATE_CLASS_TOTAL_INCREASING     = "total_increasing"
	DEVICE_CLASS_CONNECTIVITY        = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC          = "diagnostic"
	SENSOR_TYPE_SENSOR               = "sensor"
	SENSOR_TYPE_BINARY               = "binary_sensor"
	PROJECTOR_MANUFACTURER           = "Optoma"
	PROJECTOR_MODEL                  = "RS-232 projector"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("optoma2mqtt_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "optoma2mqtt",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("optoma2mqtt %s", md5HashShort(baseTopic)),
	}
}

// ProjectorDevice identifies the projector by its serial path, the only stable
// handle the protocol offers.
func ProjectorDevice(name, serialPath string) Device {
	return Device{
		Id:           fmt.Sprintf("optoma_projector_%s", md5HashShort(serialPath)),
		Manufacturer: PROJECTOR_MANUFACTURER,
		Model:        PROJECTOR_MODEL,
		Name:         name,
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {
	return []GenericSensor{{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	}}
}

func ProjectorSensors(projectorDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Lamp hours
	sensors = append(sensors, GenericSensor{
		Device:            projectorDevice,
		Id:                SENSOR_ID_PROJECTOR_LAMP_HOURS,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Lamp hours",
		StateClass:        STATE_CLASS_TOTAL_INCREASING,
		UnitOfMeasurement: "h",
		Icon:              "mdi:lightbulb-on-outline",
		EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:          uniqueId(projectorDevice.Id, SENSOR_ID_PROJECTOR_LAMP_HOURS),
		FollowsProjector:  true,
	})

	// Input source
	sensors = append(sensors, GenericSensor{
		Device:           projectorDevice,
		Id:               SENSOR_ID_PROJECTOR_INPUT_SOURCE,
		SensorType:       SENSOR_TYPE_SENSOR,
		Name:             "Input source",
		Icon:             "mdi:video-input-hdmi",
		UniqueId:         uniqueId(projectorDevice.Id, SENSOR_ID_PROJECTOR_INPUT_SOURCE),
		FollowsProjector: true,
	})

	return sensors
}

func ProjectorSwitches(projectorDevice Device) []GenericSwitch {
	return []GenericSwitch{{
		Device:           projectorDevice,
		Id:               SWITCH_ID_PROJECTOR_POWER,
		Name:             "Power",
		UniqueId:         uniqueId(projectorDevice.Id, SWITCH_ID_PROJECTOR_POWER),
		Icon:             "mdi:projector",
		FollowsProjector: true,
	}}
}

func uniqueId(deviceId, sensorId string) string {
	return fmt.Sprintf("%s_%s", deviceId, sensorId)
}

func md5HashShort(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])[0:6]
}
