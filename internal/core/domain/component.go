package domain

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

type GenericSensor struct {
	Device            Device
	Id                string
	SensorType        string
	Name              string
	UniqueId          string
	UnitOfMeasurement string
	StateClass        string // measurement, total_increasing
	DeviceClass       string // connectivity, duration
	EntityCategory    string // diagnostic, config, nil
	EnabledByDefault  *bool
	Icon              string
	// entity is unavailable whenever the projector link is
	FollowsProjector bool
}

type GenericSwitch struct {
	Device           Device
	Id               string
	Name             string
	UniqueId         string
	Icon             string
	FollowsProjector bool
}
