package optoma

// PowerState is the tri-state power indicator of the projector.
type PowerState int

const (
	PowerUnknown PowerState = iota
	PowerOff
	PowerOn
)

const (
	STATE_UNKNOWN = "unknown"
	STATE_ON      = "on"
	STATE_OFF     = "off"
)

func (s PowerState) String() string {
	switch s {
	case PowerOn:
		return STATE_ON
	case PowerOff:
		return STATE_OFF
	default:
		return STATE_UNKNOWN
	}
}

func (s PowerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// InputSource is the active video input reported in the info record.
type InputSource int

const (
	SourceNone InputSource = iota
	SourceVGA1
	SourceVGA2
	SourceVideo
	SourceSVideo
	SourceHDMI
	SourceDVI
)

// sourceList is indexed by the digit at offset 8 of the info record.
var sourceList = [...]string{"None", "VGA1", "VGA2", "Video", "S-Video", "HDMI", "DVI"}

func (s InputSource) String() string {
	if s < 0 || int(s) >= len(sourceList) {
		return STATE_UNKNOWN
	}
	return sourceList[s]
}

// SourceNames lists every input source name in index order.
func SourceNames() []string {
	names := make([]string, len(sourceList))
	copy(names, sourceList[:])
	return names
}
