package optoma

import "fmt"

const (
	RESPONSE_ON  = "OK1\r"
	RESPONSE_OFF = "OK0\r"

	infoLampHoursStart = 3
	infoLampHoursEnd   = 7
	infoSourceOffset   = 8
	infoMinLength      = infoSourceOffset + 1
)

// ParseState decodes the answer to CmdGetState. Only the two exact answers are
// recognized; ok is false for anything else.
func ParseState(resp string) (state PowerState, ok bool) {
	switch resp {
	case RESPONSE_ON:
		return PowerOn, true
	case RESPONSE_OFF:
		return PowerOff, true
	default:
		return PowerUnknown, false
	}
}

// InfoRecord is the decoded answer to CmdInfo.
type InfoRecord struct {
	LampHours string
	Source    InputSource
}

// ParseInfo decodes the fixed-layout info record. Lamp hours sit at offsets 3..6
// and the input source index at offset 8.
func ParseInfo(resp string) (*InfoRecord, error) {
	if len(resp) < infoMinLength {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrShortInfoRecord, len(resp), infoMinLength)
	}
	c := resp[infoSourceOffset]
	if c < '0' || c > '9' {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSourceIndex, c)
	}
	idx := int(c - '0')
	if idx >= len(sourceList) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSourceIndex, idx)
	}
	return &InfoRecord{
		LampHours: resp[infoLampHoursStart:infoLampHoursEnd],
		Source:    InputSource(idx),
	}, nil
}
