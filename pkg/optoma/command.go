package optoma

import "fmt"

// Command is a request known to the projector.
type Command int

const (
	CmdGetState Command = iota
	CmdInfo
	CmdPowerOn
	CmdPowerOff
)

const (
	LINE_DELIMITER = '\r'
)

// commands maps every command to its wire encoding, delimiter included.
var commands = map[Command]string{
	CmdGetState: "~00124 1\r",
	CmdInfo:     "~00150 1\r",
	CmdPowerOn:  "~0000 1\r",
	CmdPowerOff: "~0000 0\r",
}

var commandNames = map[Command]string{
	CmdGetState: "get_state",
	CmdInfo:     "info",
	CmdPowerOn:  "power_on",
	CmdPowerOff: "power_off",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// Encode returns the bytes written to the port for the command.
func (c Command) Encode() ([]byte, error) {
	raw, ok := commands[c]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, int(c))
	}
	return []byte(raw), nil
}

// ParseCommand resolves a command by its name, as printed by String.
func ParseCommand(name string) (Command, error) {
	for cmd, n := range commandNames {
		if n == name {
			return cmd, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}
