package optoma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandEncoding(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CmdGetState, "~00124 1\r"},
		{CmdInfo, "~00150 1\r"},
		{CmdPowerOn, "~0000 1\r"},
		{CmdPowerOff, "~0000 0\r"},
	}
	for _, tt := range tests {
		got, err := tt.cmd.Encode()
		require.NoError(t, err, tt.cmd.String())
		assert.Equal(t, tt.want, string(got), tt.cmd.String())
	}

	_, err := Command(42).Encode()
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("power_off")
	require.NoError(t, err)
	assert.Equal(t, CmdPowerOff, cmd)

	_, err = ParseCommand("reboot")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestParseState(t *testing.T) {
	state, ok := ParseState("OK1\r")
	assert.True(t, ok)
	assert.Equal(t, PowerOn, state)

	state, ok = ParseState("OK0\r")
	assert.True(t, ok)
	assert.Equal(t, PowerOff, state)

	for _, resp := range []string{"", "OK1", "OK2\r", "ok1\r", "F\r", " OK1\r"} {
		_, ok = ParseState(resp)
		assert.False(t, ok, "response %q", resp)
	}
}

func TestParseInfo(t *testing.T) {
	info, err := ParseInfo("XXX1234Y5ZZ")
	require.NoError(t, err)
	assert.Equal(t, "1234", info.LampHours)
	assert.Equal(t, SourceHDMI, info.Source)
	assert.Equal(t, "HDMI", info.Source.String())

	info, err = ParseInfo("Ok00520 0\r")
	require.NoError(t, err)
	assert.Equal(t, SourceNone, info.Source)
}

func TestParseInfoMalformed(t *testing.T) {
	_, err := ParseInfo("")
	assert.ErrorIs(t, err, ErrShortInfoRecord)

	_, err = ParseInfo("XXX1234Y")
	assert.ErrorIs(t, err, ErrShortInfoRecord)

	_, err = ParseInfo("XXX1234Y7ZZ")
	assert.ErrorIs(t, err, ErrInvalidSourceIndex)

	_, err = ParseInfo("XXX1234YAZZ")
	assert.ErrorIs(t, err, ErrInvalidSourceIndex)
}

func TestSourceNames(t *testing.T) {
	assert.Equal(t, []string{"None", "VGA1", "VGA2", "Video", "S-Video", "HDMI", "DVI"}, SourceNames())
	assert.Equal(t, STATE_UNKNOWN, InputSource(9).String())
}

func TestPowerStateString(t *testing.T) {
	assert.Equal(t, "on", PowerOn.String())
	assert.Equal(t, "off", PowerOff.String())
	assert.Equal(t, "unknown", PowerUnknown.String())
}
