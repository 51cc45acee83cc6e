package hyprctl

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotpilot-sh/dotpilot/pkg/errors"
)

const monitorsJSON = `[
  {
    "id": 0,
    "name": "eDP-1",
    "description": "BOE 0x0BCA",
    "width": 2256, "height": 1504, "refreshRate": 59.999,
    "x": 0, "y": 0, "scale": 1.5,
    "focused": true, "dpmsStatus": true
  },
  {
    "id": 1,
    "name": "DP-3",
    "description": "DisplayLink DL-6950",
    "width": 1920, "height": 1080, "refreshRate": 60.0,
    "x": 2256, "y": 0, "scale": 1.0,
    "focused": false, "dpmsStatus": false
  }
]`

type fakeRunner struct {
	output   string
	err      error
	commands []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.commands = append(f.commands, name+" "+strings.Join(args, " "))
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.output), nil
}

func TestMonitorsDecodesJSON(t *testing.T) {
	runner := &fakeRunner{output: monitorsJSON}
	client := NewWithRunner(runner)

	monitors, err := client.Monitors(context.Background())
	require.NoError(t, err)
	require.Len(t, monitors, 2)

	assert.Equal(t, "eDP-1", monitors[0].Name)
	assert.True(t, monitors[0].DpmsStatus)
	assert.Equal(t, "DP-3", monitors[1].Name)
	assert.InDelta(t, 60.0, monitors[1].RefreshRate, 0.001)
	assert.False(t, monitors[1].DpmsStatus)

	require.Len(t, runner.commands, 1)
	assert.Equal(t, "hyprctl monitors -j", runner.commands[0])
}

func TestMonitorByName(t *testing.T) {
	client := NewWithRunner(&fakeRunner{output: monitorsJSON})

	mon, err := client.Monitor(context.Background(), "DP-3")
	require.NoError(t, err)
	require.NotNil(t, mon)
	assert.Equal(t, 1920, mon.Width)

	missing, err := client.Monitor(context.Background(), "HDMI-A-1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMonitorsCommandFailure(t *testing.T) {
	client := NewWithRunner(&fakeRunner{err: fmt.Errorf("exit status 1")})

	_, err := client.Monitors(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCommandRun))
}

func TestMonitorsBadJSON(t *testing.T) {
	client := NewWithRunner(&fakeRunner{output: "not json"})

	_, err := client.Monitors(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCommandDecode))
}

func TestKeyword(t *testing.T) {
	runner := &fakeRunner{output: "ok"}
	client := NewWithRunner(runner)

	err := client.Keyword(context.Background(), "monitor", "DP-3,1920x1080@60,auto,1")
	require.NoError(t, err)
	require.Len(t, runner.commands, 1)
	assert.Equal(t, "hyprctl keyword monitor DP-3,1920x1080@60,auto,1", runner.commands[0])
}
