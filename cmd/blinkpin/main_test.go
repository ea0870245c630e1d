package main

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blink-pin/internal/capture"
	"blink-pin/internal/config"
	"blink-pin/internal/factory"
	"blink-pin/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name    string
		command string
		err     error
		want    int
	}{
		{"success", "register", nil, 0},
		{"incomplete capture", "register", fmt.Errorf("%w: quit", model.ErrIncompleteSequence), 0},
		{"device unavailable", "verify", fmt.Errorf("%w: camera", model.ErrDeviceUnavailable), 1},
		{"wrong pin", "verify", errAuthFailed, 1},
		{"unknown user on verify", "verify", model.ErrUnknownUser, 1},
		{"unknown user on remove", "remove", model.ErrUnknownUser, 1},
		{"invalid input", "register", model.ErrInvalidInput, 1},
		{"locked out", "verify", model.ErrTooManyAttempts, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.command, tt.err))
		})
	}
}

func TestReadControls(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("x\nR\n\n q \n"))
	controls := make(chan capture.Control, 4)

	readControls(context.Background(), r, controls)
	close(controls)

	var got []capture.Control
	for c := range controls {
		got = append(got, c)
	}
	assert.Equal(t, []capture.Control{capture.ControlReset, capture.ControlQuit}, got)
}

func TestReadControlsLastLineWithoutNewline(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("q"))
	controls := make(chan capture.Control, 1)

	readControls(context.Background(), r, controls)
	assert.Equal(t, capture.ControlQuit, <-controls)
}

func TestReadControlsStopsOnCancel(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("r\nr\n"))
	controls := make(chan capture.Control)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		readControls(ctx, r, controls)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("readControls did not return after cancel")
	}
}

func TestCommandsAreListed(t *testing.T) {
	for _, name := range commandOrder {
		cmd, ok := commands[name]
		if assert.True(t, ok, name) {
			assert.Equal(t, name, cmd.Name)
			assert.NotNil(t, cmd.Run)
		}
	}
	assert.Len(t, commands, len(commandOrder))
}

func TestHealthReportsUnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("STORE_PATH", filepath.Join(t.TempDir(), "users.json"))
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_URL", "redis://"+mr.Addr())

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	fac, err = factory.NewFactory(cfg)
	require.NoError(t, err)
	defer fac.Close()

	require.NoError(t, cmdHealth(nil))

	mr.Close()
	assert.ErrorContains(t, cmdHealth(nil), "unhealthy")
}
