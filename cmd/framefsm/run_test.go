package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/comalice/framefsm/internal/config"
	"github.com/comalice/framefsm/trace"
)

func testConfig(t *testing.T, format string) config.Config {
	t.Helper()
	return config.Config{
		LogLevel:    "error",
		LogFormat:   "console",
		FrameRate:   16667 * time.Microsecond,
		PhysicsRate: 16667 * time.Microsecond,
		Frames:      300,
		TraceDir:    t.TempDir(),
		TraceFormat: format,
	}
}

func TestRunStepped(t *testing.T) {
	script, err := config.ParseScript([]byte(`
frames: 120
inputs:
  - frame: 5
    action: move_right
  - frame: 30
    action: stop
  - frame: 40
    kind: key
    action: jump
`))
	require.NoError(t, err)

	cfg := testConfig(t, "yaml")
	dot := filepath.Join(t.TempDir(), "trace.dot")
	var out bytes.Buffer
	err = run(context.Background(), cfg, runOptions{Script: script, DOTPath: dot, Log: zap.NewNop()}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "120 frames")
	assert.Contains(t, out.String(), `final state "idle"`)

	entries, err := os.ReadDir(cfg.TraceDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	session := strings.TrimSuffix(entries[0].Name(), ".yaml")

	store, err := trace.NewStore("yaml", cfg.TraceDir)
	require.NoError(t, err)
	saved, err := store.Load(context.Background(), session)
	require.NoError(t, err)

	var path []string
	for _, tr := range trace.Transitions(saved.Records) {
		path = append(path, string(tr.To))
	}
	assert.Equal(t, []string{"idle", "moving", "idle", "jumping", "idle"}, path)

	data, err := os.ReadFile(dot)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"idle" -> "jumping"`)
}

func TestRunFramesOverride(t *testing.T) {
	cfg := testConfig(t, "json")
	var out bytes.Buffer
	err := run(context.Background(), cfg, runOptions{
		Script: config.Script{Frames: 50},
		Frames: 3,
		Log:    zap.NewNop(),
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "3 frames")
}

func TestRunUnknownInitial(t *testing.T) {
	cfg := testConfig(t, "json")
	var out bytes.Buffer
	err := run(context.Background(), cfg, runOptions{
		Script: config.Script{Initial: "flying"},
		Frames: 2,
		Log:    zap.NewNop(),
	}, &out)
	require.NoError(t, err, "a failed activation leaves the machine inert but the run completes")
	assert.Contains(t, out.String(), `final state ""`)
}

func TestRunRealtime(t *testing.T) {
	cfg := testConfig(t, "json")
	cfg.FrameRate = 2 * time.Millisecond
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := run(ctx, cfg, runOptions{Realtime: true, Frames: 5, Log: zap.NewNop()}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `final state "idle"`)
}

func TestRunRealtimeFrameZeroInput(t *testing.T) {
	cfg := testConfig(t, "json")
	cfg.FrameRate = time.Millisecond
	script := config.Script{Inputs: []config.ScriptInput{
		{Frame: 0, Kind: "key", Action: "jump"},
	}}
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := run(ctx, cfg, runOptions{Script: script, Realtime: true, Frames: 1, Log: zap.NewNop()}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `final state "jumping"`, "the frame 0 jump is delivered on the first frame")
}

func TestRunCanceled(t *testing.T) {
	cfg := testConfig(t, "json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	require.NoError(t, run(ctx, cfg, runOptions{Log: zap.NewNop()}, &out))
	assert.Contains(t, out.String(), "0 frames")
}
