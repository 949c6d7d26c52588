package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/simnav/internal/domain"
)

// isolate points HOME and the working directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return tmpDir
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, "ndjson", cfg.Format)
	assert.False(t, cfg.Quiet)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, "http://127.0.0.1:5000", cfg.Relay.BaseURL)
	assert.Equal(t, "ws://localhost:8080", cfg.Relay.EventsURL)
	assert.Equal(t, 3, cfg.Transport.ConnectAttempts)
	assert.Equal(t, 2*time.Second, cfg.Transport.RetryDelay)
	assert.Equal(t, 5*time.Second, cfg.Vision.SelfTestTimeout)
	assert.Equal(t, 2*time.Second, cfg.Vision.FrameTimeout)
	assert.Equal(t, 3, cfg.Vision.StarvationLimit)
	assert.Equal(t, 100, cfg.Vision.StepBudget)
	assert.Equal(t, 80, cfg.Fallback.StepBudget)
	assert.Equal(t, 0.4, cfg.Fallback.CorrectionGain)
	assert.Equal(t, []float64{45, 60, -45, -60}, cfg.Fallback.SmallTurns)
	assert.Equal(t, []float64{90, -90, 120, -120}, cfg.Fallback.LargeTurns)
	assert.Equal(t, 300, cfg.Perception.PixelThreshold)
	assert.Equal(t, domain.AllCorners, cfg.Run.Corners)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("returns defaults when no config file exists", func(t *testing.T) {
		isolate(t)

		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Should have default values
		assert.Equal(t, "ndjson", cfg.Format)
		assert.Equal(t, 80, cfg.Fallback.StepBudget)
		assert.Equal(t, domain.AllCorners, cfg.Run.Corners)
	})

	t.Run("finds .simnavrc in current directory", func(t *testing.T) {
		tmpDir := isolate(t)
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".simnavrc.yaml"), []byte("format: text\n"), 0o644))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "text", cfg.Format)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		isolate(t)
		t.Setenv("SIMNAV_FORMAT", "text")
		t.Setenv("SIMNAV_VISION_STEP_BUDGET", "12")
		t.Setenv("SIMNAV_RUN_CORNERS", "sw,ne")
		t.Setenv("SIMNAV_RELAY_HTTP_TIMEOUT", "750ms")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "text", cfg.Format)
		assert.Equal(t, 12, cfg.Vision.StepBudget)
		assert.Equal(t, []domain.Corner{domain.CornerSW, domain.CornerNE}, cfg.Run.Corners)
		assert.Equal(t, 750*time.Millisecond, cfg.Relay.HTTPTimeout)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("returns error for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bad.yaml")
		err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("returns error for unknown corner", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "corners.yaml")
		err := os.WriteFile(configPath, []byte("run:\n  corners: [NE, XX]\n"), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("parses all config fields", func(t *testing.T) {
		tmpDir := t.TempDir()
		configContent := `
format: text
quiet: true
verbose: true
relay:
  base_url: http://relay:5000
  events_url: ws://relay:8080
  http_timeout: 4s
  capture_timeout: 2s
transport:
  connect_attempts: 5
  retry_delay: 1s
  connect_wait: 3s
vision:
  selftest_timeout: 7s
  frame_timeout: 1500ms
  starvation_limit: 4
  step_budget: 50
  clear_distance: 4
fallback:
  step_budget: 40
  correction_gain: 0.5
  small_turns: [30, -30]
  large_turns: [150]
  seed: 42
perception:
  space: hsv
  hue_min: 70
  hue_max: 170
  pixel_threshold: 150
run:
  corners: [se, nw]
  inter_run_delay: 500ms
`
		configPath := filepath.Join(tmpDir, "simnav.yaml")
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, "text", cfg.Format)
		assert.True(t, cfg.Quiet)
		assert.True(t, cfg.Verbose)
		assert.Equal(t, "http://relay:5000", cfg.Relay.BaseURL)
		assert.Equal(t, "ws://relay:8080", cfg.Relay.EventsURL)
		assert.Equal(t, 4*time.Second, cfg.Relay.HTTPTimeout)
		assert.Equal(t, 5, cfg.Transport.ConnectAttempts)
		assert.Equal(t, time.Second, cfg.Transport.RetryDelay)
		assert.Equal(t, 7*time.Second, cfg.Vision.SelfTestTimeout)
		assert.Equal(t, 1500*time.Millisecond, cfg.Vision.FrameTimeout)
		assert.Equal(t, 4, cfg.Vision.StarvationLimit)
		assert.Equal(t, 50, cfg.Vision.StepBudget)
		assert.Equal(t, 4.0, cfg.Vision.ClearDistance)
		// untouched keys keep their defaults
		assert.Equal(t, 2.0, cfg.Vision.ObstacleDistance)
		assert.Equal(t, 40, cfg.Fallback.StepBudget)
		assert.Equal(t, 0.5, cfg.Fallback.CorrectionGain)
		assert.Equal(t, []float64{30, -30}, cfg.Fallback.SmallTurns)
		assert.Equal(t, []float64{150}, cfg.Fallback.LargeTurns)
		assert.Equal(t, int64(42), cfg.Fallback.Seed)
		assert.Equal(t, "hsv", cfg.Perception.Space)
		assert.Equal(t, 70.0, cfg.Perception.HueMin)
		assert.Equal(t, 150, cfg.Perception.PixelThreshold)
		assert.Equal(t, []domain.Corner{domain.CornerSE, domain.CornerNW}, cfg.Run.Corners)
		assert.Equal(t, 500*time.Millisecond, cfg.Run.InterRunDelay)
		require.NoError(t, cfg.Validate())
	})
}

func TestValidate(t *testing.T) {
	t.Run("reports every problem", func(t *testing.T) {
		cfg := Default()
		cfg.Format = "xml"
		cfg.Vision.StepBudget = 0
		cfg.Fallback.SmallTurns = nil
		cfg.Perception.Space = "rgb"
		cfg.Perception.ROIWidth = 1.5
		cfg.Run.Corners = []domain.Corner{"XX"}

		err := cfg.Validate()
		require.Error(t, err)
		msg := err.Error()
		assert.Contains(t, msg, "format")
		assert.Contains(t, msg, "vision.step_budget")
		assert.Contains(t, msg, "small_turns")
		assert.Contains(t, msg, "perception.space")
		assert.Contains(t, msg, "roi")
		assert.Contains(t, msg, `unknown corner "XX"`)
	})

	t.Run("empty corners", func(t *testing.T) {
		cfg := Default()
		cfg.Run.Corners = nil
		assert.ErrorContains(t, cfg.Validate(), "run.corners")
	})
}

func TestConfigFile(t *testing.T) {
	t.Run("finds simnav.yaml in current directory", func(t *testing.T) {
		tmpDir := isolate(t)

		configPath := filepath.Join(tmpDir, "simnav.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("format: text"), 0644))

		found := ConfigFile()
		// Resolve symlinks for comparison (macOS /var -> /private/var)
		expectedPath, _ := filepath.EvalSymlinks(configPath)
		foundPath, _ := filepath.EvalSymlinks(found)
		assert.Equal(t, expectedPath, foundPath)
	})

	t.Run("returns empty string when no config found", func(t *testing.T) {
		isolate(t)
		assert.Empty(t, ConfigFile())
	})
}

func TestWriteReadsBack(t *testing.T) {
	cfg := Default()
	cfg.Format = "text"
	cfg.Relay.HTTPTimeout = 1500 * time.Millisecond
	cfg.Fallback.SmallTurns = []float64{30, -30}
	cfg.Fallback.Seed = 9
	cfg.Run.Corners = []domain.Corner{domain.CornerSW, domain.CornerNE}

	path := filepath.Join(t.TempDir(), "nested", "simnav.yaml")
	require.NoError(t, Write(path, cfg))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "text", loaded.Format)
	assert.Equal(t, 1500*time.Millisecond, loaded.Relay.HTTPTimeout)
	assert.Equal(t, []float64{30, -30}, loaded.Fallback.SmallTurns)
	assert.Equal(t, int64(9), loaded.Fallback.Seed)
	assert.Equal(t, cfg.Run.Corners, loaded.Run.Corners)
	assert.Equal(t, cfg.Perception, loaded.Perception)
	assert.Equal(t, cfg.Vision, loaded.Vision)
	require.NoError(t, loaded.Validate())
}
