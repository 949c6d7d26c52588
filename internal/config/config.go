package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/vburojevic/simnav/internal/domain"
	"go.uber.org/multierr"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Format  string `mapstructure:"format"`
	Quiet   bool   `mapstructure:"quiet"`
	Verbose bool   `mapstructure:"verbose"`

	Relay      RelayConfig      `mapstructure:"relay"`
	Transport  TransportConfig  `mapstructure:"transport"`
	Vision     VisionConfig     `mapstructure:"vision"`
	Fallback   FallbackConfig   `mapstructure:"fallback"`
	Perception PerceptionConfig `mapstructure:"perception"`
	Run        RunConfig        `mapstructure:"run"`
}

// RelayConfig locates the command/telemetry relay
type RelayConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	EventsURL      string        `mapstructure:"events_url"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	CaptureTimeout time.Duration `mapstructure:"capture_timeout"`
}

// TransportConfig controls the event stream connection
type TransportConfig struct {
	ConnectAttempts  int           `mapstructure:"connect_attempts"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	ConnectWait      time.Duration `mapstructure:"connect_wait"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

// VisionConfig tunes the camera-driven stepping policy
type VisionConfig struct {
	SelfTestTimeout  time.Duration `mapstructure:"selftest_timeout"`
	FrameTimeout     time.Duration `mapstructure:"frame_timeout"`
	StarvationLimit  int           `mapstructure:"starvation_limit"`
	StepBudget       int           `mapstructure:"step_budget"`
	StepInterval     time.Duration `mapstructure:"step_interval"`
	TurnPause        time.Duration `mapstructure:"turn_pause"`
	ClearDistance    float64       `mapstructure:"clear_distance"`
	ObstacleDistance float64       `mapstructure:"obstacle_distance"`
	CautiousDistance float64       `mapstructure:"cautious_distance"`
	ProgressEvery    int           `mapstructure:"progress_every"`
}

// FallbackConfig tunes the collision-feedback stepping policy
type FallbackConfig struct {
	StepBudget          int           `mapstructure:"step_budget"`
	StepInterval        time.Duration `mapstructure:"step_interval"`
	AlignThreshold      float64       `mapstructure:"align_threshold"`
	CorrectionThreshold float64       `mapstructure:"correction_threshold"`
	CorrectionGain      float64       `mapstructure:"correction_gain"`
	CorrectionEvery     int           `mapstructure:"correction_every"`
	ForwardDistance     float64       `mapstructure:"forward_distance"`
	AvoidDistance       float64       `mapstructure:"avoid_distance"`
	EscalateAfter       int           `mapstructure:"escalate_after"`
	TurnPause           time.Duration `mapstructure:"turn_pause"`
	CorrectionPause     time.Duration `mapstructure:"correction_pause"`
	SmallTurns          []float64     `mapstructure:"small_turns"`
	LargeTurns          []float64     `mapstructure:"large_turns"`
	Seed                int64         `mapstructure:"seed"` // 0 = seeded from the clock
}

// PerceptionConfig holds the obstacle color predicate and frame geometry
type PerceptionConfig struct {
	Space           string  `mapstructure:"space"` // hcl or hsv
	HueMin          float64 `mapstructure:"hue_min"`
	HueMax          float64 `mapstructure:"hue_max"`
	MinChroma       float64 `mapstructure:"min_chroma"`    // saturation when space=hsv
	MinLightness    float64 `mapstructure:"min_lightness"` // value when space=hsv
	ROIHeight       float64 `mapstructure:"roi_height"`
	ROIWidth        float64 `mapstructure:"roi_width"`
	PixelThreshold  int     `mapstructure:"pixel_threshold"`
	BlockedFraction float64 `mapstructure:"blocked_fraction"`
	SectorTurn      float64 `mapstructure:"sector_turn"`
	BlockedTurn     float64 `mapstructure:"blocked_turn"`
}

// RunConfig controls batch sequencing
type RunConfig struct {
	Corners       []domain.Corner `mapstructure:"corners"`
	SettleDelay   time.Duration   `mapstructure:"settle_delay"`
	InterRunDelay time.Duration   `mapstructure:"inter_run_delay"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:  "ndjson",
		Quiet:   false,
		Verbose: false,
		Relay: RelayConfig{
			BaseURL:        "http://127.0.0.1:5000",
			EventsURL:      "ws://localhost:8080",
			HTTPTimeout:    5 * time.Second,
			CaptureTimeout: 3 * time.Second,
		},
		Transport: TransportConfig{
			ConnectAttempts:  3,
			RetryDelay:       2 * time.Second,
			ConnectWait:      10 * time.Second,
			HandshakeTimeout: 5 * time.Second,
		},
		Vision: VisionConfig{
			SelfTestTimeout:  5 * time.Second,
			FrameTimeout:     2 * time.Second,
			StarvationLimit:  3,
			StepBudget:       100,
			StepInterval:     time.Second,
			TurnPause:        500 * time.Millisecond,
			ClearDistance:    3,
			ObstacleDistance: 2,
			CautiousDistance: 1,
			ProgressEvery:    10,
		},
		Fallback: FallbackConfig{
			StepBudget:          80,
			StepInterval:        800 * time.Millisecond,
			AlignThreshold:      15,
			CorrectionThreshold: 20,
			CorrectionGain:      0.4,
			CorrectionEvery:     7,
			ForwardDistance:     2.5,
			AvoidDistance:       1.5,
			EscalateAfter:       3,
			TurnPause:           500 * time.Millisecond,
			CorrectionPause:     300 * time.Millisecond,
			SmallTurns:          []float64{45, 60, -45, -60},
			LargeTurns:          []float64{90, -90, 120, -120},
		},
		Perception: PerceptionConfig{
			Space:           "hcl",
			HueMin:          100,
			HueMax:          170,
			MinChroma:       0.15,
			MinLightness:    0.15,
			ROIHeight:       0.4,
			ROIWidth:        0.6,
			PixelThreshold:  300,
			BlockedFraction: 0.9,
			SectorTurn:      30,
			BlockedTurn:     45,
		},
		Run: RunConfig{
			Corners:       append([]domain.Corner(nil), domain.AllCorners...),
			SettleDelay:   time.Second,
			InterRunDelay: 3 * time.Second,
		},
	}
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	// Add config paths (in order of precedence, lowest first)
	// 1. System-wide config
	v.AddConfigPath("/etc/simnav/")
	// 2. User config directory
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "simnav"))
	}
	// 3. Home directory and current directory
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")

	if err := readFirst(v, "simnav", ".simnav", ".simnavrc"); err != nil {
		return nil, err
	}

	return decode(v)
}

// readFirst tries each config name in turn; a missing file is not an error.
func readFirst(v *viper.Viper, names ...string) error {
	for _, name := range names {
		v.SetConfigName(name)
		err := v.ReadInConfig()
		if err == nil {
			return nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return err
		}
	}
	return nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	// Environment variables
	v.SetEnvPrefix("SIMNAV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := Default()
	setDefaults(v, cfg)
	// mapstructure merges into existing slices element-wise; start empty so a
	// shorter list from the file replaces the default instead of patching it.
	cfg.Fallback.SmallTurns = nil
	cfg.Fallback.LargeTurns = nil
	cfg.Run.Corners = nil

	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		cornerHook(),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(hook)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers the keys AutomaticEnv may override during Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("format", cfg.Format)
	v.SetDefault("quiet", cfg.Quiet)
	v.SetDefault("verbose", cfg.Verbose)

	v.SetDefault("relay.base_url", cfg.Relay.BaseURL)
	v.SetDefault("relay.events_url", cfg.Relay.EventsURL)
	v.SetDefault("relay.http_timeout", cfg.Relay.HTTPTimeout)
	v.SetDefault("relay.capture_timeout", cfg.Relay.CaptureTimeout)

	v.SetDefault("transport.connect_attempts", cfg.Transport.ConnectAttempts)
	v.SetDefault("transport.retry_delay", cfg.Transport.RetryDelay)
	v.SetDefault("transport.connect_wait", cfg.Transport.ConnectWait)
	v.SetDefault("transport.handshake_timeout", cfg.Transport.HandshakeTimeout)

	v.SetDefault("vision.selftest_timeout", cfg.Vision.SelfTestTimeout)
	v.SetDefault("vision.frame_timeout", cfg.Vision.FrameTimeout)
	v.SetDefault("vision.starvation_limit", cfg.Vision.StarvationLimit)
	v.SetDefault("vision.step_budget", cfg.Vision.StepBudget)
	v.SetDefault("vision.step_interval", cfg.Vision.StepInterval)

	v.SetDefault("fallback.step_budget", cfg.Fallback.StepBudget)
	v.SetDefault("fallback.step_interval", cfg.Fallback.StepInterval)
	v.SetDefault("fallback.seed", cfg.Fallback.Seed)
	v.SetDefault("fallback.small_turns", cfg.Fallback.SmallTurns)
	v.SetDefault("fallback.large_turns", cfg.Fallback.LargeTurns)

	v.SetDefault("perception.space", cfg.Perception.Space)
	v.SetDefault("perception.pixel_threshold", cfg.Perception.PixelThreshold)

	v.SetDefault("run.corners", cfg.Run.Corners)
	v.SetDefault("run.settle_delay", cfg.Run.SettleDelay)
	v.SetDefault("run.inter_run_delay", cfg.Run.InterRunDelay)
}

// cornerHook normalizes corner names while decoding
func cornerHook() mapstructure.DecodeHookFuncType {
	cornerType := reflect.TypeOf(domain.Corner(""))
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != cornerType || from.Kind() != reflect.String {
			return data, nil
		}
		return domain.ParseCorner(fmt.Sprint(data))
	}
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var err error
	if c.Format != "ndjson" && c.Format != "text" {
		err = multierr.Append(err, fmt.Errorf("format must be ndjson or text, got %q", c.Format))
	}
	if c.Relay.BaseURL == "" {
		err = multierr.Append(err, fmt.Errorf("relay.base_url is required"))
	}
	if c.Transport.ConnectAttempts <= 0 {
		err = multierr.Append(err, fmt.Errorf("transport.connect_attempts must be positive"))
	}
	if c.Vision.StepBudget <= 0 {
		err = multierr.Append(err, fmt.Errorf("vision.step_budget must be positive"))
	}
	if c.Vision.StarvationLimit <= 0 {
		err = multierr.Append(err, fmt.Errorf("vision.starvation_limit must be positive"))
	}
	if c.Fallback.StepBudget <= 0 {
		err = multierr.Append(err, fmt.Errorf("fallback.step_budget must be positive"))
	}
	if c.Fallback.CorrectionEvery <= 0 {
		err = multierr.Append(err, fmt.Errorf("fallback.correction_every must be positive"))
	}
	if len(c.Fallback.SmallTurns) == 0 || len(c.Fallback.LargeTurns) == 0 {
		err = multierr.Append(err, fmt.Errorf("fallback.small_turns and fallback.large_turns must not be empty"))
	}
	if c.Perception.Space != "hcl" && c.Perception.Space != "hsv" {
		err = multierr.Append(err, fmt.Errorf("perception.space must be hcl or hsv, got %q", c.Perception.Space))
	}
	if !fraction(c.Perception.ROIHeight) || !fraction(c.Perception.ROIWidth) {
		err = multierr.Append(err, fmt.Errorf("perception roi fractions must be in (0,1]"))
	}
	if len(c.Run.Corners) == 0 {
		err = multierr.Append(err, fmt.Errorf("run.corners must not be empty"))
	}
	for _, corner := range c.Run.Corners {
		if !corner.Valid() {
			err = multierr.Append(err, fmt.Errorf("run.corners: unknown corner %q", corner))
		}
	}
	return err
}

func fraction(f float64) bool { return f > 0 && f <= 1 }

// ConfigFile returns the path to the config file that was loaded
func ConfigFile() string {
	v := viper.New()

	v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")

	for _, name := range []string{"simnav", ".simnav", ".simnavrc"} {
		v.SetConfigName(name)
		if err := v.ReadInConfig(); err == nil {
			return v.ConfigFileUsed()
		}
	}

	return ""
}

// Settings flattens the config into viper keys. Durations are rendered as
// strings so a written file reads back through the decode hooks.
func (c *Config) Settings() map[string]any {
	corners := make([]string, len(c.Run.Corners))
	for i, corner := range c.Run.Corners {
		corners[i] = string(corner)
	}
	return map[string]any{
		"format":  c.Format,
		"quiet":   c.Quiet,
		"verbose": c.Verbose,

		"relay.base_url":        c.Relay.BaseURL,
		"relay.events_url":      c.Relay.EventsURL,
		"relay.http_timeout":    c.Relay.HTTPTimeout.String(),
		"relay.capture_timeout": c.Relay.CaptureTimeout.String(),

		"transport.connect_attempts":  c.Transport.ConnectAttempts,
		"transport.retry_delay":       c.Transport.RetryDelay.String(),
		"transport.connect_wait":      c.Transport.ConnectWait.String(),
		"transport.handshake_timeout": c.Transport.HandshakeTimeout.String(),

		"vision.selftest_timeout":  c.Vision.SelfTestTimeout.String(),
		"vision.frame_timeout":     c.Vision.FrameTimeout.String(),
		"vision.starvation_limit":  c.Vision.StarvationLimit,
		"vision.step_budget":       c.Vision.StepBudget,
		"vision.step_interval":     c.Vision.StepInterval.String(),
		"vision.turn_pause":        c.Vision.TurnPause.String(),
		"vision.clear_distance":    c.Vision.ClearDistance,
		"vision.obstacle_distance": c.Vision.ObstacleDistance,
		"vision.cautious_distance": c.Vision.CautiousDistance,
		"vision.progress_every":    c.Vision.ProgressEvery,

		"fallback.step_budget":          c.Fallback.StepBudget,
		"fallback.step_interval":        c.Fallback.StepInterval.String(),
		"fallback.align_threshold":      c.Fallback.AlignThreshold,
		"fallback.correction_threshold": c.Fallback.CorrectionThreshold,
		"fallback.correction_gain":      c.Fallback.CorrectionGain,
		"fallback.correction_every":     c.Fallback.CorrectionEvery,
		"fallback.forward_distance":     c.Fallback.ForwardDistance,
		"fallback.avoid_distance":       c.Fallback.AvoidDistance,
		"fallback.escalate_after":       c.Fallback.EscalateAfter,
		"fallback.turn_pause":           c.Fallback.TurnPause.String(),
		"fallback.correction_pause":     c.Fallback.CorrectionPause.String(),
		"fallback.small_turns":          c.Fallback.SmallTurns,
		"fallback.large_turns":          c.Fallback.LargeTurns,
		"fallback.seed":                 c.Fallback.Seed,

		"perception.space":            c.Perception.Space,
		"perception.hue_min":          c.Perception.HueMin,
		"perception.hue_max":          c.Perception.HueMax,
		"perception.min_chroma":       c.Perception.MinChroma,
		"perception.min_lightness":    c.Perception.MinLightness,
		"perception.roi_height":       c.Perception.ROIHeight,
		"perception.roi_width":        c.Perception.ROIWidth,
		"perception.pixel_threshold":  c.Perception.PixelThreshold,
		"perception.blocked_fraction": c.Perception.BlockedFraction,
		"perception.sector_turn":      c.Perception.SectorTurn,
		"perception.blocked_turn":     c.Perception.BlockedTurn,

		"run.corners":         corners,
		"run.settle_delay":    c.Run.SettleDelay.String(),
		"run.inter_run_delay": c.Run.InterRunDelay.String(),
	}
}

// Write saves cfg as a config file; the format follows the file extension
func Write(path string, cfg *Config) error {
	v := viper.New()
	for key, value := range cfg.Settings() {
		v.Set(key, value)
	}
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case "json", "toml", "yaml", "yml":
	default:
		v.SetConfigType("yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return v.WriteConfigAs(path)
}
