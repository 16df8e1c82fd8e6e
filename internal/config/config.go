// Package config provides configuration loading from a YAML file and
// environment variables. Environment variables take precedence for dev flexibility.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/phinze/swipedeck/internal/swipe"
	"gopkg.in/yaml.v3"
)

// DefaultBrightness is the display brightness used when none is configured.
const DefaultBrightness = 80

// Config holds the full application configuration, assembled from YAML + env.
type Config struct {
	Gesture    GestureConfig `yaml:"gesture"`
	Brightness int           `yaml:"brightness"`
}

// GestureConfig holds touch strip gesture recognition settings.
type GestureConfig struct {
	Delta                DeltaConfig   `yaml:"delta"`
	RotationAngle        float64       `yaml:"rotation_angle"`
	TrackTouch           bool          `yaml:"track_touch"`
	TrackMouse           bool          `yaml:"track_mouse"`
	PreventScrollOnSwipe bool          `yaml:"prevent_scroll_on_swipe"`
	Passive              bool          `yaml:"passive"`
	SwipeDuration        time.Duration `yaml:"swipe_duration,omitempty"`
}

// DeltaConfig is the swipe dead zone. In YAML it is either a number that
// applies to every direction or a map with left, right, up and down keys.
type DeltaConfig struct {
	Uniform *float64
	Sides   map[swipe.Direction]float64
}

var deltaKeys = map[string]swipe.Direction{
	"left":  swipe.Left,
	"right": swipe.Right,
	"up":    swipe.Up,
	"down":  swipe.Down,
}

// UnmarshalYAML accepts a scalar or a per-direction mapping.
func (d *DeltaConfig) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := value.Decode(&v); err != nil {
			return fmt.Errorf("delta: %w", err)
		}
		*d = DeltaConfig{Uniform: &v}
		return nil

	case yaml.MappingNode:
		var raw map[string]float64
		if err := value.Decode(&raw); err != nil {
			return fmt.Errorf("delta: %w", err)
		}
		sides := make(map[swipe.Direction]float64, len(raw))
		for k, v := range raw {
			dir, ok := deltaKeys[k]
			if !ok {
				return fmt.Errorf("delta: line %d: unknown direction %q", value.Line, k)
			}
			sides[dir] = v
		}
		*d = DeltaConfig{Sides: sides}
		return nil

	default:
		return fmt.Errorf("delta: line %d: expected a number or a mapping", value.Line)
	}
}

// MarshalYAML writes the scalar form when possible.
func (d DeltaConfig) MarshalYAML() (interface{}, error) {
	if len(d.Sides) == 0 {
		if d.Uniform == nil {
			return swipe.DefaultDelta, nil
		}
		return *d.Uniform, nil
	}
	out := make(map[string]float64, len(d.Sides))
	for name, dir := range deltaKeys {
		if v, ok := d.Sides[dir]; ok {
			out[name] = v
		}
	}
	return out, nil
}

// Delta converts the configured dead zone. Unset directions use the default.
func (d DeltaConfig) Delta() swipe.Delta {
	switch {
	case len(d.Sides) > 0:
		return swipe.SideDelta(d.Sides)
	case d.Uniform != nil:
		return swipe.UniformDelta(*d.Uniform)
	default:
		return swipe.Delta{}
	}
}

// SwipeConfig converts the gesture settings to a recognizer configuration.
// Handlers are left empty for the caller to fill in.
func (g GestureConfig) SwipeConfig() swipe.Config {
	cfg := swipe.DefaultConfig()
	cfg.Delta = g.Delta.Delta()
	cfg.RotationAngle = g.RotationAngle
	cfg.TrackTouch = g.TrackTouch
	cfg.TrackMouse = g.TrackMouse
	cfg.PreventScrollOnSwipe = g.PreventScrollOnSwipe
	cfg.TouchEventOptions.Passive = g.Passive
	cfg.SwipeDuration = g.SwipeDuration
	return cfg
}

// Default returns the configuration used when no file or env is present.
func Default() *Config {
	d := swipe.DefaultConfig()
	return &Config{
		Gesture: GestureConfig{
			TrackTouch: d.TrackTouch,
			TrackMouse: d.TrackMouse,
			Passive:    d.TouchEventOptions.Passive,
		},
		Brightness: DefaultBrightness,
	}
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "swipedeck")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	// Allow override via environment variable (used by nix-generated config)
	if p := os.Getenv("SWIPEDECK_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Load assembles configuration from the default YAML file + environment variables.
func Load() (*Config, error) {
	return LoadFile(DefaultConfigPath())
}

// LoadFile assembles configuration from path + environment variables.
// Environment variables always take precedence. A missing file is not an
// error; keys absent from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.Brightness < 0 || cfg.Brightness > 100 {
		return nil, fmt.Errorf("brightness %d out of range 0-100", cfg.Brightness)
	}
	if cfg.Gesture.SwipeDuration < 0 {
		return nil, fmt.Errorf("swipe_duration %v must not be negative", cfg.Gesture.SwipeDuration)
	}
	return cfg, nil
}

// applyEnv layers environment variables over cfg. Invalid values are logged
// and ignored.
func applyEnv(cfg *Config) {
	envFloat("SWIPEDECK_DELTA", func(v float64) { cfg.Gesture.Delta = DeltaConfig{Uniform: &v} })
	envFloat("SWIPEDECK_ROTATION_ANGLE", func(v float64) { cfg.Gesture.RotationAngle = v })
	envBool("SWIPEDECK_TRACK_MOUSE", func(v bool) { cfg.Gesture.TrackMouse = v })
	envBool("SWIPEDECK_TRACK_TOUCH", func(v bool) { cfg.Gesture.TrackTouch = v })
	envBool("SWIPEDECK_PREVENT_SCROLL", func(v bool) { cfg.Gesture.PreventScrollOnSwipe = v })

	if v := os.Getenv("SWIPEDECK_SWIPE_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			log.Printf("Ignoring SWIPEDECK_SWIPE_DURATION=%q: not a non-negative duration", v)
		} else {
			cfg.Gesture.SwipeDuration = d
		}
	}
	if v := os.Getenv("SWIPEDECK_BRIGHTNESS"); v != "" {
		if b, err := strconv.Atoi(v); err != nil || b < 0 || b > 100 {
			log.Printf("Ignoring SWIPEDECK_BRIGHTNESS=%q: want 0-100", v)
		} else {
			cfg.Brightness = b
		}
	}
}

func envFloat(name string, set func(float64)) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", name, v, err)
		return
	}
	set(f)
}

func envBool(name string, set func(bool)) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", name, v, err)
		return
	}
	set(b)
}

// WriteConfigFile writes cfg to the YAML file.
func WriteConfigFile(cfg *Config) error {
	return WriteConfigFileTo(DefaultConfigPath(), cfg)
}

// WriteConfigFileTo writes cfg to path, creating its directory.
func WriteConfigFileTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
