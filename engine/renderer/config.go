package renderer

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// MaxBuffersInFlight is the default number of frames the CPU may encode ahead of the GPU.
const MaxBuffersInFlight = 3

// Config holds the tunables of a renderer. It is read from TOML; missing keys keep the
// values of DefaultConfig.
type Config struct {
	// MaxBuffersInFlight is the ring depth of every pass buffer and the in-flight semaphore weight.
	MaxBuffersInFlight int `toml:"max_buffers_in_flight"`

	// LODEnabled selects material quality by camera distance.
	LODEnabled bool `toml:"lod_enabled"`

	// ShadowMapSize is the shadow map resolution in pixels.
	ShadowMapSize int `toml:"shadow_map_size"`

	// SampleCount is the MSAA sample count written into the render destination.
	SampleCount int `toml:"sample_count"`

	// UseDepth lets shaders occlude virtual content with scene depth.
	UseDepth bool `toml:"use_depth"`

	// Workers is the number of asset loading workers.
	Workers int `toml:"workers"`

	// MaxInstances is the per-frame instance capacity of each mesh module.
	MaxInstances int `toml:"max_instances"`

	// ShowSurfaces draws detected planes.
	ShowSurfaces bool `toml:"show_surfaces"`

	// ShowTrackingPoints draws raw feature points.
	ShowTrackingPoints bool `toml:"show_tracking_points"`

	// MaxTrackingPoints caps the feature points drawn per frame.
	MaxTrackingPoints int `toml:"max_tracking_points"`

	// Profile logs frame statistics once per second.
	Profile bool `toml:"profile"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns the configuration used when none is supplied.
//
// Returns:
//   - Config: the defaults
func DefaultConfig() Config {
	return Config{
		MaxBuffersInFlight: MaxBuffersInFlight,
		LODEnabled:         true,
		ShadowMapSize:      2048,
		SampleCount:        1,
		UseDepth:           false,
		Workers:            4,
		MaxInstances:       256,
		ShowSurfaces:       true,
		ShowTrackingPoints: false,
		MaxTrackingPoints:  1024,
		LogLevel:           "info",
	}
}

// LoadConfig reads a TOML configuration file on top of DefaultConfig.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the configuration
//   - error: an error if the file cannot be read, decoded or validated
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read renderer config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes TOML on top of DefaultConfig. Unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the configuration
//   - error: a decode or validation error
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode renderer config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode renders the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch {
	case c.MaxBuffersInFlight < 1:
		return fmt.Errorf("renderer config: max_buffers_in_flight must be at least 1, got %d", c.MaxBuffersInFlight)
	case c.ShadowMapSize < 1:
		return fmt.Errorf("renderer config: shadow_map_size must be positive, got %d", c.ShadowMapSize)
	case c.SampleCount != 1 && c.SampleCount != 4:
		return fmt.Errorf("renderer config: sample_count must be 1 or 4, got %d", c.SampleCount)
	case c.Workers < 1:
		return fmt.Errorf("renderer config: workers must be at least 1, got %d", c.Workers)
	case c.MaxInstances < 1:
		return fmt.Errorf("renderer config: max_instances must be at least 1, got %d", c.MaxInstances)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty level is info.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("renderer config: log_level: %w", err)
	}
	return level, nil
}
