// Package config loads runtime configuration from an optional YAML file
// with environment-variable overrides. Every value has a default; a bad
// override is logged and the default kept, so a typo never prevents
// startup.
package config

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Body      BodyConfig      `yaml:"body"`
	Orbit     OrbitConfig     `yaml:"orbit"`
	Coverage  CoverageConfig  `yaml:"coverage"`
	Animation AnimationConfig `yaml:"animation"`
	Stream    StreamConfig    `yaml:"stream"`
	Auth      AuthConfig      `yaml:"auth"`
	Workers   int             `yaml:"workers"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type BodyConfig struct {
	RadiusKm float64 `yaml:"radius_km"`
}

type OrbitConfig struct {
	AltitudeKm       float64 `yaml:"altitude_km"`
	InclinationDeg   float64 `yaml:"inclination_deg"`
	VerticalOffsetKm float64 `yaml:"vertical_offset_km"`
}

type CoverageConfig struct {
	FieldOfViewDeg float64 `yaml:"fov_deg"`
	Model          string  `yaml:"model"`
}

type AnimationConfig struct {
	Steps           int `yaml:"steps"`
	FrameIntervalMs int `yaml:"frame_interval_ms"`
}

type StreamConfig struct {
	MaxConcurrentPerIP int `yaml:"max_concurrent_per_ip"`
	MaxConcurrentTotal int `yaml:"max_concurrent_total"`
	KeepaliveSeconds   int `yaml:"keepalive_seconds"`
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// Defaults is the lunar reference configuration: a 2000 km ring above the
// Moon with a 90 degree sensor cone, animated at 100 frames per 10 s
// revolution.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		Body: BodyConfig{RadiusKm: 1737.4},
		Orbit: OrbitConfig{
			AltitudeKm:       2000,
			InclinationDeg:   45,
			VerticalOffsetKm: 500,
		},
		Coverage: CoverageConfig{
			FieldOfViewDeg: 90,
			Model:          "fraction",
		},
		Animation: AnimationConfig{
			Steps:           100,
			FrameIntervalMs: 100,
		},
		Stream: StreamConfig{
			MaxConcurrentPerIP: 10,
			MaxConcurrentTotal: 1000,
			KeepaliveSeconds:   30,
		},
		Workers: runtime.NumCPU(),
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides.
func Load(path string, logger *slog.Logger) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "read config file %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config file %s", path)
		}
		logger.Info("loaded config file", "path", path)
	}

	cfg.applyEnv(logger)
	return cfg, nil
}

// applyEnv overlays LUNAGO_* environment variables. Invalid values are
// logged and skipped.
func (c *Config) applyEnv(logger *slog.Logger) {
	if v := os.Getenv("LUNAGO_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}

	envFloat(logger, "LUNAGO_BODY_RADIUS_KM", &c.Body.RadiusKm)
	envFloat(logger, "LUNAGO_ORBIT_ALTITUDE_KM", &c.Orbit.AltitudeKm)
	envFloat(logger, "LUNAGO_ORBIT_INCLINATION_DEG", &c.Orbit.InclinationDeg)
	envFloat(logger, "LUNAGO_ORBIT_VERTICAL_OFFSET_KM", &c.Orbit.VerticalOffsetKm)
	envFloat(logger, "LUNAGO_COVERAGE_FOV_DEG", &c.Coverage.FieldOfViewDeg)

	if v := os.Getenv("LUNAGO_COVERAGE_MODEL"); v != "" {
		c.Coverage.Model = v
	}

	envInt(logger, "LUNAGO_ANIMATION_STEPS", &c.Animation.Steps)
	envInt(logger, "LUNAGO_ANIMATION_FRAME_INTERVAL_MS", &c.Animation.FrameIntervalMs)
	envInt(logger, "LUNAGO_STREAM_MAX_CONCURRENT", &c.Stream.MaxConcurrentPerIP)
	envInt(logger, "LUNAGO_STREAM_MAX_TOTAL", &c.Stream.MaxConcurrentTotal)
	envInt(logger, "LUNAGO_STREAM_KEEPALIVE_SECONDS", &c.Stream.KeepaliveSeconds)
	envInt(logger, "LUNAGO_WORKERS", &c.Workers)

	if v := os.Getenv("LUNAGO_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid LUNAGO_AUTH_ENABLED value, keeping default", "value", v)
		} else {
			c.Auth.Enabled = enabled
		}
	}
	if v := os.Getenv("LUNAGO_AUTH_TOKEN"); v != "" {
		c.Auth.Token = v
	}
}

func envFloat(logger *slog.Logger, name string, dst *float64) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn("invalid value, keeping default", "var", name, "value", v, "default", *dst)
		return
	}
	*dst = f
}

func envInt(logger *slog.Logger, name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warn("invalid value, keeping default", "var", name, "value", v, "default", *dst)
		return
	}
	*dst = n
}

// Validate rejects configurations the rest of the startup path cannot
// absorb. Geometry parameters get their full validation when the session
// is built.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr must not be empty")
	}
	if c.Animation.Steps < 1 {
		return errors.Errorf("animation.steps %d must be positive", c.Animation.Steps)
	}
	if c.Animation.FrameIntervalMs < 1 {
		return errors.Errorf("animation.frame_interval_ms %d must be positive", c.Animation.FrameIntervalMs)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers %d must be positive", c.Workers)
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		return errors.New("auth.token is required when auth is enabled")
	}
	return nil
}

// FrameInterval returns the animation frame interval as a duration.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.Animation.FrameIntervalMs) * time.Millisecond
}

// Keepalive returns the stream keepalive interval as a duration.
func (c *Config) Keepalive() time.Duration {
	return time.Duration(c.Stream.KeepaliveSeconds) * time.Second
}
