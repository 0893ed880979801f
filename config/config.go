package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Scheduler SchedulerConfig `toml:"scheduler"`
	Pool      PoolConfig      `toml:"pool"`
	Logging   LoggingConfig   `toml:"logging"`
	Host      HostConfig      `toml:"host"`
	Profile   ProfileConfig   `toml:"profile"`
	Scene     SceneConfig     `toml:"scene"`
}

type SchedulerConfig struct {
	FixedStep     float64 `toml:"fixed_step"`     // seconds per simulation step
	RunawayFactor float64 `toml:"runaway_factor"` // in fixed steps
	FixedDraw     bool    `toml:"fixed_draw"`
	DrawStep      float64 `toml:"draw_step"` // seconds, only used with fixed_draw
	CallbackSlots int     `toml:"callback_slots"`
}

type PoolConfig struct {
	Initial int `toml:"initial"`
	Slack   int `toml:"slack"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type HostConfig struct {
	Driver string `toml:"driver"` // "headless" or "ebiten"

	// headless driver
	TickRate time.Duration `toml:"tick_rate"`
	Duration time.Duration `toml:"duration"` // zero runs until interrupted

	// ebiten driver
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", "cpu" or "mem"
	Path string `toml:"path"`
}

type SceneConfig struct {
	Path    string   `toml:"path"`
	Scripts []string `toml:"scripts"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes a configuration on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			FixedStep:     1.0 / 60.0,
			RunawayFactor: 4,
			DrawStep:      1.0 / 60.0,
			CallbackSlots: 10,
		},
		Pool: PoolConfig{
			Initial: 256,
			Slack:   128,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Host: HostConfig{
			Driver:   "headless",
			TickRate: time.Second / 60,
			Title:    "cadence",
			Width:    800,
			Height:   600,
		},
	}
}

func (c *Config) validate() error {
	switch {
	case c.Scheduler.FixedStep <= 0:
		return fmt.Errorf("scheduler.fixed_step must be positive, got %v", c.Scheduler.FixedStep)

	case c.Scheduler.RunawayFactor < 1:
		return fmt.Errorf("scheduler.runaway_factor must be at least 1, got %v", c.Scheduler.RunawayFactor)

	case c.Scheduler.FixedDraw && c.Scheduler.DrawStep <= 0:
		return fmt.Errorf("scheduler.draw_step must be positive, got %v", c.Scheduler.DrawStep)

	case c.Pool.Initial < 0 || c.Pool.Slack < 0:
		return fmt.Errorf("pool sizes must not be negative")
	}

	switch c.Host.Driver {
	case "headless", "ebiten":
	default:
		return fmt.Errorf("unknown host.driver %q", c.Host.Driver)
	}

	switch c.Profile.Mode {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("unknown profile.mode %q", c.Profile.Mode)
	}

	return nil
}
