package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultJPEGQuality matches the quality most encoders use when none is given
const DefaultJPEGQuality = 95

// Config represents the application configuration
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Image  ImageConfig  `yaml:"image"`
	Resize ResizeConfig `yaml:"resize"`

	// Warnings collects non-fatal problems found while loading, to be logged
	// once a logger exists
	Warnings []string `yaml:"-"`
}

type LogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type ImageConfig struct {
	Path        string `yaml:"path"`
	ConvertType string `yaml:"convert_type"`
	JPEGQuality int    `yaml:"jpeg_quality"`
}

type ResizeConfig struct {
	Directory string `yaml:"directory"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
}

// Load reads the optional YAML file at path, then applies .env and environment
// overrides. A missing YAML or .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	// godotenv never overrides variables already present in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns a config with every optional field at its default
func Default() *Config {
	return &Config{
		Log:   LogConfig{Dir: "logs"},
		Image: ImageConfig{JPEGQuality: DefaultJPEGQuality},
	}
}

// applyEnv overlays recognized environment variables onto the config
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	// A bad LOG value only disables debug logging; it must not stop the tools
	if v, ok := lookup("LOG"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			c.Warnings = append(c.Warnings, fmt.Sprintf("LOG=%q is not a boolean, debug logging disabled", v))
			b = false
		}
		c.Log.Enabled = b
	}
	if v, ok := lookup("LOG_DIR"); ok && v != "" {
		c.Log.Dir = v
	}
	if v, ok := lookup("IMAGE_PATH"); ok {
		c.Image.Path = v
	}
	if v, ok := lookup("CONVERT_TYPE"); ok {
		c.Image.ConvertType = v
	}
	if v, ok := lookup("IMAGE_DIRECTORY"); ok {
		c.Resize.Directory = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"RESIZE_WIDTH", &c.Resize.Width},
		{"RESIZE_HEIGHT", &c.Resize.Height},
		{"JPEG_QUALITY", &c.Image.JPEGQuality},
	}
	for _, i := range ints {
		v, ok := lookup(i.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", i.name, err)
		}
		*i.dst = n
	}

	return nil
}

// Validate checks invariants shared by every tool
func (c *Config) Validate() error {
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("image.jpeg_quality must be between 1 and 100, got %d", c.Image.JPEGQuality)
	}
	if c.Resize.Width < 0 || c.Resize.Height < 0 {
		return fmt.Errorf("resize size must not be negative, got %dx%d", c.Resize.Width, c.Resize.Height)
	}
	return nil
}

// ValidateResize checks the resize target is set to two positive integers
func (c *Config) ValidateResize() error {
	if c.Resize.Width <= 0 {
		return fmt.Errorf("resize.width (RESIZE_WIDTH) must be a positive integer")
	}
	if c.Resize.Height <= 0 {
		return fmt.Errorf("resize.height (RESIZE_HEIGHT) must be a positive integer")
	}
	return nil
}
