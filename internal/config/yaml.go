// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes the config, accepting the render interval as a
// human-readable duration string ("16ms").
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type alias Config
	aux := struct {
		Refresh string `yaml:"refresh"`
		*alias  `yaml:",inline"`
	}{alias: (*alias)(c)}

	if err := value.Decode(&aux); err != nil {
		return err
	}
	if aux.Refresh != "" {
		d, err := time.ParseDuration(aux.Refresh)
		if err != nil {
			return fmt.Errorf("parsing refresh interval: %w", err)
		}
		c.Refresh = d
	}
	return nil
}

// LoadConfig loads configuration from a YAML file at path. If path is
// empty, default locations are searched; if no file is found the
// built-in defaults are used. Environment variable overrides are
// applied after the file, and the result is validated before returning.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{
			"specviz.yaml",
			"config.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies SPECVIZ_* environment variables on top of
// whatever the file (or defaults) provided.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SPECVIZ_DEVICE"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.DeviceID = id
		}
	}
	if v := os.Getenv("SPECVIZ_SAMPLE_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.SampleRate = rate
		}
	}
	if v := os.Getenv("SPECVIZ_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}
