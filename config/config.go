// Package config loads the application configuration from YAML or JSON
// files with environment overrides. The result is an immutable value passed
// explicitly into every planning call; nothing here is global.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/aseptiq/fillsched/core/rules"
	"github.com/aseptiq/fillsched/infra/kpi"
	"github.com/aseptiq/fillsched/infra/metrics"
	"github.com/aseptiq/fillsched/infra/mqtt"
)

// RunConfig holds the file and run options of one invocation.
type RunConfig struct {
	DataPath  string `json:"data_path"`
	OutputDir string `json:"output_dir"`
	StartTime string `json:"start_time"` // "YYYY-MM-DD HH:MM"
	Strategy  string `json:"strategy"`
}

// SetDefaults fills unset fields.
func (c *RunConfig) SetDefaults() {
	if c.DataPath == "" {
		c.DataPath = "lots.csv"
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.StartTime == "" {
		c.StartTime = "2025-01-01 08:00"
	}
	if c.Strategy == "" {
		c.Strategy = "smart-pack"
	}
}

// Start parses the configured start time.
func (c RunConfig) Start() (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04", c.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("start_time must be 'YYYY-MM-DD HH:MM': %w", err)
	}
	return t, nil
}

// Config is the full application configuration.
type Config struct {
	Planning rules.Config   `json:"planning"`
	Run      RunConfig      `json:"run"`
	Metrics  metrics.Config `json:"metrics"`
	KPI      kpi.Config     `json:"kpi"`
	MQTT     mqtt.Config    `json:"mqtt"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	cfg := &Config{Planning: rules.Default()}
	cfg.Run.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	return cfg
}

// Load reads the configuration file and applies FILLSCHED_ environment
// overrides (FILLSCHED_PLANNING__WINDOW_HOURS=96 overrides
// planning.window_hours). A missing path yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = koanfjson.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider("FILLSCHED_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fillsched_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Run.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	if err := cfg.Planning.Validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Run.Start(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteDefault writes the default configuration to path in the format its
// extension implies.
func WriteDefault(path string) error {
	raw, err := json.Marshal(Default())
	if err != nil {
		return err
	}
	var data []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		// Round-trip through a map so the yaml keys match the json tags
		// koanf reads back.
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return err
		}
		if data, err = yamlv3.Marshal(m); err != nil {
			return err
		}
	case ".json":
		var buf map[string]any
		if err := json.Unmarshal(raw, &buf); err != nil {
			return err
		}
		if data, err = json.MarshalIndent(buf, "", "  "); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported config format: %s", ext)
	}
	return os.WriteFile(path, data, 0o644)
}
