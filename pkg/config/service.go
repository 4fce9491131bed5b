package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pathing"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/timegrid"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Default returns a config with every default applied.
func Default() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}
	cfg.Database.Enabled = true
	return cfg, nil
}

// Load reads the TOML config at path. A missing file is created with defaults.
func Load(path string) (*AppConfig, error) {
	// Create default if not exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err := Default()
		if err != nil {
			return nil, err
		}
		if err := writeConfig(path, cfg); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}

	// Load existing config
	var cfg AppConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func writeConfig(path string, cfg *AppConfig) error {
	if err := pathing.EnsureDirs(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name, freq := range map[string]string{
		"sources.consumption_frequency": c.Sources.ConsumptionFrequency,
		"sources.production_frequency":  c.Sources.ProductionFrequency,
		"pipeline.target_frequency":     c.Pipeline.TargetFrequency,
	} {
		if _, err := timegrid.ParseFrequency(freq); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	if _, err := c.ReloadInterval(); err != nil {
		return fmt.Errorf("invalid config: pipeline.reload_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.Collector.Timeout); err != nil {
		return fmt.Errorf("invalid config: collector.timeout: %w", err)
	}
	return nil
}

// Path resolves an artifact path against the data directory.
func (c *AppConfig) Path(p string) string {
	return pathing.Resolve(c.DataDir, p)
}

func (c *AppConfig) ConsumptionStep() time.Duration {
	return timegrid.MustParseFrequency(c.Sources.ConsumptionFrequency)
}

func (c *AppConfig) ProductionStep() time.Duration {
	return timegrid.MustParseFrequency(c.Sources.ProductionFrequency)
}

func (c *AppConfig) TargetStep() time.Duration {
	return timegrid.MustParseFrequency(c.Pipeline.TargetFrequency)
}

func (c *AppConfig) ReloadInterval() (time.Duration, error) {
	if c.Pipeline.ReloadInterval == "" || c.Pipeline.ReloadInterval == "0" {
		return 0, nil
	}
	return time.ParseDuration(c.Pipeline.ReloadInterval)
}

func (c *AppConfig) CollectorTimeout() time.Duration {
	d, err := time.ParseDuration(c.Collector.Timeout)
	if err != nil {
		return 20 * time.Second
	}
	return d
}

func (c *AppConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.ListenAddress, c.API.ListenPort)
}
