package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	AppName  = "phtrs"
	FileName = "phtrs.yml"

	SeverityReject = "reject"
	SeverityClamp  = "clamp"
)

// Config models phtrs.yml.
type Config struct {
	Rates struct {
		LaborPerHour  float64 `yaml:"labor_per_hour"`
		MaterialPerKg float64 `yaml:"material_per_kg"`
	} `yaml:"rates"`
	Validation struct {
		Severity       string `yaml:"severity"`
		AllowZeroClaim bool   `yaml:"allow_zero_claim"`
	} `yaml:"validation"`
	Policies struct {
		AllowReassignRepaired bool `yaml:"allow_reassign_repaired"`
	} `yaml:"policies"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"log"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Rates.LaborPerHour < 0 {
		return fmt.Errorf("config.rates.labor_per_hour must not be negative")
	}
	if c.Rates.MaterialPerKg < 0 {
		return fmt.Errorf("config.rates.material_per_kg must not be negative")
	}
	switch c.Validation.Severity {
	case SeverityReject, SeverityClamp:
	default:
		return fmt.Errorf("config.validation.severity must be %q or %q", SeverityReject, SeverityClamp)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config.log.format must be 'text' or 'json'")
	}
	return nil
}

// Dir returns the XDG config directory for phtrs.
// On Linux: ~/.config/phtrs
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Path returns the config file path. An empty dir resolves to the XDG config directory.
func Path(dir string) string {
	if dir == "" {
		dir = Dir()
	}
	return filepath.Join(dir, FileName)
}

// Load reads and validates config from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with phtrs config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes. Keys missing from
// data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// YAML renders the config back to YAML.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Write stores the default config at path, creating parent directories.
func Write(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultTemplate), 0o644)
}

const defaultTemplate = `rates:
  labor_per_hour: 50
  material_per_kg: 2

validation:
  # reject: severities outside 1-10 fail with invalid input
  # clamp: severities are clamped into 1-10
  severity: reject
  allow_zero_claim: true

policies:
  allow_reassign_repaired: false

log:
  level: info
  format: text
  file: ""
`
