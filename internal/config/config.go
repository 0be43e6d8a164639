package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/metaclean-cli/internal/utils"
)

// Global configuration structure.
type Global struct {
	// Pipeline paths
	InputPath  string `mapstructure:"input_path" yaml:"input_path"`
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`

	// GEO acquisition
	Accession  string `mapstructure:"accession" yaml:"accession"`
	GEOBaseURL string `mapstructure:"geo_base_url" yaml:"geo_base_url"`

	// Stage that the V-VI composite label collapses to (V or VI)
	BraakComposite string `mapstructure:"braak_composite" yaml:"braak_composite"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

const (
	envPrefix = "METACLEAN"
	dirName   = ".metaclean"
)

var defaults = map[string]any{
	"input_path":          "./data/sample_metadata.csv",
	"output_path":         "./data/sample_metadata_clean.csv",
	"data_dir":            "./data",
	"accession":           "GSE48350",
	"geo_base_url":        "https://ftp.ncbi.nlm.nih.gov",
	"braak_composite":     "V",
	"http_timeout_sec":    120,
	"retry_max_attempts":  3,
	"retry_base_delay_ms": 500,
	"retry_max_delay_ms":  4000,
}

// Defaults returns the built-in configuration without touching the environment or disk.
func Defaults() *Global {
	return &Global{
		InputPath:        defaults["input_path"].(string),
		OutputPath:       defaults["output_path"].(string),
		DataDir:          defaults["data_dir"].(string),
		Accession:        defaults["accession"].(string),
		GEOBaseURL:       defaults["geo_base_url"].(string),
		BraakComposite:   defaults["braak_composite"].(string),
		HTTPTimeoutSec:   defaults["http_timeout_sec"].(int),
		RetryMaxAttempts: defaults["retry_max_attempts"].(int),
		RetryBaseDelayMs: defaults["retry_base_delay_ms"].(int),
		RetryMaxDelayMs:  defaults["retry_max_delay_ms"].(int),
	}
}

// DefaultPath is ~/.metaclean/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.metaclean/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
