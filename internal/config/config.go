package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/impactlog/internal/weekly"
	"github.com/spf13/viper"
)

// Config is the top-level impactlog configuration.
type Config struct {
	DBPath      string `mapstructure:"db_path"`
	CatalogFile string `mapstructure:"catalog_file"`
	ReviewDays  int    `mapstructure:"review_days"`
	Output      Output `mapstructure:"output"`
	Log         Log    `mapstructure:"log"`
	Review      Review `mapstructure:"review"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// Log defines logging preferences.
type Log struct {
	Level string `mapstructure:"level"`
}

// Review holds the fixed text of the weekly review.
type Review struct {
	Decisions       Decisions       `mapstructure:"decisions"`
	Recommendations Recommendations `mapstructure:"recommendations"`
}

// Decisions is the Stop/Start/Continue block.
type Decisions struct {
	Stop     string `mapstructure:"stop"`
	Start    string `mapstructure:"start"`
	Continue string `mapstructure:"continue"`
}

// Recommendations holds level-transition hints.
type Recommendations struct {
	CToB string `mapstructure:"c_to_b"`
	BToA string `mapstructure:"b_to_a"`
}

// Template converts the review text into the aggregator's template.
func (r Review) Template() weekly.Template {
	return weekly.Template{
		Decisions: weekly.Decisions{
			Stop:     r.Decisions.Stop,
			Start:    r.Decisions.Start,
			Continue: r.Decisions.Continue,
		},
		Recommendations: weekly.Recommendations{
			CToB: r.Recommendations.CToB,
			BToA: r.Recommendations.BToA,
		},
	}
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. Environment variables
// prefixed with IMPACTLOG_ override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	for key, value := range defaultValues() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName(strings.TrimSuffix(DefaultConfigFile, filepath.Ext(DefaultConfigFile)))
		v.SetConfigType("yaml")
	}

	// Without --config a missing file just means defaults. A named file
	// must exist.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || (!errors.As(err, &notFound) && !os.IsNotExist(err)) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.ReviewDays <= 0 {
		cfg.ReviewDays = DefaultReviewDays
	}
	if cfg.Output.Width <= 0 {
		cfg.Output.Width = DefaultOutput.Width
	}

	cfg.DBPath = expandPath(cfg.DBPath)
	cfg.CatalogFile = expandPath(cfg.CatalogFile)

	return &cfg, nil
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
