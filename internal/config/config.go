// Package config loads texdiff settings from flags, environment variables
// (TEXDIFF_*) and an optional texdiff.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/texdiff/internal/flatten"
	"github.com/valpere/texdiff/internal/highlight"
)

const (
	EnvPrefix = "TEXDIFF"

	KeyAdditionColour = "addition_colour"
	KeyDeletionColour = "deletion_colour"
	KeyContextLines   = "context_lines"
	KeyBeginMarker    = "begin_marker"
	KeyEndMarker      = "end_marker"
	KeyTimeout        = "timeout"
	KeyDBPath         = "db"
	KeyNoCache        = "no_cache"
	KeyLogLevel       = "log_level"
	KeyGitBinary      = "git"

	DefaultOutput = "mycoloreddiff"
	DefaultDBPath = "./data/texdiff.db"
)

// Config is the resolved configuration for a texdiff run.
type Config struct {
	AdditionColour string        `mapstructure:"addition_colour"`
	DeletionColour string        `mapstructure:"deletion_colour"`
	ContextLines   int           `mapstructure:"context_lines"`
	BeginMarker    string        `mapstructure:"begin_marker"`
	EndMarker      string        `mapstructure:"end_marker"`
	Timeout        time.Duration `mapstructure:"timeout"`
	DBPath         string        `mapstructure:"db"`
	NoCache        bool          `mapstructure:"no_cache"`
	LogLevel       string        `mapstructure:"log_level"`
	GitBinary      string        `mapstructure:"git"`
}

// Style returns the highlight colours, defaults filled in.
func (c Config) Style() highlight.Style {
	return highlight.Style{Addition: c.AdditionColour, Deletion: c.DeletionColour}.WithDefaults()
}

// Markers returns the flatten options for the configured body markers.
func (c Config) Markers() flatten.Options {
	return flatten.Options{Begin: c.BeginMarker, End: c.EndMarker}
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAdditionColour, highlight.DefaultAddition)
	v.SetDefault(KeyDeletionColour, highlight.DefaultDeletion)
	v.SetDefault(KeyContextLines, 5000)
	v.SetDefault(KeyBeginMarker, flatten.DefaultBegin)
	v.SetDefault(KeyEndMarker, flatten.DefaultEnd)
	v.SetDefault(KeyTimeout, time.Minute)
	v.SetDefault(KeyDBPath, DefaultDBPath)
	v.SetDefault(KeyNoCache, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyGitBinary, "git")
}

// New returns a viper instance with defaults and environment binding set up.
// When file is empty, texdiff.yaml is searched for in the working
// directory and in the user config directory; a missing file is not an
// error.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("texdiff")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "texdiff"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes the settings held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.ContextLines <= 0 {
		return Config{}, fmt.Errorf("context_lines must be positive, got %d", cfg.ContextLines)
	}
	if cfg.BeginMarker == cfg.EndMarker {
		return Config{}, fmt.Errorf("begin and end markers must differ")
	}
	return cfg, nil
}
