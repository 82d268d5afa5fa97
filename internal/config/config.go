package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/zeusync/sparrow/internal/core/inject"
	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/schema/registry"
)

const (
	EnvPrefix   = "SPARROW"
	DefaultFile = ".sparrow"
)

var (
	ErrFilterMode = errors.New("unknown filter mode")
	ErrSavePath   = errors.New("save_path must not be empty")
)

type FilterConfig struct {
	Mode  string   `mapstructure:"mode"`
	Types []string `mapstructure:"types"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config holds the runtime settings. Values come from .sparrow.yaml,
// SPARROW_* env vars and CLI flags bound by the caller.
type Config struct {
	SavePath       string       `mapstructure:"save_path"`
	Ignore         []string     `mapstructure:"ignore"`
	Filter         FilterConfig `mapstructure:"filter"`
	StrictExtended bool         `mapstructure:"strict_extended"`
	FlattenScenes  bool         `mapstructure:"flatten_scenes"`
	LogLevel       string       `mapstructure:"log_level"`
	Server         ServerConfig `mapstructure:"server"`
}

// New returns a viper instance looking for .sparrow.yaml in the working
// directory, or for file when it is not empty.
func New(file string) *viper.Viper {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(DefaultFile)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("save_path", "art/registry.json")
	v.SetDefault("ignore", []string{"Components_meta"})
	v.SetDefault("filter.mode", "deny")
	v.SetDefault("filter.types", []string{})
	v.SetDefault("strict_extended", false)
	v.SetDefault("flatten_scenes", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("server.addr", "127.0.0.1:15702")
}

// Load reads the config file if there is one and applies defaults for
// anything unset. A missing default file is not an error.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.SavePath) == "" {
		return ErrSavePath
	}
	switch c.Filter.Mode {
	case "allow", "deny":
	default:
		return fmt.Errorf("%w: %q", ErrFilterMode, c.Filter.Mode)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// TypeFilter builds the registry filter. An empty deny list allows
// everything.
func (c Config) TypeFilter() registry.Filter {
	if c.Filter.Mode == "allow" {
		return registry.AllowList(c.Filter.Types...)
	}
	if len(c.Filter.Types) == 0 {
		return nil
	}
	return registry.DenyList(c.Filter.Types...)
}

func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.LevelInfo
	}
	return level
}

func (c Config) InjectOptions() inject.Options {
	if c.FlattenScenes {
		return inject.FlattenScenes()
	}
	return inject.Options{}
}
