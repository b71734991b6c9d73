package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	ConfigFileName      = ".storyline"
	ConfigFileExtension = "yaml"
	EnvPrefix           = "STORYLINE"
)

type Config struct {
	Database    DatabaseConfig `mapstructure:"database"`
	Log         LogConfig      `mapstructure:"log"`
	Descriptors string         `mapstructure:"descriptors"`
	Events      bool           `mapstructure:"events"`
	Output      string         `mapstructure:"output"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
	Retry       RetryConfig    `mapstructure:"retry"`
	Backup      BackupConfig   `mapstructure:"backup"`
}

type DatabaseConfig struct {
	Path         string        `mapstructure:"path"`
	BusyTimeout  time.Duration `mapstructure:"busy_timeout"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	AutoMigrate  bool          `mapstructure:"auto_migrate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	// Dump prints the Prometheus text exposition after each command.
	Dump bool `mapstructure:"dump"`
}

type RetryConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Backoff  time.Duration `mapstructure:"backoff"`
}

type BackupConfig struct {
	Dir    string `mapstructure:"dir"`
	Retain int    `mapstructure:"retain"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "~/.storyline/storyline.db")
	v.SetDefault("database.busy_timeout", 5*time.Second)
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("descriptors", "")
	v.SetDefault("events", false)
	v.SetDefault("output", "text")
	v.SetDefault("metrics.dump", false)
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.backoff", 50*time.Millisecond)
	v.SetDefault("backup.dir", "")
	v.SetDefault("backup.retain", 3)
}

// loadConfig reads cfgFile, or $HOME/.storyline.yaml when cfgFile is empty,
// and applies STORYLINE_* environment overrides. A missing default file is
// not an error.
func loadConfig(v *viper.Viper, cfgFile string) (Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return Config{}, err
		}
		v.SetConfigFile(path)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return Config{}, fmt.Errorf("find home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExtension)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.normalize()
}

func (c *Config) normalize() error {
	var err error
	if c.Database.Path, err = homedir.Expand(c.Database.Path); err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	if c.Descriptors != "" {
		if c.Descriptors, err = homedir.Expand(c.Descriptors); err != nil {
			return fmt.Errorf("descriptors: %w", err)
		}
	}
	if c.Backup.Dir != "" {
		if c.Backup.Dir, err = homedir.Expand(c.Backup.Dir); err != nil {
			return fmt.Errorf("backup.dir: %w", err)
		}
	}
	switch c.Output {
	case "text", "json":
	default:
		return fmt.Errorf("output: unknown format %q", c.Output)
	}
	return nil
}
