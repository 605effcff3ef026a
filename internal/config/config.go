package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	KeyMaster       = "master"
	KeyPollInterval = "poll-interval"
	KeyTimeout      = "timeout"
	KeyLogFile      = "log-file"
	KeyLogLevel     = "log-level"

	EnvPrefix = "THUNDERDASH"
)

// Config is everything the dashboard needs to reach the master.
type Config struct {
	Master       string
	PollInterval time.Duration
	Timeout      time.Duration
	LogFile      string
	LogLevel     zerolog.Level
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyMaster, "http://localhost:7000")
	v.SetDefault(KeyPollInterval, time.Second)
	v.SetDefault(KeyTimeout, 10*time.Second)
	v.SetDefault(KeyLogFile, defaultLogFile())
	v.SetDefault(KeyLogLevel, "info")
}

// Bind makes v read THUNDERDASH_* environment variables, e.g. THUNDERDASH_POLL_INTERVAL.
func Bind(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// ReadFile loads path, or $HOME/.thunderdash.yaml when path is empty. A missing default file
// is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		return errors.Wrapf(v.ReadInConfig(), "failed to read config %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(home)
	v.SetConfigType("yaml")
	v.SetConfigName(".thunderdash")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "failed to read config")
	}
	return nil
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Master:       strings.TrimRight(strings.TrimSpace(v.GetString(KeyMaster)), "/"),
		PollInterval: v.GetDuration(KeyPollInterval),
		Timeout:      v.GetDuration(KeyTimeout),
		LogFile:      v.GetString(KeyLogFile),
	}

	u, err := url.Parse(cfg.Master)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return cfg, errors.Errorf("invalid master url %q", cfg.Master)
	}
	if cfg.PollInterval <= 0 {
		return cfg, errors.Errorf("%s must be positive, got %s", KeyPollInterval, cfg.PollInterval)
	}
	if cfg.Timeout <= 0 {
		return cfg, errors.Errorf("%s must be positive, got %s", KeyTimeout, cfg.Timeout)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString(KeyLogLevel)))
	if err != nil {
		return cfg, errors.Wrapf(err, "invalid %s", KeyLogLevel)
	}
	cfg.LogLevel = level
	return cfg, nil
}

func defaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "thunderdash.log")
	}
	return filepath.Join(home, ".thunderdash", "thunderdash.log")
}
