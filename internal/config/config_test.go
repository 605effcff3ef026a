package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:7000", cfg.Master)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.NotEmpty(t, cfg.LogFile)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("THUNDERDASH_MASTER", "https://master.example:9000/")
	t.Setenv("THUNDERDASH_POLL_INTERVAL", "250ms")
	t.Setenv("THUNDERDASH_LOG_LEVEL", "DEBUG")

	v := newViper()
	Bind(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "https://master.example:9000", cfg.Master)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thunderdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("master: http://10.0.0.1:7000\ntimeout: 3s\n"), 0o644))

	v := newViper()
	require.NoError(t, ReadFile(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:7000", cfg.Master)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestReadFileMissingExplicitPath(t *testing.T) {
	assert.Error(t, ReadFile(newViper(), filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]func(v *viper.Viper){
		"no scheme":        func(v *viper.Viper) { v.Set(KeyMaster, "localhost:7000") },
		"bad scheme":       func(v *viper.Viper) { v.Set(KeyMaster, "ftp://localhost") },
		"zero interval":    func(v *viper.Viper) { v.Set(KeyPollInterval, "0s") },
		"negative timeout": func(v *viper.Viper) { v.Set(KeyTimeout, "-1s") },
		"bad level":        func(v *viper.Viper) { v.Set(KeyLogLevel, "loud") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			v := newViper()
			mutate(v)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}
