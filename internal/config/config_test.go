package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, DefaultAdviceModel, cfg.Advice.Model)
	assert.Equal(t, int64(MaxWorkbookBytes), cfg.Upload.MaxBytes)
	assert.Equal(t, 2, cfg.Jobs.Workers)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "default config is valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: "read timeout must be positive",
		},
		{
			name:    "no allowed origins",
			mutate:  func(c *Config) { c.Security.AllowedOrigins = nil },
			wantErr: "allowed origin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfigValidateNormalizes(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"
	cfg.Advice.Model = ""
	cfg.Jobs.Workers = 0
	cfg.Upload.MaxBytes = 0

	require.NoError(t, cfg.validate())

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, DefaultAdviceModel, cfg.Advice.Model)
	assert.Equal(t, 2, cfg.Jobs.Workers)
	assert.Equal(t, int64(MaxWorkbookBytes), cfg.Upload.MaxBytes)
}

func TestMergeConfigs(t *testing.T) {
	fileCfg := Config{}
	fileCfg.Server.Port = 9090
	fileCfg.Advice.APIKey = "file-key"
	fileCfg.Advice.Model = "gemini-1.5-pro"

	envCfg := Config{}
	envCfg.Advice.APIKey = "env-key"

	merged := mergeConfigs(fileCfg, envCfg)

	// env wins where set, file fills the gaps
	assert.Equal(t, "env-key", merged.Advice.APIKey)
	assert.Equal(t, 9090, merged.Server.Port)
	assert.Equal(t, "gemini-1.5-pro", merged.Advice.Model)
}

func TestRequiredSubjects(t *testing.T) {
	require.Len(t, RequiredSubjects, 5)
	assert.Equal(t, CanonicalSubject, RequiredSubjects[0])

	for _, s := range RequiredSubjects {
		assert.True(t, IsRequiredSubject(s))
	}
	assert.False(t, IsRequiredSubject("體育"))
	assert.False(t, IsRequiredSubject(""))
}
