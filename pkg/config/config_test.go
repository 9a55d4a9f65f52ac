package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 0.7, cfg.Gemini.Temperature)
	assert.Equal(t, 4096, cfg.Gemini.MaxTokens)
	assert.Equal(t, "http://localhost:8075/mcp", cfg.Store.URL)
	assert.Equal(t, "haikus.db", cfg.Store.DBPath)
	assert.Equal(t, 8001, cfg.Port)
}

func TestSetDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Gemini: GeminiConfig{Model: "gemini-1.5-pro", MaxTokens: 1024},
		Port:   9000,
	}
	cfg.SetDefaults()

	assert.Equal(t, "gemini-1.5-pro", cfg.Gemini.Model)
	assert.Equal(t, 1024, cfg.Gemini.MaxTokens)
	assert.Equal(t, 9000, cfg.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "negative port", mutate: func(c *Config) { c.Port = -1 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, wantErr: true},
		{name: "temperature out of range", mutate: func(c *Config) { c.Gemini.Temperature = 3.5 }, wantErr: true},
		{name: "negative max tokens", mutate: func(c *Config) { c.Gemini.MaxTokens = -5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.SetDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvGeminiAPIKey, "test-key")
	t.Setenv(EnvValidatorURL, "http://validator.example:8001")
	t.Setenv(EnvPort, "8002")
	t.Setenv(EnvRemoteValidation, "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.Equal(t, "http://validator.example:8001", cfg.Validator.BaseURL)
	assert.Equal(t, 8002, cfg.Port)
	assert.True(t, cfg.RemoteValidation)
	assert.NoError(t, cfg.RequireGemini())
}

func TestFromEnv_InvalidPort(t *testing.T) {
	t.Setenv(EnvPort, "not-a-port")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPort)
}

func TestRequireGemini_Missing(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	err := cfg.RequireGemini()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvGeminiAPIKey)
}
