// Package config holds explicit configuration for the haikumesh services.
//
// All environment lookups happen here, once, in FromEnv. The rest of the
// codebase receives validated structs; no package reads the process
// environment at call sites.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variable names consumed by FromEnv.
const (
	EnvGeminiAPIKey     = "GEMINI_API_KEY"
	EnvValidatorURL     = "HAIKU_VALIDATOR_AGENT_URL"
	EnvUtilitiesURL     = "HAIKU_UTILITIES_AGENT_URL"
	EnvStoreURL         = "MCP_HAIKU_STORE_SERVER_URL"
	EnvStoreDB          = "HAIKU_STORE_DB"
	EnvPort             = "PORT"
	EnvRemoteValidation = "HAIKU_USE_REMOTE_VALIDATOR"
)

// GeminiConfig configures the hosted language model.
type GeminiConfig struct {
	// APIKey is the Google AI API key. Required for any agent command.
	APIKey string

	// Model is the model name. Default: gemini-2.5-flash.
	Model string

	// Temperature controls randomness. Default: 0.7.
	Temperature float64

	// MaxTokens limits response length. Default: 4096.
	MaxTokens int
}

// ServiceConfig points at a remote A2A agent.
type ServiceConfig struct {
	// BaseURL is the agent's base URL. Absence is a configuration error
	// surfaced by the caller that needs the service, not a crash.
	BaseURL string
}

// StoreConfig configures the haiku store and its MCP endpoint.
type StoreConfig struct {
	// URL is the MCP haiku store endpoint for the root agent's toolset.
	// Default: http://localhost:8075/mcp.
	URL string

	// DBPath is the sqlite database path for the store server.
	// Default: haikus.db.
	DBPath string
}

// Config is the full configuration passed into the demo's entry points.
type Config struct {
	Gemini    GeminiConfig
	Validator ServiceConfig
	Utilities ServiceConfig
	Store     StoreConfig

	// Port is the listen port for whichever server is being started.
	// Default: 8001.
	Port int

	// RemoteValidation routes haiku validation through the external A2A
	// validator instead of the in-process sub-agent.
	RemoteValidation bool
}

// SetDefaults fills in documented defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.Temperature == 0 {
		c.Gemini.Temperature = 0.7
	}
	if c.Gemini.MaxTokens == 0 {
		c.Gemini.MaxTokens = 4096
	}
	if c.Store.URL == "" {
		c.Store.URL = "http://localhost:8075/mcp"
	}
	if c.Store.DBPath == "" {
		c.Store.DBPath = "haikus.db"
	}
	if c.Port == 0 {
		c.Port = 8001
	}
}

// Validate checks field ranges eagerly so misconfiguration fails at startup.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		return fmt.Errorf("invalid temperature: %v (must be 0-2)", c.Gemini.Temperature)
	}
	if c.Gemini.MaxTokens < 0 {
		return fmt.Errorf("invalid max tokens: %d", c.Gemini.MaxTokens)
	}
	return nil
}

// RequireGemini returns an error if no model API key is configured.
func (c *Config) RequireGemini() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("%s environment variable is not set", EnvGeminiAPIKey)
	}
	return nil
}

// FromEnv builds a Config from the process environment. A .env file is
// loaded first if present (missing file is not an error).
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Gemini: GeminiConfig{
			APIKey: os.Getenv(EnvGeminiAPIKey),
		},
		Validator: ServiceConfig{BaseURL: os.Getenv(EnvValidatorURL)},
		Utilities: ServiceConfig{BaseURL: os.Getenv(EnvUtilitiesURL)},
		Store: StoreConfig{
			URL:    os.Getenv(EnvStoreURL),
			DBPath: os.Getenv(EnvStoreDB),
		},
		RemoteValidation: parseBool(os.Getenv(EnvRemoteValidation)),
	}

	if portStr := os.Getenv(EnvPort); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", EnvPort, portStr)
		}
		cfg.Port = port
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return b
}
