package docmodel

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// Config contains all configuration options for the document model
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `toml:"log_level"`
	// MaxRepairPasses bounds the fixed-point iteration of the structural
	// repair algorithm before it reports non-convergence.
	MaxRepairPasses int `toml:"max_repair_passes"`
	// StrictMode makes decode fail on non-whitespace text under node types
	// that do not allow mixed content, instead of dropping it with a warning.
	StrictMode bool `toml:"strict_mode"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:        "info",
		MaxRepairPasses: 8,
		StrictMode:      false,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	// DOCMODEL_LOG_LEVEL
	if val := os.Getenv("DOCMODEL_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	// DOCMODEL_MAX_REPAIR_PASSES
	if val := os.Getenv("DOCMODEL_MAX_REPAIR_PASSES"); val != "" {
		if passes, err := strconv.Atoi(val); err == nil {
			config.MaxRepairPasses = passes
		}
	}

	// DOCMODEL_STRICT_MODE
	if val := os.Getenv("DOCMODEL_STRICT_MODE"); val != "" {
		config.StrictMode = parseBool(val)
	}

	return config
}

// LoadConfigFile reads a TOML config file and overlays it on the defaults.
// Environment variables still win over file values.
func LoadConfigFile(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, NewDocumentError("load config", path, err)
	}

	env := ConfigFromEnvironment()
	defaults := DefaultConfig()
	if env.LogLevel != defaults.LogLevel {
		config.LogLevel = env.LogLevel
	}
	if env.MaxRepairPasses != defaults.MaxRepairPasses {
		config.MaxRepairPasses = env.MaxRepairPasses
	}
	if env.StrictMode != defaults.StrictMode {
		config.StrictMode = env.StrictMode
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.MaxRepairPasses <= 0 {
		return errors.New("max repair passes must be positive")
	}

	return nil
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Update logger based on new config (outside the lock to avoid deadlock)
	UpdateLoggerFromConfig()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
