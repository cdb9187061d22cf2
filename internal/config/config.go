package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the viper configuration singleton.
// Should be called once at application startup.
func Initialize() error {
	v = viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 1. Walk up from CWD looking for a .prontodb/ directory, so commands
	// work from subdirectories of a project the same way git finds .git.
	cwd, err := os.Getwd()
	if err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			prontoDir := filepath.Join(dir, ".prontodb")
			configPath := filepath.Join(prontoDir, "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				v.AddConfigPath(prontoDir)
				break
			}
			if info, err := os.Stat(prontoDir); err == nil && info.IsDir() {
				v.AddConfigPath(prontoDir)
				break
			}
		}
		v.AddConfigPath(filepath.Join(cwd, ".prontodb"))
	}

	// 2. XDG user config directory (~/.config/prontodb/).
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "prontodb"))
	}

	// 3. Home directory fallback (~/.prontodb/).
	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(homeDir, ".prontodb"))
	}

	// Automatic environment variable binding: PDB_JSON, PDB_NO_COLOR, etc.
	// take precedence over the config file.
	v.SetEnvPrefix("PDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("json", false)
	v.SetDefault("no-color", false)
	v.SetDefault("db", "")
	v.SetDefault("actor", "")
	v.SetDefault("delimiter", ".")
	v.SetDefault("local-cursor", false)

	// PRONTO_* variables are the spec's own documented knobs, bound
	// explicitly rather than through the PDB_ prefix since they name
	// filesystem locations a user sets once in their shell profile, not
	// per-invocation flags.
	_ = v.BindEnv("data-home", "PRONTO_DATA_HOME")
	_ = v.BindEnv("config-home", "PRONTO_CONFIG_HOME")
	_ = v.BindEnv("cache-home", "PRONTO_CACHE_HOME")
	_ = v.BindEnv("db", "PRONTO_DB")
	_ = v.BindEnv("delimiter", "PRONTO_DELIMITER")
	_ = v.BindEnv("local-cursor", "PRONTO_LOCAL_CURSOR")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// GetString retrieves a string configuration value.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value.
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration retrieves a duration configuration value.
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set sets a configuration value, overriding file and environment sources.
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// AllSettings returns all configuration settings as a map.
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}
