package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// envVarPrefix is the prefix for all aish environment variables
const envVarPrefix = "AISH_"

// getEnvBool retrieves a boolean value from an environment variable
// If the variable is not set, returns the defaultValue
func getEnvBool(name string, defaultValue bool) bool {
	val := os.Getenv(name)
	if val == "" {
		return defaultValue
	}
	val = strings.ToLower(val)
	return val == "true" || val == "1" || val == "yes"
}

// getEnvInt retrieves an integer value from an environment variable
// If the variable is not set or invalid, returns the defaultValue
func getEnvInt(name string, defaultValue int) int {
	val := os.Getenv(name)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvDuration accepts Go duration syntax or a plain number of seconds
func getEnvDuration(name string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(name)
	if val == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvString retrieves a string value from an environment variable
// If the variable is not set, returns the defaultValue
func getEnvString(name string, defaultValue string) string {
	val := os.Getenv(name)
	if val == "" {
		return defaultValue
	}
	return val
}

// applyEnv overlays AISH_* variables on cfg
func applyEnv(cfg *Config) {
	cfg.Shell = getEnvString(envVarPrefix+"SHELL", cfg.Shell)
	cfg.PreferPowerShell = getEnvBool(envVarPrefix+"POWERSHELL", cfg.PreferPowerShell)
	cfg.Provider = getEnvString(envVarPrefix+"PROVIDER", cfg.Provider)
	cfg.Model = getEnvString(envVarPrefix+"MODEL", cfg.Model)
	cfg.BaseURL = getEnvString(envVarPrefix+"BASE_URL", cfg.BaseURL)
	cfg.APIKeyEnv = getEnvString(envVarPrefix+"API_KEY_ENV", cfg.APIKeyEnv)
	cfg.TranslateTimeout = getEnvDuration(envVarPrefix+"TRANSLATE_TIMEOUT", cfg.TranslateTimeout)
	cfg.HistoryFile = getEnvString(envVarPrefix+"HISTORY_FILE", cfg.HistoryFile)
	cfg.Journal = getEnvBool(envVarPrefix+"JOURNAL", cfg.Journal)
	cfg.LogLevel = getEnvString(envVarPrefix+"LOG_LEVEL", cfg.LogLevel)
	cfg.ContextMaxEntries = getEnvInt(envVarPrefix+"CONTEXT_MAX_ENTRIES", cfg.ContextMaxEntries)
}

// ListEnv returns every AISH_* variable currently set
func ListEnv() map[string]string {
	result := make(map[string]string)
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 && strings.HasPrefix(parts[0], envVarPrefix) {
			result[parts[0]] = parts[1]
		}
	}
	return result
}
