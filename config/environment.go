package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appEnvVar              = "APP_ENV"
	environmentDevelopment = "development"
	environmentProduction  = "production"
	environmentStaging     = "staging"

	// DefaultConfigPath is used when no -config flag is given.
	DefaultConfigPath = "config/config.yml"
)

var environmentAliases = map[string]string{
	"dev":  environmentDevelopment,
	"prod": environmentProduction,
	"stag": environmentStaging,
}

// getAppEnvironment reads the application environment from APP_ENV and
// defaults to development when no value is provided.
func getAppEnvironment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv(appEnvVar)))
	if env == "" {
		return environmentDevelopment
	}
	if canonical, ok := environmentAliases[env]; ok {
		return canonical
	}
	return env
}

// ResolveConfigPath selects config.<env>.yml next to the requested file when
// the default path is in use and such a file exists. Explicit paths win.
func ResolveConfigPath(path string) string {
	if path == "" {
		path = DefaultConfigPath
	}
	if path != DefaultConfigPath {
		return path
	}

	env := getAppEnvironment()
	ext := filepath.Ext(path)
	envPath := strings.TrimSuffix(path, ext) + "." + env + ext
	if _, err := os.Stat(envPath); err == nil {
		return envPath
	}
	return path
}

// AppEnvironment exposes the current application environment as configured
// through the APP_ENV environment variable.
func AppEnvironment() string {
	return getAppEnvironment()
}
