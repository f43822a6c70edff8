// Package config resolves database configuration from environment
// variables, a project-local config file and built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Environment variables read by Load.
const (
	EnvType     = "DO_DB_TYPE"
	EnvPath     = "DO_DB_PATH"
	EnvHost     = "DO_DB_HOST"
	EnvPort     = "DO_DB_PORT"
	EnvName     = "DO_DB_NAME"
	EnvUser     = "DO_DB_USER"
	EnvPassword = "DO_DB_PASSWORD"
	EnvDriver   = "DO_DB_DRIVER"
	EnvUserName = "DO_USER_NAME"
)

// Networked defaults.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 3306
	DefaultDatabase = "do_memory"
	DefaultUser     = "root"
)

// fromEnv builds a config entirely from DO_DB_* variables.
func fromEnv(backend string) Database {
	return Database{
		Type:     backend,
		Path:     DefaultPath(),
		Host:     getEnvDefault(EnvHost, DefaultHost),
		Port:     getEnvInt(EnvPort, DefaultPort),
		Database: getEnvDefault(EnvName, DefaultDatabase),
		User:     getEnvDefault(EnvUser, DefaultUser),
		Password: os.Getenv(EnvPassword),
		Driver:   os.Getenv(EnvDriver),
	}
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Warn("config_env_invalid", map[string]interface{}{"key": key, "value": v}, err)
		return fallback
	}
	return n
}

// Paths holds standard directory paths.
type Paths struct {
	// Home is the per-user directory (~/.do)
	Home string

	// Database is the default embedded database file (~/.do/memory.db)
	Database string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		doHome := filepath.Join(home, ".do")

		paths = &Paths{
			Home:     doHome,
			Database: filepath.Join(doHome, "memory.db"),
		}
	})
	return paths
}

// ResetPaths clears the cached paths (for testing).
func ResetPaths() {
	pathsOnce = sync.Once{}
	paths = nil
}

// DefaultPath is the embedded database file: DO_DB_PATH, else ~/.do/memory.db.
func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return expandHome(p)
	}
	return GetPaths().Database
}

// DefaultConfigFile is the project-local config file under dir.
func DefaultConfigFile(dir string) string {
	return filepath.Join(dir, ".do", "db_config.json")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
