package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joss/domem/internal/db"
	"github.com/joss/domem/internal/logging"
)

var log = logging.New("config")

// Database selects a backend and its connection parameters.
type Database struct {
	Type     string `json:"type" yaml:"type"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Host     string `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	User     string `json:"user,omitempty" yaml:"user,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Driver   string `json:"driver,omitempty" yaml:"driver,omitempty"`

	// UserName owns sessions created without an explicit user.
	UserName string `json:"user_name,omitempty" yaml:"user_name,omitempty"`
}

// Defaults is the embedded backend at DefaultPath, with networked
// parameters pre-filled for files that only switch the type.
func Defaults() Database {
	return Database{
		Type:     db.BackendEmbedded,
		Path:     DefaultPath(),
		Host:     DefaultHost,
		Port:     DefaultPort,
		Database: DefaultDatabase,
		User:     DefaultUser,
	}
}

// Load resolves the configuration. When DO_DB_TYPE is set the environment
// is authoritative and the file is not read. Otherwise the file at
// configPath (or <cwd>/.do/db_config.json when empty) is merged over the
// defaults. An unreadable or malformed file only logs a warning.
func Load(configPath string) Database {
	var cfg Database

	if t := strings.TrimSpace(os.Getenv(EnvType)); t != "" {
		cfg = fromEnv(NormalizeType(t))
	} else {
		cfg = Defaults()
		if configPath == "" {
			if wd, err := os.Getwd(); err == nil {
				configPath = DefaultConfigFile(wd)
			}
		}
		if configPath != "" {
			if err := mergeFile(&cfg, configPath); err != nil {
				log.Warn("config_parse_failed", map[string]interface{}{"path": configPath}, err)
			}
		}
		cfg.Type = NormalizeType(cfg.Type)
		cfg.Path = expandHome(cfg.Path)
	}

	if u := os.Getenv(EnvUserName); u != "" {
		cfg.UserName = u
	}
	return cfg
}

// mergeFile decodes path over cfg. Fields absent from the file keep their
// current value. A missing file is not an error.
func mergeFile(cfg *Database, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	// decode into a copy so a half-parsed file leaves cfg untouched
	merged := *cfg
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &merged)
	default:
		err = json.Unmarshal(data, &merged)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	*cfg = merged
	return nil
}

// NormalizeType maps accepted aliases to the canonical backend names.
// Unknown values are returned verbatim for the factory to reject.
func NormalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case db.BackendEmbedded, "sqlite":
		return db.BackendEmbedded
	case db.BackendNetworked, "mysql":
		return db.BackendNetworked
	}
	return t
}

// Redacted returns a copy safe for display.
func (d Database) Redacted() Database {
	if d.Password != "" {
		d.Password = "********"
	}
	return d
}
