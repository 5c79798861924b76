// Package config loads workbench settings from JSON files, with a
// project-local file taking priority over the global one.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// FileName is the workbench settings file.
	FileName = "config.json"

	// ConfigDirName is the dot-directory holding workbench state.
	ConfigDirName = ".voxbench"

	defaultTimeoutSeconds = 120
)

// File is the workbench configuration. All fields are optional; zero values
// fall back to defaults at wiring time.
type File struct {
	// EngineURL is the base URL of the local synthesis engine sidecar.
	EngineURL string `json:"engineUrl,omitempty"`

	// PersonasDir overrides where personas are stored.
	PersonasDir string `json:"personasDir,omitempty"`

	// OutputDir overrides where generated audio artifacts are written.
	// Empty means the system temporary directory.
	OutputDir string `json:"outputDir,omitempty"`

	// TimeoutSeconds bounds one synthesis round trip.
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`
}

// Default returns the built-in configuration.
func Default() *File {
	return &File{
		TimeoutSeconds: defaultTimeoutSeconds,
	}
}

// Loader resolves configuration files.
type Loader struct {
	projectPath string
	globalPath  string
}

// NewLoader creates a config loader with the standard lookup paths.
func NewLoader() *Loader {
	homeDir, _ := os.UserHomeDir()
	return &Loader{
		projectPath: filepath.Join(ConfigDirName, FileName),
		globalPath:  filepath.Join(homeDir, ConfigDirName, FileName),
	}
}

// Load resolves configuration with priority:
// 1. Project-local config (.voxbench/config.json under workDir)
// 2. Global config (~/.voxbench/config.json)
// Returns the defaults if neither file exists.
func (l *Loader) Load(workDir string) (*File, error) {
	projectConfigPath := filepath.Join(workDir, l.projectPath)
	if cfg, err := l.loadFromFile(projectConfigPath); err == nil {
		log.Debug().Str("path", projectConfigPath).Msg("Loaded project config")
		return cfg, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if cfg, err := l.loadFromFile(l.globalPath); err == nil {
		log.Debug().Str("path", l.globalPath).Msg("Loaded global config")
		return cfg, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	log.Debug().Msg("No config file found, using defaults")
	return Default(), nil
}

// LoadFromPath loads configuration from an explicit path, rejecting
// traversal outside the expected layout.
func (l *Loader) LoadFromPath(path string) (*File, error) {
	if strings.Contains(path, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}
	return l.loadFromFile(path)
}

func (l *Loader) loadFromFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := json.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables expand to empty so their fields fall back to defaults.
func expandEnvVars(input string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(input, func(match string) string {
		varName := match[2 : len(match)-1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		log.Debug().Str("var", varName).Msg("Referenced environment variable not set in config")
		return ""
	})
}
