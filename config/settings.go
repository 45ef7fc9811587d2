package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"compass/paths"
)

// Storage backend names accepted in settings and flags.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Settings represents the structure of $COMPASS_HOME/settings.json. Every
// field can also be supplied through the environment; env values win over
// the file, flags win over both.
type Settings struct {
	DBPath              string `json:"db_path,omitempty" env:"COMPASS_DB_PATH"`
	ProjectsPath        string `json:"projects_path,omitempty" env:"COMPASS_PROJECTS_PATH"`
	Storage             string `json:"storage,omitempty" env:"COMPASS_STORAGE"`
	Debug               *bool  `json:"debug,omitempty" env:"COMPASS_DEBUG_ENABLED"`
	MaxLogFiles         *int   `json:"max_log_files,omitempty" env:"COMPASS_MAX_LOG_FILES_SETTING"`
	SessionTimeoutHours *int   `json:"session_timeout_hours,omitempty" env:"COMPASS_SESSION_TIMEOUT_HOURS"`
}

// LoadSettings loads settings from $COMPASS_HOME/settings.json and overlays
// environment variables. A missing file is not an error: defaults apply.
func LoadSettings() (*Settings, error) {
	settings := &Settings{}

	data, err := os.ReadFile(paths.GetSettingsPath())
	switch {
	case os.IsNotExist(err):
		// Not an error, use defaults
	case err != nil:
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	default:
		if err := json.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("invalid settings.json: %w", err)
		}
	}

	if err := env.Parse(settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings from environment: %w", err)
	}

	if settings.DBPath != "" {
		settings.DBPath = paths.ExpandPath(settings.DBPath)
	}
	if settings.ProjectsPath != "" {
		settings.ProjectsPath = paths.ExpandPath(settings.ProjectsPath)
	}

	return settings, nil
}
