package paths

import (
	"os"
	"path/filepath"
)

// GetCompassHome returns COMPASS_HOME or ~/.compass default
func GetCompassHome() string {
	compassHome := os.Getenv("COMPASS_HOME")
	if compassHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".compass"
		}
		return filepath.Join(homeDir, ".compass")
	}
	return ExpandPath(compassHome)
}

// GetDBPath returns $COMPASS_HOME/state.db
func GetDBPath() string {
	return filepath.Join(GetCompassHome(), "state.db")
}

// GetProjectsPath returns $COMPASS_HOME/projects
func GetProjectsPath() string {
	return filepath.Join(GetCompassHome(), "projects")
}

// GetSettingsPath returns $COMPASS_HOME/settings.json
func GetSettingsPath() string {
	return filepath.Join(GetCompassHome(), "settings.json")
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			if len(path) == 1 {
				return homeDir
			}
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}
