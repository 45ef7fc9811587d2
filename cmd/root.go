package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"compass/adapters/research"
	"compass/adapters/storage"
	"compass/application"
	"compass/config"
	"compass/logging"
	"compass/ports"
)

// CLI represents the command-line interface structure
type CLI struct {
	Version     kong.VersionFlag `help:"Show version information"`
	Debug       bool            `help:"Enable debug logging to file" short:"d"`
	DebugFile   string          `help:"Custom path for debug log file (disables automatic cleanup)"`
	MaxLogFiles int             `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000"`

	Storage        string `help:"Storage backend for project state" enum:"file,sqlite" default:"file" env:"COMPASS_STORAGE"`
	DBPath         string `help:"Path to SQLite database" type:"path" default:"~/.compass/state.db" env:"COMPASS_DB_PATH"`
	ProjectsPath   string `help:"Directory for per-project state documents" type:"path" default:"~/.compass/projects" env:"COMPASS_PROJECTS_PATH"`
	SessionTimeout int    `help:"Hours before a session expires" default:"24" env:"COMPASS_SESSION_TIMEOUT_HOURS"`

	Start    StartCmd    `cmd:"start" help:"Start a discovery session for a project"`
	Resume   ResumeCmd   `cmd:"resume" help:"Resume a discovery session by id"`
	Status   StatusCmd   `cmd:"status" help:"Show a project's session and stage progress"`
	Stage    StageCmd    `cmd:"stage" help:"Update, validate, or complete a discovery stage"`
	Research ResearchCmd `cmd:"research" help:"Record research results on a session"`
	Assess   AssessCmd   `cmd:"assess" help:"Score a generated PRD against a session"`
	Pause    PauseCmd    `cmd:"pause" help:"Pause a discovery session"`
	Cancel   CancelCmd   `cmd:"cancel" help:"Cancel a discovery session"`

	// Internal fields (not flags)
	settings *config.Settings        `kong:"-"`
	repo     ports.SessionRepository `kong:"-"`
	registry *research.Registry      `kong:"-"`
}

// SetSettings sets the settings on the CLI struct
func (c *CLI) SetSettings(settings *config.Settings) {
	c.settings = settings
}

// AfterApply applies settings and initializes logging after CLI parsing
func (c *CLI) AfterApply() error {
	// Precedence: CLI flags > env vars > settings.json > defaults.
	// Only apply a setting if the flag is at its default and the env var is
	// not set.
	if c.settings != nil {
		if c.DBPath == "~/.compass/state.db" {
			if _, hasEnv := os.LookupEnv("COMPASS_DB_PATH"); !hasEnv && c.settings.DBPath != "" {
				c.DBPath = c.settings.DBPath
			}
		}
		if c.ProjectsPath == "~/.compass/projects" {
			if _, hasEnv := os.LookupEnv("COMPASS_PROJECTS_PATH"); !hasEnv && c.settings.ProjectsPath != "" {
				c.ProjectsPath = c.settings.ProjectsPath
			}
		}
		if c.Storage == "file" {
			if _, hasEnv := os.LookupEnv("COMPASS_STORAGE"); !hasEnv && c.settings.Storage != "" {
				c.Storage = c.settings.Storage
			}
		}
		if c.SessionTimeout == 24 {
			if _, hasEnv := os.LookupEnv("COMPASS_SESSION_TIMEOUT_HOURS"); !hasEnv && c.settings.SessionTimeoutHours != nil {
				c.SessionTimeout = *c.settings.SessionTimeoutHours
			}
		}
		if c.MaxLogFiles == 1000 {
			if _, hasEnv := os.LookupEnv("COMPASS_MAX_LOG_FILES"); !hasEnv && c.settings.MaxLogFiles != nil {
				c.MaxLogFiles = *c.settings.MaxLogFiles
			}
		}
		if !c.Debug {
			if _, hasEnv := os.LookupEnv("COMPASS_DEBUG"); !hasEnv && c.settings.Debug != nil && *c.settings.Debug {
				c.Debug = true
			}
		}
	}

	if err := logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles); err != nil {
		return err
	}

	// Propagate debug settings to subprocesses
	if c.Debug || c.DebugFile != "" {
		os.Setenv("COMPASS_DEBUG", "1")
	}

	return nil
}

// Close releases the storage backend if one was opened
func (c *CLI) Close() {
	if c.repo != nil {
		if err := c.repo.Close(); err != nil {
			logging.Logger.Warn("Failed to close repository", "error", err)
		}
	}
}

// repository lazily opens the configured storage backend
func (c *CLI) repository() (ports.SessionRepository, error) {
	if c.repo != nil {
		return c.repo, nil
	}

	var (
		repo ports.SessionRepository
		err  error
	)
	switch c.Storage {
	case config.StorageSQLite:
		repo, err = storage.NewSQLiteRepository(c.DBPath)
	default:
		repo, err = storage.NewFileRepository(c.ProjectsPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", c.Storage, err)
	}
	c.repo = repo
	return repo, nil
}

// sessions builds the session service on the configured backend
func (c *CLI) sessions() (*application.SessionService, error) {
	repo, err := c.repository()
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(c.SessionTimeout) * time.Hour
	return application.NewSessionService(repo, timeout), nil
}

// providers returns the research provider registry. Provider clients are
// injected by embedding applications; the CLI itself registers none.
func (c *CLI) providers() ports.ProviderSource {
	if c.registry == nil {
		c.registry = research.NewRegistry()
	}
	return c.registry
}
