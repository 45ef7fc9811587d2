package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"compass/domain"
	"compass/logging"
	"compass/ports"
	"compass/schema"
)

// gormLogger routes GORM logs through the compass logger
type gormLogger struct {
	level logger.LogLevel
}

// LogMode sets the log level
func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

// Info logs info messages
func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

// Warn logs warn messages
func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

// Error logs error messages
func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs SQL queries - only in debug mode
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else {
		logging.Logger.Debug("gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}

// newGormLogger creates a GORM logger that respects the --debug flag
func newGormLogger() logger.Interface {
	if os.Getenv("COMPASS_DEBUG") == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// projectStateRow is one persisted project document. The JSON document is
// stored whole; version lives in its own column so the optimistic check
// survives an unreadable document.
type projectStateRow struct {
	ProjectName string `gorm:"primaryKey"`
	Document    string `gorm:"not null"`
	Version     int64  `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the GORM table name.
func (projectStateRow) TableName() string {
	return "project_states"
}

// SQLiteRepository persists project state documents in a SQLite database.
type SQLiteRepository struct {
	db *gorm.DB
}

var _ ports.SessionRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (and migrates) the database at dbPath.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if len(dbPath) > 0 && dbPath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, dbPath[1:])
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := db.AutoMigrate(&projectStateRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Load implements StateLoader.Load.
func (r *SQLiteRepository) Load(ctx context.Context, project string) (*domain.ProjectState, error) {
	var row projectStateRow
	err := r.db.WithContext(ctx).First(&row, "project_name = ?", project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.EmptyProjectState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project state: %w", err)
	}
	return rowToState(row), nil
}

// rowToState deserializes a document row, degrading to the empty default on
// a corrupt document while keeping the row's version.
func rowToState(row projectStateRow) *domain.ProjectState {
	var state domain.ProjectState
	if err := json.Unmarshal([]byte(row.Document), &state); err != nil {
		logging.Logger.Warn("Corrupt project state document, using empty default",
			"project", row.ProjectName, "error", err)
		fallback := domain.EmptyProjectState()
		fallback.Version = row.Version
		return fallback
	}
	state.Version = row.Version
	if state.Workflow == nil {
		state.Workflow = make(map[string]any)
	}
	return &state
}

// FindSession implements StateLoader.FindSession by scanning project rows.
func (r *SQLiteRepository) FindSession(ctx context.Context, sessionID string) (string, *domain.ProjectState, error) {
	var rows []projectStateRow
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return "", nil, fmt.Errorf("failed to scan project states: %w", err)
	}
	for _, row := range rows {
		state := rowToState(row)
		if state.DiscoverySession != nil && state.DiscoverySession.ID == sessionID {
			return row.ProjectName, state, nil
		}
	}
	return "", nil, nil
}

// busyRetries bounds retries of a write that hit SQLITE_BUSY under WAL.
const busyRetries = 3

// withRetry retries a write on SQLITE_BUSY/SQLITE_LOCKED with linear backoff.
// Any other error is returned immediately.
func withRetry(fn func() error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
			time.Sleep(time.Millisecond * time.Duration(50*(i+1)))
			continue
		}
		return err
	}
	return err
}

// Save implements StateSaver.Save inside a transaction that rejects version
// mismatches.
func (r *SQLiteRepository) Save(ctx context.Context, project string, state *domain.ProjectState) error {
	if err := schema.ValidateProjectState(state); err != nil {
		return err
	}

	origVersion := state.Version
	err := withRetry(func() error {
		state.Version = origVersion
		return r.save(ctx, project, state)
	}, busyRetries)
	if err != nil {
		state.Version = origVersion
	}
	return err
}

func (r *SQLiteRepository) save(ctx context.Context, project string, state *domain.ProjectState) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row projectStateRow
		err := tx.First(&row, "project_name = ?", project).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if state.Version != 0 {
				return fmt.Errorf("%w: project %s", domain.ErrVersionConflict, project)
			}
		case err != nil:
			return fmt.Errorf("failed to load project state: %w", err)
		default:
			if state.Version != row.Version {
				return fmt.Errorf("%w: project %s", domain.ErrVersionConflict, project)
			}
		}

		state.Version++
		doc, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to marshal project state: %w", err)
		}

		row.ProjectName = project
		row.Document = string(doc)
		row.Version = state.Version
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to save project state: %w", err)
		}
		return nil
	})
}
