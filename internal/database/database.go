package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zhouzirui/profscope/backend/internal/config"
	"github.com/zhouzirui/profscope/backend/internal/logging"
)

// MemoryDSN selects a shared in-memory SQLite database.
const MemoryDSN = "memory"

// Open connects to the rating record database described by cfg.
// For sqlite, "memory" (or an empty DSN) opens a shared in-memory database and any
// other value is treated as a file path whose directory is created on demand.
func Open(cfg config.StoreConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{Logger: newLogger()}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverMySQL:
		log.Info().Str("driver", cfg.Driver).Msg("opening mysql record store")
		dialector = mysql.Open(cfg.DSN)
	case config.DriverSQLite, "":
		dsn, err := sqliteDSN(cfg.DSN)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", config.DriverSQLite).Str("dsn", dsn).Msg("opening sqlite record store")
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported record store driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to record store (driver %q): %w", cfg.Driver, err)
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func sqliteDSN(dsn string) (string, error) {
	if dsn == MemoryDSN || dsn == "" {
		return "file::memory:?cache=shared", nil
	}
	if strings.HasPrefix(dsn, "file:") {
		return dsn, nil
	}

	dir := filepath.Dir(dsn)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory %q: %w", dir, err)
		}
	}
	return dsn, nil
}

// newLogger routes gorm's slow-query and error output through zerolog.
func newLogger() logger.Interface {
	l := logging.Component("gorm")
	return logger.New(&l, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
