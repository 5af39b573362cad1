// Package db handles database connection, migration, and seeding.
package db

import (
	"errors"
	"fmt"
	"strings"

	sqldriver "github.com/go-sql-driver/mysql"
	"github.com/zulandar/sprintyard/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN from connection settings.
func DSN(host string, port int, database string) string {
	return fmt.Sprintf("root@tcp(%s:%d)/%s?parseTime=true", host, port, database)
}

// Connect opens a GORM connection according to the configured driver.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DB.Driver {
	case "mysql":
		return ConnectMySQL(cfg.DB.Host, cfg.DB.Port, cfg.DB.Database)
	case "sqlite":
		return ConnectSQLite(cfg.DB.Path)
	default:
		return nil, fmt.Errorf("db: unknown driver %q", cfg.DB.Driver)
	}
}

// ConnectMySQL opens a GORM connection to a MySQL server.
func ConnectMySQL(host string, port int, database string) (*gorm.DB, error) {
	dsn := DSN(host, port, database)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", host, port, database, err)
	}
	return db, nil
}

// ConnectSQLite opens a GORM connection to a SQLite file. Pass ":memory:"
// for an in-memory database.
func ConnectSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite %s: %w", path, err)
	}
	return db, nil
}

// IsDuplicate reports whether err is a unique-constraint violation. Generated
// work-item codes carry unique indexes, so a concurrent-creation race surfaces
// as this error and the caller can retry generation.
func IsDuplicate(err error) bool {
	var mysqlErr *sqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	// SQLite reports constraint violations by message only.
	return err != nil &&
		(errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "UNIQUE constraint failed"))
}
