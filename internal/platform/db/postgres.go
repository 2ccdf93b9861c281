package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps DB connectivity for either postgres or embedded sqlite.
type Database struct {
	DB     *gorm.DB
	Driver string
}

// Connect opens postgres when dsn is set, otherwise sqlite at sqlitePath.
func Connect(dsn string, sqlitePath string) (*Database, error) {
	switch {
	case dsn != "":
		return ConnectPostgres(dsn)
	case sqlitePath != "":
		return ConnectSQLite(sqlitePath)
	default:
		return nil, errors.New("postgres dsn or sqlite path is required")
	}
}

func ConnectPostgres(dsn string) (*Database, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}
	if err := ping(db); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Database{DB: db, Driver: "postgres"}, nil
}

// ConnectSQLite opens a file database in WAL mode. Writers are serialized by
// the repository, the busy timeout covers readers racing a commit.
func ConnectSQLite(path string) (*Database, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm sqlite: %w", err)
	}
	if err := ping(db); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Database{DB: db, Driver: "sqlite"}, nil
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("resolve sql db handle: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return err
	}
	return nil
}

// Migrate creates or updates the tables of models.
func (d *Database) Migrate(ctx context.Context, models ...any) error {
	if d == nil || d.DB == nil {
		return errors.New("database is not connected")
	}
	if err := d.DB.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate %s: %w", d.Driver, err)
	}
	return nil
}

func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
