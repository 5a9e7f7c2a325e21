package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"leadcrm/internal/config"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type Database struct {
	*sql.DB
}

func NewDatabase(cfg config.DatabaseConfig) (Database, error) {
	db, err := sql.Open("postgres", ConnString(cfg))
	if err != nil {
		return Database{}, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Minute * 10)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return Database{}, fmt.Errorf("failed to close database: %w", closeErr)
		}
		return Database{}, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Connected to database", "host", cfg.Host, "name", cfg.Name)
	return Database{DB: db}, nil
}

func ConnString(cfg config.DatabaseConfig) string {
	return "host=" + cfg.Host +
		" port=" + strconv.Itoa(cfg.Port) +
		" user=" + cfg.User +
		" password=" + cfg.Password +
		" dbname=" + cfg.Name +
		" sslmode=" + cfg.SSLMode
}
