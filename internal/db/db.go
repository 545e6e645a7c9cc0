package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiselevos/lingua_practice_bot/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Db struct {
	*gorm.DB
}

// NewDB - создание нового подключения к DB с ретраями.
func NewDB(conf *config.DbConfig) (*Db, error) {
	var lastErr error

	for i := 1; i <= conf.MaxAttempts; i++ {
		gdb, err := gorm.Open(postgres.Open(conf.Dsn), &gorm.Config{
			PrepareStmt:            true,
			SkipDefaultTransaction: true,
			Logger:                 logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			sqlDB, err := gdb.DB()
			if err == nil {
				sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
				sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
				sqlDB.SetConnMaxLifetime(conf.ConnMaxLifetime)

				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				if err = sqlDB.PingContext(ctx); err == nil {
					cancel()
					return &Db{gdb}, nil
				}
				cancel()
			}
			lastErr = err
		} else {
			lastErr = err
		}

		slog.Warn("database connection failed, retrying...",
			"attempt", i, "err", lastErr)
		time.Sleep(conf.Delay)
	}

	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", conf.MaxAttempts, lastErr)
}
