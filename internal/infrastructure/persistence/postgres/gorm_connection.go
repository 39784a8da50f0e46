// Package postgres provides the gorm-backed prediction log. The database is
// optional: with it disabled the service runs scoring-only and analytics
// endpoints report no data.
package postgres

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fraudguard/fraudguard/internal/config"
	"github.com/fraudguard/fraudguard/internal/domain/models"
	"github.com/fraudguard/fraudguard/pkg/errors"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

// NewDatabase opens the connection pool and migrates the prediction log
// schema.
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.ErrDatabase.WithError(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.ErrDatabase.WithError(err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, errors.ErrDatabase.WithError(err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.PredictionRecord{}); err != nil {
		return nil, errors.ErrDatabase.WithError(err)
	}

	log.Info(ctx, "database connection established", logger.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	})
	return db, nil
}
