package database

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bihari123/reelpick/config"
	"github.com/bihari123/reelpick/logger"
)

var DB *gorm.DB
var RedisClient *redis.Client

// InitCatalog opens the embedded SQLite catalog. WAL and a busy timeout are
// set through the DSN so every pooled connection carries them; the pool
// itself is bounded by the database/sql settings underneath gorm.
func InitCatalog(cfg *config.CatalogConfig) error {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, cfg.BusyTimeoutMs)

	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("catalog pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxConnections)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.IdleTimeoutSecs) * time.Second)

	logger.L().Infow("catalog opened", "path", cfg.Path, "max_connections", cfg.MaxConnections)
	return nil
}

func InitRedis(cfg *config.RedisConfig) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	logger.L().Infow("redis client initialized", "addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	return nil
}
