package repositories

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func BuildContainer(db *gorm.DB, redisClient *redis.Client, sessionExpireSeconds int) Container {
	return Container{
		Sessions: NewRedisSessionRepository(redisClient, sessionExpireSeconds),
		Catalog:  NewGormCatalogRepository(db),
	}
}
