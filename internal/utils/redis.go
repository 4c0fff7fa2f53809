package utils

import (
	"github.com/redis/go-redis/v9"

	"geotruth/internal/logger"
)

// OpenRedis：按地址、密码与库号打开 Redis 客户端
// 约束：地址为空时返回 nil，调用方据此视为禁用
func OpenRedis(addr, pass string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	if db < 0 {
		db = 0
	}
	logger.L().Debug("redis_open", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}
