package utils

import (
	"address-api/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedisFromEnv：REDIS_ENABLE=false 时返回 nil，调用方按未启用处理
// 约束：REDIS_DB 解析失败或为负时使用 0。
func OpenRedisFromEnv() *redis.Client {
	if !EnvBool("REDIS_ENABLE", true) {
		return nil
	}
	addr := Env("REDIS_HOST", "127.0.0.1") + ":" + Env("REDIS_PORT", "6379")
	db := EnvInt("REDIS_DB", 0)
	if db < 0 {
		db = 0
	}
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: Env("REDIS_PASS", ""), DB: db})
}
