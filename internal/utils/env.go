// 包 utils：环境变量读取与外部连接（Postgres/Redis/TLS）的初始化工具
package utils

import (
	"os"
	"strconv"
	"strings"
)

// Env：读取字符串，空值回退 def
func Env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvInt：读取整数，解析失败或为空回退 def
func EnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// EnvBool：true/1/yes 为真，false/0/no 为假，其余回退 def
func EnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}
