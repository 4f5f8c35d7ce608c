package utils

import (
	"database/sql"
	"net/url"

	_ "github.com/lib/pq"
)

// BuildPostgresDSNFromEnv：由 PG_* 变量拼接 DSN
func BuildPostgresDSNFromEnv() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   Env("PG_HOST", "localhost") + ":" + Env("PG_PORT", "5432"),
		Path:   "/" + Env("PG_DB", "address"),
	}
	if pass := Env("PG_PASSWORD", ""); pass != "" {
		u.User = url.UserPassword(Env("PG_USER", "postgres"), pass)
	} else {
		u.User = url.User(Env("PG_USER", "postgres"))
	}
	q := url.Values{}
	q.Set("sslmode", Env("PG_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

// OpenPostgres：打开连接池；sql.Open 不建立连接，调用方自行 Ping
func OpenPostgres(dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return db, nil
}

// OpenPostgresFromEnv：读取 PG_* 与连接池参数
func OpenPostgresFromEnv() (*sql.DB, error) {
	return OpenPostgres(BuildPostgresDSNFromEnv(), EnvInt("PG_MAX_OPEN_CONNS", 20), EnvInt("PG_MAX_IDLE_CONNS", 10))
}
