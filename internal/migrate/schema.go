package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"address-api/internal/logger"
)

// 文档注释：首次运行建表；全部语句幂等
// 约束：行政区三表以编码为主键，父编码不加外键，导入时整棵树在同一事务内写入。
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS _div_regions (
        code INT PRIMARY KEY,
        name TEXT NOT NULL,
        division_type TEXT NOT NULL DEFAULT '',
        codename TEXT NOT NULL DEFAULT '',
        ord INT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS _div_subregions (
        code INT PRIMARY KEY,
        region_code INT NOT NULL,
        name TEXT NOT NULL,
        division_type TEXT NOT NULL DEFAULT '',
        codename TEXT NOT NULL DEFAULT '',
        ord INT NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_div_subregions_parent ON _div_subregions(region_code, ord)`,
	`CREATE TABLE IF NOT EXISTS _div_localities (
        code INT PRIMARY KEY,
        subregion_code INT NOT NULL,
        name TEXT NOT NULL,
        division_type TEXT NOT NULL DEFAULT '',
        codename TEXT NOT NULL DEFAULT '',
        ord INT NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_div_localities_parent ON _div_localities(subregion_code, ord)`,
	`CREATE TABLE IF NOT EXISTS _addr_stats_total (
        id INT PRIMARY KEY,
        total_queries BIGINT NOT NULL DEFAULT 0,
        total_visitors BIGINT NOT NULL DEFAULT 0
    )`,
	`CREATE TABLE IF NOT EXISTS _addr_stats_daily (
        day DATE PRIMARY KEY,
        queries BIGINT NOT NULL DEFAULT 0,
        visitors BIGINT NOT NULL DEFAULT 0
    )`,
	`INSERT INTO _addr_stats_total(id, total_queries, total_visitors)
     VALUES(1, 0, 0)
     ON CONFLICT (id) DO NOTHING`,
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("schema stmt %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done", "stmts", len(stmts))
	return nil
}
