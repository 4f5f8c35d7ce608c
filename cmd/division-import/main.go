package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"time"

	"address-api/internal/division"
	"address-api/internal/logger"
	"address-api/internal/migrate"
	"address-api/internal/store"
	"address-api/internal/utils"

	"github.com/joho/godotenv"
)

// 文档注释：行政区数据导入
// 背景：服务端可通过 DIVISION_FROM_DB 从数据库加载行政区树；本工具负责校验并写入。
// 约束：先完整校验（编码非负且各层唯一）再开启事务，校验失败不触碰数据库；-dry-run 只校验。
func main() {
	file := flag.String("file", "", "dataset JSON; empty uses DIVISION_FILE or the bundled data")
	dryRun := flag.Bool("dry-run", false, "validate only")
	timeout := flag.Duration("timeout", 2*time.Minute, "import timeout")
	flag.Parse()

	_ = godotenv.Load(".env")
	l := logger.Setup()

	path := *file
	if path == "" {
		path = os.Getenv("DIVISION_FILE")
	}
	var (
		regions []division.Region
		err     error
	)
	if path != "" {
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			l.Error("division_open_error", "path", path, "err", err)
			os.Exit(1)
		}
		regions, err = division.ParseJSON(f)
		f.Close()
	} else {
		path = "bundled"
		regions, err = division.ParseJSON(bytes.NewReader(division.Bundled()))
	}
	if err != nil {
		l.Error("division_parse_error", "path", path, "err", err)
		os.Exit(1)
	}
	res, err := division.New(regions)
	if err != nil {
		l.Error("division_invalid", "path", path, "err", err)
		os.Exit(1)
	}
	ds := res.Stats()
	l.Info("division_valid", "path", path, "regions", ds.Regions, "subregions", ds.SubRegions, "localities", ds.Localities)
	if *dryRun {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)
	defer st.Close()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	t0 := time.Now()
	if err := st.ImportRegions(ctx, res.Regions()); err != nil {
		l.Error("division_import_error", "err", err)
		os.Exit(1)
	}
	l.Info("division_import_done", "elapsed_ms", time.Since(t0).Milliseconds())
}
