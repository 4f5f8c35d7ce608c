// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"address-api/internal/api"
	"address-api/internal/division"
	"address-api/internal/iplocate"
	"address-api/internal/logger"
	"address-api/internal/metrics"
	"address-api/internal/middleware"
	"address-api/internal/migrate"
	"address-api/internal/store"
	"address-api/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")
	apiBase := utils.Env("API_BASE", "/api")
	l.Debug("config_api_base", "base", apiBase)

	ctx := context.Background()

	var st *store.Store
	if utils.EnvBool("DB_ENABLE", true) {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		st = openStore(ctx, l, db)
	} else {
		l.Info("db_disabled")
	}

	res, err := loadResolver(ctx, l, st)
	if err != nil {
		l.Error("division_load_error", "err", err)
		os.Exit(1)
	}
	ds := res.Stats()
	metrics.DatasetNodes.WithLabelValues("region").Set(float64(ds.Regions))
	metrics.DatasetNodes.WithLabelValues("subregion").Set(float64(ds.SubRegions))
	metrics.DatasetNodes.WithLabelValues("locality").Set(float64(ds.Localities))
	l.Info("division_ready", "regions", ds.Regions, "subregions", ds.SubRegions, "localities", ds.Localities)

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	}

	loc, closers := openLocator(l)
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				l.Debug("iplocate_close_error", "err", err)
			}
		}
	}()
	deps := api.Deps{
		Resolver: res,
		Redis:    rc,
		Locator:  loc,
		CacheTTL: time.Duration(utils.EnvInt("CACHE_TTL_S", 3600)) * time.Second,
	}
	if st != nil {
		deps.Stats = st
	}

	mux := http.NewServeMux()
	// 文档注释：构建路由
	apiMux := api.BuildRoutes(deps)
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())

	addr := utils.Env("ADDR", ":8080")
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	if utils.EnvBool("TLS_ENABLE", false) {
		certPath := utils.Env("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
		keyPath := utils.Env("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "address-api.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		if err := s.ListenAndServeTLS(certPath, keyPath); err != nil {
			l.Error("server_error", "err", err)
		}
		return
	}
	l.Info("listening", "addr", addr)
	if err := s.ListenAndServe(); err != nil {
		l.Error("server_error", "err", err)
	}
}

// openStore：数据库不可用时降级为无统计，不阻断启动
func openStore(ctx context.Context, l *slog.Logger, db *sql.DB) *store.Store {
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		l.Error("db_ping_error", "err", err)
		return nil
	}
	l.Info("db_ping_ok")
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		return nil
	}
	return store.AttachDB(db)
}

// 文档注释：选择行政区数据来源
// 优先级：DIVISION_FROM_DB（需数据库）> DIVISION_FILE > 内置数据。
func loadResolver(ctx context.Context, l *slog.Logger, st *store.Store) (*division.Resolver, error) {
	var opts []division.Option
	if sep, ok := os.LookupEnv("ADDRESS_SEPARATOR"); ok {
		opts = append(opts, division.WithSeparator(sep))
	}
	if utils.EnvBool("DIVISION_FROM_DB", false) {
		if st == nil {
			l.Warn("division_db_unavailable", "fallback", "file")
		} else {
			regions, err := st.LoadRegions(ctx)
			if err == nil && len(regions) > 0 {
				l.Info("division_source", "source", "db")
				return division.New(regions, opts...)
			}
			l.Warn("division_db_empty", "err", err)
		}
	}
	if path := os.Getenv("DIVISION_FILE"); path != "" {
		l.Info("division_source", "source", "file", "path", path)
		return division.LoadFile(path, opts...)
	}
	l.Info("division_source", "source", "bundled")
	l.Warn("division_bundled_sample", "detail", "district and ward levels are partial; set DIVISION_FILE or DIVISION_FROM_DB for the full tree")
	if len(opts) == 0 {
		return division.Default(), nil
	}
	return division.New(division.Default().Regions(), opts...)
}

// openLocator：按配置组合 GeoIP 与 IP2Region；均未配置时返回 nil。closers 由调用方在退出时关闭
func openLocator(l *slog.Logger) (iplocate.Locator, []io.Closer) {
	var list []iplocate.Locator
	var closers []io.Closer
	if p := os.Getenv("GEOIP_CITY_PATH"); p != "" {
		if g, err := iplocate.OpenGeoIP(p, utils.Env("GEOIP_LANG", "en")); err == nil {
			typ, epoch := g.Describe()
			l.Info("geoip_ready", "path", p, "type", typ, "build_epoch", epoch)
			list = append(list, g)
			closers = append(closers, g)
		} else {
			l.Error("geoip_open_error", "path", p, "err", err)
		}
	}
	if p := os.Getenv("IP2REGION_V4_PATH"); p != "" {
		if c, err := iplocate.OpenIP2Region(p); err == nil {
			l.Info("ip2region_ready", "path", p)
			list = append(list, c)
			closers = append(closers, c)
		} else {
			l.Error("ip2region_error", "path", p, "err", err)
		}
	}
	if len(list) == 0 {
		l.Info("iplocate_disabled")
		return nil, nil
	}
	ttl := time.Duration(utils.EnvInt("IPLOCATE_CACHE_TTL_S", 600)) * time.Second
	return iplocate.NewCached(iplocate.NewChain(list...), utils.EnvInt("IPLOCATE_CACHE_SIZE", 10000), ttl), closers
}
