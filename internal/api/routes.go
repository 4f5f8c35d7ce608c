// 包 api：集中注册 HTTP 路由，主入口挂载到 API_BASE 前缀下
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"address-api/internal/division"
	"address-api/internal/iplocate"
	"address-api/internal/logger"
	"address-api/internal/metrics"
	"address-api/internal/store"
	"address-api/internal/version"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// StatsStore：查询统计落库，nil 表示未启用数据库
type StatsStore interface {
	IncrStats(ctx context.Context, newVisitor bool) error
	GetTotals(ctx context.Context) (*store.Totals, error)
}

// Deps：路由依赖；除 Resolver 外均可为空
type Deps struct {
	Resolver *division.Resolver
	Stats    StatsStore
	Redis    *redis.Client
	Locator  iplocate.Locator
	CacheTTL time.Duration
}

type server struct {
	Deps
	now  func() time.Time
	fill singleflight.Group
}

// BuildRoutes：构建 API 路由
func BuildRoutes(d Deps) *http.ServeMux {
	if d.CacheTTL <= 0 {
		d.CacheTTL = time.Hour
	}
	s := &server{Deps: d, now: time.Now}
	mux := http.NewServeMux()
	s.handle(mux, "GET /regions", "regions", s.handleRegions)
	s.handle(mux, "GET /regions/{code}", "region", s.handleRegion)
	s.handle(mux, "GET /regions/{code}/subregions", "region_subregions", s.handleRegionSubRegions)
	s.handle(mux, "GET /subregions/{code}", "subregion", s.handleSubRegion)
	s.handle(mux, "GET /subregions/{code}/localities", "subregion_localities", s.handleSubRegionLocalities)
	s.handle(mux, "GET /localities/{code}", "locality", s.handleLocality)
	s.handle(mux, "GET /address/names", "address_names", s.handleNames)
	s.handle(mux, "GET /address/format", "address_format", s.handleFormat)
	s.handle(mux, "GET /address/guess", "address_guess", s.handleGuess)
	s.handle(mux, "GET /stats", "stats", s.handleStats)
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"commit":  version.Commit,
			"built":   version.BuildTime,
			"dataset": d.Resolver.Stats(),
		})
	})
	return mux
}

func (s *server) handle(mux *http.ServeMux, pattern, route string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		metrics.RequestsTotal.WithLabelValues(route).Inc()
		h(w, r)
		metrics.RequestDurationMs.WithLabelValues(route).Observe(float64(time.Since(t0).Microseconds()) / 1000)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Debug("json_encode_error", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
