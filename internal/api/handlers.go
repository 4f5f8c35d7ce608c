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
)

// divisionView：对外返回的单个行政区，不含下级
type divisionView struct {
	Code     int    `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"division_type,omitempty"`
	Codename string `json:"codename,omitempty"`
}

func regionView(x division.Region) divisionView {
	return divisionView{Code: x.Code, Name: x.Name, Type: x.Type, Codename: x.Codename}
}

func subRegionView(x division.SubRegion) divisionView {
	return divisionView{Code: x.Code, Name: x.Name, Type: x.Type, Codename: x.Codename}
}

func localityView(x division.Locality) divisionView {
	return divisionView{Code: x.Code, Name: x.Name, Type: x.Type, Codename: x.Codename}
}

func viewsOf[T any](xs []T, f func(T) divisionView) []divisionView {
	out := make([]divisionView, 0, len(xs))
	for _, x := range xs {
		out = append(out, f(x))
	}
	return out
}

func pathCode(w http.ResponseWriter, r *http.Request) (division.Code, bool) {
	c := division.ParseCode(r.PathValue("code"))
	if !c.Valid {
		writeError(w, http.StatusBadRequest, "invalid code")
		return c, false
	}
	return c, true
}

func codesFromQuery(r *http.Request) division.Codes {
	q := r.URL.Query()
	return division.Codes{
		Region:    division.ParseCode(q.Get("region")),
		SubRegion: division.ParseCode(q.Get("subregion")),
		Locality:  division.ParseCode(q.Get("locality")),
	}
}

func (s *server) handleRegions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewsOf(s.Resolver.Regions(), regionView))
}

func (s *server) handleRegion(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r)
	if !ok {
		return
	}
	reg, found := s.Resolver.FindRegion(code)
	metrics.ObserveLookup("region", found)
	if !found {
		writeError(w, http.StatusNotFound, "region not found")
		return
	}
	writeJSON(w, http.StatusOK, regionView(reg))
}

func (s *server) handleRegionSubRegions(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r)
	if !ok {
		return
	}
	if _, found := s.Resolver.FindRegion(code); !found {
		writeError(w, http.StatusNotFound, "region not found")
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(s.Resolver.SubRegionsOf(code), subRegionView))
}

func (s *server) handleSubRegion(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r)
	if !ok {
		return
	}
	region := division.ParseCode(r.URL.Query().Get("region"))
	sub, found := s.Resolver.FindSubRegion(code, region)
	metrics.ObserveLookup("subregion", found)
	if !found {
		writeError(w, http.StatusNotFound, "subregion not found")
		return
	}
	writeJSON(w, http.StatusOK, subRegionView(sub))
}

func (s *server) handleSubRegionLocalities(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r)
	if !ok {
		return
	}
	if _, found := s.Resolver.FindSubRegion(code, division.Code{}); !found {
		writeError(w, http.StatusNotFound, "subregion not found")
		return
	}
	writeJSON(w, http.StatusOK, viewsOf(s.Resolver.LocalitiesOf(code), localityView))
}

func (s *server) handleLocality(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	loc, found := s.Resolver.FindLocality(code, division.ParseCode(q.Get("subregion")), division.ParseCode(q.Get("region")))
	metrics.ObserveLookup("locality", found)
	if !found {
		writeError(w, http.StatusNotFound, "locality not found")
		return
	}
	writeJSON(w, http.StatusOK, localityView(loc))
}

// namesCacheKey：键内带数据集摘要，数据集变化或多实例共用 Redis 时互不串用
func namesCacheKey(fp string, c division.Codes) string {
	return "addr:names:" + fp + ":" + c.Region.String() + ":" + c.SubRegion.String() + ":" + c.Locality.String()
}

// resolveNames：Redis 读穿缓存；未启用 Redis 时直接查询内存数据
func (s *server) resolveNames(ctx context.Context, c division.Codes) division.Names {
	if s.Redis == nil {
		n := s.Resolver.ResolveNames(c)
		observeNames(c, n)
		return n
	}
	key := namesCacheKey(s.Resolver.Fingerprint(), c)
	if v, err := s.Redis.Get(ctx, key).Result(); err == nil && v != "" {
		var n division.Names
		if json.Unmarshal([]byte(v), &n) == nil {
			metrics.RedisHitsTotal.Inc()
			return n
		}
	}
	metrics.RedisMissesTotal.Inc()
	// 同一键的并发未命中合并为一次解析与回写
	v, _, _ := s.fill.Do(key, func() (any, error) {
		n := s.Resolver.ResolveNames(c)
		observeNames(c, n)
		b, _ := json.Marshal(n)
		if err := s.Redis.Set(ctx, key, b, s.CacheTTL).Err(); err != nil {
			logger.L().Debug("redis_set_error", "key", key, "err", err)
		}
		return n, nil
	})
	return v.(division.Names)
}

func observeNames(c division.Codes, n division.Names) {
	if c.Region.Valid {
		metrics.ObserveLookup("region", n.Region != "")
	}
	if c.SubRegion.Valid {
		metrics.ObserveLookup("subregion", n.SubRegion != "")
	}
	if c.Locality.Valid {
		metrics.ObserveLookup("locality", n.Locality != "")
	}
}

func (s *server) handleNames(w http.ResponseWriter, r *http.Request) {
	n := s.resolveNames(r.Context(), codesFromQuery(r))
	s.recordStats(r)
	writeJSON(w, http.StatusOK, n)
}

func (s *server) handleFormat(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sep := s.Resolver.Separator()
	if q.Has("sep") {
		sep = q.Get("sep")
	}
	n := s.resolveNames(r.Context(), codesFromQuery(r))
	if n.Empty() {
		metrics.FallbackAddressTotal.Inc()
	}
	s.recordStats(r)
	writeJSON(w, http.StatusOK, map[string]string{"address": n.Join(sep, q.Get("fallback"))})
}

type guessResult struct {
	IP      string         `json:"ip"`
	Guess   iplocate.Guess `json:"guess"`
	Matched bool           `json:"matched"`
	Region  *divisionView  `json:"region,omitempty"`
}

func (s *server) handleGuess(w http.ResponseWriter, r *http.Request) {
	if s.Locator == nil {
		writeError(w, http.StatusServiceUnavailable, "ip locate disabled")
		return
	}
	ip := getClientIP(r)
	out := guessResult{IP: ip}
	g, ok := s.Locator.Lookup(ip)
	if !ok {
		metrics.GuessTotal.WithLabelValues("none", "miss").Inc()
		writeJSON(w, http.StatusOK, out)
		return
	}
	out.Guess = g
	for _, name := range []string{g.Province, g.City, g.Region} {
		if reg, found := s.Resolver.MatchRegion(name); found {
			v := regionView(reg)
			out.Region = &v
			out.Matched = true
			break
		}
	}
	res := "unmatched"
	if out.Matched {
		res = "matched"
	}
	metrics.GuessTotal.WithLabelValues(g.Source, res).Inc()
	logger.L().Debug("address_guess", "ip", ip, "source", g.Source, "province", g.Province, "matched", out.Matched)
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "stats disabled")
		return
	}
	t, err := s.Stats.GetTotals(r.Context())
	if err != nil {
		logger.L().Error("stats_read_error", "err", err)
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// recordStats：累加查询计数；访客按 IP 每日去重，未启用 Redis 时无法去重，只计查询数
func (s *server) recordStats(r *http.Request) {
	if s.Stats == nil {
		return
	}
	ctx := r.Context()
	first, err := bloomCheckAndSet(ctx, s.Redis, visitorBloomKey(s.now()), bloomPositions([]byte(getClientIP(r)), 1<<20, 4), 48*time.Hour)
	if err != nil {
		logger.L().Debug("bloom_error", "err", err)
	}
	if err := s.Stats.IncrStats(ctx, first); err != nil {
		logger.L().Debug("stats_write_error", "err", err)
	}
}
