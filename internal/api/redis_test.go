package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"address-api/internal/division"
	"address-api/internal/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return mr, rc
}

func TestNames_RedisReadThrough(t *testing.T) {
	mr, rc := newTestRedis(t)
	res := testResolver(t)
	mux := BuildRoutes(Deps{Resolver: res, Redis: rc, CacheTTL: time.Minute})

	hits := testutil.ToFloat64(metrics.RedisHitsTotal)
	misses := testutil.ToFloat64(metrics.RedisMissesTotal)
	target := "/address/names?region=1&subregion=1&locality=4"
	want := map[string]any{
		"region":    "Thành phố Hà Nội",
		"subregion": "Quận Ba Đình",
		"locality":  "Phường Trúc Bạch",
	}

	_, body := do(t, mux, target)
	assert.Equal(t, want, body)
	assert.Equal(t, misses+1, testutil.ToFloat64(metrics.RedisMissesTotal))
	assert.Equal(t, hits, testutil.ToFloat64(metrics.RedisHitsTotal))

	key := namesCacheKey(res.Fingerprint(), division.Codes{Region: division.C(1), SubRegion: division.C(1), Locality: division.C(4)})
	raw, err := mr.Get(key)
	require.NoError(t, err)
	var cached division.Names
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, "Phường Trúc Bạch", cached.Locality)
	assert.Equal(t, time.Minute, mr.TTL(key))

	_, body = do(t, mux, target)
	assert.Equal(t, want, body)
	assert.Equal(t, hits+1, testutil.ToFloat64(metrics.RedisHitsTotal))
	assert.Equal(t, misses+1, testutil.ToFloat64(metrics.RedisMissesTotal))

	// 缓存值优先于内存数据
	mr.Set(key, `{"locality":"cached"}`)
	_, body = do(t, mux, "/address/format?region=1&subregion=1&locality=4")
	assert.Equal(t, "cached", body["address"])

	// 损坏的缓存值按未命中处理并回写
	mr.Set(key, "not json")
	_, body = do(t, mux, target)
	assert.Equal(t, want, body)
	raw, err = mr.Get(key)
	require.NoError(t, err)
	assert.NotEqual(t, "not json", raw)
}

func TestNames_CacheKeyFollowsDataset(t *testing.T) {
	mr, rc := newTestRedis(t)
	a := testResolver(t)
	b, err := division.New([]division.Region{{Code: 1, Name: "Other Region"}})
	require.NoError(t, err)
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	_, body := do(t, BuildRoutes(Deps{Resolver: a, Redis: rc}), "/address/names?region=1")
	assert.Equal(t, "Thành phố Hà Nội", body["region"])

	_, body = do(t, BuildRoutes(Deps{Resolver: b, Redis: rc}), "/address/names?region=1")
	assert.Equal(t, "Other Region", body["region"])
	assert.Len(t, mr.Keys(), 2)
}

func TestStats_VisitorDedupe(t *testing.T) {
	_, rc := newTestRedis(t)
	stats := &fakeStats{}
	mux := BuildRoutes(Deps{Resolver: testResolver(t), Stats: stats, Redis: rc})

	send := func(ip string) {
		req := httptest.NewRequest(http.MethodGet, "/address/names?region=1", nil)
		req.Header.Set("x-real-ip", ip)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	send("1.1.1.1")
	send("1.1.1.1")
	send("2.2.2.2")
	send("1.1.1.1")

	assert.Equal(t, 4, stats.queries)
	assert.Equal(t, 2, stats.visitors)
}

func TestBloomCheckAndSet_Redis(t *testing.T) {
	mr, rc := newTestRedis(t)
	ctx := context.Background()
	key := visitorBloomKey(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	p := bloomPositions([]byte("9.9.9.9"), 1<<20, 4)

	first, err := bloomCheckAndSet(ctx, rc, key, p, time.Hour)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, time.Hour, mr.TTL(key))

	first, err = bloomCheckAndSet(ctx, rc, key, p, time.Hour)
	require.NoError(t, err)
	assert.False(t, first)

	other := bloomPositions([]byte("8.8.8.8"), 1<<20, 4)
	first, err = bloomCheckAndSet(ctx, rc, key, other, time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	mr.Close()
	first, err = bloomCheckAndSet(ctx, rc, key, p, time.Hour)
	assert.Error(t, err)
	assert.False(t, first)
}
