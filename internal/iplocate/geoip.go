package iplocate

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

// 文档注释：MaxMind City mmdb 数据源
// 背景：省级取第一层 Subdivision；名称优先使用指定语言，缺失时回退英文。
// 约束：要求库类型为 City（GeoLite2-City/GeoIP2-City），否则打开失败。
type GeoIP struct {
	r    *geoip2.Reader
	lang string
}

func OpenGeoIP(path, lang string) (*GeoIP, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	if err := checkCityDB(r.Metadata()); err != nil {
		_ = r.Close()
		return nil, err
	}
	if lang == "" {
		lang = "en"
	}
	return &GeoIP{r: r, lang: lang}, nil
}

func checkCityDB(m maxminddb.Metadata) error {
	if !strings.Contains(m.DatabaseType, "City") {
		return fmt.Errorf("geoip: unsupported database type %q", m.DatabaseType)
	}
	return nil
}

// Describe：库类型与构建时间，用于启动日志
func (g *GeoIP) Describe() (string, uint) {
	m := g.r.Metadata()
	return m.DatabaseType, m.BuildEpoch
}

func (g *GeoIP) Lookup(ip string) (Guess, bool) {
	p := net.ParseIP(strings.TrimSpace(ip))
	if p == nil {
		return Guess{}, false
	}
	rec, err := g.r.City(p)
	if err != nil {
		return Guess{}, false
	}
	out := Guess{Source: "geoip", Country: g.name(rec.Country.Names)}
	if len(rec.Subdivisions) > 0 {
		out.Province = g.name(rec.Subdivisions[0].Names)
	}
	out.City = g.name(rec.City.Names)
	if out.Country == "" && out.Province == "" {
		return Guess{}, false
	}
	return out, true
}

func (g *GeoIP) name(names map[string]string) string {
	if v := names[g.lang]; v != "" {
		return v
	}
	return names["en"]
}

func (g *GeoIP) Close() error { return g.r.Close() }
