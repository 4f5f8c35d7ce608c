package iplocate

import (
	"strings"

	"github.com/lionsoul2014/ip2region/binding/golang/xdb"
)

// 文档注释：IP2Region xdb 离线库
// 约束：仅加载 v4 库；记录格式为 国家|区域|省份|城市|运营商，"0" 视为空。
type IP2Region struct {
	v4 *xdb.Searcher
}

func OpenIP2Region(v4Path string) (*IP2Region, error) {
	s, err := xdb.NewWithFileOnly(xdb.IPv4, v4Path)
	if err != nil {
		return nil, err
	}
	return &IP2Region{v4: s}, nil
}

func (c *IP2Region) Lookup(ip string) (Guess, bool) {
	if ip == "" || c.v4 == nil {
		return Guess{}, false
	}
	region, err := c.v4.SearchByStr(ip)
	if err != nil || region == "" {
		return Guess{}, false
	}
	g := parseRegion(region)
	if g.Province == "" && g.Country == "" {
		return Guess{}, false
	}
	return g, true
}

func (c *IP2Region) Close() error {
	if c.v4 != nil {
		c.v4.Close()
		c.v4 = nil
	}
	return nil
}

func parseRegion(s string) Guess {
	parts := strings.Split(s, "|")
	g := Guess{Source: "ip2region"}
	if len(parts) > 0 {
		g.Country = clean(parts[0])
	}
	if len(parts) > 1 {
		g.Region = clean(parts[1])
	}
	if len(parts) > 2 {
		g.Province = clean(parts[2])
	}
	if len(parts) > 3 {
		g.City = clean(parts[3])
	}
	return g
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	if s == "0" || strings.EqualFold(s, "unknown") {
		return ""
	}
	return s
}
