// 包 division：三级行政区（省/区县/乡镇街道）按编码查询与地址拼接；数据加载后只读
package division

import (
	"strconv"
	"strings"
)

// 文档注释：最细层级（乡镇/街道）
type Locality struct {
	Code     int    `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"division_type,omitempty"`
	Codename string `json:"codename,omitempty"`
}

// 文档注释：中间层级（区县），Localities 保持数据源顺序
type SubRegion struct {
	Code       int        `json:"code"`
	Name       string     `json:"name"`
	Type       string     `json:"division_type,omitempty"`
	Codename   string     `json:"codename,omitempty"`
	Localities []Locality `json:"wards"`
}

// 文档注释：顶层（省/直辖市）
// 约束：返回值与数据集共享子切片，调用方只读，不得修改。
type Region struct {
	Code       int         `json:"code"`
	Name       string      `json:"name"`
	Type       string      `json:"division_type,omitempty"`
	Codename   string      `json:"codename,omitempty"`
	SubRegions []SubRegion `json:"districts"`
}

// Code：可缺省的编码参数，Valid=false 表示调用方未提供
type Code struct {
	Value int
	Valid bool
}

// C：构造已提供的编码
func C(v int) Code { return Code{Value: v, Valid: v >= 0} }

// ParseCode：解析查询参数中的编码
// 约束：空串、非数字、负数均视为缺省，不返回错误。
func ParseCode(s string) Code {
	s = strings.TrimSpace(s)
	if s == "" {
		return Code{}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return Code{}
	}
	return Code{Value: n, Valid: true}
}

func (c Code) String() string {
	if !c.Valid {
		return ""
	}
	return strconv.Itoa(c.Value)
}

// Codes：一次地址解析的三级编码，均可缺省
type Codes struct {
	Region    Code
	SubRegion Code
	Locality  Code
}

// Names：解析出的名称，空串表示该层未命中
type Names struct {
	Region    string `json:"region,omitempty"`
	SubRegion string `json:"subregion,omitempty"`
	Locality  string `json:"locality,omitempty"`
}

// Empty：三层均未命中
func (n Names) Empty() bool { return n.Region == "" && n.SubRegion == "" && n.Locality == "" }

// Join：按 乡镇、区县、省 顺序拼接非空名称；全部为空时返回 fallback
func (n Names) Join(sep, fallback string) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{n.Locality, n.SubRegion, n.Region} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, sep)
}

// Stats：各层级条目数
type Stats struct {
	Regions    int `json:"regions"`
	SubRegions int `json:"subregions"`
	Localities int `json:"localities"`
}
