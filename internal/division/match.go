package division

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 行政级别前后缀：匹配前剥离，"Thành phố Hà Nội" 与 "Hanoi" 视为同名
var namePrefixes = []string{"thanh pho ", "tinh ", "tp ", "quan ", "huyen ", "thi xa ", "phuong ", "xa ", "province of ", "city of "}
var nameSuffixes = []string{" province", " city", " municipality"}

// normalizeName：去声调、大小写折叠、去前后缀与空白
// 约束：transform 链有状态，每次调用新建。
func normalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		out = strings.ToLower(s)
	}
	out = strings.NewReplacer("đ", "d", "_", " ", "-", " ", ".", " ").Replace(out)
	out = strings.Join(strings.Fields(out), " ")
	for _, p := range namePrefixes {
		if strings.HasPrefix(out, p) {
			out = strings.TrimPrefix(out, p)
			break
		}
	}
	for _, p := range nameSuffixes {
		if strings.HasSuffix(out, p) {
			out = strings.TrimSuffix(out, p)
			break
		}
	}
	return strings.ReplaceAll(out, " ", "")
}

func buildNameIndex(regions []Region) map[string]int {
	idx := make(map[string]int, len(regions)*2)
	for i, reg := range regions {
		for _, k := range []string{reg.Name, reg.Codename} {
			if k == "" {
				continue
			}
			if n := normalizeName(k); n != "" {
				if _, ok := idx[n]; !ok {
					idx[n] = i
				}
			}
		}
	}
	return idx
}

// MatchRegion：按名称模糊匹配省级（忽略声调、大小写、行政级别前后缀）
// 背景：GeoIP 等外部来源给出的是英文或无声调省名，需映射回数据集编码。
func (r *Resolver) MatchRegion(name string) (Region, bool) {
	n := normalizeName(name)
	if n == "" {
		return Region{}, false
	}
	i, ok := r.names[n]
	if !ok {
		return Region{}, false
	}
	return cloneRegion(r.regions[i]), true
}
