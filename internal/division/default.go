package division

import (
	"bytes"
	_ "embed"
	"sync"
)

//go:embed data/divisions.json
var bundled []byte

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// 文档注释：内置数据覆盖全部 63 个省级单位（编码与 provinces.open-api.vn 一致）
// 约束：区县、乡镇两级只收录部分城市的样例；完整数据通过 DIVISION_FILE 或数据库加载。
const BundledRegions = 63

// Bundled：随程序打包的原始数据
func Bundled() []byte { return bundled }

// Default：进程级只读解析器，首次调用时从内置数据构建
// 约束：内置数据损坏属于构建错误，直接 panic；不提供重新加载。
func Default() *Resolver {
	defaultOnce.Do(func() {
		regions, err := ParseJSON(bytes.NewReader(bundled))
		if err != nil {
			panic(err)
		}
		r, err := New(regions)
		if err != nil {
			panic(err)
		}
		defaultResolver = r
	})
	return defaultResolver
}

func FindRegion(code Code) (Region, bool) { return Default().FindRegion(code) }

func FindSubRegion(sub, region Code) (SubRegion, bool) { return Default().FindSubRegion(sub, region) }

func FindLocality(loc, sub, region Code) (Locality, bool) {
	return Default().FindLocality(loc, sub, region)
}

func ResolveNames(c Codes) Names { return Default().ResolveNames(c) }

func FormatAddress(c Codes, fallback string) string { return Default().FormatAddress(c, fallback) }
