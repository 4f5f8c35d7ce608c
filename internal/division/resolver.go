package division

import (
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"strconv"
)

var (
	ErrEmptyDataset  = errors.New("division: empty dataset")
	ErrNegativeCode  = errors.New("division: negative code")
	ErrDuplicateCode = errors.New("division: duplicate code")
)

// DefaultSeparator：地址拼接默认分隔符
const DefaultSeparator = ", "

// 文档注释：三级行政区解析器
// 背景：先按调用方给出的上级编码缩小范围，未命中再全量扫描；上级编码仅作提示，不要求与下级一致。
// 约束：构建时深拷贝输入，对外只返回副本，构建后只读，可被任意多个协程并发调用；全量扫描为 O(总节点数)。
type Resolver struct {
	regions []Region
	sep     string
	stats   Stats
	names   map[string]int
	fp      string
}

type Option func(*Resolver)

// WithSeparator：设置 FormatAddress 使用的分隔符
func WithSeparator(sep string) Option {
	return func(r *Resolver) { r.sep = sep }
}

// New：校验并构建解析器
// 约束：编码必须非负，且每一层级在全数据集内唯一；否则返回包装了 ErrNegativeCode/ErrDuplicateCode 的错误。
func New(regions []Region, opts ...Option) (*Resolver, error) {
	if len(regions) == 0 {
		return nil, ErrEmptyDataset
	}
	r := &Resolver{regions: cloneRegions(regions), sep: DefaultSeparator}
	for _, o := range opts {
		o(r)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	r.names = buildNameIndex(r.regions)
	r.fp = fingerprint(r.regions)
	return r, nil
}

func (r *Resolver) validate() error {
	seenR := make(map[int]struct{}, len(r.regions))
	seenS := make(map[int]struct{})
	seenL := make(map[int]struct{})
	check := func(level string, code int, seen map[int]struct{}) error {
		if code < 0 {
			return fmt.Errorf("%w: %s %d", ErrNegativeCode, level, code)
		}
		if _, ok := seen[code]; ok {
			return fmt.Errorf("%w: %s %d", ErrDuplicateCode, level, code)
		}
		seen[code] = struct{}{}
		return nil
	}
	for _, reg := range r.regions {
		if err := check("region", reg.Code, seenR); err != nil {
			return err
		}
		for _, sub := range reg.SubRegions {
			if err := check("subregion", sub.Code, seenS); err != nil {
				return err
			}
			for _, loc := range sub.Localities {
				if err := check("locality", loc.Code, seenL); err != nil {
					return err
				}
			}
		}
	}
	r.stats = Stats{Regions: len(seenR), SubRegions: len(seenS), Localities: len(seenL)}
	return nil
}

func find[T any](xs []T, code int, key func(T) int) (*T, bool) {
	for i := range xs {
		if key(xs[i]) == code {
			return &xs[i], true
		}
	}
	return nil, false
}

func regionCode(x Region) int       { return x.Code }
func subRegionCode(x SubRegion) int { return x.Code }
func localityCode(x Locality) int   { return x.Code }

func (r *Resolver) region(code Code) (*Region, bool) {
	if !code.Valid {
		return nil, false
	}
	return find(r.regions, code.Value, regionCode)
}

func (r *Resolver) subRegion(sub, region Code) (*SubRegion, bool) {
	if !sub.Valid {
		return nil, false
	}
	if reg, ok := r.region(region); ok {
		if s, ok := find(reg.SubRegions, sub.Value, subRegionCode); ok {
			return s, true
		}
	}
	for i := range r.regions {
		if s, ok := find(r.regions[i].SubRegions, sub.Value, subRegionCode); ok {
			return s, true
		}
	}
	return nil, false
}

func (r *Resolver) locality(loc, sub, region Code) (*Locality, bool) {
	if !loc.Valid {
		return nil, false
	}
	if s, ok := r.subRegion(sub, region); ok {
		if l, ok := find(s.Localities, loc.Value, localityCode); ok {
			return l, true
		}
	}
	if reg, ok := r.region(region); ok {
		for i := range reg.SubRegions {
			if l, ok := find(reg.SubRegions[i].Localities, loc.Value, localityCode); ok {
				return l, true
			}
		}
	}
	for i := range r.regions {
		for j := range r.regions[i].SubRegions {
			if l, ok := find(r.regions[i].SubRegions[j].Localities, loc.Value, localityCode); ok {
				return l, true
			}
		}
	}
	return nil, false
}

// FindRegion：按编码查省级，返回副本
func (r *Resolver) FindRegion(code Code) (Region, bool) {
	reg, ok := r.region(code)
	if !ok {
		return Region{}, false
	}
	return cloneRegion(*reg), true
}

// FindSubRegion：先在 region 提示的省内查找，未命中再扫描全部省
func (r *Resolver) FindSubRegion(sub, region Code) (SubRegion, bool) {
	s, ok := r.subRegion(sub, region)
	if !ok {
		return SubRegion{}, false
	}
	return cloneSubRegion(*s), true
}

// FindLocality：提示链（区县 -> 省）优先，最后全量扫描
func (r *Resolver) FindLocality(loc, sub, region Code) (Locality, bool) {
	l, ok := r.locality(loc, sub, region)
	if !ok {
		return Locality{}, false
	}
	return *l, true
}

// ResolveNames：三级名称，未命中的层级为空串
func (r *Resolver) ResolveNames(c Codes) Names {
	var n Names
	if reg, ok := r.region(c.Region); ok {
		n.Region = reg.Name
	}
	if s, ok := r.subRegion(c.SubRegion, c.Region); ok {
		n.SubRegion = s.Name
	}
	if l, ok := r.locality(c.Locality, c.SubRegion, c.Region); ok {
		n.Locality = l.Name
	}
	return n
}

// FormatAddress：按 乡镇、区县、省 的顺序拼接；全部未命中时原样返回 fallback
func (r *Resolver) FormatAddress(c Codes, fallback string) string {
	return r.FormatAddressSep(c, fallback, r.sep)
}

// FormatAddressSep：同 FormatAddress，使用调用方指定的分隔符
func (r *Resolver) FormatAddressSep(c Codes, fallback, sep string) string {
	return r.ResolveNames(c).Join(sep, fallback)
}

// Separator：当前默认分隔符
func (r *Resolver) Separator() string { return r.sep }

// Regions：全部省级（深拷贝），按数据源顺序
func (r *Resolver) Regions() []Region { return cloneRegions(r.regions) }

// SubRegionsOf：省内区县列表副本；省未命中返回空
func (r *Resolver) SubRegionsOf(region Code) []SubRegion {
	reg, ok := r.region(region)
	if !ok {
		return []SubRegion{}
	}
	out := make([]SubRegion, len(reg.SubRegions))
	for i, s := range reg.SubRegions {
		out[i] = cloneSubRegion(s)
	}
	return out
}

// LocalitiesOf：区县内乡镇列表副本；区县未命中返回空
func (r *Resolver) LocalitiesOf(sub Code) []Locality {
	s, ok := r.subRegion(sub, Code{})
	if !ok {
		return []Locality{}
	}
	return slices.Clone(s.Localities)
}

func (r *Resolver) Stats() Stats { return r.stats }

// Fingerprint：数据集内容摘要，数据不同则不同；用于区分外部缓存
func (r *Resolver) Fingerprint() string { return r.fp }

func cloneSubRegion(s SubRegion) SubRegion {
	s.Localities = slices.Clone(s.Localities)
	return s
}

func cloneRegion(reg Region) Region {
	if reg.SubRegions != nil {
		subs := make([]SubRegion, len(reg.SubRegions))
		for i, s := range reg.SubRegions {
			subs[i] = cloneSubRegion(s)
		}
		reg.SubRegions = subs
	}
	return reg
}

func cloneRegions(regions []Region) []Region {
	out := make([]Region, len(regions))
	for i, reg := range regions {
		out[i] = cloneRegion(reg)
	}
	return out
}

// fingerprint：按树序对编码与名称做 FNV-64a
func fingerprint(regions []Region) string {
	h := fnv.New64a()
	w := func(level byte, code int, name string) {
		fmt.Fprintf(h, "%c%d\x00%s\x00", level, code, name)
	}
	for _, reg := range regions {
		w('r', reg.Code, reg.Name)
		for _, s := range reg.SubRegions {
			w('s', s.Code, s.Name)
			for _, l := range s.Localities {
				w('l', l.Code, l.Name)
			}
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
