package iplocate

// 文档注释：按顺序组合多个数据源，首个命中即返回
// 约束：nil 数据源跳过；读路径无锁。
type Chain struct {
	list []Locator
}

func NewChain(list ...Locator) *Chain {
	out := make([]Locator, 0, len(list))
	for _, l := range list {
		if l != nil {
			out = append(out, l)
		}
	}
	return &Chain{list: out}
}

func (c *Chain) Lookup(ip string) (Guess, bool) {
	for _, s := range c.list {
		if g, ok := s.Lookup(ip); ok {
			return g, true
		}
	}
	return Guess{}, false
}

// Len：有效数据源个数
func (c *Chain) Len() int { return len(c.list) }
