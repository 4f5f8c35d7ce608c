package iplocate

import (
	"container/list"
	"sync"
	"time"
)

// 文档注释：带 TTL 的 LRU，缓存 IP 定位结果（含未命中）
// 背景：同一访问者短时间内多次打开地址表单，避免重复读取 mmdb/xdb。
// 约束：容量按条目计；过期项在读取时惰性淘汰。
type Cached struct {
	next Locator
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

type entry struct {
	k   string
	g   Guess
	ok  bool
	exp time.Time
}

func NewCached(next Locator, capacity int, ttl time.Duration) *Cached {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Cached{next: next, cap: capacity, ttl: ttl, lst: list.New(), dict: make(map[string]*list.Element), now: time.Now}
}

func (c *Cached) Lookup(ip string) (Guess, bool) {
	if g, ok, hit := c.get(ip); hit {
		return g, ok
	}
	g, ok := c.next.Lookup(ip)
	c.set(ip, g, ok)
	return g, ok
}

func (c *Cached) get(k string) (Guess, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dict[k]
	if !ok {
		return Guess{}, false, false
	}
	it := e.Value.(entry)
	if c.now().Before(it.exp) {
		c.lst.MoveToFront(e)
		return it.g, it.ok, true
	}
	c.lst.Remove(e)
	delete(c.dict, k)
	return Guess{}, false, false
}

func (c *Cached) set(k string, g Guess, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := entry{k: k, g: g, ok: ok, exp: c.now().Add(c.ttl)}
	if e, found := c.dict[k]; found {
		e.Value = it
		c.lst.MoveToFront(e)
		return
	}
	c.dict[k] = c.lst.PushFront(it)
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		delete(c.dict, back.Value.(entry).k)
		c.lst.Remove(back)
	}
}

// Len：当前缓存条目数
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
