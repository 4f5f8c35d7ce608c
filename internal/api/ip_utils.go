package api

import (
	"net"
	"net/http"
	"strings"
)

// 文档注释：获取访问者 IP
// 约束：优先 ip 参数，其次常见反向代理头，最后回退 RemoteAddr；代理头可被伪造，只用于地址预填。
func getClientIP(r *http.Request) string {
	if q := strings.TrimSpace(r.URL.Query().Get("ip")); q != "" {
		return q
	}
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := strings.TrimSpace(h.Get(k)); x != "" {
			return x
		}
	}
	if x := h.Get("forwarded"); x != "" {
		if ip := parseForwardedFor(x); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// parseForwardedFor：取 RFC 7239 Forwarded 头中第一个 for= 值
func parseForwardedFor(x string) string {
	i := strings.Index(strings.ToLower(x), "for=")
	if i < 0 {
		return ""
	}
	y := x[i+4:]
	if p := strings.IndexAny(y, ";,"); p >= 0 {
		y = y[:p]
	}
	y = strings.Trim(y, "\" ")
	y = strings.TrimPrefix(y, "[")
	if p := strings.Index(y, "]"); p >= 0 {
		y = y[:p]
	}
	return y
}
