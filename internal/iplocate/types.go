// 包 iplocate：按访问者 IP 猜测所在省份，用于地址表单预填
package iplocate

// Guess：IP 定位结果；字段为空表示数据源未给出
type Guess struct {
	Country  string `json:"country,omitempty"`
	Region   string `json:"region,omitempty"`
	Province string `json:"province,omitempty"`
	City     string `json:"city,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Locator：统一查询契约，未命中返回 false
type Locator interface {
	Lookup(ip string) (Guess, bool)
}
