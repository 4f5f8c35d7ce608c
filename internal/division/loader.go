package division

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// 文档注释：解析行政区 JSON
// 约束：顶层为省级数组，子级键为 districts / wards；未知字段忽略。
func ParseJSON(rd io.Reader) ([]Region, error) {
	var regions []Region
	if err := json.NewDecoder(rd).Decode(&regions); err != nil {
		return nil, fmt.Errorf("decode divisions: %w", err)
	}
	return regions, nil
}

// LoadFile：从文件构建解析器
func LoadFile(path string, opts ...Option) (*Resolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	regions, err := ParseJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(regions, opts...)
}
