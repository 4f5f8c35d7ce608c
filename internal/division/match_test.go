package division

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"Thành phố Hà Nội":      "hanoi",
		"Ha Noi":                "hanoi",
		"HANOI":                 "hanoi",
		"thanh_pho_ha_noi":      "hanoi",
		"Đà Nẵng":               "danang",
		"Ho Chi Minh City":      "hochiminh",
		"Tỉnh Bắc Giang":        "bacgiang",
		"Bac Giang Province":    "bacgiang",
		"  Cần   Thơ ":          "cantho",
		"":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeName(in), in)
	}
}

func TestMatchRegion(t *testing.T) {
	r := Default()
	tests := []struct {
		name     string
		wantOK   bool
		wantCode int
	}{
		{name: "Hanoi", wantOK: true, wantCode: 1},
		{name: "Thành phố Hồ Chí Minh", wantOK: true, wantCode: 79},
		{name: "Ho Chi Minh", wantOK: true, wantCode: 79},
		{name: "Da Nang", wantOK: true, wantCode: 48},
		{name: "Haiphong", wantOK: true, wantCode: 31},
		{name: "Bac Giang", wantOK: true, wantCode: 24},
		{name: "Atlantis", wantOK: false},
		{name: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, ok := r.MatchRegion(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, reg.Code)
		})
	}
}
