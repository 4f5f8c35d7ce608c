package main

import (
	"bytes"
	"testing"

	"address-api/internal/division"

	"github.com/stretchr/testify/assert"
)

func TestExec(t *testing.T) {
	res := division.Default()
	tests := []struct {
		line string
		want string
	}{
		{line: "region 1", want: "1 Thành phố Hà Nội (4 subregions)\n"},
		{line: "region 999", want: "not found\n"},
		{line: "loc 1 - 1", want: "1 Phúc Xá\n"},
		{line: "format 1 1 1", want: "Phúc Xá, Ba Đình, Thành phố Hà Nội\n"},
		{line: "format 900 900 900 N/A", want: "N/A\n"},
		{line: "match ho chi minh city", want: "79 Thành phố Hồ Chí Minh\n"},
		{line: "bogus", want: "unknown command, type help\n"},
		{line: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			var buf bytes.Buffer
			assert.True(t, exec(res, tt.line, &buf))
			assert.Equal(t, tt.want, buf.String())
		})
	}

	var buf bytes.Buffer
	assert.False(t, exec(res, "exit", &buf))
}
