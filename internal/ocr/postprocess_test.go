package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostProcess(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "zero width stripped",
			in:   "he\u200Bllo wo\uFEFFrld",
			want: "hello world",
		},
		{
			name: "line endings normalized",
			in:   "line one\r\nline two\rline three",
			want: "line one\nline two\nline three",
		},
		{
			name: "excess blank lines collapsed",
			in:   "top\n\n\n\n\n\nbottom",
			want: "top\n\n\nbottom",
		},
		{
			name: "noise tokens dropped",
			in:   "q w recognized text x",
			want: "recognized text",
		},
		{
			name: "real single tokens kept",
			in:   "I have a dog and 2 cats .",
			want: "I have a dog and 2 cats .",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PostProcess(tc.in))
		})
	}
}
