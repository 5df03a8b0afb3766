package wordgen

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLineEnding(t *testing.T) {
	tests := []struct {
		style   string
		want    LineEnding
		wantErr bool
	}{
		{"", Unix, false},
		{"U", Unix, false},
		{"w", Windows, false},
		{" M ", Mac, false},
		{"X", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLineEnding(tt.style)
		if tt.wantErr {
			assert.Error(t, err, "style %q", tt.style)
			continue
		}
		assert.NoError(t, err, "style %q", tt.style)
		assert.Equal(t, tt.want, got, "style %q", tt.style)
	}
}

func TestTranslate(t *testing.T) {
	in := "cat\ncar\n"
	assert.Equal(t, in, Unix.Translate(in))
	assert.Equal(t, "cat\r\ncar\r\n", Windows.Translate(in))
	assert.Equal(t, "cat\rcar\r", Mac.Translate(in))
	assert.Equal(t, in, LineEnding("").Translate(in))
}

func TestLineEndingWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineEndingWriter(&buf, Windows)
	n, err := io.WriteString(w, "a\nb\n")
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "a\r\nb\r\n", buf.String())

	assert.Same(t, &buf, NewLineEndingWriter(&buf, Unix))
}
