package wordgen

import (
	"fmt"
	"io"
	"strings"
)

// LineEnding is the byte sequence written for each LineFeed in the output.
type LineEnding string

const (
	Unix    LineEnding = "\n"
	Windows LineEnding = "\r\n"
	Mac     LineEnding = "\r"
)

// ParseLineEnding maps the style letters U, W and M (case-insensitive) to a
// LineEnding. An empty style means Unix.
func ParseLineEnding(style string) (LineEnding, error) {
	switch strings.ToUpper(strings.TrimSpace(style)) {
	case "", "U":
		return Unix, nil
	case "W":
		return Windows, nil
	case "M":
		return Mac, nil
	default:
		return "", fmt.Errorf("unknown line feed style %q, expected U, W or M", style)
	}
}

// Translate replaces every LineFeed in s with l.
func (l LineEnding) Translate(s string) string {
	if l == "" || l == Unix {
		return s
	}
	return strings.ReplaceAll(s, LineFeed, string(l))
}

type lineEndingWriter struct {
	w io.Writer
	l LineEnding
}

// NewLineEndingWriter returns a writer that translates LineFeed to l before
// writing to w. The byte count reported is that of the input.
func NewLineEndingWriter(w io.Writer, l LineEnding) io.Writer {
	if l == "" || l == Unix {
		return w
	}
	return &lineEndingWriter{w: w, l: l}
}

func (lw *lineEndingWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(lw.w, lw.l.Translate(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
