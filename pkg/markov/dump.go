package markov

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// newlineEscaper keeps every dump entry on one line.
var newlineEscaper = strings.NewReplacer("\n", `\n`)

// WriteDump writes a human-readable rendering of the table to w: one line per
// key holding the joined key tokens, a colon, and the joined successor list.
// Lines are sorted by the rendered key so the output is reproducible. format
// renders a single token; if nil, fmt.Sprint is used.
func (t *Table[T]) WriteDump(w io.Writer, format func(T) string) error {
	if format == nil {
		format = func(tok T) string { return fmt.Sprint(tok) }
	}

	type line struct {
		key      Key
		rendered string
	}
	lines := make([]line, 0, len(t.entries))
	for k := range t.entries {
		lines = append(lines, line{key: k, rendered: t.render(k.IDs(), format)})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].rendered != lines[j].rendered {
			return lines[i].rendered < lines[j].rendered
		}
		return lines[i].key < lines[j].key
	})

	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := fmt.Fprintf(bw, "%s:%s\n", l.rendered, t.render(t.entries[l.key], format)); err != nil {
			return fmt.Errorf("could not write dump line for key %q: %w", l.rendered, err)
		}
	}
	return bw.Flush()
}

// String returns the dump rendering of the table.
func (t *Table[T]) String() string {
	var sb strings.Builder
	_ = t.WriteDump(&sb, nil)
	return sb.String()
}

func (t *Table[T]) render(ids []int, format func(T) string) string {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(newlineEscaper.Replace(format(t.tokens[id])))
	}
	return sb.String()
}
