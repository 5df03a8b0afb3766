package markov

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

func TestWriteDump(t *testing.T) {
	table, err := Build([]string{"a", "b", "a", "n", "a", "n"}, 3)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := table.WriteDump(&buf, nil); err != nil {
		t.Fatalf("WriteDump() failed: %v", err)
	}

	expected := strings.Join([]string{
		"a:bnn",
		"ab:a",
		"aba:n",
		"an:a",
		"ana:n",
		"b:a",
		"ba:n",
		"ban:a",
		"n:a",
		"na:n",
	}, "\n") + "\n"
	if buf.String() != expected {
		t.Errorf("WriteDump() got:\n%s\nwant:\n%s", buf.String(), expected)
	}
	if table.String() != expected {
		t.Error("String() should match WriteDump output")
	}
}

func TestWriteDumpEscapesNewlines(t *testing.T) {
	table, err := Build(chars("a\nb\n"), 1)
	if err != nil {
		t.Fatal(err)
	}
	dump := table.String()

	lines := strings.Split(strings.TrimSuffix(dump, "\n"), "\n")
	if len(lines) != table.Len() {
		t.Fatalf("expected one line per key (%d), got %d:\n%s", table.Len(), len(lines), dump)
	}
	for _, want := range []string{`\n:b`, `a:\n`, `b:\n`} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump missing %q:\n%s", want, dump)
		}
	}
}

func TestWriteDumpCustomFormat(t *testing.T) {
	table, err := Build([]int{10, 20, 10, 30}, 1)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	err = table.WriteDump(&buf, func(v int) string { return "<" + strconv.Itoa(v) + ">" })
	if err != nil {
		t.Fatal(err)
	}
	expected := "<10>:<20><30>\n<20>:<10>\n"
	if buf.String() != expected {
		t.Errorf("got %q, want %q", buf.String(), expected)
	}
}
