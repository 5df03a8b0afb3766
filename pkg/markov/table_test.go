package markov

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"
	"strings"
	"testing"
)

func TestBuild(t *testing.T) {
	table, err := Build([]string{"a", "b", "a", "n", "a", "n"}, 3)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	want := map[string][]string{
		"a":   {"b", "n", "n"},
		"ab":  {"a"},
		"b":   {"a"},
		"aba": {"n"},
		"ba":  {"n"},
		"ban": {"a"},
		"an":  {"a"},
		"n":   {"a"},
		"ana": {"n"},
		"na":  {"n"},
	}

	if table.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", table.Len(), len(want))
	}
	if table.Transitions() != 12 {
		t.Errorf("Transitions() = %d, want 12", table.Transitions())
	}
	for ctx, succ := range want {
		got, ok := table.Successors(chars(ctx))
		if !ok {
			t.Errorf("context %q missing from table", ctx)
			continue
		}
		if !reflect.DeepEqual(got, succ) {
			t.Errorf("Successors(%q) = %v, want %v", ctx, got, succ)
		}
	}

	if _, ok := table.Successors(chars("nan")); ok {
		t.Error("context \"nan\" ends at the last position and must not be registered")
	}
	if got := table.Vocabulary(); !reflect.DeepEqual(got, []string{"a", "b", "n"}) {
		t.Errorf("Vocabulary() = %v", got)
	}
}

func TestBuildErrors(t *testing.T) {
	testCases := []struct {
		name   string
		tokens []string
		order  int
		want   error
	}{
		{name: "zero order", tokens: chars("abc"), order: 0, want: ErrInvalidOrder},
		{name: "negative order", tokens: chars("abc"), order: -2, want: ErrInvalidOrder},
		{name: "single token", tokens: chars("a"), order: 1, want: ErrInputTooShort},
		{name: "empty input", tokens: nil, order: 1, want: ErrInputTooShort},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table, err := Build(tc.tokens, tc.order)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Build() error = %v, want %v", err, tc.want)
			}
			if table != nil {
				t.Error("expected no partial table on error")
			}
		})
	}
}

func TestBuildOrderLargerThanInput(t *testing.T) {
	table, err := Build(chars("abcd"), 10)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	longest := 0
	for _, k := range table.Keys() {
		longest = max(longest, k.Len())
	}
	if longest != 3 {
		t.Errorf("longest key = %d, want input length - 1 = 3", longest)
	}
	if got, _ := table.Successors(chars("abc")); !reflect.DeepEqual(got, []string{"d"}) {
		t.Errorf("Successors(abc) = %v, want [d]", got)
	}
}

func TestBuildGenericTokens(t *testing.T) {
	table, err := Build([]int{1, 2, 1, 3}, 2)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	got, ok := table.Successors([]int{1})
	if !ok || !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("Successors([1]) = %v, %v; want [2 3]", got, ok)
	}
	if _, ok = table.Successors([]int{42}); ok {
		t.Error("unknown token must not resolve to a key")
	}
	if _, ok = table.Successors(nil); ok {
		t.Error("empty context must not resolve to a key")
	}
}

// TestBuildProperties checks key length bounds and soundness on random input:
// every stored successor list is exactly the multiset of tokens that follow an
// occurrence of its context in the training sequence.
func TestBuildProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	alphabet := chars("abc ")

	for trial := 0; trial < 25; trial++ {
		n := 2 + rng.IntN(40)
		order := 1 + rng.IntN(5)
		tokens := make([]string, n)
		for i := range tokens {
			tokens[i] = alphabet[rng.IntN(len(alphabet))]
		}

		table, err := Build(tokens, order)
		if err != nil {
			t.Fatalf("trial %d: Build() failed: %v", trial, err)
		}

		for _, k := range table.Keys() {
			if k.Len() < 1 || k.Len() > order {
				t.Fatalf("trial %d: key length %d outside [1, %d]", trial, k.Len(), order)
			}
			ctx := table.Context(k)
			var expected []string
			for i := len(ctx) - 1; i < n-1; i++ {
				if slices.Equal(tokens[i-len(ctx)+1:i+1], ctx) {
					expected = append(expected, tokens[i+1])
				}
			}
			got, _ := table.Lookup(k)
			if !reflect.DeepEqual(got, expected) {
				t.Fatalf("trial %d: context %q successors = %v, want %v (input %q, order %d)",
					trial, strings.Join(ctx, ""), got, expected, strings.Join(tokens, ""), order)
			}
		}
	}
}

func TestBuildIdempotent(t *testing.T) {
	tokens := chars("the cat sat on the mat\nthe rat ate the hat\n")
	a, err := Build(tokens, 3)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(tokens, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) || !b.Equal(a) {
		t.Error("tables built from the same input differ")
	}
	if !reflect.DeepEqual(a.Keys(), b.Keys()) {
		t.Error("key sets differ")
	}

	c, _ := Build(tokens, 2)
	if a.Equal(c) {
		t.Error("tables of different order must not be equal")
	}
}

func BenchmarkBuild(b *testing.B) {
	tokens := chars(createBenchmarkCorpus())

	for _, order := range []int{1, 2, 3, 4, 5} {
		b.Run(fmt.Sprintf("Order%d", order), func(b *testing.B) {
			b.SetBytes(int64(len(tokens)))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Build(tokens, order); err != nil {
					b.Fatalf("Build() failed: %v", err)
				}
			}
		})
	}
}
