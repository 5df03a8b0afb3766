package markov

import (
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
)

// chars splits s into one-character string tokens.
func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// scriptedSource replays a fixed list of draws, clamped to the requested range.
type scriptedSource struct {
	values []int
	calls  int
}

func (s *scriptedSource) IntN(n int) int {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.calls%len(s.values)]
	s.calls++
	if v >= n {
		return n - 1
	}
	return v
}

// recordingPredictor logs every context it is asked about.
type recordingPredictor[T comparable] struct {
	next     Predictor[T]
	contexts [][]T
}

func (r *recordingPredictor[T]) PredictNext(context []T) (T, bool) {
	r.contexts = append(r.contexts, append([]T(nil), context...))
	if r.next == nil {
		var zero T
		return zero, false
	}
	return r.next.PredictNext(context)
}

// newTestChain builds a character chain over text with a fixed seed.
func newTestChain(t *testing.T, text string, order int, seed uint64) *Chain[string] {
	t.Helper()
	c, err := BuildChain(chars(text), order, WithSource(rand.New(rand.NewPCG(seed, seed))))
	if err != nil {
		t.Fatalf("BuildChain() error = %v", err)
	}
	return c
}

// newTestGenerator builds a generator over text using " " and "\n" as separators.
func newTestGenerator(t *testing.T, text string, order int, seed uint64) *Generator[string] {
	t.Helper()
	g, err := NewGenerator[string](newTestChain(t, text, order, seed), GeneratorConfig[string]{
		Order:      order,
		Separators: []string{" ", "\n"},
	})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

var (
	benchmarkCorpus string
	corpusOnce      sync.Once
)

var benchmarkSyllables = []string{
	"ka", "ri", "to", "men", "sa", "lu", "dor", "el",
	"vi", "an", "quo", "ber", "thi", "os", "ne", "gar",
}

// createBenchmarkCorpus builds a word list of the kind the generator is
// trained on: one word per line, each made of one to four syllables.
func createBenchmarkCorpus() string {
	corpusOnce.Do(func() {
		rng := rand.New(rand.NewPCG(7, 11))
		var sb strings.Builder
		for range 20000 {
			for n := 1 + rng.IntN(4); n > 0; n-- {
				sb.WriteString(benchmarkSyllables[rng.IntN(len(benchmarkSyllables))])
			}
			sb.WriteByte('\n')
		}
		benchmarkCorpus = sb.String()
	})
	return benchmarkCorpus
}
