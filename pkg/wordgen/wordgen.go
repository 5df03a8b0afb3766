package wordgen

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/CTAG07/wordgen/pkg/markov"
)

// options holds the settings applied by Option functions.
type options struct {
	source markov.Source
	logger *slog.Logger
}

// Option configures a WordGenerator.
type Option func(*options)

// WithSource sets the random source for both successor draws and seed picks.
// A WordGenerator shares it between calls, so it must be safe for concurrent
// use if the generator is.
func WithSource(src markov.Source) Option {
	return func(o *options) { o.source = src }
}

// WithSeed is shorthand for WithSource with a PCG generator seeded from seed,
// wrapped for concurrent use.
func WithSeed(seed uint64) Option {
	return WithSource(markov.NewLockedSource(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))))
}

// WithLogger sets the logger for the WordGenerator. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WordGenerator generates words from a character-level Markov chain.
type WordGenerator struct {
	corpus    *Corpus
	order     int
	chain     *markov.Chain[string]
	generator *markov.Generator[string]
	source    markov.Source
	logger    *slog.Logger
}

// New builds the transition table for corpus at the given order.
func New(corpus *Corpus, order int, opts ...Option) (*WordGenerator, error) {
	o := &options{
		source: markov.NewLockedSource(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}

	chain, err := markov.BuildChain(corpus.Tokens, order, markov.WithSource(o.source), markov.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("could not build chain: %w", err)
	}

	wg := &WordGenerator{
		corpus: corpus,
		order:  order,
		chain:  chain,
		source: o.source,
		logger: o.logger,
	}
	if wg.generator, err = wg.newGenerator(0); err != nil {
		return nil, err
	}
	return wg, nil
}

func (wg *WordGenerator) newGenerator(maxLength int) (*markov.Generator[string], error) {
	g, err := markov.NewGenerator[string](wg.chain, markov.GeneratorConfig[string]{
		Order:      wg.order,
		Separators: wg.corpus.SeparatorSet(),
		MaxLength:  maxLength,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create word generator: %w", err)
	}
	g.SetLogger(wg.logger)
	return g, nil
}

// Order returns the chain order.
func (wg *WordGenerator) Order() int { return wg.order }

// Corpus returns the corpus the generator was built from.
func (wg *WordGenerator) Corpus() *Corpus { return wg.corpus }

// Table returns the underlying transition table.
func (wg *WordGenerator) Table() *markov.Table[string] { return wg.chain.Table() }

// GenerateWord generates one word starting from the characters of seed.
// If appendSeparator is set, the separator that ended the word is kept as
// its last character. It reports false if the chain ran out of context.
func (wg *WordGenerator) GenerateWord(seed string, appendSeparator bool) (string, bool) {
	word, _, ok := generate(wg.generator, seed, appendSeparator)
	return word, ok
}

// generate runs g and also returns the word length in characters, not
// counting an appended separator.
func generate(g *markov.Generator[string], seed string, appendSeparator bool) (string, int, bool) {
	tokens, ok := g.GenerateWord(split(seed), appendSeparator)
	if !ok {
		return "", 0, false
	}
	n := len(tokens)
	if appendSeparator && n > 0 && g.IsSeparator(tokens[n-1]) {
		n--
	}
	return strings.Join(tokens, ""), n, true
}

// Dump writes the transition table in its diagnostic form.
func (wg *WordGenerator) Dump(w io.Writer) error {
	return wg.chain.Table().WriteDump(w, nil)
}

// Stats returns statistics for the transition table.
func (wg *WordGenerator) Stats() markov.Stats {
	return wg.chain.Table().Stats()
}

// randomSeparator picks a separator weighted by how often it occurs in the corpus.
func (wg *WordGenerator) randomSeparator() string {
	seps := wg.corpus.Separators
	return seps[wg.source.IntN(len(seps))]
}

// split breaks s into one-character tokens.
func split(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
