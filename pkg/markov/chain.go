package markov

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
)

// Source supplies the random draws used to pick a successor. IntN must return
// a value in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// globalSource draws from the top-level math/rand/v2 functions, which are safe
// for concurrent use.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// LockedSource serializes access to a Source so a single seeded generator can
// be shared between goroutines.
type LockedSource struct {
	mu  sync.Mutex
	src Source
}

// NewLockedSource wraps src.
func NewLockedSource(src Source) *LockedSource {
	return &LockedSource{src: src}
}

// IntN implements Source.
func (l *LockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

// Predictor is anything that can propose the next token for a context.
type Predictor[T comparable] interface {
	PredictNext(context []T) (T, bool)
}

// chainOptions holds the settings applied by ChainOption functions.
type chainOptions struct {
	source Source
	logger *slog.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*chainOptions)

// WithSource sets the random source used for successor draws. Pass a seeded
// *rand.Rand to make predictions reproducible.
func WithSource(src Source) ChainOption {
	return func(o *chainOptions) { o.source = src }
}

// WithLogger sets the logger for the Chain. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) ChainOption {
	return func(o *chainOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Chain answers next-token queries against a Table.
// A Chain is safe for concurrent use if its Source is.
type Chain[T comparable] struct {
	table  *Table[T]
	source Source
	logger *slog.Logger
}

// NewChain wraps an existing table.
func NewChain[T comparable](table *Table[T], opts ...ChainOption) *Chain[T] {
	options := &chainOptions{
		source: globalSource{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(options)
	}
	return &Chain[T]{
		table:  table,
		source: options.source,
		logger: options.logger,
	}
}

// BuildChain builds a Table from tokens and wraps it in a Chain.
func BuildChain[T comparable](tokens []T, order int, opts ...ChainOption) (*Chain[T], error) {
	table, err := Build(tokens, order)
	if err != nil {
		return nil, err
	}
	c := NewChain(table, opts...)
	c.logger.Debug("Transition table built",
		slog.Int("tokens", len(tokens)),
		slog.Int("order", order),
		slog.Int("keys", table.Len()),
		slog.Int("transitions", table.Transitions()),
	)
	return c, nil
}

// Table returns the underlying transition table.
func (c *Chain[T]) Table() *Table[T] { return c.table }

// PredictNext draws one successor of context uniformly from its successor
// list, so tokens seen more often are proportionally more likely. It returns
// false, and the zero value, when context was never observed.
func (c *Chain[T]) PredictNext(context []T) (T, bool) {
	ids := c.table.successorIDs(context)
	if len(ids) == 0 {
		var zero T
		return zero, false
	}
	return c.table.tokens[ids[c.source.IntN(len(ids))]], true
}
