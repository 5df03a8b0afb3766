package markov

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrNoSeparators is returned by NewGenerator when no separator token is
// configured, since a word could then never end.
var ErrNoSeparators = errors.New("markov: at least one separator token is required")

// GeneratorConfig holds everything a Generator needs beyond its Predictor.
type GeneratorConfig[T comparable] struct {
	// Order is the maximum context length; it should match the table's order.
	Order int
	// Separators are the tokens that end a word.
	Separators []T
	// MaxLength, when positive, makes GenerateWord give up once a word grows
	// beyond MaxLength tokens. Zero leaves word length unbounded.
	MaxLength int
}

// Generator produces separator-terminated words by repeatedly querying a
// Predictor. It keeps no per-call state and is safe for concurrent use when
// its Predictor is.
type Generator[T comparable] struct {
	predictor  Predictor[T]
	order      int
	separators map[T]struct{}
	maxLength  int
	logger     *slog.Logger
}

// NewGenerator validates cfg and returns a Generator backed by p.
func NewGenerator[T comparable](p Predictor[T], cfg GeneratorConfig[T]) (*Generator[T], error) {
	if cfg.Order < 1 {
		return nil, fmt.Errorf("new generator with order %d: %w", cfg.Order, ErrInvalidOrder)
	}
	if len(cfg.Separators) == 0 {
		return nil, ErrNoSeparators
	}
	separators := make(map[T]struct{}, len(cfg.Separators))
	for _, s := range cfg.Separators {
		separators[s] = struct{}{}
	}
	return &Generator[T]{
		predictor:  p,
		order:      cfg.Order,
		separators: separators,
		maxLength:  max(cfg.MaxLength, 0),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets the logger for the Generator. By default, all logs are discarded.
func (g *Generator[T]) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// IsSeparator reports whether tok ends a word.
func (g *Generator[T]) IsSeparator(tok T) bool {
	_, ok := g.separators[tok]
	return ok
}

// GenerateWord grows a word from seed until a separator is drawn.
//
// Only the trailing Order tokens of seed are used as the starting context.
// When the context has no observed successor, its leading token is dropped
// and the lookup retried; a miss on a single-token context fails the whole
// word and GenerateWord reports false. The separator that ends the word is
// included as its last token only when appendSeparator is set.
func (g *Generator[T]) GenerateWord(seed []T, appendSeparator bool) ([]T, bool) {
	context := make([]T, 0, g.order+1)
	if len(seed) > g.order {
		seed = seed[len(seed)-g.order:]
	}
	context = append(context, seed...)

	var word []T
	for {
		next, ok := g.predictor.PredictNext(context)
		if !ok {
			if len(context) > 1 {
				context = context[1:]
				continue
			}
			g.logger.Debug("Word generation failed, no successor for context",
				slog.Int("seed_length", len(seed)),
				slog.Int("generated_length", len(word)),
			)
			return nil, false
		}

		if g.IsSeparator(next) {
			if appendSeparator {
				word = append(word, next)
			}
			return word, true
		}

		word = append(word, next)
		if g.maxLength > 0 && len(word) > g.maxLength {
			g.logger.Debug("Word generation abandoned at length limit",
				slog.Int("max_length", g.maxLength),
			)
			return nil, false
		}

		context = append(context, next)
		if len(context) > g.order {
			context = context[1:]
		}
	}
}
