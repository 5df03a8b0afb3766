package wordgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultMaxTries is the number of attempts made for each word before it is
// given up on.
const DefaultMaxTries = 200

// ErrInvalidRunOptions is returned when RunOptions cannot produce any word.
var ErrInvalidRunOptions = errors.New("wordgen: invalid run options")

// RunOptions configures a generation run.
type RunOptions struct {
	// Words is the number of words to produce.
	Words int
	// MinLength and MaxLength bound the word length in characters, not
	// counting a trailing separator.
	MinLength int
	MaxLength int
	// MaxTries is the attempt budget per word.
	MaxTries int
	// List writes one word per line, each seeded from a random separator.
	// Otherwise words form running text: each keeps the separator it ended
	// with and seeds the next one.
	List bool
	// Names upper-cases the first letter of every word.
	Names bool
	// LineEnding replaces LineFeed in written output.
	LineEnding LineEnding
	// Filters are consulted for every candidate word, in order, after Names
	// capitalization and before the list line feed is appended.
	Filters []Filter
}

// DefaultRunOptions returns the options used when nothing is configured.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Words:      10,
		MinLength:  3,
		MaxLength:  12,
		MaxTries:   DefaultMaxTries,
		List:       true,
		LineEnding: Unix,
	}
}

func (o RunOptions) validate() error {
	switch {
	case o.Words < 1:
		return fmt.Errorf("%w: words must be positive, got %d", ErrInvalidRunOptions, o.Words)
	case o.MinLength < 1 || o.MaxLength < 1:
		return fmt.Errorf("%w: word lengths must be positive, got %d..%d", ErrInvalidRunOptions, o.MinLength, o.MaxLength)
	case o.MinLength > o.MaxLength:
		return fmt.Errorf("%w: minimum length %d exceeds maximum %d", ErrInvalidRunOptions, o.MinLength, o.MaxLength)
	case o.MaxTries < 1:
		return fmt.Errorf("%w: max tries must be positive, got %d", ErrInvalidRunOptions, o.MaxTries)
	}
	return nil
}

// Word is one outcome of a run.
type Word struct {
	// Index is the 1-based position of the word in the run.
	Index int
	// Text is the accepted word as it will be written, before line ending
	// translation. It is empty when Failed is set.
	Text string
	// Attempts is the number of generation attempts spent on this word.
	Attempts int
	// Failed is set when the attempt budget ran out.
	Failed bool
}

// RunResult summarizes a run.
type RunResult struct {
	Words    []string // Accepted words, in output order, without line ending translation
	Written  int      // Number of words written
	Failed   int      // Number of words abandoned after MaxTries attempts
	Attempts int      // Total generation attempts
}

// Stream generates words according to opts and returns a channel of
// outcomes. The channel is closed when the run completes, when ctx is
// cancelled, or after a filter error, which is delivered on errc.
func (wg *WordGenerator) Stream(ctx context.Context, opts RunOptions) (<-chan Word, <-chan error, error) {
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}
	if opts.LineEnding == "" {
		opts.LineEnding = Unix
	}
	gen, err := wg.newGenerator(opts.MaxLength)
	if err != nil {
		return nil, nil, err
	}

	wordChan := make(chan Word)
	errc := make(chan error, 1)
	upper := cases.Upper(language.Und)

	go func() {
		defer close(wordChan)
		defer close(errc)

		lastWord := LineFeed
		for i := 1; i <= opts.Words; i++ {
			select {
			case <-ctx.Done():
				wg.logger.DebugContext(ctx, "Generation run cancelled by context", slog.Int("word_index", i))
				errc <- ctx.Err()
				return
			default:
			}

			out := Word{Index: i}
			var word string
			accepted := false
			for out.Attempts < opts.MaxTries && !accepted {
				out.Attempts++
				seed := lastWord
				if opts.List {
					seed = wg.randomSeparator()
				}
				candidate, length, ok := generate(gen, seed, !opts.List)
				if !ok || length < opts.MinLength || length > opts.MaxLength {
					continue
				}
				// Filters see the word as it will be written.
				if opts.Names {
					candidate = capitalize(upper, candidate)
				}
				ok, ferr := applyFilters(ctx, opts.Filters, candidate)
				if ferr != nil {
					errc <- ferr
					return
				}
				accepted = ok
				word = candidate
			}

			if !accepted {
				out.Failed = true
				wg.logger.WarnContext(ctx, "Could not generate word, try a lower level",
					slog.Int("word_index", i),
					slog.Int("attempts", out.Attempts),
				)
			} else {
				if opts.List {
					word += LineFeed
				}
				lastWord = word
				out.Text = word
			}

			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			case wordChan <- out:
			}
		}
	}()

	return wordChan, errc, nil
}

// Run generates words according to opts and writes them to w with line
// endings translated. Words that exhaust their attempt budget are logged and
// skipped; they do not stop the run.
func (wg *WordGenerator) Run(ctx context.Context, w io.Writer, opts RunOptions) (*RunResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	words, errc, err := wg.Stream(ctx, opts)
	if err != nil {
		return nil, err
	}

	out := NewLineEndingWriter(w, opts.LineEnding)
	res := &RunResult{}
	for word := range words {
		res.Attempts += word.Attempts
		if word.Failed {
			res.Failed++
			continue
		}
		if _, err = io.WriteString(out, word.Text); err != nil {
			// Stop the producer and wait for it to exit.
			cancel()
			for range words {
			}
			return res, fmt.Errorf("could not write word %d: %w", word.Index, err)
		}
		res.Words = append(res.Words, word.Text)
		res.Written++
	}
	if err = <-errc; err != nil {
		return res, err
	}

	wg.logger.InfoContext(ctx, "Generation run completed",
		slog.Int("words_written", res.Written),
		slog.Int("words_failed", res.Failed),
		slog.Int("attempts", res.Attempts),
	)
	return res, nil
}

func applyFilters(ctx context.Context, filters []Filter, word string) (bool, error) {
	for _, f := range filters {
		ok, err := f.Accept(ctx, word)
		if err != nil {
			return false, fmt.Errorf("filter rejected %q with error: %w", word, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// capitalize upper-cases only the first character of word.
func capitalize(upper cases.Caser, word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return upper.String(string(r)) + word[size:]
}
