package wordgen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// LineFeed is the token used for every line break in a decoded corpus.
	LineFeed = "\n"
	// Blank is the token used for every run of spaces in a decoded corpus.
	Blank = " "
)

// ErrCorpusTooShort is returned when decoding yields fewer than two tokens.
var ErrCorpusTooShort = errors.New("wordgen: corpus must contain at least 2 tokens")

// DecodeOptions controls how raw text becomes tokens.
type DecodeOptions struct {
	// LowerCase folds every character to lower case.
	LowerCase bool
	// CommentChar starts a comment that runs to the end of the line.
	// Zero disables comments.
	CommentChar rune
}

// Corpus is a decoded training text.
type Corpus struct {
	// Tokens is the token sequence. It starts and ends with LineFeed.
	Tokens []string
	// Separators holds one entry per whitespace character read, so picking a
	// random element favours the separators that are most common in the input.
	Separators []string
}

// SeparatorSet returns the distinct separators in order of first appearance.
func (c *Corpus) SeparatorSet() []string {
	seen := make(map[string]struct{})
	var set []string
	for _, s := range c.Separators {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		set = append(set, s)
	}
	return set
}

// Decode reads r into a Corpus.
//
// The sequence begins with a LineFeed so that word starts are learned from
// the first line too. Line breaks and spaces become LineFeed and Blank
// tokens, but only one separator token is emitted for a run of whitespace.
// Control characters and invalid UTF-8 are ignored.
func Decode(r io.Reader, opts DecodeOptions) (*Corpus, error) {
	br := bufio.NewReader(r)
	lower := cases.Lower(language.Und)

	c := &Corpus{Tokens: []string{LineFeed}}
	whitespace := true
	comment := false

	for {
		ch, size, err := br.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("could not read corpus: %w", err)
		}

		switch {
		case ch == '\n' || ch == '\r':
			if !whitespace {
				c.Tokens = append(c.Tokens, LineFeed)
			}
			c.Separators = append(c.Separators, LineFeed)
			whitespace = true
			comment = false
		case comment:
			// skipped up to the end of the line
		case opts.CommentChar != 0 && ch == opts.CommentChar:
			comment = true
		case ch == ' ':
			if !whitespace {
				c.Tokens = append(c.Tokens, Blank)
			}
			c.Separators = append(c.Separators, Blank)
			whitespace = true
		case ch == utf8.RuneError && size == 1, unicode.IsControl(ch):
		default:
			tok := string(ch)
			if opts.LowerCase {
				tok = lower.String(tok)
			}
			c.Tokens = append(c.Tokens, tok)
			whitespace = false
		}
	}

	if c.Tokens[len(c.Tokens)-1] != LineFeed {
		c.Tokens = append(c.Tokens, LineFeed)
	}
	if len(c.Tokens) < 2 {
		return nil, ErrCorpusTooShort
	}
	if len(c.Separators) == 0 {
		// The boundary tokens are still separators even if the text had none.
		c.Separators = []string{LineFeed}
	}
	return c, nil
}
