package markov

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	// ErrInvalidOrder is returned by Build when the order is below 1.
	ErrInvalidOrder = errors.New("markov: order must be at least 1")
	// ErrInputTooShort is returned by Build when fewer than two tokens are given.
	ErrInputTooShort = errors.New("markov: input must contain at least 2 tokens")
)

// Table maps every context window observed in a training sequence to the
// tokens that followed it. Successor lists keep insertion order and
// duplicates, so the repetition count of a token is its frequency.
// A Table is immutable once built.
type Table[T comparable] struct {
	order   int
	vocab   map[T]int
	tokens  []T
	entries map[Key][]int
	total   int
}

// Build scans tokens once and registers, for every position i before the last,
// tokens[i+1] as a successor of each suffix of the window of up to order
// tokens ending at i.
func Build[T comparable](tokens []T, order int) (*Table[T], error) {
	if order < 1 {
		return nil, fmt.Errorf("build table with order %d: %w", order, ErrInvalidOrder)
	}
	if len(tokens) < 2 {
		return nil, fmt.Errorf("build table from %d tokens: %w", len(tokens), ErrInputTooShort)
	}

	t := &Table[T]{
		order:   order,
		vocab:   make(map[T]int),
		entries: make(map[Key][]int),
	}

	window := make([]int, 0, order)
	var keyBuf []byte
	for i := 0; i < len(tokens)-1; i++ {
		if len(window) == order {
			window = append(window[:0], window[1:]...)
		}
		window = append(window, t.intern(tokens[i]))
		next := t.intern(tokens[i+1])

		for j := range window {
			keyBuf = appendKey(keyBuf[:0], window[j:])
			t.add(Key(keyBuf), next)
		}
	}
	return t, nil
}

func (t *Table[T]) intern(tok T) int {
	if id, ok := t.vocab[tok]; ok {
		return id
	}
	id := len(t.tokens)
	t.vocab[tok] = id
	t.tokens = append(t.tokens, tok)
	return id
}

func (t *Table[T]) add(key Key, next int) {
	if key == "" {
		panic("markov: empty context key registered; window bookkeeping is broken")
	}
	t.entries[key] = append(t.entries[key], next)
	t.total++
}

// key resolves a token sequence to its Key. It reports false if any token is
// outside the vocabulary, in which case the sequence cannot be a key.
func (t *Table[T]) key(context []T) (Key, bool) {
	if len(context) == 0 {
		return "", false
	}
	ids := make([]int, len(context))
	for i, tok := range context {
		id, ok := t.vocab[tok]
		if !ok {
			return "", false
		}
		ids[i] = id
	}
	return Key(appendKey(nil, ids)), true
}

func (t *Table[T]) successorIDs(context []T) []int {
	k, ok := t.key(context)
	if !ok {
		return nil
	}
	return t.entries[k]
}

// Order returns the maximum context length the table was built with.
func (t *Table[T]) Order() int { return t.order }

// Len returns the number of distinct context keys.
func (t *Table[T]) Len() int { return len(t.entries) }

// Transitions returns the number of recorded (key, successor) observations.
func (t *Table[T]) Transitions() int { return t.total }

// Vocabulary returns the distinct tokens of the training sequence in order of
// first appearance.
func (t *Table[T]) Vocabulary() []T { return slices.Clone(t.tokens) }

// Successors returns a copy of the successor list registered for context, in
// insertion order. It reports false if context was never observed.
func (t *Table[T]) Successors(context []T) ([]T, bool) {
	ids := t.successorIDs(context)
	if len(ids) == 0 {
		return nil, false
	}
	return t.decode(ids), true
}

// Keys returns every context key in the table, sorted.
func (t *Table[T]) Keys() []Key {
	keys := make([]Key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Context returns the tokens that make up k.
func (t *Table[T]) Context(k Key) []T {
	return t.decode(k.IDs())
}

// Lookup returns a copy of the successor list stored under k.
func (t *Table[T]) Lookup(k Key) ([]T, bool) {
	ids, ok := t.entries[k]
	if !ok {
		return nil, false
	}
	return t.decode(ids), true
}

// Equal reports whether both tables have the same order, the same keys and
// the same successor lists, order included. Keys are compared by their token
// sequences, not by vocabulary ids.
func (t *Table[T]) Equal(other *Table[T]) bool {
	if t.order != other.order || len(t.entries) != len(other.entries) {
		return false
	}
	for k, ids := range t.entries {
		got := other.successorIDs(t.Context(k))
		if !slices.Equal(t.decode(ids), other.decode(got)) {
			return false
		}
	}
	return true
}

func (t *Table[T]) decode(ids []int) []T {
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = t.tokens[id]
	}
	return out
}
