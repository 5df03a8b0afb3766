package history

import "context"

// NoveltyFilter accepts only words that have never been recorded. Its Accept
// method satisfies wordgen.Filter.
type NoveltyFilter struct {
	store *Store
}

// NoveltyFilter returns a filter backed by s.
func (s *Store) NoveltyFilter() *NoveltyFilter {
	return &NoveltyFilter{store: s}
}

// Accept reports whether word is new.
func (f *NoveltyFilter) Accept(ctx context.Context, word string) (bool, error) {
	seen, err := f.store.Seen(ctx, word)
	if err != nil {
		return false, err
	}
	return !seen, nil
}
