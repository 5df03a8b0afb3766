package wordgen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

// Filter decides whether a generated word may be kept. A rejected word counts
// as a failed attempt and is regenerated.
type Filter interface {
	Accept(ctx context.Context, word string) (bool, error)
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(ctx context.Context, word string) (bool, error)

// Accept calls f.
func (f FilterFunc) Accept(ctx context.Context, word string) (bool, error) {
	return f(ctx, word)
}

// patternTimeout bounds a single reject-pattern match.
const patternTimeout = 100 * time.Millisecond

// RejectPattern returns a Filter that rejects words matching expr. The
// expression uses .NET/Perl syntax, so backreferences such as `(.)\1\1`
// (three identical letters in a row) are allowed.
func RejectPattern(expr string) (Filter, error) {
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("invalid reject pattern %q: %w", expr, err)
	}
	re.MatchTimeout = patternTimeout
	return FilterFunc(func(_ context.Context, word string) (bool, error) {
		matched, err := re.MatchString(word)
		if err != nil {
			return false, fmt.Errorf("reject pattern %q on %q: %w", expr, word, err)
		}
		return !matched, nil
	}), nil
}

// Distinct returns a Filter that accepts each word only once. It is safe for
// concurrent use.
func Distinct() Filter {
	var mu sync.Mutex
	seen := make(map[string]struct{})
	return FilterFunc(func(_ context.Context, word string) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		if _, ok := seen[word]; ok {
			return false, nil
		}
		seen[word] = struct{}{}
		return true, nil
	})
}
