package wordgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectPattern(t *testing.T) {
	f, err := RejectPattern(`(.)\1\1`)
	require.NoError(t, err)

	tests := []struct {
		word string
		want bool
	}{
		{"banana", true},
		{"aaab", false},
		{"brrr", false},
		{"bookkeeper", true},
	}
	for _, tt := range tests {
		ok, err := f.Accept(context.Background(), tt.word)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "word %q", tt.word)
	}
}

func TestRejectPatternInvalid(t *testing.T) {
	_, err := RejectPattern(`(unclosed`)
	assert.Error(t, err)
}

func TestDistinct(t *testing.T) {
	f := Distinct()
	ctx := context.Background()

	for _, step := range []struct {
		word string
		want bool
	}{
		{"cat", true},
		{"car", true},
		{"cat", false},
		{"Cat", true},
	} {
		ok, err := f.Accept(ctx, step.word)
		require.NoError(t, err)
		assert.Equal(t, step.want, ok, "word %q", step.word)
	}
}
