package wordgen

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		opts       DecodeOptions
		tokens     []string
		separators []string
	}{
		{
			name:       "Collapses whitespace runs",
			input:      "ab  c\n",
			tokens:     []string{"\n", "a", "b", " ", "c", "\n"},
			separators: []string{" ", " ", "\n"},
		},
		{
			name:       "Leading blank is absorbed by the start token",
			input:      " ab",
			tokens:     []string{"\n", "a", "b", "\n"},
			separators: []string{" "},
		},
		{
			name:       "Carriage returns become line feeds",
			input:      "a\r\nb",
			tokens:     []string{"\n", "a", "\n", "b", "\n"},
			separators: []string{"\n", "\n"},
		},
		{
			name:       "Control characters are dropped",
			input:      "a\tb\x00c",
			tokens:     []string{"\n", "a", "b", "c", "\n"},
			separators: []string{"\n"},
		},
		{
			name:       "Lower case folding",
			input:      "AbÇ\n",
			opts:       DecodeOptions{LowerCase: true},
			tokens:     []string{"\n", "a", "b", "ç", "\n"},
			separators: []string{"\n"},
		},
		{
			name:       "Comments run to end of line",
			input:      "ab\n# xyz\ncd",
			opts:       DecodeOptions{CommentChar: '#'},
			tokens:     []string{"\n", "a", "b", "\n", "c", "d", "\n"},
			separators: []string{"\n", "\n"},
		},
		{
			name:       "Comment character is literal when disabled",
			input:      "a#b",
			tokens:     []string{"\n", "a", "#", "b", "\n"},
			separators: []string{"\n"},
		},
		{
			name:       "Invalid UTF-8 is skipped",
			input:      "a\xffb",
			tokens:     []string{"\n", "a", "b", "\n"},
			separators: []string{"\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode(strings.NewReader(tt.input), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.tokens, c.Tokens)
			assert.Equal(t, tt.separators, c.Separators)
		})
	}
}

func TestDecodeTooShort(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\r\n", "#only a comment"} {
		_, err := Decode(strings.NewReader(input), DecodeOptions{CommentChar: '#'})
		assert.ErrorIs(t, err, ErrCorpusTooShort, "input %q", input)
	}
}

func TestDecodeReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Decode(iotest.ErrReader(boom), DecodeOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSeparatorSet(t *testing.T) {
	c := &Corpus{Separators: []string{" ", "\n", " ", " ", "\n"}}
	assert.Equal(t, []string{" ", "\n"}, c.SeparatorSet())
}
