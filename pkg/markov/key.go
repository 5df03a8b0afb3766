package markov

import (
	"strconv"
	"strings"
)

// Key identifies a context window inside a Table. It is the space separated
// list of vocabulary ids of the window's tokens, so two keys are equal exactly
// when their token sequences are equal, length included.
type Key string

// appendKey writes the key for ids into buf and returns the extended buffer.
func appendKey(buf []byte, ids []int) []byte {
	for j, id := range ids {
		if j > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(id), 10)
	}
	return buf
}

// Len returns the number of tokens in the context window.
func (k Key) Len() int {
	if k == "" {
		return 0
	}
	return strings.Count(string(k), " ") + 1
}

// IDs returns the vocabulary ids that make up the key.
func (k Key) IDs() []int {
	if k == "" {
		return nil
	}
	parts := strings.Split(string(k), " ")
	ids := make([]int, len(parts))
	for i, p := range parts {
		// Keys are only ever produced by appendKey.
		id, err := strconv.Atoi(p)
		if err != nil {
			panic("markov: malformed key " + strconv.Quote(string(k)))
		}
		ids[i] = id
	}
	return ids
}
