package markov

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Stats holds aggregated statistics for a Table.
type Stats struct {
	Keys          int         // The number of distinct context keys
	Transitions   int         // The number of recorded key->successor observations
	VocabSize     int         // The number of distinct tokens in the training sequence
	KeysByLength  map[int]int // Context length -> number of keys of that length
	MeanBranching float64     // Average successor list length per key
	StdBranching  float64     // Standard deviation of successor list length
	MeanDistinct  float64     // Average number of distinct successors per key
	MeanEntropy   float64     // Average Shannon entropy (nats) of the successor distribution
}

// Stats returns a snapshot of statistics for the table.
func (t *Table[T]) Stats() Stats {
	s := Stats{
		Keys:         len(t.entries),
		Transitions:  t.total,
		VocabSize:    len(t.tokens),
		KeysByLength: make(map[int]int),
	}
	if len(t.entries) == 0 {
		return s
	}

	branching := make([]float64, 0, len(t.entries))
	distinct := make([]float64, 0, len(t.entries))
	entropy := make([]float64, 0, len(t.entries))
	for k, ids := range t.entries {
		s.KeysByLength[k.Len()]++

		counts := make(map[int]int)
		for _, id := range ids {
			counts[id]++
		}
		p := make([]float64, 0, len(counts))
		for _, c := range counts {
			p = append(p, float64(c)/float64(len(ids)))
		}

		branching = append(branching, float64(len(ids)))
		distinct = append(distinct, float64(len(counts)))
		entropy = append(entropy, stat.Entropy(p))
	}

	s.MeanBranching, s.StdBranching = stat.MeanStdDev(branching, nil)
	if math.IsNaN(s.StdBranching) { // single key
		s.StdBranching = 0
	}
	s.MeanDistinct = stat.Mean(distinct, nil)
	s.MeanEntropy = stat.Mean(entropy, nil)
	return s
}
