/*
Package markov provides a small, generic, in-memory variable-order Markov
chain toolkit.

A Table is built once from a token sequence and an order. Every position in
the sequence registers its successor under each suffix of the preceding
window (lengths 1 through order), so shorter contexts accumulate statistics
from every place they occur. A Chain draws uniformly from the observed
successors of an exact context, and a Generator drives a Chain to produce
separator-terminated words, shrinking its context whenever a lookup misses.

Tables are immutable after Build and safe to share between goroutines.
*/
package markov
