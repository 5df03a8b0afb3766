/*
Package wordgen turns a plain-text corpus into a character-level Markov model
and generates new words from it.

Decode reads the corpus into one-character tokens, collapsing runs of blanks
and line feeds into single separator tokens and dropping comment lines.
A WordGenerator wraps the generic markov package for string seeds, and Run
drives it to produce a configured number of words within length bounds,
retrying rejected words up to a fixed budget.
*/
package wordgen
