// Package history keeps a SQLite record of generation runs and the words they
// produced.
//
// Only generated output is stored. A Store can answer whether a word was
// produced before, which the NoveltyFilter uses to keep runs from repeating
// earlier results.
//
// The package does not register a database driver; callers open the
// *sql.DB with the driver of their choice and call SetupSchema once before
// NewStore.
package history
