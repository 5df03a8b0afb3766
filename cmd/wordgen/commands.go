package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/CTAG07/wordgen/pkg/history"
	"github.com/CTAG07/wordgen/pkg/wordgen"
)

// rootArgs are the flags shared by every command that reads a corpus.
type rootArgs struct {
	configPath string
	inputPath  string
	logLevel   string
	seed       uint64
}

// generateArgs are the flags of the generate command.
type generateArgs struct {
	outputPath string
	debugPath  string
	dbPath     string
	novel      bool
}

// historyArgs are the flags of the history command.
type historyArgs struct {
	dbPath          string
	limit           int
	forgetOlderThan time.Duration
}

func newRootCmd() *cobra.Command {
	ra := &rootArgs{}
	ga := &generateArgs{}

	cmd := &cobra.Command{
		Use:   "wordgen",
		Short: "Generate words that look like the words of a sample text",
		Long: `
Generate new words from a character-level Markov chain trained on a text file.

Running wordgen without a subcommand is the same as "wordgen generate". The
original "in=FILE out=FILE cfg=FILE" arguments are still accepted.
	`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, ra, ga)
		},
	}

	cmd.PersistentFlags().StringVarP(&ra.configPath, "cfg", "c", "", "Configuration file (.json, .yaml or the bracketed format)")
	cmd.PersistentFlags().StringVarP(&ra.inputPath, "in", "i", "", "Training text file")
	cmd.PersistentFlags().StringVar(&ra.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.PersistentFlags().Uint64Var(&ra.seed, "seed", 0, "Random seed, 0 picks one at random")
	addGenerateFlags(cmd, ga)

	cmd.AddCommand(newGenerateCmd(ra))
	cmd.AddCommand(newDumpCmd(ra))
	cmd.AddCommand(newStatsCmd(ra))
	cmd.AddCommand(newHistoryCmd(ra))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func addGenerateFlags(cmd *cobra.Command, ga *generateArgs) {
	cmd.Flags().StringVarP(&ga.outputPath, "out", "o", "", "Output file, - for stdout")
	cmd.Flags().StringVar(&ga.debugPath, "debug", "debug.txt", "Transition table dump file, empty to disable")
	cmd.Flags().StringVar(&ga.dbPath, "db", "", "History database, overrides database_path")
	cmd.Flags().BoolVar(&ga.novel, "novel", false, "Only keep words that are not in the history database")
}

func newGenerateCmd(ra *rootArgs) *cobra.Command {
	ga := &generateArgs{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate words into an output file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, ra, ga)
		},
	}
	addGenerateFlags(cmd, ga)
	return cmd
}

func newDumpCmd(ra *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the transition table built from the input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := ra.setup(cmd)
			if err != nil {
				return err
			}
			wg, err := ra.buildGenerator(cfg, logger)
			if err != nil {
				return err
			}
			return wg.Dump(cmd.OutOrStdout())
		},
	}
}

func newStatsCmd(ra *rootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print statistics of the transition table built from the input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := ra.setup(cmd)
			if err != nil {
				return err
			}
			wg, err := ra.buildGenerator(cfg, logger)
			if err != nil {
				return err
			}

			s := wg.Stats()
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Order: %d\n", wg.Order())
			_, _ = fmt.Fprintf(w, "Tokens read: %d\n", len(wg.Corpus().Tokens))
			_, _ = fmt.Fprintf(w, "Vocabulary size: %d\n", s.VocabSize)
			_, _ = fmt.Fprintf(w, "Contexts: %d\n", s.Keys)
			_, _ = fmt.Fprintf(w, "Transitions: %d\n", s.Transitions)
			_, _ = fmt.Fprintf(w, "Successors per context: %.2f (stddev %.2f)\n", s.MeanBranching, s.StdBranching)
			_, _ = fmt.Fprintf(w, "Distinct successors per context: %.2f\n", s.MeanDistinct)
			_, _ = fmt.Fprintf(w, "Mean successor entropy: %.3f nats\n", s.MeanEntropy)

			lengths := make([]int, 0, len(s.KeysByLength))
			for l := range s.KeysByLength {
				lengths = append(lengths, l)
			}
			sort.Ints(lengths)
			for _, l := range lengths {
				_, _ = fmt.Fprintf(w, "Contexts of length %d: %d\n", l, s.KeysByLength[l])
			}
			return nil
		},
	}
}

func newHistoryCmd(ra *rootArgs) *cobra.Command {
	ha := &historyArgs{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs and the most generated words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := ra.setup(cmd)
			if err != nil {
				return err
			}
			if ha.dbPath != "" {
				cfg.DatabasePath = ha.dbPath
			}
			if cfg.DatabasePath == "" {
				return errors.New("no history database configured, use --db or database_path")
			}

			store, closeStore, err := openStore(cfg.DatabasePath, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			w := cmd.OutOrStdout()
			if ha.forgetOlderThan > 0 {
				n, err := store.Forget(ctx, time.Now().Add(-ha.forgetOlderThan))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(w, "Forgot %d words not generated in the last %s.\n", n, ha.forgetOlderThan)
			}

			sum, err := store.Stats(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "Runs: %d, distinct words: %d, words generated: %d\n", sum.Runs, sum.DistinctWords, sum.TotalWords)

			runs, err := store.Runs(ctx, ha.limit)
			if err != nil {
				return err
			}
			if len(runs) > 0 {
				_, _ = fmt.Fprintln(w, "\nRecent runs:")
			}
			for _, r := range runs {
				status := "unfinished"
				if r.FinishedAt != nil {
					status = fmt.Sprintf("%d written, %d failed", r.WordsWritten, r.WordsFailed)
				}
				_, _ = fmt.Fprintf(w, "  %s  %s  %s level %d, %d requested, %s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.InputPath, r.Level, r.WordsRequested, status)
			}

			words, err := store.TopWords(ctx, ha.limit)
			if err != nil {
				return err
			}
			if len(words) > 0 {
				_, _ = fmt.Fprintln(w, "\nTop words:")
			}
			for _, word := range words {
				_, _ = fmt.Fprintf(w, "  %-20s %d\n", word.Word, word.TimesGenerated)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ha.dbPath, "db", "", "History database, overrides database_path")
	cmd.Flags().IntVarP(&ha.limit, "limit", "n", 10, "Number of runs and words to show")
	cmd.Flags().DurationVar(&ha.forgetOlderThan, "forget-older-than", 0, "Delete words not generated within this duration first")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wordgen %s (commit %s, built %s, %s)\n", Version, Commit, BuildDate, dbDriver)
		},
	}
}

// setup loads the configuration and builds the logger for a command.
func (ra *rootArgs) setup(cmd *cobra.Command) (*Config, *slog.Logger, error) {
	cfg, err := LoadConfig(ra.configPath)
	if err != nil && !errors.Is(err, ErrDefaultConfigNotWritten) {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if ra.logLevel != "" {
		cfg.LogLevel = ra.logLevel
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		logger.Warn("Running with default configuration", "error", err)
	}
	return cfg, logger, nil
}

// buildGenerator decodes the input file and trains a WordGenerator on it.
func (ra *rootArgs) buildGenerator(cfg *Config, logger *slog.Logger) (*wordgen.WordGenerator, error) {
	if ra.inputPath == "" {
		return nil, errors.New("an input file is required, use --in")
	}
	f, err := os.Open(ra.inputPath)
	if err != nil {
		return nil, fmt.Errorf("could not open input file: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	corpus, err := wordgen.Decode(f, cfg.DecodeOptions())
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", ra.inputPath, err)
	}

	opts := []wordgen.Option{wordgen.WithLogger(logger)}
	if ra.seed != 0 {
		opts = append(opts, wordgen.WithSeed(ra.seed))
	}
	wg, err := wordgen.New(corpus, cfg.Level, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Model built", "input", ra.inputPath, "tokens", len(corpus.Tokens), "order", cfg.Level)
	return wg, nil
}

// openStore opens the history database and prepares a Store on it. The
// returned function releases both.
func openStore(path string, logger *slog.Logger) (*history.Store, func(), error) {
	db, err := initDB(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = history.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to setup history schema: %w", err)
	}
	store, err := history.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	store.SetLogger(logger)
	return store, func() {
		store.Close()
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}, nil
}

func runGenerate(cmd *cobra.Command, ra *rootArgs, ga *generateArgs) error {
	ctx := cmd.Context()
	cfg, logger, err := ra.setup(cmd)
	if err != nil {
		return err
	}
	if ga.dbPath != "" {
		cfg.DatabasePath = ga.dbPath
	}
	if ga.outputPath == "" {
		return errors.New("an output file is required, use --out")
	}
	if ga.novel && cfg.DatabasePath == "" {
		return errors.New("--novel needs a history database, use --db or database_path")
	}

	wg, err := ra.buildGenerator(cfg, logger)
	if err != nil {
		return err
	}

	opts := cfg.RunOptions()
	if cfg.RejectPattern != "" {
		f, err := wordgen.RejectPattern(cfg.RejectPattern)
		if err != nil {
			return err
		}
		opts.Filters = append(opts.Filters, f)
	}
	if cfg.UniqueWords || ga.novel {
		opts.Filters = append(opts.Filters, wordgen.Distinct())
	}

	var store *history.Store
	var run history.RunInfo
	if cfg.DatabasePath != "" {
		var closeStore func()
		store, closeStore, err = openStore(cfg.DatabasePath, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		run, err = store.BeginRun(ctx, history.RunInfo{
			InputPath:      ra.inputPath,
			Level:          cfg.Level,
			WordsRequested: cfg.Words,
		})
		if err != nil {
			return err
		}
		if ga.novel {
			opts.Filters = append(opts.Filters, store.NoveltyFilter())
		}
	}

	var buf bytes.Buffer
	res, err := wg.Run(ctx, &buf, opts)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	summaryOut := cmd.OutOrStdout()
	if ga.outputPath == "-" {
		summaryOut = cmd.ErrOrStderr()
		if _, err = buf.WriteTo(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("could not write output: %w", err)
		}
	} else if err = atomic.WriteFile(ga.outputPath, &buf); err != nil {
		return fmt.Errorf("could not write output file: %w", err)
	}

	if store != nil {
		if err = store.RecordWords(ctx, run.ID, res.Words); err != nil {
			return err
		}
		run.WordsWritten = res.Written
		run.WordsFailed = res.Failed
		if _, err = store.FinishRun(ctx, run); err != nil {
			return err
		}
	}

	if ga.debugPath != "" {
		var dump bytes.Buffer
		if err = wg.Dump(&dump); err != nil {
			return err
		}
		if err = atomic.WriteFile(ga.debugPath, &dump); err != nil {
			return fmt.Errorf("could not write debug file: %w", err)
		}
	}

	printSummary(summaryOut, cfg, ra, ga, wg, res)
	return nil
}

func printSummary(w io.Writer, cfg *Config, ra *rootArgs, ga *generateArgs, wg *wordgen.WordGenerator, res *wordgen.RunResult) {
	commentChar := cfg.CommentChar
	if commentChar == "" {
		commentChar = "(none)"
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Input file: %s, %d characters read.\n", ra.inputPath, len(wg.Corpus().Tokens))
	_, _ = fmt.Fprintf(w, "Output file: %s, %d words written.\n", ga.outputPath, res.Written)
	if res.Failed > 0 {
		_, _ = fmt.Fprintf(w, "Words given up on: %d, try a lower level or wider length limits.\n", res.Failed)
	}
	if ra.configPath != "" {
		_, _ = fmt.Fprintf(w, "Configuration file: %s\n", ra.configPath)
	}
	_, _ = fmt.Fprintf(w, "Complexity level: %d\n", cfg.Level)
	_, _ = fmt.Fprintf(w, "Maximum word length: %d\n", cfg.MaxWordLength)
	_, _ = fmt.Fprintf(w, "Minimum word length: %d\n", cfg.MinWordLength)
	_, _ = fmt.Fprintf(w, "Print as list: %t\n", cfg.PrintAsList)
	_, _ = fmt.Fprintf(w, "Print as names: %t\n", cfg.PrintAsNames)
	_, _ = fmt.Fprintf(w, "Make all text lower case: %t\n", cfg.LowerCase)
	_, _ = fmt.Fprintf(w, "Comment character: %s\n", commentChar)
}
