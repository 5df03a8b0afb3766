package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/CTAG07/wordgen/pkg/wordgen"
)

var (
	// ErrInvalidConfig is returned when a configuration cannot be used for a run.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrDefaultConfigNotWritten is returned together with a usable
	// configuration when a missing JSON file could not be created.
	ErrDefaultConfigNotWritten = errors.New("default config file not written")
)

// envPrefix is prepended to every environment override, e.g. WORDGEN_LEVEL.
const envPrefix = "WORDGEN_"

// Config holds everything a generation run can be tuned with.
type Config struct {
	Level         int    `json:"level" yaml:"level" env:"LEVEL"`
	Words         int    `json:"words" yaml:"words" env:"WORDS"`
	MaxWordLength int    `json:"max_word_length" yaml:"max_word_length" env:"MAX_WORD_LENGTH"`
	MinWordLength int    `json:"min_word_length" yaml:"min_word_length" env:"MIN_WORD_LENGTH"`
	PrintAsList   bool   `json:"print_as_list" yaml:"print_as_list" env:"PRINT_AS_LIST"`
	PrintAsNames  bool   `json:"print_as_names" yaml:"print_as_names" env:"PRINT_AS_NAMES"`
	LowerCase     bool   `json:"lower_case" yaml:"lower_case" env:"LOWER_CASE"`
	CommentChar   string `json:"comment_char" yaml:"comment_char" env:"COMMENT_CHAR"`
	LineFeed      string `json:"line_feed" yaml:"line_feed" env:"LINE_FEED"`
	MaxTries      int    `json:"max_tries" yaml:"max_tries" env:"MAX_TRIES"`
	RejectPattern string `json:"reject_pattern" yaml:"reject_pattern" env:"REJECT_PATTERN"`
	UniqueWords   bool   `json:"unique_words" yaml:"unique_words" env:"UNIQUE_WORDS"`
	LogLevel      string `json:"log_level" yaml:"log_level" env:"LOG_LEVEL"`
	DatabasePath  string `json:"database_path" yaml:"database_path" env:"DATABASE_PATH"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Level:         3,
		Words:         10,
		MaxWordLength: 12,
		MinWordLength: 3,
		PrintAsList:   true,
		LowerCase:     true,
		LineFeed:      "U",
		MaxTries:      wordgen.DefaultMaxTries,
		LogLevel:      "info",
	}
}

// LoadConfig reads the configuration at path and applies environment
// overrides. The format follows the file extension: .json, .yaml or .yml,
// and the bracketed key=[value] format for anything else. A missing JSON file
// is created with the defaults; if that fails, the loaded configuration is
// returned along with an error wrapping ErrDefaultConfigNotWritten. An empty
// path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	var writeErr error
	if path != "" {
		var err error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			writeErr, err = loadJSON(path, config)
		case ".yaml", ".yml":
			err = loadYAML(path, config)
		default:
			err = loadLegacy(path, config)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, writeErr
}

// loadJSON reads path into config. writeErr reports a missing file that could
// not be created; the run can still go ahead with the defaults.
func loadJSON(path string, config *Config) (writeErr, err error) {
	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrDefaultConfigNotWritten, path, err), nil
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil, nil
}

func loadYAML(path string, config *Config) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err = yaml.Unmarshal(file, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Labels of the bracketed format. Values start at column legacyValueColumn.
const (
	legacyLevel       = "Complexity level            =["
	legacyWords       = "Number of words to generate =["
	legacyMaxLength   = "Maximum allowed word length =["
	legacyMinLength   = "Minimum allowed word length =["
	legacyList        = "Print as list               =["
	legacyNames       = "Print as names              =["
	legacyLowerCase   = "Make all text lower case    =["
	legacyCommentChar = "Comment character           =["
	legacyLineFeed    = "Line feed style             =["
	legacyValueColumn = 30
)

func loadLegacy(path string, config *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	if err = parseLegacy(f, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// parseLegacy reads the bracketed format. Unknown lines are ignored, and so
// are flag values other than 0 and 1.
func parseLegacy(r io.Reader, config *Config) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		var label string
		for _, l := range []string{legacyLevel, legacyWords, legacyMaxLength, legacyMinLength,
			legacyList, legacyNames, legacyLowerCase, legacyCommentChar, legacyLineFeed} {
			if strings.HasPrefix(line, l) {
				label = l
				break
			}
		}
		if label == "" {
			continue
		}

		end := strings.LastIndex(line, "]")
		if end < legacyValueColumn {
			return fmt.Errorf("line %d: missing closing bracket", lineNo)
		}
		value := line[legacyValueColumn:end]

		switch label {
		case legacyLevel, legacyWords, legacyMaxLength, legacyMinLength:
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("line %d: could not parse number %q: %w", lineNo, value, err)
			}
			switch label {
			case legacyLevel:
				config.Level = n
			case legacyWords:
				config.Words = n
			case legacyMaxLength:
				config.MaxWordLength = n
			case legacyMinLength:
				config.MinWordLength = n
			}
		case legacyList:
			setLegacyFlag(&config.PrintAsList, value)
		case legacyNames:
			setLegacyFlag(&config.PrintAsNames, value)
		case legacyLowerCase:
			setLegacyFlag(&config.LowerCase, value)
		case legacyCommentChar:
			config.CommentChar = firstRune(value)
		case legacyLineFeed:
			config.LineFeed = firstRune(value)
		}
	}
	return scanner.Err()
}

func setLegacyFlag(dst *bool, value string) {
	switch value {
	case "1":
		*dst = true
	case "0":
		*dst = false
	}
}

func firstRune(s string) string {
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

// Validate reports the first setting that would make a run impossible.
func (c *Config) Validate() error {
	switch {
	case c.Level < 1:
		return fmt.Errorf("%w: level must be positive, got %d", ErrInvalidConfig, c.Level)
	case c.Words < 1:
		return fmt.Errorf("%w: words must be positive, got %d", ErrInvalidConfig, c.Words)
	case c.MaxWordLength < 1 || c.MinWordLength < 1:
		return fmt.Errorf("%w: word lengths must be positive, got %d..%d", ErrInvalidConfig, c.MinWordLength, c.MaxWordLength)
	case c.MinWordLength > c.MaxWordLength:
		return fmt.Errorf("%w: minimum word length %d exceeds maximum %d", ErrInvalidConfig, c.MinWordLength, c.MaxWordLength)
	case c.MaxTries < 1:
		return fmt.Errorf("%w: max tries must be positive, got %d", ErrInvalidConfig, c.MaxTries)
	case utf8.RuneCountInString(c.CommentChar) > 1:
		return fmt.Errorf("%w: comment character must be a single character, got %q", ErrInvalidConfig, c.CommentChar)
	}
	if _, err := wordgen.ParseLineEnding(c.LineFeed); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// DecodeOptions returns the corpus decoding settings.
func (c *Config) DecodeOptions() wordgen.DecodeOptions {
	opts := wordgen.DecodeOptions{LowerCase: c.LowerCase}
	if c.CommentChar != "" {
		opts.CommentChar, _ = utf8.DecodeRuneInString(c.CommentChar)
	}
	return opts
}

// RunOptions returns the generation settings, without filters.
func (c *Config) RunOptions() wordgen.RunOptions {
	le, _ := wordgen.ParseLineEnding(c.LineFeed)
	return wordgen.RunOptions{
		Words:      c.Words,
		MinLength:  c.MinWordLength,
		MaxLength:  c.MaxWordLength,
		MaxTries:   c.MaxTries,
		List:       c.PrintAsList,
		Names:      c.PrintAsNames,
		LineEnding: le,
	}
}
