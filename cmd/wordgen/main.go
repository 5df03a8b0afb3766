package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cmd := newRootCmd()
	cmd.SetArgs(rewriteLegacyArgs(os.Args[1:]))
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// rewriteLegacyArgs turns the in=, out= and cfg= arguments of the original
// command line into the matching flags.
func rewriteLegacyArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		for _, name := range []string{"in", "out", "cfg"} {
			if v, ok := strings.CutPrefix(a, name+"="); ok && v != "" {
				a = "--" + name + "=" + v
				break
			}
		}
		out = append(out, a)
	}
	return out
}

// newLogger returns a slog.Logger backed by a charmbracelet/log handler.
// Unknown levels fall back to info.
func newLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "wordgen",
	})
	return slog.New(handler)
}
