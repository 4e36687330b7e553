// Package logger builds the process-wide slog logger: text or JSON on the
// console, plus Sentry for errors when a DSN is configured.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance
var Log = slog.Default()

// Options configures a logger.
type Options struct {
	// Dev selects text output at debug level; otherwise JSON at info.
	Dev bool

	SentryDSN string
	// Env and Release tag Sentry events.
	Env     string
	Release string

	// Site is attached to every record when set.
	Site string

	// Output receives console records (default os.Stdout).
	Output io.Writer
}

// New builds a logger from opts. A Sentry DSN that fails to initialize is
// reported on the console and otherwise ignored.
func New(opts Options) *slog.Logger {
	w := opts.Output
	if w == nil {
		w = os.Stdout
	}

	var console slog.Handler
	if opts.Dev {
		console = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		console = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	handler := console
	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryDSN,
			Environment:      opts.Env,
			Release:          opts.Release,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handler = slogmulti.Fanout(console, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		} else {
			slog.New(console).Warn("sentry disabled", "err", err)
		}
	}

	log := slog.New(handler)
	if opts.Site != "" {
		log = log.With("site", opts.Site)
	}
	return log
}

// Init builds a logger and installs it as Log and as the slog default.
func Init(opts Options) *slog.Logger {
	Log = New(opts)
	slog.SetDefault(Log)
	return Log
}

// Flush waits for buffered Sentry events. It is a no-op without Sentry.
func Flush() {
	sentry.Flush(2 * time.Second)
}
