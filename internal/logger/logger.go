// Package logger builds the application's zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// splitWriter sends ERROR and above to err and everything else to out.
type splitWriter struct {
	out io.Writer
	err io.Writer
}

func (w splitWriter) Write(p []byte) (int, error) {
	return w.out.Write(p)
}

func (w splitWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel {
		return w.err.Write(p)
	}
	return w.out.Write(p)
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// UseStacks makes Stack() events carry a pkg/errors stack trace, attaching
// one to errors that have none.
func UseStacks() {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
}

// New creates a logger writing INFO and WARN to stdout and ERROR and above to
// stderr. When logPath is set every line is also appended to that file; the
// returned close function releases it.
func New(level, logPath string) (zerolog.Logger, func() error, error) {
	return newLogger(os.Stdout, os.Stderr, level, logPath)
}

func newLogger(stdout, stderr io.Writer, level, logPath string) (zerolog.Logger, func() error, error) {
	UseStacks()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("parsing log level: %w", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	closeFn := func() error { return nil }
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
		}
		closeFn = f.Close
		stdout = io.MultiWriter(stdout, f)
		stderr = io.MultiWriter(stderr, f)
	}

	log := zerolog.New(splitWriter{out: stdout, err: stderr}).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "shramba").
		Logger()
	return log, closeFn, nil
}
