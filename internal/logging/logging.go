package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// Options selects level, format and destination of log output.
type Options struct {
	Level  string // debug|info|warn|error
	Format string // text|json
	Output io.Writer
	Caller bool
}

// New builds a logrus logger from opts. Output defaults to stderr so that
// command output on stdout stays machine readable.
func New(opts Options) (*logrus.Logger, error) {
	l := logrus.New()
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	l.SetOutput(opts.Output)
	if opts.Level == "" {
		opts.Level = "info"
	}
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	l.SetLevel(level)
	l.SetReportCaller(opts.Caller)

	pretty := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}
	switch opts.Format {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: pretty,
		})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: pretty,
		})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", opts.Format)
	}
	return l, nil
}
