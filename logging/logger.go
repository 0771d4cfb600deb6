package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options controls where a tool logger writes
type Options struct {
	// Debug enables the debug log file
	Debug bool
	// Dir holds the debug log files, one per tool
	Dir string
	// Console receives info and above; defaults to stderr
	Console io.Writer
}

// New builds the logger for one tool invocation.
// Info and above always go to the console. With Debug set, every level is also
// appended to <Dir>/<name>.log. The returned closer releases the log file.
func New(name string, opts Options) (*logrus.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.InfoLevel)
	logger.AddHook(&writerHook{
		writer:    console,
		formatter: &logrus.TextFormatter{DisableTimestamp: true},
		levels:    levelsFrom(logrus.InfoLevel),
	})

	if !opts.Debug {
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(opts.Dir, name+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger.SetLevel(logrus.DebugLevel)
	logger.AddHook(&writerHook{
		writer:    file,
		formatter: &logrus.TextFormatter{FullTimestamp: true, DisableColors: true},
		levels:    levelsFrom(logrus.DebugLevel),
	})

	return logger, file, nil
}

// writerHook formats entries of the given levels onto its own writer
type writerHook struct {
	writer    io.Writer
	formatter logrus.Formatter
	levels    []logrus.Level
}

func (h *writerHook) Levels() []logrus.Level {
	return h.levels
}

func (h *writerHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

// levelsFrom returns every level at least as severe as lowest
func levelsFrom(lowest logrus.Level) []logrus.Level {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= lowest {
			levels = append(levels, l)
		}
	}
	return levels
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
