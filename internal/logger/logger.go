package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Log interface {
	WithField(name string, value interface{}) Log
	WithFields(fields Fields) Log
	WithError(err error) Log
	Debug(args ...interface{})
	Debugf(msg string, args ...interface{})
	Info(args ...interface{})
	Infof(msg string, args ...interface{})
	Warn(args ...interface{})
	Warnf(msg string, args ...interface{})
	Error(args ...interface{})
	Errorf(msg string, args ...interface{})
}

// Fields is a set of keys/values to include in a structured log message.
type Fields map[string]interface{}

// LogFactory produces a logger that can be used to log messages for the
// specified subsystem.
type LogFactory func(subsystem string) Log

// LogrusLogger is a Log implementation using the Logrus library.
type LogrusLogger struct {
	*logrus.Entry
}

func (l *LogrusLogger) WithField(name string, value interface{}) Log {
	return &LogrusLogger{Entry: l.Entry.WithField(name, value)}
}

func (l *LogrusLogger) WithFields(fields Fields) Log {
	return &LogrusLogger{Entry: l.Entry.WithFields(logrus.Fields(fields))}
}

func (l *LogrusLogger) WithError(err error) Log {
	return &LogrusLogger{Entry: l.Entry.WithError(err)}
}

// ParseLevel converts a level name from config into a logrus level.
// "warn" and "warning" are both accepted.
func ParseLevel(level string) (logrus.Level, error) {
	if level == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid log level %q", level)
	}
	return lvl, nil
}

// MakeLogrusLogFactoryStdErr logs to stderr, as text on a terminal and as
// JSON otherwise. Used by the non-interactive subcommands.
func MakeLogrusLogFactoryStdErr(level logrus.Level) LogFactory {
	text := isatty.IsTerminal(os.Stderr.Fd())
	return makeFactory(os.Stderr, level, text)
}

// MakeLogrusLogFactoryToFile logs to a file, for when the terminal is owned
// by the TUI. The parent directory is created if needed.
func MakeLogrusLogFactoryToFile(path string, level logrus.Level) (LogFactory, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, errors.Wrapf(err, "error creating log directory for %s", path)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "error opening log file: %s", path)
	}
	return makeFactory(file, level, true), file, nil
}

func makeFactory(out io.Writer, level logrus.Level, text bool) LogFactory {
	return func(subsystem string) Log {
		log := logrus.New()
		log.SetLevel(level)
		log.SetOutput(out)
		if text {
			log.SetFormatter(&logrus.TextFormatter{
				TimestampFormat: "2006-01-02 15:04:05",
				FullTimestamp:   true,
				DisableQuote:    true,
			})
		} else {
			log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
		}
		return &LogrusLogger{Entry: log.WithField("system", subsystem)}
	}
}

// NoOpLog implements the Log interface without actually performing any logging.
type NoOpLog struct{}

// NoOpLogFactory is a LogFactory function that always returns a NoOpLog, for when logging is not required.
func NoOpLogFactory(subsystem string) Log {
	return &NoOpLog{}
}

func (l *NoOpLog) WithField(name string, value interface{}) Log { return l }
func (l *NoOpLog) WithFields(fields Fields) Log                 { return l }
func (l *NoOpLog) WithError(err error) Log                      { return l }
func (l *NoOpLog) Debug(args ...interface{})                    {}
func (l *NoOpLog) Debugf(msg string, args ...interface{})       {}
func (l *NoOpLog) Info(args ...interface{})                     {}
func (l *NoOpLog) Infof(msg string, args ...interface{})        {}
func (l *NoOpLog) Warn(args ...interface{})                     {}
func (l *NoOpLog) Warnf(msg string, args ...interface{})        {}
func (l *NoOpLog) Error(args ...interface{})                    {}
func (l *NoOpLog) Errorf(msg string, args ...interface{})       {}
