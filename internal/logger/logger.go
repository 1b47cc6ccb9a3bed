// Package logger provides structured logging on top of logrus with context
// propagation and optional rotating file output.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// fileWriter is the rotating writer of the current default logger, closed by Sync.
var (
	fileWriter   io.Closer
	fileWriterMu sync.Mutex
)

// Logger wraps logrus.Entry to provide structured logging with context support.
type Logger struct {
	*logrus.Entry
}

// Config holds logger configuration.
type Config struct {
	Level       string    // debug, info, warn, error
	Format      string    // json, text
	Output      io.Writer // defaults to stderr
	ServiceName string

	// File enables rotated file output next to Output.
	File       string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultConfig returns the configuration used before the CLI configured logging.
func DefaultConfig() Config {
	return Config{
		Level:       "info",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "faceswap",
	}
}

// New creates a new Logger with the given configuration.
func New(cfg Config) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetReportCaller(level >= logrus.DebugLevel)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			CallerPrettyfier: callerPrettyfier,
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  timestampFormat,
			CallerPrettyfier: callerPrettyfier,
		})
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(out, rotating)

		fileWriterMu.Lock()
		fileWriter = rotating
		fileWriterMu.Unlock()
	}
	log.SetOutput(out)

	service := cfg.ServiceName
	if service == "" {
		service = "faceswap"
	}
	return &Logger{Entry: log.WithField("service", service)}
}

// Sync closes the rotating log file, if any. Call it before the program exits.
func Sync() error {
	fileWriterMu.Lock()
	defer fileWriterMu.Unlock()

	if fileWriter != nil {
		err := fileWriter.Close()
		fileWriter = nil
		return err
	}
	return nil
}

// WithFields returns a new Logger with additional fields.
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{Entry: l.Entry.WithFields(logrus.Fields(fields))}
}

// WithField returns a new Logger with a single additional field.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}

// WithError returns a new Logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Entry: l.Entry.WithError(err)}
}

// Component returns a logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return l.WithField(FieldComponent, name)
}

// callerPrettyfier shortens caller information to function name and file:line.
func callerPrettyfier(frame *runtime.Frame) (function string, file string) {
	funcName := frame.Function
	if idx := strings.LastIndex(funcName, "/"); idx != -1 {
		funcName = funcName[idx+1:]
	}
	return funcName, filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line)
}
