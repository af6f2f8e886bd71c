// Package log provides the logging facilities of pagemirror. A single
// multi-destination slog logger is shared by the whole process, components
// log through a FieldedLogger carrying their predefined fields.
package log

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/MatusOllah/slogcolor"
	"github.com/fatih/color"
	slogmulti "github.com/samber/slog-multi"

	"pagemirror/internal/pkg/config"
)

var (
	multiLogger *slog.Logger
	logFile     *os.File
	startOnce   sync.Once
	stopOnce    sync.Once
)

// Start initializes the process-wide logger. Safe to call multiple times,
// only the first call has an effect.
func Start() {
	startOnce.Do(func() {
		handlers := []slog.Handler{makeStdoutHandler()}

		if fileHandler := makeFileHandler(); fileHandler != nil {
			handlers = append(handlers, fileHandler)
		}

		multiLogger = slog.New(slogmulti.Fanout(handlers...))
		slog.SetDefault(multiLogger)
	})
}

// Stop flushes and closes the logging destinations
func Stop() {
	stopOnce.Do(func() {
		if logFile != nil {
			logFile.Close()
		}
	})
}

func makeStdoutHandler() slog.Handler {
	level := stdoutLevel()

	if config.Get() != nil && config.Get().NoColor {
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slogcolor.NewHandler(os.Stdout, newColorOptions(level))
}

func newColorOptions(level slog.Level) *slogcolor.Options {
	return &slogcolor.Options{
		Level:         level,
		TimeFormat:    time.RFC3339,
		SrcFileMode:   slogcolor.ShortFile,
		SrcFileLength: 20,
		MsgPrefix:     color.HiWhiteString("| "),
		MsgColor:      color.New().Add(color.FgYellow),
		LevelTags:     slogcolor.DefaultLevelTags,
	}
}

// makeFileHandler returns nil when file logging is disabled or the log
// directory cannot be created
func makeFileHandler() slog.Handler {
	if config.Get() == nil || config.Get().NoFileLogging || config.Get().JobPath == "" {
		return nil
	}

	logDir := path.Join(config.Get().JobPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fmt.Fprintln(os.Stderr, "unable to create log directory:", err)
		return nil
	}

	logPath := path.Join(logDir, fmt.Sprintf("pagemirror-%s.log", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "unable to open log file:", err)
		return nil
	}

	logFile = f

	return slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
}

func stdoutLevel() slog.Level {
	if config.Get() == nil {
		return slog.LevelInfo
	}
	return parseLevel(config.Get().StdoutLogLevel)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
