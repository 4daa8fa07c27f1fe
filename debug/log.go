package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu     sync.Mutex
	file   *os.File
	logger *log.Logger // nil while disabled
)

// DefaultPath is ~/.config/go-keyboard/debug.log
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-keyboard", "debug.log"), nil
}

// Enable starts logging to path (DefaultPath if empty), truncating it.
// Messages below level are dropped.
func Enable(path string, level log.Level) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	EnableWriter(f, level)
	mu.Lock()
	file = f
	mu.Unlock()
	return nil
}

// EnableWriter starts logging to w.
func EnableWriter(w io.Writer, level log.Level) {
	Disable()

	mu.Lock()
	defer mu.Unlock()
	logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Level:           level,
		Formatter:       log.LogfmtFormatter,
	})
	logger.Info("logging started", "cat", "debug")
}

// Disable stops logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	logger = nil
	counters = make(map[string]int)
}

// Enabled reports whether a sink is attached.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return logger != nil
}

// Log writes a debug-level message under category.
func Log(category, format string, args ...any) {
	emit(log.DebugLevel, category, format, args)
}

func Info(category, format string, args ...any) {
	emit(log.InfoLevel, category, format, args)
}

func Warn(category, format string, args ...any) {
	emit(log.WarnLevel, category, format, args)
}

func Error(category, format string, args ...any) {
	emit(log.ErrorLevel, category, format, args)
}

func emit(level log.Level, category, format string, args []any) {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l == nil {
		return
	}
	l.Log(level, fmt.Sprintf(format, args...), "cat", category)
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
