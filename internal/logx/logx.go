package logx

import (
	"io"
	"log"
	"strings"
)

// Levels, lowest first.
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
)

var tags = []struct {
	tag   string
	level int
}{
	{"[FATAL]", LevelError},
	{"[ERROR]", LevelError},
	{"[WARN]", LevelWarn},
	{"[INFO]", LevelInfo},
	{"[DEBUG]", LevelDebug},
}

type leveledWriter struct {
	minLevel int
	target   io.Writer
}

func (w *leveledWriter) Write(p []byte) (int, error) {
	if levelFromMessage(string(p)) < w.minLevel {
		return len(p), nil
	}
	return w.target.Write(p)
}

// ParseLevel maps a level name to its constant; unknown names mean info.
func ParseLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Setup routes the standard logger through a filter that drops lines tagged
// below level.
func Setup(level string, target io.Writer) {
	log.SetOutput(NewWriter(ParseLevel(level), target))
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// NewWriter returns a writer that forwards only lines at or above minLevel.
func NewWriter(minLevel int, target io.Writer) io.Writer {
	return &leveledWriter{minLevel: minLevel, target: target}
}

// levelFromMessage finds the first level tag in a log line. Untagged lines
// are info.
func levelFromMessage(msg string) int {
	first, level := -1, LevelInfo
	for _, t := range tags {
		if i := strings.Index(msg, t.tag); i >= 0 && (first < 0 || i < first) {
			first, level = i, t.level
		}
	}
	return level
}
