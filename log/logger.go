package log

import (
	"strings"

	"github.com/pkg/errors"
)

// Logger is the leveled logger used across the message bus and the saga participants
type Logger interface {
	Log(level Level, v ...interface{})
	Logf(level Level, template string, args ...interface{})
	SetLevel(level Level)
	// WithFields returns a logger that prints given fields along with every entry
	WithFields(fields []Field) Logger
}

type Level uint32

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

// Field is a named value attached to log entries
type Field struct {
	Name string
	Val  interface{}
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}

	return "unknown"
}

// ParseLevel converts a level name into Level
func ParseLevel(lvl string) (Level, error) {
	for level, name := range levelNames {
		if strings.EqualFold(name, lvl) {
			return level, nil
		}
	}

	return InfoLevel, errors.Errorf("not a valid log level: %q", lvl)
}

var levelNames = map[Level]string{
	PanicLevel: "panic",
	FatalLevel: "fatal",
	ErrorLevel: "error",
	WarnLevel:  "warn",
	InfoLevel:  "info",
	DebugLevel: "debug",
	TraceLevel: "trace",
}
