package log

import (
	"fmt"
	"io"
	"log"
	"strings"
)

const prefix = "[ordersaga] "

// DefaultLogger returns the logger used by services if other isn't specified. Info level by default.
func DefaultLogger(out io.Writer) Logger {
	return &defaultLogger{
		internalLogger: log.New(out, prefix, log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile),
		level:          InfoLevel,
	}
}

type defaultLogger struct {
	internalLogger *log.Logger
	level          Level
	fields         []Field
}

func (l defaultLogger) Log(level Level, v ...interface{}) {
	msg := l.format(level, fmt.Sprint(v...))

	switch level {
	case FatalLevel:
		l.internalLogger.Fatal(msg)
		return
	case PanicLevel:
		l.internalLogger.Output(2, msg) //nolint:errcheck
		panic(fmt.Sprint(v...))
	}

	if level <= l.level {
		if err := l.internalLogger.Output(3, msg); err != nil {
			l.internalLogger.Printf("err logging an entry: %s. %s\n", err, v)
		}
	}
}

func (l defaultLogger) Logf(level Level, template string, args ...interface{}) {
	l.Log(level, fmt.Sprintf(template, args...))
}

func (l *defaultLogger) SetLevel(level Level) {
	l.level = level
}

func (l *defaultLogger) WithFields(fields []Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)

	return &defaultLogger{
		internalLogger: l.internalLogger,
		level:          l.level,
		fields:         merged,
	}
}

func (l defaultLogger) format(level Level, msg string) string {
	if len(l.fields) == 0 {
		return fmt.Sprintf("%s [%s]", level, msg)
	}

	pairs := make([]string, len(l.fields))
	for i, f := range l.fields {
		pairs[i] = fmt.Sprintf("%s=%v", f.Name, f.Val)
	}

	return fmt.Sprintf("%s [%s]  [%s]", level, strings.Join(pairs, " "), msg)
}
