package log

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-foreman/ordersaga/log"
	"github.com/stretchr/testify/assert"
)

// NewNilLogger records entries instead of printing them
func NewNilLogger() *testLogger {
	return &testLogger{entriesStore: &entriesStore{}}
}

type entriesStore struct {
	mutex   sync.Mutex
	entries []entry
}

type testLogger struct {
	level        log.Level
	fields       []log.Field
	entriesStore *entriesStore
}

type entry struct {
	Msg    string
	Level  log.Level
	Fields []log.Field
}

func (n *testLogger) Log(level log.Level, v ...interface{}) {
	n.add(entry{Msg: fmt.Sprint(v...), Level: level, Fields: n.fields})
}

func (n *testLogger) Logf(level log.Level, template string, args ...interface{}) {
	n.add(entry{Msg: fmt.Sprintf(template, args...), Level: level, Fields: n.fields})
}

func (n *testLogger) SetLevel(level log.Level) {
	n.level = level
}

func (n *testLogger) WithFields(fields []log.Field) log.Logger {
	merged := make([]log.Field, 0, len(n.fields)+len(fields))
	merged = append(merged, n.fields...)
	merged = append(merged, fields...)

	return &testLogger{
		entriesStore: n.entriesStore,
		level:        n.level,
		fields:       merged,
	}
}

func (n *testLogger) add(e entry) {
	n.entriesStore.mutex.Lock()
	defer n.entriesStore.mutex.Unlock()
	n.entriesStore.entries = append(n.entriesStore.entries, e)
}

func (n *testLogger) Entries() []entry {
	n.entriesStore.mutex.Lock()
	defer n.entriesStore.mutex.Unlock()

	r := make([]entry, len(n.entriesStore.entries))
	copy(r, n.entriesStore.entries)

	return r
}

func (n *testLogger) Messages() []string {
	entries := n.Entries()
	r := make([]string, len(entries))
	for i := range entries {
		r[i] = entries[i].Msg
	}

	return r
}

func (n *testLogger) LastMessage() string {
	entries := n.Entries()
	if len(entries) > 0 {
		return entries[len(entries)-1].Msg
	}

	return ""
}

// AssertContainsSubstr checks that at least one of recorded messages contains substr
func (n *testLogger) AssertContainsSubstr(t *testing.T, substr string) bool {
	for _, msg := range n.Messages() {
		if strings.Contains(msg, substr) {
			return true
		}
	}

	return assert.Fail(t, fmt.Sprintf("none of logged messages contains %q", substr), "messages: %v", n.Messages())
}

func (n *testLogger) Clear() {
	n.entriesStore.mutex.Lock()
	n.entriesStore.entries = make([]entry, 0)
	n.entriesStore.mutex.Unlock()
	n.level = log.InfoLevel
	n.fields = nil
}
