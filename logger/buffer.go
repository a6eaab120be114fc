package logger

import (
	"fmt"
	"strings"
	"sync"
)

// Buffer records every message it is given, as "[level] message key=value",
// so tests can assert on what was logged. Loggers returned by WithFields
// record into the same Messages slice.
type Buffer struct {
	Messages []string

	mu     sync.Mutex
	fields Fields
	parent *Buffer
}

// NewBuffer returns an empty Buffer. Messages starts non-nil so an unused
// Buffer compares equal to []string{}.
func NewBuffer() *Buffer {
	return &Buffer{Messages: []string{}}
}

func (b *Buffer) Debug(format string, v ...any)  { b.record(DEBUG, format, v) }
func (b *Buffer) Notice(format string, v ...any) { b.record(NOTICE, format, v) }
func (b *Buffer) Info(format string, v ...any)   { b.record(INFO, format, v) }
func (b *Buffer) Warn(format string, v ...any)   { b.record(WARN, format, v) }
func (b *Buffer) Error(format string, v ...any)  { b.record(ERROR, format, v) }

// Fatal is recorded like any other level; it never exits.
func (b *Buffer) Fatal(format string, v ...any) { b.record(FATAL, format, v) }

func (b *Buffer) record(level Level, format string, v []any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] ", strings.ToLower(level.String()))
	fmt.Fprintf(&sb, format, v...)
	for _, f := range b.fields {
		fmt.Fprintf(&sb, " %s=%s", f.Key(), f.String())
	}

	root := b.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	root.Messages = append(root.Messages, sb.String())
}

// WithFields returns a Buffer that appends fields to each message and
// records into b.
func (b *Buffer) WithFields(fields ...Field) Logger {
	return &Buffer{
		fields: append(append(Fields{}, b.fields...), fields...),
		parent: b.root(),
	}
}

func (b *Buffer) SetLevel(Level) {}

// Level is always DEBUG: a Buffer keeps everything.
func (b *Buffer) Level() Level { return DEBUG }

// Reset drops the recorded messages.
func (b *Buffer) Reset() {
	root := b.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	root.Messages = root.Messages[:0]
}

func (b *Buffer) root() *Buffer {
	if b.parent != nil {
		return b.parent
	}
	return b
}
