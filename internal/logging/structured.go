// Package logging provides structured JSON logging for domem components.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel maps a level name to a Level, defaulting to LevelWarn.
func ParseLevel(s string) Level {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := levelRank[l]; ok {
		return l
	}
	return LevelWarn
}

// Event represents a structured log event
type Event struct {
	Timestamp string                 `json:"ts"`
	Level     Level                  `json:"level"`
	Component string                 `json:"component"`
	Event     string                 `json:"event"`
	Backend   string                 `json:"backend,omitempty"`
	Duration  int64                  `json:"duration_ms,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

var (
	outMu    sync.Mutex
	out      io.Writer = os.Stderr
	minLevel           = LevelWarn
)

// SetOutput redirects all loggers; nil restores stderr. Hooks keep the
// default so stdout stays reserved for context injected into the agent.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
}

// SetLevel sets the minimum level emitted by all loggers.
func SetLevel(l Level) {
	outMu.Lock()
	defer outMu.Unlock()
	minLevel = l
}

// Logger provides structured logging
type Logger struct {
	component string
	backend   string
}

// New creates a new logger for a component
func New(component string) *Logger {
	return &Logger{component: component}
}

// WithBackend sets the backend context
func (l *Logger) WithBackend(backend string) *Logger {
	return &Logger{
		component: l.component,
		backend:   backend,
	}
}

// log emits a structured log event
func (l *Logger) log(level Level, event string, extra map[string]interface{}, err error) {
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Component: l.component,
		Event:     event,
		Backend:   l.backend,
		Extra:     extra,
	}

	if err != nil {
		e.Error = err.Error()
	}

	emit(e)
}

func emit(e Event) {
	outMu.Lock()
	defer outMu.Unlock()

	if levelRank[e.Level] < levelRank[minLevel] {
		return
	}
	data, _ := json.Marshal(e)
	fmt.Fprintln(out, string(data))
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]interface{}) {
	l.log(LevelDebug, event, extra, nil)
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]interface{}) {
	l.log(LevelInfo, event, extra, nil)
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]interface{}, err error) {
	l.log(LevelWarn, event, extra, err)
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]interface{}, err error) {
	l.log(LevelError, event, extra, err)
}

// TimedEvent logs an info event with duration
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]interface{}) {
	emit(Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelInfo,
		Component: l.component,
		Event:     event,
		Backend:   l.backend,
		Duration:  time.Since(start).Milliseconds(),
		Extra:     extra,
	})
}
