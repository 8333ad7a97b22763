// Copyright 2025 The vKern Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides a leveled logging facility for the kernel core.
//
// The default global logger emits Info and Warning messages to stderr in a
// glog-compatible format. Debug logging must be enabled explicitly; the
// level check is cheap enough for hot paths.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Level is a log level.
type Level uint32

const (
	// Warning indicates a problem that should be investigated.
	Warning Level = iota

	// Info is informational and always safe to emit.
	Info

	// Debug is verbose diagnostic output, normally disabled.
	Debug
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case Warning:
		return "Warning"
	case Info:
		return "Info"
	case Debug:
		return "Debug"
	default:
		return fmt.Sprintf("Invalid level: %d", uint32(l))
	}
}

// prefix is the single-character glog level tag.
func (l Level) prefix() byte {
	switch l {
	case Warning:
		return 'W'
	case Debug:
		return 'D'
	default:
		return 'I'
	}
}

// Emitter is the final destination for log lines.
type Emitter interface {
	// Emit emits the given log statement.
	Emit(level Level, timestamp time.Time, format string, v ...any)
}

// Writer writes formatted log lines to an io.Writer.
//
// Lines have the form:
//
//	Lmmdd hh:mm:ss.uuuuuu] msg...
//
// compatible with package github.com/golang/glog output, minus the caller
// fields.
type Writer struct {
	// Next is the log sink.
	Next io.Writer

	// mu serializes lines from concurrent writers.
	mu sync.Mutex
}

// Emit implements Emitter.Emit.
func (w *Writer) Emit(level Level, timestamp time.Time, format string, v ...any) {
	_, month, day := timestamp.Date()
	hour, minute, second := timestamp.Clock()
	prefix := fmt.Sprintf("%c%02d%02d %02d:%02d:%02d.%06d] ",
		level.prefix(), int(month), day, hour, minute, second, timestamp.Nanosecond()/1000)

	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.Next, prefix+format+"\n", v...)
}

// Logger is a high-level logging interface.
type Logger interface {
	// Debugf logs a debug statement.
	Debugf(format string, v ...any)

	// Infof logs an informational statement.
	Infof(format string, v ...any)

	// Warningf logs a warning statement.
	Warningf(format string, v ...any)

	// IsLogging returns true iff this level is being logged.
	IsLogging(level Level) bool
}

// BasicLogger is the convenience implementation of Logger.
type BasicLogger struct {
	Level
	Emitter
}

// Debugf implements Logger.Debugf.
func (l *BasicLogger) Debugf(format string, v ...any) {
	if l.IsLogging(Debug) {
		l.Emit(Debug, time.Now(), format, v...)
	}
}

// Infof implements Logger.Infof.
func (l *BasicLogger) Infof(format string, v ...any) {
	if l.IsLogging(Info) {
		l.Emit(Info, time.Now(), format, v...)
	}
}

// Warningf implements Logger.Warningf.
func (l *BasicLogger) Warningf(format string, v ...any) {
	if l.IsLogging(Warning) {
		l.Emit(Warning, time.Now(), format, v...)
	}
}

// IsLogging implements Logger.IsLogging.
func (l *BasicLogger) IsLogging(level Level) bool {
	return level <= l.Level
}

// logger is the global logger.
var logger atomic.Pointer[BasicLogger]

func init() {
	logger.Store(&BasicLogger{Level: Info, Emitter: &Writer{Next: os.Stderr}})
}

// Log retrieves the global logger.
func Log() *BasicLogger {
	return logger.Load()
}

// SetTarget sets the log target for the global logger.
func SetTarget(target Emitter) {
	old := Log()
	logger.Store(&BasicLogger{Level: old.Level, Emitter: target})
}

// SetLevel sets the log level for the global logger.
func SetLevel(newLevel Level) {
	old := Log()
	logger.Store(&BasicLogger{Level: newLevel, Emitter: old.Emitter})
}

// Debugf logs to the global logger.
func Debugf(format string, v ...any) {
	Log().Debugf(format, v...)
}

// Infof logs to the global logger.
func Infof(format string, v ...any) {
	Log().Infof(format, v...)
}

// Warningf logs to the global logger.
func Warningf(format string, v ...any) {
	Log().Warningf(format, v...)
}

// IsLogging returns whether the global logger logs the given level.
func IsLogging(level Level) bool {
	return Log().IsLogging(level)
}
