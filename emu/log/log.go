// Package log is a module-aware logger built on top of logrus.
//
// Each emulated subsystem logs through its own Module. Warnings and errors are
// always emitted, debug and info logs only for modules enabled through
// EnableDebugModules. The EntryZ API does not allocate when the module is
// disabled, so it can be used on hot paths.
package log

import (
	"io"
	"sync/atomic"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level = logrus.Level

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)

var disabled atomic.Bool

func init() {
	logrus.SetLevel(logrus.DebugLevel)
}

// Disable disables all logging, including warnings and errors.
func Disable() { disabled.Store(true) }

// SetOutput sets the destination of all log entries.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

func emit(mod Module, lvl Level, fields logrus.Fields, msg string) {
	if fields == nil {
		fields = make(logrus.Fields, 1)
	}
	fields["_mod"] = mod.String()

	entry := logrus.StandardLogger().WithFields(fields)
	switch lvl {
	case DebugLevel:
		entry.Debug(msg)
	case InfoLevel:
		entry.Info(msg)
	case WarnLevel:
		entry.Warn(msg)
	case ErrorLevel:
		entry.Error(msg)
	case FatalLevel:
		entry.Fatal(msg)
	case PanicLevel:
		entry.Panic(msg)
	}
}
