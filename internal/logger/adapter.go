package logger

import (
	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used by the library, fetch, link and tidy
// packages. Fields are alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
}

type NoOpLogger struct{}

func (l NoOpLogger) Debug(msg string, fields ...interface{})            {}
func (l NoOpLogger) Info(msg string, fields ...interface{})             {}
func (l NoOpLogger) Warn(msg string, fields ...interface{})             {}
func (l NoOpLogger) Error(msg string, err error, fields ...interface{}) {}

// LogrusAdapter implements Logger on top of a logrus entry.
type LogrusAdapter struct {
	entry *logrus.Entry
}

// NewLogrusAdapter wraps entry; a nil entry uses the global logger.
func NewLogrusAdapter(entry *logrus.Entry) *LogrusAdapter {
	if entry == nil {
		entry = L
	}
	return &LogrusAdapter{entry: entry}
}

func (a *LogrusAdapter) Debug(msg string, fields ...interface{}) {
	a.with(fields).Debug(msg)
}

func (a *LogrusAdapter) Info(msg string, fields ...interface{}) {
	a.with(fields).Info(msg)
}

func (a *LogrusAdapter) Warn(msg string, fields ...interface{}) {
	a.with(fields).Warn(msg)
}

func (a *LogrusAdapter) Error(msg string, err error, fields ...interface{}) {
	e := a.with(fields)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(msg)
}

func (a *LogrusAdapter) with(fields []interface{}) *logrus.Entry {
	if len(fields) == 0 {
		return a.entry
	}
	data := make(logrus.Fields, len(fields)/2+1)
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		if i+1 < len(fields) {
			data[key] = fields[i+1]
		} else {
			data[key] = nil
		}
	}
	return a.entry.WithFields(data)
}
