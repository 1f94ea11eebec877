package util

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is shared by every package of the emulator. It writes text to
// stderr at info level until ConfigureLogging changes that.
var Logger = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(textFormatter())
	return l
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"}
}

// ConfigureLogging sets the level ("debug", "info", ...) and picks JSON or
// text output. The logger is left untouched when level does not parse.
func ConfigureLogging(level string, json bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	if json {
		Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		Logger.SetFormatter(textFormatter())
	}
	return nil
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithSwitch tags entries with the emulated switch name.
func WithSwitch(name string) *logrus.Entry {
	return Logger.WithField("switch", name)
}

// WithSession tags entries with a switch and one of its client sessions.
func WithSession(switchName, sessionID string) *logrus.Entry {
	return WithSwitch(switchName).WithField("session", sessionID)
}

func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }
