package logging

import "log/slog"

// Logger splits info and error messages between two slog loggers. It
// satisfies the Logger interface of the monitor package.
type Logger struct {
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
}

func (l Logger) Info(message string, module string) {
	l.InfoLog.Info(message, "module", module)
}

func (l Logger) Error(message string) {
	l.ErrorLog.Error(message)
}
