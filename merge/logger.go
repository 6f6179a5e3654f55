package merge

// Logger receives the engine's diagnostic output on three severity
// channels. Implementations are expected to gate on their configured level
// before formatting, which keeps disabled channels off the hot path;
// *logrus.Logger satisfies the interface directly.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}

// NopLogger returns a Logger that discards everything. It is the default
// when no logger is configured.
func NopLogger() Logger {
	return nopLogger{}
}
