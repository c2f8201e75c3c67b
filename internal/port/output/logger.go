package output

// Fields is the structured context attached to a log entry
type Fields map[string]any

// Logger is an output port for leveled structured logging. Every state
// transition and lock decision in the reconciliation core is logged through it.
type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warning(msg string, fields Fields)
	Error(msg string, fields Fields)
	Critical(msg string, fields Fields)
}
