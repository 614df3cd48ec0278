package pipeline

// Logger is the minimal logging surface the pipeline needs. The default
// is a no-op; callers plug their own backend via WithLogger.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
}

// Field is one structured logging attribute.
type Field struct {
	Key   string
	Value interface{}
}

// String builds a string field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int builds an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Err builds an error field.
func Err(err error) Field { return Field{Key: "error", Value: err} }

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
