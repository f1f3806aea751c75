package service

import "encoding/json"

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// marshalJSON serializes a value for audit payloads. Marshal errors are
// collapsed to an empty object: audit content must never decide whether
// an operation fails, only the audit write itself does.
func marshalJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
