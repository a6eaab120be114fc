package logger

import "fmt"

// Field is a key and value attached to a log line.
type Field interface {
	Key() string
	String() string
}

type Fields []Field

type genericField struct {
	key    string
	value  any
	format string
}

func (f genericField) Key() string    { return f.key }
func (f genericField) String() string { return fmt.Sprintf(f.format, f.value) }

func StringField(key, value string) Field {
	return genericField{key: key, value: value, format: "%s"}
}

func IntField(key string, value int) Field {
	return genericField{key: key, value: value, format: "%d"}
}
