package logger

import (
	"fmt"
	"strings"
)

type Level int

const (
	DEBUG Level = iota
	NOTICE
	INFO
	ERROR
	WARN
	FATAL
)

var levelNames = []string{
	"DEBUG",
	"NOTICE",
	"INFO",
	"ERROR",
	"WARN",
	"FATAL",
}

// String returns the string representation of a logging level.
func (p Level) String() string {
	if p < 0 || int(p) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(p))
	}
	return levelNames[p]
}

// LevelFromString parses a level name such as "info" or "WARN".
func LevelFromString(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "notice":
		return NOTICE, nil
	case "info":
		return INFO, nil
	case "error":
		return ERROR, nil
	case "warn", "warning":
		return WARN, nil
	case "fatal":
		return FATAL, nil
	default:
		return -1, fmt.Errorf("invalid log level %q (valid: debug, notice, info, error, warn, fatal)", s)
	}
}
