package shell

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/killfeed/deploy-tools/logger"
)

// Logger is where a Shell reports what it is running: the command line as a
// prompt, and in debug mode the command's output and timing as comments.
type Logger interface {
	io.Writer

	// Printf prints a line of output
	Printf(format string, v ...any)

	// Commentf prints a comment line, e.g `# ↳ Command completed in 1s`
	Commentf(format string, v ...any)

	// Promptf prints a command line after a shell prompt
	Promptf(format string, v ...any)
}

// StderrLogger is a Logger that writes to Stderr
var StderrLogger = NewWriterLogger(os.Stderr, logger.ColorsSupported(os.Stderr))

// DiscardLogger discards all log messages
var DiscardLogger = NewWriterLogger(io.Discard, false)

const (
	gray = "90"
)

// WriterLogger writes lines to an io.Writer, greyed out when Ansi is set.
type WriterLogger struct {
	Writer io.Writer
	Ansi   bool
}

func NewWriterLogger(writer io.Writer, ansi bool) *WriterLogger {
	return &WriterLogger{Writer: writer, Ansi: ansi}
}

func (wl *WriterLogger) Write(b []byte) (int, error) {
	wl.Printf("%s", b)
	return len(b), nil
}

func (wl *WriterLogger) Printf(format string, v ...any) {
	fmt.Fprintf(wl.Writer, format+"\n", v...) //nolint:errcheck // nowhere left to report it
}

func (wl *WriterLogger) Commentf(format string, v ...any) {
	wl.Printf(wl.paint("# "+format, gray), v...)
}

func (wl *WriterLogger) Promptf(format string, v ...any) {
	wl.Printf(wl.paint("$", gray)+" "+format, v...)
}

func (wl *WriterLogger) paint(s, colour string) string {
	if !wl.Ansi {
		return s
	}
	return "\033[" + colour + "m" + s + "\033[0m"
}

// LoggerStreamer splits whatever is written to it into lines and prints each
// one through Logger. A trailing partial line is printed on Close.
type LoggerStreamer struct {
	Logger Logger
	Prefix string

	pending []byte
}

func NewLoggerStreamer(l Logger) *LoggerStreamer {
	return &LoggerStreamer{Logger: l}
}

func (l *LoggerStreamer) Write(p []byte) (int, error) {
	l.pending = append(l.pending, p...)
	for {
		i := bytes.IndexByte(l.pending, '\n')
		if i < 0 {
			return len(p), nil
		}
		l.Logger.Printf("%s%s", l.Prefix, bytes.TrimSuffix(l.pending[:i], []byte("\r")))
		l.pending = l.pending[i+1:]
	}
}

func (l *LoggerStreamer) Close() error {
	if len(l.pending) > 0 {
		l.Logger.Printf("%s%s", l.Prefix, l.pending)
		l.pending = nil
	}
	return nil
}
