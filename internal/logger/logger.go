// internal/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// sharedOutput lets every logger handed out by NewLogger be redirected at once,
// including the package-level ones created before main runs.
type sharedOutput struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *sharedOutput) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

var output = &sharedOutput{w: defaultWriter()}

func defaultWriter() io.Writer {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_OUTPUT")), "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// SetOutput redirects all loggers. The MCP stdio server needs stdout for the protocol.
func SetOutput(w io.Writer) {
	output.mu.Lock()
	output.w = w
	output.mu.Unlock()
}

// NewLogger returns a logrus logger writing to stdout (or stderr with LOG_OUTPUT=stderr).
// The level is read from LOG_LEVEL (debug, info, warn, error); default is info.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(output)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}
