package utils

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger configures the shared logrus logger to write to the given
// destination. Packages without an injected logger log through the logrus
// standard logger, so both see the same output and level.
func NewLogger(level string, out io.Writer) *logrus.Logger {
	logger := logrus.StandardLogger()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	return logger
}
