package utils

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger

	loggerOnce sync.Once
)

func setupLoggers() {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	InfoLogger.SetOutput(os.Stdout)
	InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ErrorLogger.SetOutput(os.Stderr)
	ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	ErrorLogger.SetLevel(logrus.ErrorLevel)
}

// InitLogger sets up the two process loggers. Only the first call creates
// them; the level of later calls is still applied.
func InitLogger(level string) {
	loggerOnce.Do(setupLoggers)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	InfoLogger.SetLevel(lvl)
}

// Logger returns l, or the process info logger when l is nil.
func Logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	loggerOnce.Do(setupLoggers)
	return InfoLogger
}

// ErrLog returns the process error logger.
func ErrLog() *logrus.Logger {
	loggerOnce.Do(setupLoggers)
	return ErrorLogger
}
