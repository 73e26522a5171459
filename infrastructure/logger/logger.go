package logger

import (
	"os"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

var logger = log.New()

func init() {
	logger.Out = os.Stdout
	// Allow file logging for environments without log shipping (LOG_TO_FILE=true)
	if os.Getenv("LOG_TO_FILE") == "true" {
		if f, err := os.OpenFile("social-hub.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666); err == nil {
			logger.Out = f
		} else {
			log.Warnf("Failed to open log file: %v, falling back to stdout", err)
		}
	}

	logger.Formatter = &log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
	level := log.InfoLevel
	if lv, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		level = lv
	}
	logger.SetLevel(level)
}

// GetLogger returns an entry annotated with the caller's location.
func GetLogger() *log.Entry {
	function, file, line, _ := runtime.Caller(1)
	functionObject := runtime.FuncForPC(function)
	return logger.WithFields(log.Fields{
		"function": functionObject.Name(),
		"file":     file,
		"line":     line,
	})
}
