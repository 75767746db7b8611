// Package logging configures the process logger and carries a request scoped logger through gin.
package logging

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/dealerhub/dealerhub/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is read from incoming requests and echoed on every response.
	RequestIDHeader = "X-Request-ID"

	loggerKey    = "logger"
	requestIDKey = "request_id"

	maxRequestIDLength = 64
)

// validRequestID accepts ids of at most 64 characters from [A-Za-z0-9._:-].
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}

// SetFormat switches the default logger between text and json output.
func SetFormat(format config.LogFormat) {
	switch format {
	case config.LogFormatJSON:
		log.SetFormatter(log.JSONFormatter)
	default:
		log.SetFormatter(log.TextFormatter)
	}
}

// Middleware attaches a logger tagged with the request id to the gin context
// and logs a line for each completed request.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}
		logger := log.Default().With(requestIDKey, requestID)

		c.Set(loggerKey, logger)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		keyvals := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		switch {
		case status >= 500:
			logger.Error("request completed", keyvals...)
		case status >= 400:
			logger.Warn("request completed", keyvals...)
		default:
			logger.Info("request completed", keyvals...)
		}
	}
}

// FromContext returns the request scoped logger, or the default logger when
// the middleware did not run.
func FromContext(c *gin.Context) *log.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if logger, ok := v.(*log.Logger); ok {
			return logger
		}
	}
	return log.Default()
}
