// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the logrus field and gin context key holding the request id.
	RequestIDKey = "request_id"

	// RequestIDHeader carries the request id in and out of the server.
	RequestIDHeader = "X-Request-ID"

	requestIDLen = 8
)

// NewRequestID returns a short random id suitable for log correlation.
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:requestIDLen]
}

// RequestID returns the id stored on c by GinLogrusLogger, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// WithRequest returns a log entry tagged with the request id of c.
func WithRequest(c *gin.Context) *log.Entry {
	return log.WithField(RequestIDKey, RequestID(c))
}

// GinLogrusLogger assigns every request an id, echoes it in the response
// header, and writes one access line per request through logrus.
// An incoming X-Request-ID is reused when it is present.
func GinLogrusLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = NewRequestID()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		entry := WithRequest(c).WithFields(log.Fields{
			"status":  status,
			"latency": time.Since(start).Round(time.Microsecond).String(),
			"client":  c.ClientIP(),
		})
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			entry = entry.WithField("errors", strings.TrimSpace(errs))
		}

		msg := c.Request.Method + " " + c.Request.URL.Path
		switch {
		case status >= 500:
			entry.Error(msg)
		case status >= 400:
			entry.Warn(msg)
		default:
			entry.Info(msg)
		}
	}
}
