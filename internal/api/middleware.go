// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/traylinx/sketchscore/internal/config"
)

// bodyOverhead is the room left for JSON framing and the prompt around a
// base64 image when deriving the request body limit.
const bodyOverhead = 64 << 10

// corsMiddleware answers preflight requests and sets the CORS response headers
// from the current configuration.
func corsMiddleware(current func() config.CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		cors := current()
		if !originAllowed(cors.AllowOrigins, origin) {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		switch {
		case cors.AllowCredentials:
			// Browsers reject a wildcard origin on credentialed requests.
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		case contains(cors.AllowOrigins, "*"):
			h.Set("Access-Control-Allow-Origin", "*")
		default:
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", strings.Join(cors.AllowMethods, ", "))
			if contains(cors.AllowHeaders, "*") {
				if requested := c.GetHeader("Access-Control-Request-Headers"); requested != "" {
					h.Set("Access-Control-Allow-Headers", requested)
				}
			} else if len(cors.AllowHeaders) > 0 {
				h.Set("Access-Control-Allow-Headers", strings.Join(cors.AllowHeaders, ", "))
			}
			h.Set("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// readCloser closes the decoder and the underlying request body together.
type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, fn := range r.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// decompressMiddleware transparently decodes gzip, zstd and brotli request bodies.
func decompressMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		encoding := strings.ToLower(strings.TrimSpace(c.GetHeader("Content-Encoding")))
		if encoding == "" || encoding == "identity" || c.Request.Body == nil {
			c.Next()
			return
		}

		body := c.Request.Body
		var decoded io.ReadCloser
		switch encoding {
		case "gzip", "x-gzip":
			zr, err := gzip.NewReader(body)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, "invalid_request", "malformed gzip body")
				return
			}
			decoded = &readCloser{Reader: zr, closers: []func() error{zr.Close, body.Close}}
		case "zstd":
			zr, err := zstd.NewReader(body)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, "invalid_request", "malformed zstd body")
				return
			}
			decoded = &readCloser{Reader: zr, closers: []func() error{
				func() error { zr.Close(); return nil },
				body.Close,
			}}
		case "br":
			decoded = &readCloser{Reader: brotli.NewReader(body), closers: []func() error{body.Close}}
		default:
			abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_encoding",
				"unsupported Content-Encoding: "+encoding)
			return
		}

		c.Request.Body = decoded
		c.Request.Header.Del("Content-Encoding")
		c.Request.Header.Del("Content-Length")
		c.Request.ContentLength = -1
		c.Next()
	}
}

// bodyLimitMiddleware caps the decoded request body so an image payload cannot
// exceed the configured image size by more than the base64 and JSON overhead.
func bodyLimitMiddleware(current func() int) gin.HandlerFunc {
	return func(c *gin.Context) {
		maxImage := current()
		if maxImage <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		limit := int64(maxImage)/3*4 + 4 + bodyOverhead
		if c.Request.ContentLength > limit {
			abortWithError(c, http.StatusRequestEntityTooLarge, "payload_too_large",
				"request body exceeds "+strconv.FormatInt(limit, 10)+" bytes")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// abortWithError writes the standard error body and stops the handler chain.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}
