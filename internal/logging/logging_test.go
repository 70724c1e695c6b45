// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFormatter_Format(t *testing.T) {
	entry := &log.Entry{
		Time:    time.Date(2026, 3, 2, 20, 14, 4, 0, time.UTC),
		Level:   log.WarnLevel,
		Message: "scored request\n",
		Data: log.Fields{
			RequestIDKey: "a1b2c3d4",
			"status":     200,
			"latency":    "3ms",
		},
		Caller: &runtime.Frame{File: "/src/internal/api/server.go", Line: 88},
	}

	out, err := (&LogFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t,
		"[2026-03-02 20:14:04] [a1b2c3d4] [warn ] [server.go:88] scored request | latency=3ms, status=200\n",
		string(out))
}

func TestLogFormatter_NoRequestID(t *testing.T) {
	entry := &log.Entry{
		Time:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Level:   log.InfoLevel,
		Message: "ready",
		Data:    log.Fields{},
	}

	out, err := (&LogFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2026-01-01 00:00:00] [--------] [info ] ready\n", string(out))
}

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

func TestGinLogrusLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	prevOut, prevFormatter := log.StandardLogger().Out, log.StandardLogger().Formatter
	log.SetOutput(&buf)
	log.SetFormatter(&LogFormatter{})
	defer func() {
		log.SetOutput(prevOut)
		log.SetFormatter(prevFormatter)
	}()

	router := gin.New()
	router.Use(GinLogrusLogger())
	var seen string
	router.GET("/ping", func(c *gin.Context) {
		seen = RequestID(c)
		c.Status(http.StatusNoContent)
	})

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Len(t, seen, 8)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
		assert.Contains(t, buf.String(), "["+seen+"]")
		assert.Contains(t, buf.String(), "GET /ping")
	})

	t.Run("reuses incoming id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "client-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "client-42", seen)
		assert.Equal(t, "client-42", w.Header().Get(RequestIDHeader))
		assert.True(t, strings.Contains(buf.String(), "[client-42]"))
	})
}

func TestConfigureLogOutput_File(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	prevOut := log.StandardLogger().Out
	defer log.SetOutput(prevOut)

	require.NoError(t, ConfigureLogOutput(true, dir))
	log.Info("written to file")

	data, err := os.ReadFile(filepath.Join(dir, "main.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")

	require.NoError(t, ConfigureLogOutput(false, dir))
	assert.Equal(t, os.Stdout, log.StandardLogger().Out)
}

func TestSetDebug(t *testing.T) {
	prev := log.GetLevel()
	defer log.SetLevel(prev)

	SetDebug(true)
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	SetDebug(false)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}
