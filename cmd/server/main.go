// Copyright 2026 The sketchscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the entry point for the sketchscore server.
// The server scores how well a drawing matches its prompt using a CLIP model
// and serves the result over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/traylinx/sketchscore/internal/api"
	"github.com/traylinx/sketchscore/internal/buildinfo"
	"github.com/traylinx/sketchscore/internal/config"
	"github.com/traylinx/sketchscore/internal/logging"
	"github.com/traylinx/sketchscore/internal/oracle"
	"github.com/traylinx/sketchscore/internal/scoring"
	"github.com/traylinx/sketchscore/internal/watcher"
)

var (
	Version           = "dev"
	Commit            = "none"
	BuildDate         = "unknown"
	DefaultConfigPath = "config.yaml"
)

const shutdownTimeout = 30 * time.Second

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", DefaultConfigPath, "Configure File Path")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(buildinfo.String())
		return
	}

	if err := run(configPath); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// Load environment variables from .env if present.
	if wd, err := os.Getwd(); err == nil {
		if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil && !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	cfg, err := config.LoadConfigOptional(configPath, true)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logging.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogsDir); err != nil {
		return fmt.Errorf("failed to configure log output: %w", err)
	}
	logging.SetDebug(cfg.Debug)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	log.Infof("sketchscore Version: %s, Commit: %s, BuiltAt: %s", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	clip, errInit := oracle.InitDefault(oracleConfig(cfg.Oracle))
	if errInit != nil {
		log.Warnf("similarity model unavailable, scoring endpoints will return 503: %v", errInit)
	}
	engine := scoring.NewEngine(oracle.Default())

	server := api.NewServer(cfg, engine, api.WithModelStatus(func() bool {
		return clip != nil && clip.IsEnabled()
	}))

	var cw *watcher.ConfigWatcher
	if _, statErr := os.Stat(configPath); statErr == nil {
		cw, err = watcher.New(configPath, server.UpdateConfig)
		if err == nil {
			err = cw.Start()
		}
		if err != nil {
			log.Warnf("config hot reload disabled: %v", err)
			cw = nil
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if cw != nil {
			cw.Stop()
		}
		return err
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
	}

	if cw != nil {
		cw.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		return err
	}
	if clip != nil {
		_ = clip.Shutdown()
	}
	log.Info("sketchscore stopped")
	return nil
}

// oracleConfig resolves model paths from the config section and the model locator.
func oracleConfig(oc config.OracleConfig) oracle.Config {
	locator := oracle.NewModelLocator(oc.ModelDir)
	return locator.Resolve(oracle.Config{
		ModelName:         oc.ModelName,
		ImageModelPath:    oc.ImageModel,
		TextModelPath:     oc.TextModel,
		TokenizerPath:     oc.Tokenizer,
		SharedLibraryPath: oc.SharedLibrary,
		ImageSize:         oc.ImageSize,
		ContextLength:     oc.ContextLength,
		TextCacheSize:     oc.TextCacheSize,
	})
}
