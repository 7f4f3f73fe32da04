package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/wellness-assistant/wellness-web-ui/internal/backend"
	"github.com/wellness-assistant/wellness-web-ui/internal/services"
	"gopkg.in/yaml.v3"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	gen, err := cfg.LLM.generator(logger)
	if err != nil {
		logger.Error("Failed to create generator", slog.String("err", err.Error()))
		os.Exit(1)
	}

	var store backend.StatusStore = services.NewMemory()
	if cfg.DBPath != "" {
		boltDB, err := services.NewBoltDB(cfg.DBPath)
		if err != nil {
			logger.Error("Failed to open status store", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer boltDB.Close()
		store = boltDB
	}

	search := services.NewWebSearch(cfg.SearchEndpoint, logger)
	s := backend.NewServer(gen, search, store, cfg.pacing(), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.port(),
		Handler:           s.Router(os.Stdout, corsOrigins()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Backend starting", slog.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("Server error", slog.String("err", err.Error()))

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String("err", err.Error()))
			}
		}
	}
}

// loadConfig reads wellness-backend/config.yaml from the user config dir. A missing file yields the
// defaults: port 8000, in-memory status checks and the canned generator.
func loadConfig() (config, error) {
	cfg := config{LLM: cannedConfig{}}

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return config{}, fmt.Errorf("error getting user config dir: %w", err)
	}

	cfgFile, err := os.Open(filepath.Join(cfgDir, "wellness-backend", "config.yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return config{}, fmt.Errorf("error opening config file: %w", err)
	}
	defer cfgFile.Close()

	if err := yaml.NewDecoder(cfgFile).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return config{}, fmt.Errorf("error decoding config file: %w", err)
	}
	return cfg, nil
}

func corsOrigins() []string {
	v := os.Getenv("CORS_ORIGINS")
	if v == "" {
		return []string{"*"}
	}
	origins := strings.Split(v, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}
