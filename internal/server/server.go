// Package server is the HTTP shell around the reading-session controller,
// the library, and the chat session.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/OwenXu27/ereader/internal/chat"
	"github.com/OwenXu27/ereader/internal/config"
	"github.com/OwenXu27/ereader/internal/home"
	"github.com/OwenXu27/ereader/internal/library"
	"github.com/OwenXu27/ereader/internal/llm"
	"github.com/OwenXu27/ereader/internal/reader"
	"github.com/OwenXu27/ereader/internal/storage"
	"github.com/OwenXu27/ereader/internal/translate"
)

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the ereader home directory.
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support.
	ConfigManager *config.Manager
	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// Server is the main ereader HTTP server.
type Server struct {
	httpServer *http.Server
	configMgr  *config.Manager
	store      storage.Store
	library    *library.Library
	cache      *translate.Cache
	client     *llm.Client
	controller *reader.Controller
	chat       *chat.Session
	logger     *slog.Logger

	mu            sync.RWMutex
	running       bool
	lastSelection string
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, fmt.Errorf("config manager is required")
	}

	store, err := storage.NewFileStore(cfg.Home)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	lib := library.New(store, cfg.Logger)
	cache := translate.NewCache(store, cfg.Logger)

	appCfg := cfg.ConfigManager.Get()
	client := llm.New(llm.Config{
		Endpoint:      appCfg.LLM.Endpoint,
		Origin:        "http://" + net.JoinHostPort(cfg.Host, cfg.Port),
		APIKey:        config.ResolveEnvVars(appCfg.LLM.APIKey),
		Model:         appCfg.LLM.Model,
		Temperature:   appCfg.LLM.Temperature,
		Timeout:       appCfg.LLM.Timeout,
		MaxRetries:    appCfg.LLM.MaxRetries,
		RetryDelay:    appCfg.LLM.RetryDelay,
		MaxMessageLen: appCfg.LLM.MaxMessageLen,
	}, cfg.Logger)

	translator := translate.NewTranslator(client, appCfg.Reader.TargetLanguage)

	controller := reader.NewController(reader.Config{
		Library:   lib,
		Cache:     cache,
		Translate: translator.Translate,
		TranslationEnabled: func() bool {
			return cfg.ConfigManager.Get().Reader.TranslationEnabled
		},
		ThrottleWindow: appCfg.Reader.ThrottleWindow,
		MinBlockLen:    appCfg.Reader.MinBlockLen,
		Logger:         cfg.Logger,
	})

	s := &Server{
		configMgr:  cfg.ConfigManager,
		store:      store,
		library:    lib,
		cache:      cache,
		client:     client,
		controller: controller,
		chat:       chat.NewSession(client),
		logger:     cfg.Logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, cfg.Port),
		Handler: mux,
	}

	return s, nil
}

// Start loads persisted state and begins serving. Blocks until the context
// is canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if err := s.library.Load(ctx); err != nil {
		return err
	}
	if err := s.cache.Load(ctx); err != nil {
		s.logger.Warn("translation cache load failed", "error", err)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errCh:
		return err
	}
}

// Stop shuts the server down, closing the live session (which flushes the
// pending progress write) before the listener goes away.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.controller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
