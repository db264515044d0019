package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BerylCAtieno/storycraft-agent/internal/api"
	"github.com/BerylCAtieno/storycraft-agent/internal/config"
	"github.com/BerylCAtieno/storycraft-agent/internal/export"
	"github.com/BerylCAtieno/storycraft-agent/internal/llm"
	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
	"github.com/BerylCAtieno/storycraft-agent/internal/pipeline"
	"github.com/BerylCAtieno/storycraft-agent/internal/session"
	"github.com/BerylCAtieno/storycraft-agent/internal/wizard"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	gateway, closeGateway := newGateway(ctx, cfg, log)
	defer closeGateway()

	store, err := newStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to create session store", "store", cfg.SessionStore, "error", err)
	}
	defer store.Close()

	pipe := pipeline.New(gateway, log)
	exporter := export.NewExporter(log, cfg.ExportScriptURL, cfg.LLMTimeout)
	valueStory := export.NewPassthrough(log, cfg.ValueStoryScriptURL, cfg.LLMTimeout)
	wiz := wizard.NewService(log, pipe, exporter, store)

	if !exporter.Configured() {
		log.Warn("EXPORT_SCRIPT_URL is not set; story export will fail")
	}

	handler := api.NewHandler(log, pipe, exporter, valueStory, wiz, api.ServiceInfo{
		Name:                 "storycraft",
		Version:              version,
		Provider:             cfg.LLMProvider,
		ExportConfigured:     exporter.Configured(),
		ValueStoryConfigured: valueStory.Configured(),
		SessionStore:         cfg.SessionStore,
		Endpoints:            api.Routes(),
	})
	router := api.NewRouter(handler, log, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Storycraft server starting", "port", cfg.Port, "provider", cfg.LLMProvider, "session_store", cfg.SessionStore)
		log.Info("Health check available", "url", "http://localhost:"+cfg.Port+"/health")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
}

// newGateway picks the LLM provider. A provider that cannot be built is
// replaced by one that fails every call, so the server still starts.
func newGateway(ctx context.Context, cfg *config.Config, log *logger.Logger) (llm.Gateway, func()) {
	noop := func() {}
	switch cfg.LLMProvider {
	case config.ProviderDatabricks:
		return llm.NewDatabricks(log, cfg.DatabricksHost, cfg.DatabricksToken, cfg.DatabricksEndpoint, cfg.LLMTimeout), noop
	case config.ProviderGemini:
		g, err := llm.NewGemini(ctx, log, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Error("Failed to create Gemini client", "error", err)
			return llm.Unconfigured("Gemini", err), noop
		}
		return g, g.Close
	case config.ProviderPerplexity:
		return llm.NewPerplexity(log, cfg.PerplexityAPIKey, cfg.PerplexityAPIURL, cfg.PerplexityModel, cfg.LLMTimeout), noop
	default:
		err := errors.New("unknown LLM_PROVIDER " + cfg.LLMProvider)
		log.Error("Invalid LLM provider", "provider", cfg.LLMProvider)
		return llm.Unconfigured(cfg.LLMProvider, err), noop
	}
}

func newStore(cfg *config.Config, log *logger.Logger) (session.Store, error) {
	if cfg.SessionStore == config.StoreRedis {
		return session.NewRedisStore(log, cfg.RedisAddr, cfg.SessionTTL)
	}
	return session.NewMemoryStore(cfg.SessionTTL), nil
}
