package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chat-exchange/internal/ai"
	"github.com/suPer8Hu/chat-exchange/internal/chat"
	"github.com/suPer8Hu/chat-exchange/internal/config"
	"github.com/suPer8Hu/chat-exchange/internal/db"
	"github.com/suPer8Hu/chat-exchange/internal/httpapi"
	"github.com/suPer8Hu/chat-exchange/internal/httpapi/handlers"
	"github.com/suPer8Hu/chat-exchange/internal/logger"
	"github.com/suPer8Hu/chat-exchange/internal/store/rabbitmq"
	"github.com/suPer8Hu/chat-exchange/internal/store/redisstore"
	"go.uber.org/zap"
)

func main() {
	defer logger.Sync()
	log := logger.L()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	if os.Getenv("DEBUG") != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal("open message store", zap.String("backend", cfg.MessageStore), zap.Error(err))
	}
	defer closeStore()

	reg := newRegistry(cfg)
	for _, m := range cfg.Models {
		if !reg.Has(m.Provider) {
			log.Fatal("model uses unknown provider",
				zap.String("tag", m.Tag), zap.String("provider", m.Provider), zap.Strings("known", reg.Names()))
		}
	}
	adapter, err := ai.NewAdapter(reg, cfg.Models)
	if err != nil {
		log.Fatal("configure models", zap.Error(err))
	}
	svc := chat.NewService(store, adapter)

	h := handlers.NewHandler(svc, nil, nil)
	rcfg := httpapi.RouterConfig{JWTSecret: cfg.JWTSecret, SendRateLimit: cfg.SendRateLimit}

	if cfg.RedisAddr != "" {
		rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rds.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rds.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable at startup; rate limiting fails open", zap.Error(err))
		}
		cancel()
		rcfg.Limiter = rds
		h.Usage = rds
	}

	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Fatal("rabbit publisher", zap.Error(err))
		}
		defer pub.Close()
		h.Events = pub
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(rcfg, h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server started",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.MessageStore),
			zap.Strings("models", adapter.Tags()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	// in-flight exchanges run to completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ProviderTimeout+10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

func openStore(cfg config.Config) (chat.Store, func(), error) {
	if cfg.MessageStore == "bolt" {
		bs, err := chat.OpenBoltStore(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return bs, func() { _ = bs.Close() }, nil
	}

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := chat.Migrate(gdb); err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return chat.NewRepo(gdb), closeFn, nil
}

// newRegistry registers every provider a model descriptor may name.
func newRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()

	reg.Register("gemini", func(ctx context.Context, model string) (ai.Provider, error) {
		return ai.NewGeminiProvider(ctx, ai.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Timeout: cfg.ProviderTimeout,
		}, model)
	})

	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, strings.TrimSpace(model), cfg.ProviderTimeout), nil
	})

	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		return ai.NewOpenRouterProvider(
			cfg.OpenRouterBaseURL,
			cfg.OpenRouterAPIKey,
			strings.TrimSpace(model),
			cfg.OpenRouterSiteURL,
			cfg.OpenRouterAppName,
			cfg.ProviderTimeout,
		), nil
	})

	return reg
}
