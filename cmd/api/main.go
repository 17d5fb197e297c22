package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hostprompt/internal/auth"
	"hostprompt/internal/cache"
	"hostprompt/internal/config"
	"hostprompt/internal/events"
	"hostprompt/internal/generation"
	"hostprompt/internal/library"
	"hostprompt/internal/llm"
	"hostprompt/internal/media"
	"hostprompt/internal/observability"
	"hostprompt/internal/properties"
	"hostprompt/internal/server"
	"hostprompt/internal/storage"
	"hostprompt/internal/vision"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Optional YAML config file; environment variables override it")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init store")
	}
	defer store.Close()
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, data lives in memory only")
	}

	uploader, err := media.New(ctx, cfg.Media)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init media uploader")
	}

	chat, err := llm.NewFromConfig(ctx, cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init language model")
	}
	if _, disabled := chat.(llm.Disabled); disabled {
		log.Warn().Str("provider", cfg.AI.Provider).Msg("no model credentials, generation will fail")
	}

	describer, err := vision.NewFromConfig(ctx, cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init photo describer")
	}
	if describer != nil && cfg.Redis.Addr != "" {
		rc := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, photo descriptions are not cached")
		} else {
			describer = vision.NewCachedDescriber(describer, rc, cfg.Redis.DescriptionTTL)
		}
	}

	sessions := auth.SessionManager{
		Secret:       []byte(cfg.Auth.JWTSecret),
		Duration:     cfg.Auth.SessionTTL,
		CookieName:   cfg.Auth.CookieName,
		SecureCookie: cfg.Auth.SecureCookie,
	}
	if len(sessions.Secret) == 0 {
		sessions.Secret = make([]byte, 32)
		_, _ = rand.Read(sessions.Secret)
		log.Warn().Msg("JWT_SECRET not set, sessions end on restart")
	}

	broker := events.NewBroker()
	genService := &generation.Service{
		Store:     store,
		LLM:       chat,
		Describer: describer,
		Events:    broker,
		EditModel: cfg.AI.EditModel,
	}

	var static http.Handler
	if cfg.StaticDir != "" {
		if _, err := os.Stat(cfg.StaticDir); err == nil {
			static = http.FileServer(http.Dir(cfg.StaticDir))
		}
	}
	var mediaDir string
	if local, ok := uploader.(*media.LocalUploader); ok {
		mediaDir = local.BaseDir
	}

	srv := server.New(cfg.Port, server.Deps{
		Auth:        auth.Handler{Store: store, Sessions: sessions},
		Sessions:    auth.Middleware{Store: store, Sessions: sessions},
		Generation:  generation.Handler{Service: genService, Analyzer: generation.Analyzer{LLM: chat, Model: cfg.AI.VoiceModel}, Broker: broker},
		Vision:      vision.Handler{Describer: describer},
		Properties:  properties.Handler{Store: store, Uploader: uploader},
		Library:     library.Handler{Store: store},
		Metrics:     observability.MetricsHandler(observability.InitRegistry()),
		Static:      static,
		MediaDir:    mediaDir,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log.Logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}
