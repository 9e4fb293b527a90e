package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/geo-chat/backend/internal/config"
	"github.com/zhouzirui/geo-chat/backend/internal/handler"
	"github.com/zhouzirui/geo-chat/backend/internal/logging"
	"github.com/zhouzirui/geo-chat/backend/internal/model/chat"
	"github.com/zhouzirui/geo-chat/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/geo-chat/backend/internal/service/chat"
	"github.com/zhouzirui/geo-chat/backend/internal/view"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		addr     string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:          "geochat-api",
		Short:        "Serve the geo chat web application",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), addr, logLevel)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides PORT")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level, overrides LOG_LEVEL")
	return cmd
}

func serve(parent context.Context, addrOverride, levelOverride string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if addrOverride != "" {
		if cfg.Server.Addr, err = config.ParseAddr(addrOverride); err != nil {
			return err
		}
	}
	if levelOverride != "" {
		cfg.Log.Level = levelOverride
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		log.Warn().Err(envErr).Msg("failed to load .env file, continuing with system environment variables only")
	}

	store, closeStore, err := newTranscriptStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	chatSvc := chatservice.NewService(store, newResolver(ctx, cfg.AI),
		chatservice.WithMinLength(cfg.Chat.MinMessageLength),
	)

	router := handler.NewRouter(logger, chatSvc, handler.Options{
		Page: view.PageOptions{Live: cfg.Chat.Live},
	})

	return startServer(ctx, cfg.Server, router)
}

func newTranscriptStore(ctx context.Context, cfg config.StoreConfig) (chat.Store, func(), error) {
	if cfg.Backend != config.StoreRedis {
		log.Info().Msg("transcripts kept in memory")
		return chat.NewMemoryStore(), func() {}, nil
	}

	client, err := chat.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Dur("ttl", cfg.TTL).Msg("transcripts kept in redis")
	return chat.NewRedisStore(client, cfg.TTL), func() { _ = client.Close() }, nil
}

func newResolver(ctx context.Context, cfg config.AIConfig) chatservice.Resolver {
	if !cfg.Enabled() {
		log.Warn().Msg("Ark 凭证未配置，问答将返回兜底回复")
		return ai.UnavailableResolver{Reason: "ark credentials not configured"}
	}

	resolver, err := ai.NewResolverFromConfig(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize answer resolver, continuing with fallback replies")
		return ai.UnavailableResolver{Reason: err.Error()}
	}

	log.Info().Str("model", cfg.Model).Dur("timeout", cfg.ResolveTimeout).Msg("answer resolver initialized")
	return resolver
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("geo chat listening")
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
