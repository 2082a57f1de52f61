package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sisterhood-backend/cache"
	"sisterhood-backend/config"
	"sisterhood-backend/controllers/authentication"
	"sisterhood-backend/logger"
	"sisterhood-backend/routes"
	"sisterhood-backend/services/chat"
	engine "sisterhood-backend/services/counseling"
	"sisterhood-backend/services/media"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer sqlDB.Close()

	store, err := config.NewSessionStore(cfg)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	handler := routes.New(routes.Dependencies{
		Config:    cfg,
		DB:        db,
		Tokens:    authentication.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, authentication.RefreshFrom(db)),
		Sessions:  store,
		OAuth:     authentication.NewGoogleOAuthConfig(cfg),
		Engine:    engine.NewEngine(db, engine.WithCache(newCache(ctx, cfg), cfg.CacheTTL)),
		Responder: chat.NewResponder(newGenerator(cfg), chat.WithTimeout(cfg.ChatTimeout)),
		Media:     newMediaStore(ctx, cfg),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Logger.Infof("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCache - Redis при наличии адреса, иначе кэш в памяти процесса
func newCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemory()
	}
	rc := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		logger.Logger.WithError(err).Warn("redis unavailable, using in-memory cache")
		rc.Close()
		return cache.NewMemory()
	}
	return rc
}

// newGenerator - цепочка OpenAI -> Cohere; пустая цепочка означает только заготовленные ответы
func newGenerator(cfg *config.Config) chat.Generator {
	var gens chat.Chain
	if cfg.OpenAIKey != "" {
		gens = append(gens, chat.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel))
	}
	if cfg.CohereKey != "" {
		co, err := chat.NewCohere(cfg.CohereKey, cfg.ChatTimeout)
		if err != nil {
			logger.Logger.WithError(err).Warn("cohere client init failed, skipping")
		} else {
			gens = append(gens, co)
		}
	}
	if len(gens) == 0 {
		return nil
	}
	return gens
}

func newMediaStore(ctx context.Context, cfg *config.Config) media.Store {
	if cfg.DriveCredentialsFile == "" {
		return media.NoopStore{}
	}
	store, err := media.NewDriveStore(ctx, cfg.DriveCredentialsFile, cfg.DriveFolderID)
	if err != nil {
		logger.Logger.WithError(err).Warn("google drive unavailable, uploads disabled")
		return media.NoopStore{}
	}
	return store
}
