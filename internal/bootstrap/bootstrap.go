package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainauth "github.com/CompilationErrror/library-auth/internal/domain/auth"
	authstore "github.com/CompilationErrror/library-auth/internal/domain/auth/store"
	platformconfig "github.com/CompilationErrror/library-auth/internal/platform/config"
	platformerrors "github.com/CompilationErrror/library-auth/internal/platform/errors"
	platformlogging "github.com/CompilationErrror/library-auth/internal/platform/logging"
	platformstorage "github.com/CompilationErrror/library-auth/internal/platform/storage"
	httptransport "github.com/CompilationErrror/library-auth/internal/transport/http"
	httpwebapi "github.com/CompilationErrror/library-auth/internal/transport/http/webapi"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	configPath string

	config   *platformconfig.Config
	logger   *platformlogging.Logger
	db       *gorm.DB
	tokens   authstore.Store
	codec    *domainauth.TokenCodec
	sessions *domainauth.Service
	sweeper  *domainauth.Sweeper
}

// Options configures a Run invocation.
type Options struct {
	ConfigPath string
}

// Run loads configuration, wires the session service and serves HTTP
// until the context is cancelled or a termination signal arrives.
func Run(ctx context.Context, opts Options) error {
	state := &appState{configPath: opts.ConfigPath}
	// releases whatever the completed steps opened, even when a later
	// step fails
	defer closeState(state)

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	logger := state.logger
	state.sweeper.Start()
	logger.Info("token cleanup sweeper running every %s", state.config.Cleanup.Interval.Std())

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	return waitForShutdown(signalCtx, cancel, logger, group)
}

// InitGraph lists the bootstrap steps in dependency order.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Open and migrate the credential database",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "storage:init-token-store",
			Title:     "Initialise the refresh token store",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindStorage,
			Execute:   initTokenStoreStep,
		},
		{
			ID:        "auth:init-service",
			Title:     "Initialise the session service",
			DependsOn: []string{"storage:init-token-store"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initSessionServiceStep,
		},
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}
			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func loadConfigStep(_ context.Context, state *appState) error {
	loader := platformconfig.NewLoader()
	if state.configPath != "" {
		loader = loader.WithPath(state.configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	state.config = cfg
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return err
	}
	state.logger = logger
	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	db, err := platformstorage.Open(state.config.Database.Path)
	if err != nil {
		return err
	}
	if err := platformstorage.Migrate(db); err != nil {
		return err
	}
	state.db = db
	state.logger.Info("credential database ready at %s", state.config.Database.Path)
	return nil
}

func initTokenStoreStep(_ context.Context, state *appState) error {
	cfg := state.config.TokenStore
	tokens, err := authstore.New(authstore.Config{
		Driver: cfg.Driver,
		TTL:    state.config.JWT.RefreshTokenTTL(),
		Redis: &authstore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		},
		Memory: &authstore.MemoryConfig{
			GCInterval: cfg.Memory.GCInterval.Std(),
		},
	}, authstore.Dependencies{SQLiteDB: state.db})
	if err != nil {
		return err
	}
	state.tokens = tokens
	state.logger.Info("refresh token store ready, driver=%s", cfg.Driver)
	return nil
}

func initSessionServiceStep(_ context.Context, state *appState) error {
	codec, err := domainauth.NewTokenCodec(domainauth.CodecConfig{
		Secret:   state.config.JWT.Secret,
		Issuer:   state.config.JWT.Issuer,
		Audience: state.config.JWT.Audience,
		TTL:      state.config.JWT.AccessTokenTTL(),
	})
	if err != nil {
		return err
	}

	sessions, err := domainauth.NewService(domainauth.Options{
		Credentials: platformstorage.NewUserRepository(state.db),
		Tokens:      state.tokens,
		Codec:       codec,
		Logger:      state.logger,
		RefreshTTL:  state.config.JWT.RefreshTokenTTL(),
	})
	if err != nil {
		return err
	}

	state.codec = codec
	state.sessions = sessions
	state.sweeper = domainauth.NewSweeper(state.tokens, state.logger, state.config.Cleanup.Interval.Std())
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	cfg := state.config
	logger := state.logger

	router, err := httptransport.Build(httptransport.Options{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	webapiService, err := httpwebapi.NewService(state.sessions, logger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "webapi:new-service", "failed to create webapi service", err)
	}
	webapiService.Register(router.Root)

	httpServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.IP, strconv.Itoa(cfg.Server.Port)),
		Handler: router.Engine,
	}

	g.Go(func() error {
		logger.Info("HTTP server listening on %s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown failed: %v", err)
			} else {
				logger.Info("HTTP server shut down cleanly")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed: %v", err)
			return err
		}
		return nil
	})

	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.Info("shutdown requested: %v", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown finished with error: %v", err)
			return err
		}
		logger.Info("all services stopped")
	case <-time.After(15 * time.Second):
		logger.Error("shutdown timed out")
		return errors.New("shutdown timed out")
	}
	return nil
}

// closeState tears down in reverse init order. Fields left nil by a
// failed bootstrap are skipped.
func closeState(state *appState) {
	if state.sweeper != nil {
		state.sweeper.Close()
	}
	if state.tokens != nil {
		if err := state.tokens.Close(context.Background()); err != nil && state.logger != nil {
			state.logger.Warn("token store close failed: %v", err)
		}
	}
	if state.db != nil {
		if sqlDB, err := state.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if state.logger != nil {
		_ = state.logger.Close()
	}
}
