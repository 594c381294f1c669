package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shellbridge/authflow/internal/config"
	"github.com/shellbridge/authflow/internal/demoidp"
	"github.com/shellbridge/authflow/internal/flow"
	"github.com/shellbridge/authflow/internal/idp"
	"github.com/shellbridge/authflow/internal/log"
	"github.com/shellbridge/authflow/internal/server"
	"github.com/shellbridge/authflow/internal/session"
	"github.com/shellbridge/authflow/internal/storage"
	"github.com/shellbridge/authflow/internal/urlutil"
)

const (
	stateCleanupInterval = time.Minute
	demoJanitorInterval  = time.Minute
	shutdownTimeout      = 30 * time.Second
)

// App represents the complete auth orchestrator application
type App struct {
	config       config.Config
	httpServer   *server.HTTPServer
	demoServer   *server.HTTPServer
	stateCleanup *storage.CleanupManager
	storage      storage.Storage
}

// New creates the application with all dependencies built
func New(ctx context.Context, cfg config.Config) (*App, error) {
	log.LogInfoWithFields("app", "Building auth orchestrator", map[string]any{
		"baseURL":  cfg.App.BaseURL,
		"provider": cfg.Auth.Provider,
		"storage":  string(cfg.Auth.Storage),
	})

	store, err := setupStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	sessions := session.NewStore(store, cfg.Auth.Provider)

	identity, err := idp.New(idp.Config{
		Name:             cfg.Auth.Provider,
		AuthorizationURL: cfg.Auth.AuthorizationURL,
		TokenURL:         cfg.Auth.TokenURL,
		UserInfoURL:      cfg.Auth.UserInfoURL,
		ClientID:         cfg.Auth.ClientID,
		ClientSecret:     string(cfg.Auth.ClientSecret),
		Scopes:           cfg.Auth.Scopes,
	}, sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to setup identity provider: %w", err)
	}

	orchestrator, err := flow.New(flow.Config{
		AppBaseURL:      cfg.App.BaseURL,
		NativeScheme:    cfg.App.NativeScheme,
		Provider:        identity,
		Storage:         store,
		ShellMarker:     cfg.App.ShellMarker,
		VerifyState:     cfg.Auth.VerifyState,
		StateSigningKey: []byte(cfg.Auth.StateSigningKey),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup flow orchestrator: %w", err)
	}

	mux := http.NewServeMux()
	server.NewAuthHandlers(orchestrator).Register(mux)

	app := &App{
		config:     cfg,
		httpServer: server.NewHTTPServer(mux, cfg.App.Addr),
		stateCleanup: storage.NewCleanupManager(
			store, flow.StatePrefix, flow.StateTTL, stateCleanupInterval,
		),
		storage: store,
	}

	if cfg.DemoIdP != nil && cfg.DemoIdP.Enabled {
		demo, err := setupDemoIdP(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to setup demo identity server: %w", err)
		}
		app.demoServer = demo
	}

	return app, nil
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	log.LogInfoWithFields("app", "Starting auth orchestrator", map[string]any{
		"addr": a.config.App.Addr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 2)

	go func() {
		if err := a.httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if a.demoServer != nil {
		go func() {
			if err := a.demoServer.Start(); err != nil {
				errChan <- fmt.Errorf("demo identity server error: %w", err)
			}
		}()
	}

	a.stateCleanup.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var shutdownReason string
	select {
	case sig := <-sigChan:
		shutdownReason = fmt.Sprintf("signal %v", sig)
		log.LogInfoWithFields("app", "Received shutdown signal", map[string]any{
			"signal": sig.String(),
		})
	case err := <-errChan:
		shutdownReason = fmt.Sprintf("error: %v", err)
		log.LogErrorWithFields("app", "Shutting down due to error", map[string]any{
			"error": err.Error(),
		})
	case <-ctx.Done():
		shutdownReason = "context cancelled"
	}

	log.LogInfoWithFields("app", "Starting graceful shutdown", map[string]any{
		"reason": shutdownReason,
	})
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	a.stateCleanup.Stop()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		log.LogErrorWithFields("app", "HTTP server shutdown error", map[string]any{
			"error": err.Error(),
		})
		return err
	}
	if a.demoServer != nil {
		if err := a.demoServer.Stop(shutdownCtx); err != nil {
			log.LogErrorWithFields("app", "Demo identity server shutdown error", map[string]any{
				"error": err.Error(),
			})
		}
	}

	if closer, ok := a.storage.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.LogWarn("Storage close error: %v", err)
		}
	}

	log.LogInfoWithFields("app", "Application shutdown complete", map[string]any{
		"reason": shutdownReason,
	})
	return nil
}

// setupStorage creates storage based on configuration
func setupStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	if cfg.Auth.Storage == config.StorageFirestore {
		log.LogInfoWithFields("storage", "Using Firestore storage", map[string]any{
			"project":    cfg.Auth.GCPProject,
			"database":   cfg.Auth.FirestoreDatabase,
			"collection": cfg.Auth.FirestoreCollection,
		})
		return storage.NewFirestoreStorage(
			ctx,
			cfg.Auth.GCPProject,
			cfg.Auth.FirestoreDatabase,
			cfg.Auth.FirestoreCollection,
		)
	}

	log.LogInfoWithFields("storage", "Using in-memory storage", map[string]any{})
	return storage.NewMemoryStorage(), nil
}

// setupDemoIdP builds the bundled demo identity server with the orchestrator's
// client pre-registered for both callback destinations.
func setupDemoIdP(cfg config.Config) (*server.HTTPServer, error) {
	addr := cfg.DemoIdP.Addr
	if addr == "" {
		addr = ":9090"
	}

	store := demoidp.NewStore()

	redirectURIs := []string{
		urlutil.MustJoinPath(cfg.App.BaseURL, flow.WebCallbackPath),
		urlutil.MustJoinPath(cfg.App.BaseURL, flow.NativeCallbackPath),
	}
	if cfg.Auth.ClientSecret != "" {
		if _, err := store.RegisterConfidentialClient(
			cfg.Auth.ClientID, string(cfg.Auth.ClientSecret), redirectURIs, cfg.Auth.Scopes,
		); err != nil {
			return nil, err
		}
	} else {
		store.RegisterClient(cfg.Auth.ClientID, redirectURIs, cfg.Auth.Scopes)
	}

	secret, err := demoidp.GenerateSecret()
	if err != nil {
		return nil, err
	}
	oauthProvider, err := demoidp.NewProvider(cfg.Auth.TokenURL, store, secret)
	if err != nil {
		return nil, err
	}

	store.StartJanitor(context.Background(), demoJanitorInterval)

	log.LogInfoWithFields("demoidp", "Demo identity server enabled", map[string]any{
		"addr":     addr,
		"clientId": cfg.Auth.ClientID,
	})

	return server.NewHTTPServer(demoidp.NewServer(oauthProvider, store).Handler(), addr), nil
}
