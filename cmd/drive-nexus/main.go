package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pysugar/drive-nexus/internal/auth/google"
	"github.com/pysugar/drive-nexus/internal/auth/identity"
	"github.com/pysugar/drive-nexus/internal/auth/state"
	"github.com/pysugar/drive-nexus/internal/auth/token"
	"github.com/pysugar/drive-nexus/internal/config"
	"github.com/pysugar/drive-nexus/internal/db"
	"github.com/pysugar/drive-nexus/internal/metrics"
	"github.com/pysugar/drive-nexus/internal/proxy"
	"github.com/pysugar/drive-nexus/internal/secret"
	"github.com/pysugar/drive-nexus/internal/server"
	"github.com/pysugar/drive-nexus/internal/upstream"
	"github.com/pysugar/drive-nexus/internal/upstream/drive"
	"github.com/pysugar/drive-nexus/internal/version"
	"gorm.io/gorm"
)

const statePurgeInterval = 15 * time.Minute

func main() {
	configPath := flag.String("config", "", "path to drive-nexus.yaml")
	accessLog := flag.Bool("access-log", true, "log every request")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	database, err := db.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	var sealer secret.Sealer = secret.Plaintext{}
	if cfg.Security.TokenEncryptionKey != "" {
		if sealer, err = secret.NewAESGCMSealer(cfg.Security.TokenEncryptionKey); err != nil {
			log.Fatalf("Failed to initialize token encryption: %v", err)
		}
	} else {
		log.Printf("⚠️ TOKEN_ENCRYPTION_KEY is not set, provider tokens are stored in plaintext")
	}
	connections := db.NewConnectionStore(database, sealer)

	states, err := openStateStore(ctx, cfg, database)
	if err != nil {
		log.Fatalf("Failed to initialize OAuth state store: %v", err)
	}

	m := metrics.New()
	httpClient := upstream.NewHTTPClient(cfg.Google.Timeout)
	provider := google.NewProviderConfig(cfg.Google)

	broker := google.NewBroker(provider, connections, google.Options{
		States:       states,
		StateTTL:     cfg.Security.StateTTL,
		EnforceState: cfg.Security.EnforceOAuthState,
		HTTPClient:   httpClient,
		Metrics:      m,
	})
	tokenManager := token.NewManager(connections, provider, httpClient, m)
	driveClient := drive.NewClient(cfg.Google.DriveBaseURL, httpClient, m)

	handler := server.NewRouter(server.Deps{
		Broker:         broker,
		Proxy:          proxy.New(tokenManager, driveClient, connections),
		Verifier:       identity.NewVerifier(cfg.Identity.JWTSecret, cfg.Identity.Audience),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Ping:           func() error { return db.Ping(database) },
		Metrics:        m.Handler(),
		AccessLog:      *accessLog,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	info := version.Current()
	log.Printf("🚀 Drive-Nexus %s (%s) starting on http://%s", info.Version, info.Commit, srv.Addr)
	log.Printf("🔌 OAuth broker: http://%s/drive-oauth", srv.Addr)
	log.Printf("🔌 Drive API:    http://%s/drive-api", srv.Addr)
	log.Printf("📊 Metrics:      http://%s/metrics", srv.Addr)
	if cfg.Security.EnforceOAuthState {
		log.Printf("🔒 OAuth state enforcement enabled")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
	}

	log.Printf("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Graceful shutdown failed: %v", err)
	}
}

// openStateStore keeps pending OAuth states in Redis when REDIS_URL is set, otherwise in
// the database with a background purge of expired rows.
func openStateStore(ctx context.Context, cfg *config.Config, database *gorm.DB) (state.Store, error) {
	if cfg.Redis.URL != "" {
		client, err := state.OpenRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		log.Printf("🗄️ OAuth state store: redis")
		return state.NewRedisStore(client), nil
	}

	store := state.NewGormStore(database)
	go func() {
		ticker := time.NewTicker(statePurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := store.PurgeExpired(ctx); err != nil {
					log.Printf("⚠️ Failed to purge expired OAuth states: %v", err)
				} else if n > 0 {
					log.Printf("🧹 Purged %d expired OAuth states", n)
				}
			}
		}
	}()
	log.Printf("🗄️ OAuth state store: database")
	return store, nil
}
