package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/luqmanAA/go-firebase-stripe/auth"
	"github.com/luqmanAA/go-firebase-stripe/config"
	"github.com/luqmanAA/go-firebase-stripe/firestoredb"
	"github.com/luqmanAA/go-firebase-stripe/handlers"
	"github.com/luqmanAA/go-firebase-stripe/logger"
	"github.com/luqmanAA/go-firebase-stripe/metrics"
	"github.com/luqmanAA/go-firebase-stripe/middleware"
	"github.com/luqmanAA/go-firebase-stripe/mongodb"
	"github.com/luqmanAA/go-firebase-stripe/payments"
	"github.com/luqmanAA/go-firebase-stripe/redisstore"
	"github.com/luqmanAA/go-firebase-stripe/services"
	"github.com/luqmanAA/go-firebase-stripe/store"
)

const connectTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(!cfg.IsProduction(), logger.ParseLevel(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Get().Error("server exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// backends holds everything main builds and must close on exit.
type backends struct {
	verifier      auth.Verifier
	subscriptions store.SubscriptionStore
	bindings      store.CheckoutBindings
	pingers       map[string]store.Pinger
	closers       []func(context.Context)
}

func (b *backends) close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i](ctx)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := setupBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		b.close(closeCtx)
	}()

	m := metrics.New()
	gateway := payments.NewStripeGateway(cfg.StripeSecretKey, nil)
	svc := services.NewSubscriptionService(gateway, b.subscriptions, b.bindings, m, services.Options{
		PriceID: cfg.StripePriceID,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.UpstreamTimeout,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("setting trusted proxies: %w", err)
	}
	router.Use(gin.Recovery(), middleware.RequestLogger, m.Middleware(), middleware.CorsMiddleware(cfg.CORSOrigins))
	router.LoadHTMLGlob(filepath.Join(cfg.TemplatesDir, "*.html"))
	router.Static("/static", cfg.StaticDir)

	h := handlers.New(svc, b.verifier, cfg.PageContext(), b.pingers)
	if err := h.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("setting trusted proxies: %w", err)
	}
	if cfg.BaseURL == "" && cfg.IsProduction() {
		logger.Get().Warn("BASE_URL not set, redirect URLs follow the request Host header")
	}
	h.RegisterRoutes(router, handlers.RouteOptions{
		WebhookSecret:  cfg.StripeWebhookSecret,
		InternalAPIKey: cfg.InternalAPIKey,
		Metrics:        m.Handler(),
	})
	if cfg.StripeWebhookSecret == "" {
		logger.Get().Warn("STRIPE_WEBHOOK_SECRET not set, /webhook/stripe disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Get().Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreDriver),
			zap.String("identity", cfg.IdentityProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Get().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Get().Info("server stopped")
	return nil
}

func setupBackends(ctx context.Context, cfg *config.Config) (_ *backends, err error) {
	b := &backends{pingers: map[string]store.Pinger{}}
	defer func() {
		if err != nil {
			b.close(context.Background())
		}
	}()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	// Firebase clients live for the whole process and must not inherit a
	// context that is cancelled once setup returns.
	var app *firebase.App
	if cfg.NeedsFirebase() {
		app, err = newFirebaseApp(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
	}

	switch cfg.IdentityProvider {
	case config.IdentityFirebase:
		authClient, err := app.Auth(context.Background())
		if err != nil {
			return nil, fmt.Errorf("initializing firebase auth: %w", err)
		}
		b.verifier = auth.NewFirebaseVerifier(authClient)
	case config.IdentityJWT:
		b.verifier = auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	}

	switch cfg.StoreDriver {
	case config.StoreFirestore:
		client, err := app.Firestore(context.Background())
		if err != nil {
			return nil, fmt.Errorf("initializing firestore: %w", err)
		}
		b.closers = append(b.closers, func(context.Context) {
			if err := client.Close(); err != nil {
				logger.Get().Error("failed to close firestore client", zap.Error(err))
			}
		})
		fs := firestoredb.New(client, cfg.CheckoutBindingTTL)
		b.subscriptions, b.bindings = fs, fs
		b.pingers["firestore"] = fs

	case config.StoreMongo:
		client, err := mongodb.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, client.Close)
		b.subscriptions = mongodb.NewSubscriptionStore(client.Database())
		bindings := mongodb.NewCheckoutBindings(client.Database(), cfg.CheckoutBindingTTL)
		if err := bindings.EnsureIndexes(connectCtx); err != nil {
			return nil, err
		}
		b.bindings = bindings
		b.pingers["mongo"] = client

	case config.StoreMemory:
		logger.Get().Warn("using in-memory store, data is lost on restart")
		mem := store.NewMemory()
		b.subscriptions, b.bindings = mem, mem
	}

	if cfg.BindingStore == config.BindingsRedis {
		client, err := redisstore.Connect(connectCtx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) {
			if err := client.Close(); err != nil {
				logger.Get().Error("failed to close redis client", zap.Error(err))
			}
		})
		bindings := redisstore.NewBindings(client, cfg.CheckoutBindingTTL)
		b.bindings = bindings
		b.pingers["redis"] = bindings
	}

	return b, nil
}

// newFirebaseApp uses the service account JSON in FIREBASE_CONFIG when set,
// and application default credentials otherwise.
func newFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.FirebaseConfig != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseConfig)))
	}

	var fbConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	return app, nil
}
