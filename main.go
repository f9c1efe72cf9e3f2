package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	sloghttp "github.com/samber/slog-http"
	"github.com/urfave/cli/v2"

	"folio/api"
	"folio/config"
	"folio/db"
	"folio/interactions"
	"folio/middleware"
	"folio/models"
	"folio/mq"
	"folio/ratelim"
	"folio/reconcile"
	"folio/resources"
	"folio/routes"
	"folio/search"
	"folio/users"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// XSS, content sniffing, framing
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		// HSTS (must be on HTTPS)
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		// Referrer and permissions
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		// Prevent caching
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// stores are the per-kind MongoDB stores.
type stores struct {
	jobs  *resources.Store
	posts *resources.Store
	users *users.Store
}

func (s stores) byKind() map[models.Kind]*resources.Store {
	return map[models.Kind]*resources.Store{models.KindJob: s.jobs, models.KindPost: s.posts}
}

func loadConfig() (*config.Config, error) {
	conf, err := config.Parse()
	if err != nil {
		return nil, errors.Wrap(err, "could not parse configuration")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: conf.Logger.Level,
	}))
	slog.SetDefault(logger)

	return conf, nil
}

func openStores(ctx context.Context, conf *config.Config) (*db.DB, stores, error) {
	conn, err := db.Connect(ctx, conf.Mongo)
	if err != nil {
		return nil, stores{}, errors.WithStack(err)
	}

	s := stores{
		jobs:  resources.NewStore(models.KindJob, conn.Collection(models.KindJob)),
		posts: resources.NewStore(models.KindPost, conn.Collection(models.KindPost)),
		users: users.NewStore(conn.Users),
	}
	for _, store := range s.byKind() {
		if err := store.EnsureIndexes(ctx); err != nil {
			conn.Close()
			return nil, stores{}, errors.WithStack(err)
		}
	}
	return conn, s, nil
}

func newEmitter(ctx context.Context, conf config.Redis) (mq.Emitter, func(), error) {
	if conf.Addr == "" {
		slog.InfoContext(ctx, "redis not configured, events disabled")
		return mq.NopEmitter{}, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, errors.Wrap(err, "could not ping redis")
	}

	slog.InfoContext(ctx, "publishing events", slog.String("redis", conf.Addr), slog.String("channel", conf.Channel))
	return mq.NewRedisEmitter(client, conf.Channel), func() { _ = client.Close() }, nil
}

func newReconciler(s stores) *reconcile.Reconciler {
	return reconcile.New(map[models.Kind]reconcile.ResourceStore{
		models.KindJob:  s.jobs,
		models.KindPost: s.posts,
	}, s.users, slog.Default())
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := loadConfig()
	if err != nil {
		return err
	}
	if conf.Auth.JWTSecret == "" {
		return errors.New("FOLIO_AUTH_JWT_SECRET is required")
	}

	conn, s, err := openStores(ctx, conf)
	if err != nil {
		return err
	}
	defer conn.Close()

	emitter, closeEmitter, err := newEmitter(ctx, conf.Redis)
	if err != nil {
		return err
	}
	defer closeEmitter()

	svc := interactions.NewService(map[models.Kind]interactions.ResourceStore{
		models.KindJob:  s.jobs,
		models.KindPost: s.posts,
	}, s.users, interactions.WithEmitter(emitter), interactions.WithLogger(slog.Default()))

	finder := search.NewFacade(map[models.Kind]search.Querier{
		models.KindJob:  s.jobs,
		models.KindPost: s.posts,
	})

	router := routes.New(
		middleware.NewAuthenticator(conf.Auth.JWTSecret),
		ratelim.NewRateLimiter(conf.RateLimit.RPS, conf.RateLimit.Burst),
		api.NewResources(models.KindJob, s.jobs, svc, finder, emitter),
		api.NewResources(models.KindPost, s.posts, svc, finder, emitter),
	)

	// apply middleware: recovery → request log → security headers → CORS → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   conf.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := sloghttp.Recovery(sloghttp.New(slog.Default())(securityHeaders(corsHandler)))

	server := &http.Server{
		Addr:              conf.HTTP.Address,
		Handler:           handler,
		ReadTimeout:       conf.HTTP.ReadTimeout,
		WriteTimeout:      conf.HTTP.WriteTimeout,
		IdleTimeout:       conf.HTTP.IdleTimeout,
		ReadHeaderTimeout: conf.HTTP.ReadHeaderTimeout,
	}

	if conf.Reconcile.Interval > 0 {
		slog.InfoContext(ctx, "reconciliation loop enabled", slog.Duration("interval", conf.Reconcile.Interval))
		go newReconciler(s).Run(ctx, conf.Reconcile.Interval)
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "server listening", slog.String("address", conf.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return errors.Wrap(err, "listen and serve")
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received, shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}

	slog.Info("server stopped cleanly")
	return nil
}

func runReconcile(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := loadConfig()
	if err != nil {
		return err
	}

	conn, s, err := openStores(ctx, conf)
	if err != nil {
		return err
	}
	defer conn.Close()

	report, err := newReconciler(s).RunOnce(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if report.Failed > 0 {
		return errors.Errorf("%d repairs failed", report.Failed)
	}
	return nil
}

const (
	flagUser     = "user"
	flagUsername = "username"
	flagRole     = "role"
	flagTTL      = "ttl"
)

func createUser(cCtx *cli.Context) error {
	ctx := cCtx.Context

	conf, err := loadConfig()
	if err != nil {
		return err
	}

	conn, s, err := openStores(ctx, conf)
	if err != nil {
		return err
	}
	defer conn.Close()

	u, err := s.users.Create(ctx, models.User{
		ID:       cCtx.String(flagUser),
		Username: cCtx.String(flagUsername),
		Role:     cCtx.StringSlice(flagRole),
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "user created", slog.String("user_id", u.ID))
	return nil
}

func issueToken(cCtx *cli.Context) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	if conf.Auth.JWTSecret == "" {
		return errors.New("FOLIO_AUTH_JWT_SECRET is required")
	}

	token, err := middleware.NewAuthenticator(conf.Auth.JWTSecret).
		Sign(cCtx.String(flagUser), cCtx.StringSlice(flagRole), cCtx.Duration(flagTTL))
	if err != nil {
		return err
	}

	fmt.Fprintln(cCtx.App.Writer, token)
	return nil
}

func newApp() *cli.App {
	app := &cli.App{
		Name:  "folio",
		Usage: "Jobs and posts with per-user likes and views",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "reconcile",
				Usage:  "Recount counters and relink user back-references once",
				Action: runReconcile,
			},
			{
				Name:  "user",
				Usage: "Create a user record (development)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagUser, Aliases: []string{"u"}, Required: true, Usage: "user id"},
					&cli.StringFlag{Name: flagUsername, Usage: "display name"},
					&cli.StringSliceFlag{Name: flagRole, Aliases: []string{"r"}, Usage: "role, repeatable"},
				},
				Action: createUser,
			},
			{
				Name:  "token",
				Usage: "Issue a bearer token for a user (development)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagUser, Aliases: []string{"u"}, Required: true, Usage: "user id"},
					&cli.StringSliceFlag{Name: flagRole, Aliases: []string{"r"}, Usage: "role claim, repeatable"},
					&cli.DurationFlag{Name: flagTTL, Value: 24 * time.Hour, Usage: "token lifetime"},
				},
				Action: issueToken,
			},
		},
	}

	app.ExitErrHandler = func(cCtx *cli.Context, err error) {
		if err == nil {
			return
		}
		slog.ErrorContext(cCtx.Context, fmt.Sprintf("%+v", err))
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		os.Exit(1)
	}
}
