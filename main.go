package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"memory-match-server/api"
	"memory-match-server/auth"
	"memory-match-server/cardapi"
	"memory-match-server/config"
	"memory-match-server/events"
	"memory-match-server/lobby"
	"memory-match-server/loghandler"
	"memory-match-server/storage"
	"memory-match-server/ws"
)

// app is the wired server: router plus the resources main must release.
type app struct {
	Handler http.Handler
	Hub     *ws.Hub
	Lobby   *lobby.Lobby
	store   *storage.Store
	nc      *nats.Conn
}

// newApp wires every component from cfg. Postgres, NATS and Neon Auth are optional.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to Postgres: %w", err)
	}
	if store == nil {
		slog.Info("DATABASE_URL not set; results will not be saved", "tag", "storage")
	}
	a.store = store

	var sink *events.Publisher
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL)
		if err != nil {
			// Events are best effort; the game runs without them.
			slog.Warn("NATS unavailable; session events disabled", "tag", "events", "err", err)
		} else {
			a.nc = nc
			sink = events.NewPublisher(nc, cfg.NATSSubjectPrefix)
		}
	}

	var verifier *auth.Verifier
	if cfg.NeonAuthBaseURL == "" {
		slog.Info("NEON_AUTH_BASE_URL not set; players are guests", "tag", "auth")
	} else if verifier, err = auth.NewVerifier(cfg.NeonAuthBaseURL); err != nil {
		return nil, err
	}

	cards := cardapi.New(cfg.APIBaseURL, cfg.HTTPTimeout())

	lb := lobby.New(ctx, cfg, cards)
	if store != nil {
		lb.Results = store
	}
	if sink != nil {
		lb.Sink = sink
	}
	a.Lobby = lb

	var wsAuth ws.Authenticator
	var apiAuth api.Authenticator
	if verifier != nil {
		wsAuth = func(token string) (string, string, error) {
			claims, err := verifier.Validate(token)
			if err != nil {
				return "", "", err
			}
			userID := auth.UserIDFromClaims(claims)
			if userID == "" {
				return "", "", errors.New("token has no subject")
			}
			return userID, auth.FirstNameFromClaims(claims), nil
		}
		apiAuth = verifier.UserID
	}

	a.Hub = ws.NewHub(cfg, lb, wsAuth)
	go a.Hub.Run(ctx)

	var results storage.ResultStore
	if store != nil {
		results = store
	}
	a.Handler = api.NewRouter(api.NewHandler(cfg, results, apiAuth), a.Hub, cfg.AllowedOrigins)
	return a, nil
}

// Close waits for sessions to report and releases external connections.
func (a *app) Close() {
	a.Lobby.Wait()
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			slog.Warn("draining NATS", "tag", "events", "err", err)
		}
	}
	a.store.Close()
}

func main() {
	if err := godotenv.Load(); err != nil {
		if err2 := godotenv.Load("server/.env"); err2 != nil {
			fmt.Fprintln(os.Stderr, "No .env file found; using environment variables.")
		}
	}

	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, loghandler.ParseLevel(os.Getenv("LOG_LEVEL")))))

	cfg := config.Load()
	slog.Info("configuration loaded", "tag", "main",
		"api", cfg.APIBaseURL,
		"timeLimitSec", cfg.TimeLimitSec,
		"scorePerMatch", cfg.ScorePerMatch,
		"mismatchDelayMS", cfg.MismatchDelayMS,
		"port", cfg.WSPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "tag", "main", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WSPort),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("memory match server listening", "tag", "main", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen failed", "tag", "main", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down", "tag", "main")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "tag", "main", "err", err)
	}
	a.Close()
}
