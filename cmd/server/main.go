package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/yakoovad/hackathon-portal/internal/api"
	"github.com/yakoovad/hackathon-portal/internal/app"
	"github.com/yakoovad/hackathon-portal/internal/auth"
	"github.com/yakoovad/hackathon-portal/internal/challenge"
	"github.com/yakoovad/hackathon-portal/internal/config"
	"github.com/yakoovad/hackathon-portal/internal/service"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

const version = "v0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	l, err := logger.NewLogger(cfg.LogDevelopment)
	if err != nil {
		panic(err)
	}
	defer l.Sync()

	l.Info("starting application", zap.String("version", version), zap.String("driver", string(cfg.StorageDriver)))

	auth.TokenSecretKey = cfg.Admin.TokenSecret

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, l)

	awsCfg, err := app.LoadAWS(ctx, cfg)
	if err != nil {
		l.Fatal("failed to load aws config", zap.Error(err))
	}

	stores, err := app.OpenStores(ctx, cfg, awsCfg)
	if err != nil {
		l.Fatal("failed to open stores", zap.Error(err))
	}
	defer stores.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	catalog, err := challenge.Load(cfg.ChallengesFile)
	if err != nil {
		l.Fatal("failed to load challenges", zap.Error(err))
	}

	participants := service.NewParticipantService(stores.Participants).WithRegistrationURL(cfg.RegistrationURL)
	team := service.NewTeamService(stores.Tx).
		WithTeamRepo(stores.Teams).
		WithSubmissionRepo(stores.Submissions).
		WithParticipantGate(participants).
		WithChallenges(catalog).
		WithMaxMembers(cfg.TeamMaxMembers)
	submission := service.NewSubmissionService(stores.Tx).
		WithTeamRepo(stores.Teams).
		WithSubmissionRepo(stores.Submissions).
		WithObjectStore(app.NewObjectStore(cfg, awsCfg))
	feedback := service.NewFeedbackService(stores.Feedback).WithGalleryURL(cfg.PhotoGalleryURL)
	admin := service.NewAdminService(team, submission, feedback, participants)

	authn := auth.NewAdminAuthenticator(cfg.Admin.PasswordHash, auth.NewRedisSessionStore(rdb), cfg.Admin.SessionTTL)

	healthChecker := api.MustNewHealthChecker(version,
		stores.Health,
		api.PingCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	)

	e := echo.New()
	e.HideBanner = true

	handler := api.NewHandler(l).
		WithHealthChecker(healthChecker).
		WithTeamService(team).
		WithSubmissionService(submission).
		WithFeedbackService(feedback).
		WithParticipantService(participants).
		WithAdminService(admin).
		WithAuthenticator(authn).
		WithChallenges(catalog)

	handler.RegisterRoutes(e)

	go func() {
		l.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		l.Error("graceful shutdown failed", zap.Error(err))
	}
}
