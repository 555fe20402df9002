package main

import (
	"context"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/hiringboard/job-board/internal/application"
	"github.com/hiringboard/job-board/internal/config"
	"github.com/hiringboard/job-board/internal/database"
	"github.com/hiringboard/job-board/internal/email"
	"github.com/hiringboard/job-board/internal/handler"
	"github.com/hiringboard/job-board/internal/jobpost"
	"github.com/hiringboard/job-board/internal/server"
	"github.com/hiringboard/job-board/internal/template"
	"github.com/hiringboard/job-board/internal/validation"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to load config")
	}
	if cfg.Env != "dev" {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	conn, err := database.GetDbConn(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to connect to postgres")
	}
	defer database.CloseDbConn(conn)
	if err := database.Migrate(conn); err != nil {
		logger.Fatal().Err(err).Msg("unable to migrate database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	mailbox, closeMailbox, err := email.OpenMailbox(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to open mock mailbox")
	}
	defer closeMailbox()
	notifier := email.NewNotifierFromConfig(cfg, mailbox, logger)
	if notifier.IsMockMode() {
		logger.Info().Str("store", cfg.MockEmailStore).Msg("mail mock mode enabled, confirmation emails are recorded instead of sent")
	}

	jobPostRepo := jobpost.NewRepository(conn)
	applicationRepo := application.NewRepository(conn)
	applicationService := application.NewService(jobPostRepo, applicationRepo, notifier, logger)

	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.Env != "dev"

	svr := server.NewServer(
		cfg,
		mux.NewRouter(),
		template.NewTemplate(),
		sessionStore,
		logger,
	)

	handler.RegisterRoutes(svr, validation.New(), jobPostRepo, applicationService)

	if err := svr.Run(); err != nil {
		logger.Fatal().Err(err).Msg("unable to start server")
	}
}
