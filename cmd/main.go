package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/telebot.v3"

	"github.com/kiselevos/lingua_practice_bot/internal/api"
	"github.com/kiselevos/lingua_practice_bot/internal/bot"
	"github.com/kiselevos/lingua_practice_bot/internal/bot/middleware"
	"github.com/kiselevos/lingua_practice_bot/internal/config"
	"github.com/kiselevos/lingua_practice_bot/internal/db"
	"github.com/kiselevos/lingua_practice_bot/internal/gateway"
	"github.com/kiselevos/lingua_practice_bot/internal/logging"
	"github.com/kiselevos/lingua_practice_bot/internal/observability"
	"github.com/kiselevos/lingua_practice_bot/internal/repositories"
	"github.com/kiselevos/lingua_practice_bot/internal/session"
	"github.com/kiselevos/lingua_practice_bot/internal/stats"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logger)

	database, err := db.NewDB(&cfg.Db)
	if err != nil {
		slog.Error("connect to database", "err", err)
		os.Exit(1)
	}

	groupRepo := repositories.NewGroupRepo(database)
	sessionRepo := repositories.NewSessionRepo(database)
	recorder := stats.NewPgRecorder(groupRepo, sessionRepo)

	pref := telebot.Settings{
		Token:  cfg.TG.Token,
		Poller: middleware.DropOldMessages(cfg.TG.DropOldMessagesAfter),
		OnError: func(err error, c telebot.Context) {
			if c != nil && c.Chat() != nil {
				slog.Error("handler error", "chat_id", c.Chat().ID, "err", err)
				logging.Notify(slog.LevelError, "handler error", "chat_id", c.Chat().ID, "err", err)
				return
			}
			slog.Error("handler error", "err", err)
			logging.Notify(slog.LevelError, "handler error", "err", err)
		},
	}

	b, err := telebot.NewBot(pref)
	if err != nil {
		slog.Error("create bot", "err", err)
		os.Exit(1)
	}

	logging.SetNotifier(logging.NewNotifier(b, cfg.Admin.AdminsID, cfg.Admin.NotifyMinInterval))

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	metrics := observability.NewMetrics(cfg.Api.MetricsNamespace)
	gw := gateway.NewTelebotGateway(b)
	coordinator := session.NewCoordinator(runCtx, gw, recorder, cfg.Session, metrics)
	go coordinator.Run(runCtx)

	bot.InitRouters(b, coordinator, gw)

	httpServer := &http.Server{
		Addr:    cfg.Api.BindAddr,
		Handler: api.New(coordinator, metrics).Router(),
	}

	go func() {
		slog.Info("http api listening", "addr", cfg.Api.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http listen", "err", err)
			os.Exit(1)
		}
	}()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutdown signal received")

		runCancel()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Api.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "err", err)
			_ = httpServer.Close()
		}

		b.Stop()
	}()

	slog.Info("bot starts...")
	b.Start()

	slog.Info("shutdown complete")
}
