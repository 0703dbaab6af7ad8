package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/quick-form/app"
	"github.com/mbolis/quick-form/config"
	"github.com/mbolis/quick-form/database"
	"github.com/mbolis/quick-form/delivery"
	"github.com/mbolis/quick-form/httpx"
	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/registry"
	"github.com/mbolis/quick-form/routes"
)

func main() {
	cfg, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	store := database.NewStore(db)
	if cfg.AdminPass != "" {
		err = store.SeedUser(ctx, cfg.AdminUser, cfg.AdminPass)
		if err != nil {
			log.Fatal("main.db.seed_user:", err)
		}
	}

	forms := registry.New(store)
	err = forms.Load(ctx)
	if err != nil {
		log.Fatal("main.registry.load:", err)
	}

	shares := delivery.NewShareTokens(cfg.ShareSecret, cfg.ShareTTL)

	var mailer delivery.Mailer = delivery.LogMailer{}
	if cfg.SMTPAddr != "" {
		mailer = &delivery.SMTPMailer{
			Addr:     cfg.SMTPAddr,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
		}
	}

	app := app.App{
		Store:        store,
		Forms:        forms,
		Shares:       shares,
		Invitations:  delivery.NewInvitations(shares, cfg.PublicURL, mailer),
		BearerServer: httpx.NewBearerServer(store, cfg.TokenSecret, cfg.TokenTTL),
		Config:       cfg,
	}

	handler := routes.Wire(app)

	err = runServer(ctx, cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("main.server.shutdown:", err)
		}
	}()

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
