package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/pixhy/voizchat/internal/config"
	"github.com/pixhy/voizchat/internal/handler"
	"github.com/pixhy/voizchat/internal/mail"
	"github.com/pixhy/voizchat/internal/service/auth"
	"github.com/pixhy/voizchat/internal/service/broadcast"
	chatservice "github.com/pixhy/voizchat/internal/service/chat"
	friendservice "github.com/pixhy/voizchat/internal/service/friend"
	"github.com/pixhy/voizchat/internal/service/presence"
	userservice "github.com/pixhy/voizchat/internal/service/user"
	"github.com/pixhy/voizchat/internal/storage/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	privateKey, publicKey, err := auth.LoadKeys(cfg.Auth.PrivateKeyPath, cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Fatalf("failed to load signing keys: %v", err)
	}
	gate := auth.NewGate(privateKey, publicKey, cfg.Auth.TokenTTL, store)

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.Mail.Enabled {
		mailer = &mail.SMTPMailer{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			From:     cfg.Mail.From,
			Password: cfg.Mail.Password,
		}
		log.Println("SMTP mailer configured")
	} else {
		log.Println("SMTP credentials missing, verification mails are logged only")
	}

	registry := presence.NewRegistry()
	router := broadcast.NewRouter(registry, store)

	userSvc := userservice.NewService(store, gate, mailer, cfg.Mail.WebclientBaseURL)
	friendSvc := friendservice.NewService(store, router)
	chatSvc := chatservice.NewService(store, router)

	httpHandler := handler.NewRouter(gate, registry, userSvc, friendSvc, chatSvc)

	startServer(ctx, cfg.Server, httpHandler)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("voizchat backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
