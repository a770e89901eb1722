package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/aparthus-be/internal/auth"
	"github.com/hongminglow/aparthus-be/internal/config"
	"github.com/hongminglow/aparthus-be/internal/notify"
	"github.com/hongminglow/aparthus-be/internal/seed"
	"github.com/hongminglow/aparthus-be/internal/server"
	"github.com/hongminglow/aparthus-be/internal/storage"
	"github.com/hongminglow/aparthus-be/internal/storage/backend"
	"github.com/hongminglow/aparthus-be/internal/workers"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, backend.Open); err != nil {
		log.Fatal(err)
	}
}

type openFunc func(context.Context, config.Config) (storage.Store, error)

// run serves until ctx ends. The store is closed on every return path.
func run(ctx context.Context, cfg config.Config, open openFunc) error {
	store, err := open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init %s storage: %w", cfg.StorageDriver, err)
	}
	defer store.Close()

	if cfg.SeedFile != "" {
		f, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		res, err := seed.Apply(ctx, store, f)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Printf("seed: %d users, %d residents created, %d skipped", res.UsersCreated, res.ResidentsCreated, res.Skipped)
	}

	static, err := auth.NewStaticCredentials(cfg.StaticAccounts...)
	if err != nil {
		return fmt.Errorf("static credentials: %w", err)
	}

	srv := server.New(cfg, store, static)
	reminder := workers.NewDuesReminder(notify.NewService(store), cfg.DuesReminderInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Aparthus backend listening on %s (storage=%s)", cfg.HTTPAddress(), cfg.StorageDriver)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return reminder.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			log.Printf("graceful shutdown error: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
