package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/aparthus-be/internal/config"
	"github.com/hongminglow/aparthus-be/internal/seed"
	"github.com/hongminglow/aparthus-be/internal/storage/backend"
)

func main() {
	file := flag.String("file", "seed.yaml", "path to the seed YAML file")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	f, err := seed.Load(*file)
	if err != nil {
		log.Fatal(err)
	}
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("init %s storage: %v", cfg.StorageDriver, err)
	}
	res, err := seed.Apply(ctx, store, f)
	store.Close()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("created %d users and %d residents, skipped %d existing", res.UsersCreated, res.ResidentsCreated, res.Skipped)
}
