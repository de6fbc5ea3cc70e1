// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/unclebandit/customer-sync/internal/config"
	"github.com/unclebandit/customer-sync/internal/db"
	"github.com/unclebandit/customer-sync/internal/normalizer"
	"github.com/unclebandit/customer-sync/internal/seed"
)

func main() {
	seedFiles := os.Args[1:]
	if len(seedFiles) == 0 {
		seedFiles = []string{"seed/customers.json"}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	cache, err := db.OpenCache(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cache.Close()

	for _, file := range seedFiles {
		f, err := os.Open(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", file, err)
		}

		raws, err := seed.ReadFile(file, f)
		f.Close()
		if err != nil {
			log.Fatalf("failed to parse %s: %v", file, err)
		}

		customers, dropped := normalizer.NormalizeAll(raws)
		written, err := cache.UpsertAll(ctx, customers)
		if err != nil {
			log.Fatalf("failed to seed %s: %v", file, err)
		}
		fmt.Printf("Seeded: %s (%d written, %d dropped)\n", file, written, dropped)
	}

	fmt.Println("Customer cache seeding completed successfully!")
}
