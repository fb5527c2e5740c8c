package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/dadyutenga/voucher/internal/config"
	"github.com/dadyutenga/voucher/internal/domain/model"
	pg "github.com/dadyutenga/voucher/internal/infra/db/postgres"
	"github.com/dadyutenga/voucher/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	packageUC := usecase.NewPackageUseCase(pg.NewPostgresPackageRepo(pool))

	// If the catalog is already populated, do nothing.
	existing, err := packageUC.ListAll(ctx)
	if err != nil {
		log.Fatalf("list packages: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d packages already present. No changes.\n", len(existing))
		for _, p := range existing {
			fmt.Printf("  - %s (minutes=%d, price=%d %s)\n", p.Name, p.DurationMinutes, p.PriceCents, p.Currency)
		}
		return
	}

	gb5 := 5 * 1024
	seed := []struct {
		Name       string
		Minutes    int
		DataCapMB  *int
		PriceCents int64
	}{
		{"Hourly", 60, nil, 2000},
		{"Day Pass", 1440, nil, 10000},
		{"Weekly 5GB", 7 * 1440, &gb5, 50000},
		{"Monthly", 30 * 1440, nil, 150000},
	}

	for _, s := range seed {
		p, err := model.NewPackage("", s.Name, s.Minutes, s.DataCapMB, s.PriceCents, cfg.Payment.Currency)
		if err != nil {
			log.Fatalf("build package %q: %v", s.Name, err)
		}
		if err := packageUC.Create(ctx, p); err != nil {
			log.Fatalf("create package %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, minutes=%d, price=%d %s)\n", p.Name, p.ID, p.DurationMinutes, p.PriceCents, p.Currency)
	}

	fmt.Println("Seeding complete.")
}
