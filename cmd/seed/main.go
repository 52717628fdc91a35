// Command seed loads shelter, resident, and alert fixtures into the routing
// database. Fixtures are JSON files matching the domain types; polygons are
// parse-checked before anything is written.
//
// Usage:
//
//	go run ./cmd/seed \
//	  -shelters data/fixtures/shelters.json \
//	  -residents data/fixtures/residents.json \
//	  -alerts data/fixtures/alerts.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/resqnow/evac-routing-service/internal/adapter/postgres"
	"github.com/resqnow/evac-routing-service/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	sheltersPath := flag.String("shelters", "", "path to shelters JSON fixture")
	residentsPath := flag.String("residents", "", "path to residents JSON fixture")
	alertsPath := flag.String("alerts", "", "path to alerts JSON fixture")
	flag.Parse()

	if *sheltersPath == "" && *residentsPath == "" && *alertsPath == "" {
		return fmt.Errorf("nothing to seed: pass at least one of -shelters, -residents, -alerts")
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	store, err := postgres.Open(dsn)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if *sheltersPath != "" {
		n, err := seedShelters(ctx, store, *sheltersPath)
		if err != nil {
			return fmt.Errorf("seeding shelters: %w", err)
		}
		log.Printf("seeded %d shelters", n)
	}

	if *residentsPath != "" {
		n, err := seedResidents(ctx, store, *residentsPath)
		if err != nil {
			return fmt.Errorf("seeding residents: %w", err)
		}
		log.Printf("seeded %d residents", n)
	}

	if *alertsPath != "" {
		n, err := seedAlerts(ctx, store, *alertsPath)
		if err != nil {
			return fmt.Errorf("seeding alerts: %w", err)
		}
		log.Printf("seeded %d alerts", n)
	}

	return nil
}

func loadFixture[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return items, nil
}

func seedShelters(ctx context.Context, store *postgres.Store, path string) (int, error) {
	shelters, err := loadFixture[domain.Shelter](path)
	if err != nil {
		return 0, err
	}
	for i, s := range shelters {
		if s.ID == "" || s.Name == "" {
			return 0, fmt.Errorf("shelter %d: id and name are required", i)
		}
		if err := store.PutShelter(ctx, s); err != nil {
			return 0, err
		}
	}
	return len(shelters), nil
}

func seedResidents(ctx context.Context, store *postgres.Store, path string) (int, error) {
	residents, err := loadFixture[domain.Resident](path)
	if err != nil {
		return 0, err
	}
	for i, r := range residents {
		if r.Phone == "" {
			return 0, fmt.Errorf("resident %d: phone is required", i)
		}
		if err := store.PutResident(ctx, r); err != nil {
			return 0, err
		}
	}
	return len(residents), nil
}

func seedAlerts(ctx context.Context, store *postgres.Store, path string) (int, error) {
	alerts, err := loadFixture[domain.Alert](path)
	if err != nil {
		return 0, err
	}
	for i, a := range alerts {
		if a.ID == "" {
			return 0, fmt.Errorf("alert %d: alert_id is required", i)
		}
		if _, err := domain.ParsePolygon(a.Polygon); err != nil {
			return 0, fmt.Errorf("alert %s: polygon invalid: %w", a.ID, err)
		}
		if a.Status == "" {
			a.Status = domain.AlertStatusActive
		}
		if err := store.PutAlert(ctx, a); err != nil {
			return 0, err
		}
	}
	return len(alerts), nil
}
