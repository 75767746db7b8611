// Package catalog serves the local car make and model catalog.
package catalog

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dealerhub/dealerhub/internal/database"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

// Car is a single entry of the catalog listing.
type Car struct {
	CarModel string `json:"CarModel"`
	CarMake  string `json:"CarMake"`
}

// Service lists the catalog and seeds it on first use.
type Service struct {
	store database.CatalogDB
	seed  []database.SeedMake
	sf    singleflight.Group
}

// New creates a catalog service seeding with the built-in catalog.
func New(store database.CatalogDB) *Service {
	return NewWithSeed(store, defaultCatalog)
}

// NewWithSeed creates a catalog service with custom seed data.
func NewWithSeed(store database.CatalogDB, seed []database.SeedMake) *Service {
	return &Service{store: store, seed: seed}
}

// EnsureSeeded inserts the seed data when no car make exists yet.
// Concurrent callers share a single seeding run.
func (s *Service) EnsureSeeded(ctx context.Context) error {
	count, err := s.store.CountCarMakes(ctx)
	if err != nil {
		return fmt.Errorf("failed to count car makes: %w", err)
	}
	if count > 0 {
		return nil
	}

	_, err, _ = s.sf.Do("seed", func() (any, error) {
		// re-check, another caller may have finished seeding while we waited
		count, err := s.store.CountCarMakes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count car makes: %w", err)
		}
		if count > 0 {
			return nil, nil
		}

		log.Info("Seeding car catalog", "makes", len(s.seed))
		if err := s.store.SeedCatalog(ctx, s.seed); err != nil {
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
		return nil, nil
	})
	return err
}

// ListCars returns every model with its make, seeding the catalog first if needed.
func (s *Service) ListCars(ctx context.Context) ([]Car, error) {
	if err := s.EnsureSeeded(ctx); err != nil {
		return nil, err
	}

	models, err := s.store.ListCarModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list car models: %w", err)
	}

	return lo.Map(models, func(m database.CarModel, _ int) Car {
		return Car{CarModel: m.Name, CarMake: m.CarMake.Name}
	}), nil
}
