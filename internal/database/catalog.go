package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// CarMake is a car manufacturer.
type CarMake struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
}

// CarModel is a model produced by a CarMake. Names are unique per make.
type CarModel struct {
	gorm.Model
	CarMakeID uint    `gorm:"not null;uniqueIndex:idx_make_model"`
	CarMake   CarMake `gorm:"constraint:OnDelete:CASCADE;"`
	Name      string  `gorm:"not null;uniqueIndex:idx_make_model"`
	Type      string  `gorm:"not null"`
	Year      int     `gorm:"not null"`
	DealerID  *uint
}

// SeedMake describes a make and its models to be inserted by SeedCatalog.
type SeedMake struct {
	Name        string
	Description string
	Models      []SeedModel
}

type SeedModel struct {
	Name string
	Type string
	Year int
}

type CatalogDB interface {
	CountCarMakes(ctx context.Context) (int64, error)
	SeedCatalog(ctx context.Context, makes []SeedMake) error
	ListCarModels(ctx context.Context) ([]CarModel, error)
}

func (c *Client) CountCarMakes(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&CarMake{}).Count(&count).Error; err != nil {
		log.Error("failed to count car makes", "error", err)
		return 0, err
	}
	return count, nil
}

// SeedCatalog inserts the given makes and models in a single transaction.
// Rows that already exist are left untouched, so calling it twice is harmless.
func (c *Client) SeedCatalog(ctx context.Context, makes []SeedMake) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sm := range makes {
			carMake := CarMake{Name: sm.Name}
			if err := tx.Where(CarMake{Name: sm.Name}).
				Attrs(CarMake{Description: sm.Description}).
				FirstOrCreate(&carMake).Error; err != nil {
				return err
			}
			for _, m := range sm.Models {
				model := CarModel{CarMakeID: carMake.ID, Name: m.Name}
				if err := tx.Where(CarModel{CarMakeID: carMake.ID, Name: m.Name}).
					Attrs(CarModel{Type: m.Type, Year: m.Year}).
					FirstOrCreate(&model).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to seed catalog", "error", err)
		return err
	}
	return nil
}

// ListCarModels returns every model with its make preloaded, ordered by make then model.
func (c *Client) ListCarModels(ctx context.Context) ([]CarModel, error) {
	var models []CarModel
	err := c.db.WithContext(ctx).
		Preload("CarMake").
		Order("car_make_id, id").
		Find(&models).Error
	if err != nil {
		log.Error("failed to list car models", "error", err)
		return nil, err
	}
	return models, nil
}
