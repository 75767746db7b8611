package catalog

import "github.com/dealerhub/dealerhub/internal/database"

// defaultCatalog is inserted the first time the catalog is read while empty.
var defaultCatalog = []database.SeedMake{
	{
		Name:        "NISSAN",
		Description: "Great cars. Japanese technology",
		Models: []database.SeedModel{
			{Name: "Pathfinder", Type: "SUV", Year: 2023},
			{Name: "Qashqai", Type: "SUV", Year: 2023},
			{Name: "XTRAIL", Type: "SUV", Year: 2023},
		},
	},
	{
		Name:        "Mercedes",
		Description: "Great cars. German technology",
		Models: []database.SeedModel{
			{Name: "A-Class", Type: "SUV", Year: 2023},
			{Name: "C-Class", Type: "SUV", Year: 2023},
			{Name: "E-Class", Type: "SUV", Year: 2023},
		},
	},
	{
		Name:        "Audi",
		Description: "Great cars. German technology",
		Models: []database.SeedModel{
			{Name: "A4", Type: "SUV", Year: 2023},
			{Name: "A5", Type: "SUV", Year: 2023},
			{Name: "A6", Type: "SUV", Year: 2023},
		},
	},
	{
		Name:        "Kia",
		Description: "Great cars. Korean technology",
		Models: []database.SeedModel{
			{Name: "Sorrento", Type: "SUV", Year: 2023},
			{Name: "Carnival", Type: "SUV", Year: 2023},
			{Name: "Cerato", Type: "SEDAN", Year: 2023},
		},
	},
	{
		Name:        "Toyota",
		Description: "Great cars. Japanese technology",
		Models: []database.SeedModel{
			{Name: "Corolla", Type: "SEDAN", Year: 2023},
			{Name: "Camry", Type: "SEDAN", Year: 2023},
			{Name: "Kluger", Type: "SUV", Year: 2023},
		},
	},
}

// DefaultCatalog returns a copy of the built-in seed data.
func DefaultCatalog() []database.SeedMake {
	return append([]database.SeedMake(nil), defaultCatalog...)
}
