package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Region describes one monitored deployment area: which stops seed discovery,
// which bounding box stops must fall into, and which line products with which
// identifier shapes are accepted. Upstream naming conventions vary per
// region, so the patterns are configuration rather than code.
type Region struct {
	Name        string      `yaml:"name" validate:"required"`
	BoundingBox BoundingBox `yaml:"bounding_box" validate:"required"`
	SeedStops   []string    `yaml:"seed_stops" validate:"required,min=1,dive,required"`
	Products    []Product   `yaml:"products" validate:"required,min=1,dive"`
}

type BoundingBox struct {
	North float64 `yaml:"north" validate:"gtfield=South"`
	South float64 `yaml:"south"`
	East  float64 `yaml:"east" validate:"gtfield=West"`
	West  float64 `yaml:"west"`
}

type Product struct {
	Product string `yaml:"product" validate:"required"`
	Pattern string `yaml:"pattern" validate:"required"`
}

// DefaultRegion is the Graz network the service was originally built for.
func DefaultRegion() Region {
	return Region{
		Name: "graz",
		BoundingBox: BoundingBox{
			North: 47.15,
			South: 46.95,
			East:  15.60,
			West:  15.30,
		},
		SeedStops: []string{"460304700"}, // Jakominiplatz
		Products: []Product{
			{Product: "tram", Pattern: `^\d{1,2}$`},
			{Product: "city-bus", Pattern: `^\d{2}[A-Z]?$`},
		},
	}
}

// LoadRegion reads and validates a region profile from a YAML file.
func LoadRegion(path string) (*Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var region Region
	if err := yaml.Unmarshal(data, &region); err != nil {
		return nil, err
	}
	v := validator.New()
	if err := v.Struct(region); err != nil {
		return nil, err
	}
	return &region, nil
}
