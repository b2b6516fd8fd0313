package catalog

import (
	_ "embed"
	"fmt"
)

//go:embed seed/products.json
var seedJSON []byte

// SeedProducts returns a fresh copy of the built-in catalog.
func SeedProducts() ([]Product, error) {
	products, err := decodeSnapshot(seedJSON)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return products, nil
}
