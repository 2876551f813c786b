package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fleet-rental-backend/internal/domain"
)

// fleetFile is the on-disk layout of a fleet definition.
type fleetFile struct {
	Cars []domain.Car `yaml:"cars"`
}

// LoadFile reads a YAML fleet definition and indexes it.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fleet file: %w", err)
	}

	var f fleetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fleet file: %w", err)
	}
	if len(f.Cars) == 0 {
		return nil, fmt.Errorf("fleet file %s defines no cars", path)
	}
	return New(f.Cars)
}
