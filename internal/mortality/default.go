package mortality

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed data/bg2025.yaml
var defaultTableYAML []byte

var (
	defaultOnce  sync.Once
	defaultTable *LifeTable
	defaultErr   error
)

// Default returns the embedded Bulgarian 2025 national life table.
func Default() (*LifeTable, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(defaultTableYAML)
	})
	return defaultTable, defaultErr
}

// Parse decodes a YAML life table and validates it.
func Parse(data []byte) (*LifeTable, error) {
	var td domain.LifeTableData
	if err := yaml.Unmarshal(data, &td); err != nil {
		return nil, fmt.Errorf("failed to parse life table YAML: %w", err)
	}
	return NewLifeTable(td)
}

// LoadFile reads and validates a YAML life table from filename.
func LoadFile(filename string) (*LifeTable, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("life table %s: %w", filename, err)
	}
	return t, nil
}
