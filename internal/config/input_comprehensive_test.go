package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser, "Should create input parser")
}

func TestInputParser_LoadFromFile_FileNotFound(t *testing.T) {
	parser := NewInputParser()

	file, err := parser.LoadFromFile("nonexistent.yaml")

	assert.Error(t, err, "Should error for nonexistent file")
	assert.Nil(t, file, "Should return nil file")
	assert.Contains(t, err.Error(), "failed to read file", "Should have specific error message")
}

func TestInputParser_LoadFromFile_InvalidYAML(t *testing.T) {
	// Create a temporary file with invalid YAML
	tmpDir := t.TempDir()
	invalidFile := filepath.Join(tmpDir, "invalid.yaml")

	err := os.WriteFile(invalidFile, []byte("invalid: yaml: content: [unclosed"), 0644)
	assert.NoError(t, err)

	parser := NewInputParser()
	file, err := parser.LoadFromFile(invalidFile)

	assert.Error(t, err, "Should error for invalid YAML")
	assert.Nil(t, file, "Should return nil file")
	assert.Contains(t, err.Error(), "failed to parse YAML", "Should have specific error message")
}

func TestInputParser_LoadFromFile_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.yaml")

	validYAML := `
quotes:
  - name: "maria"
    principal: 20000
    age: 65
    sex: female
    technical_rate_percent: 5
    valuation_date: 2025-08-01
  - name: "georgi"
    principal: 48000.50
    birth_date: 1960-03-15
    sex: M
    fund: dsk
    valuation_date: 2025-08-01
    structure:
      kind: guaranteed_years
      years: 10
  - principal: 30000
    age: 63.5
    sex: female
    fund: rodina
    valuation_date: 2025-08-01
    structure:
      kind: scheduled_installments
      months: 60
      monthly_amount: 300
`
	err := os.WriteFile(validFile, []byte(validYAML), 0644)
	require.NoError(t, err)

	parser := NewInputParser()
	file, err := parser.LoadFromFile(validFile)
	require.NoError(t, err, "Should load valid YAML")
	require.Len(t, file.Quotes, 3)

	maria := file.Quotes[0]
	assert.Equal(t, "maria", maria.Name)
	assert.True(t, maria.Principal.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, 65.0, maria.Age)
	assert.Equal(t, domain.Female, maria.Sex)
	require.NotNil(t, maria.TechnicalRatePercent)
	assert.Equal(t, 5.0, *maria.TechnicalRatePercent)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), maria.ValuationDate)
	assert.Equal(t, domain.PayoutLifetime, maria.Structure.Kind, "Should default to lifetime")

	georgi := file.Quotes[1]
	assert.Equal(t, domain.Male, georgi.Sex, "Should normalize sex shorthand")
	require.NotNil(t, georgi.BirthDate)
	assert.Equal(t, 1960, georgi.BirthDate.Year())
	assert.Equal(t, "dsk", georgi.Fund)
	assert.Equal(t, domain.GuaranteedYearsStructure(10), georgi.Structure)
	assert.Equal(t, "48000.5", georgi.Principal.String())

	third := file.Quotes[2]
	assert.Equal(t, "quote-3", third.Name, "Should assign a default name")
	assert.Equal(t, domain.PayoutScheduledInstallments, third.Structure.Kind)
	assert.Equal(t, 60, third.Structure.Months)
	assert.True(t, third.Structure.MonthlyAmount.Equal(decimal.NewFromInt(300)))
}

func TestInputParser_Parse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "no quotes",
			yaml:    "quotes: []",
			wantMsg: "no quotes provided",
		},
		{
			name: "duplicate names",
			yaml: `
quotes:
  - {name: a, principal: 1000, age: 65, sex: male, fund: dsk, valuation_date: 2025-08-01}
  - {name: a, principal: 2000, age: 65, sex: male, fund: dsk, valuation_date: 2025-08-01}
`,
			wantMsg: "already used",
		},
		{
			name: "unknown sex",
			yaml: `
quotes:
  - {principal: 1000, age: 65, sex: other, fund: dsk, valuation_date: 2025-08-01}
`,
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "negative principal",
			yaml: `
quotes:
  - {principal: -5, age: 65, sex: male, fund: dsk, valuation_date: 2025-08-01}
`,
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "missing age and birth date",
			yaml: `
quotes:
  - {principal: 1000, sex: male, fund: dsk, valuation_date: 2025-08-01}
`,
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "missing fund and rate",
			yaml: `
quotes:
  - {principal: 1000, age: 65, sex: male, valuation_date: 2025-08-01}
`,
			wantErr: domain.ErrUnknownFund,
		},
		{
			name: "zero guarantee years",
			yaml: `
quotes:
  - principal: 1000
    age: 65
    sex: male
    fund: dsk
    valuation_date: 2025-08-01
    structure: {kind: guaranteed_years, years: 0}
`,
			wantErr: domain.ErrInvalidStructureParameter,
		},
		{
			name: "scheduled without amount",
			yaml: `
quotes:
  - principal: 1000
    age: 65
    sex: male
    fund: dsk
    valuation_date: 2025-08-01
    structure: {kind: scheduled_installments, months: 12}
`,
			wantErr: domain.ErrInvalidStructureParameter,
		},
		{
			name: "unknown structure",
			yaml: `
quotes:
  - principal: 1000
    age: 65
    sex: male
    fund: dsk
    valuation_date: 2025-08-01
    structure: {kind: drawdown}
`,
			wantErr: domain.ErrInvalidStructureParameter,
		},
		{
			name: "missing valuation date",
			yaml: `
quotes:
  - {principal: 1000, age: 65, sex: male, fund: dsk}
`,
			wantErr: domain.ErrInvalidInput,
		},
	}

	parser := NewInputParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := parser.Parse([]byte(tt.yaml))
			assert.Nil(t, file)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "configuration validation failed")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}
