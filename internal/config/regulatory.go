package config

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed data/regulatory.yaml
var defaultRegulatoryYAML []byte

var (
	defaultRegulatoryOnce sync.Once
	defaultRegulatory     *domain.RegulatoryConfig
	defaultRegulatoryErr  error
)

// DefaultRegulatory returns the embedded regulatory data. The result is shared; do not modify it.
func DefaultRegulatory() (*domain.RegulatoryConfig, error) {
	defaultRegulatoryOnce.Do(func() {
		defaultRegulatory, defaultRegulatoryErr = ParseRegulatory(defaultRegulatoryYAML)
	})
	return defaultRegulatory, defaultRegulatoryErr
}

// LoadRegulatory loads regulatory data from a YAML file. An empty path returns the embedded default.
func LoadRegulatory(filename string) (*domain.RegulatoryConfig, error) {
	if filename == "" {
		return DefaultRegulatory()
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ParseRegulatory(data)
}

// ParseRegulatory decodes, validates and normalizes a regulatory document.
func ParseRegulatory(data []byte) (*domain.RegulatoryConfig, error) {
	var rc domain.RegulatoryConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse regulatory YAML: %w", err)
	}
	if err := ValidateRegulatory(&rc); err != nil {
		return nil, fmt.Errorf("regulatory validation failed: %w", err)
	}
	rc.Normalize()
	return &rc, nil
}

// ValidateRegulatory checks the regulatory tables for values the engine cannot use.
func ValidateRegulatory(rc *domain.RegulatoryConfig) error {
	if len(rc.MinimumPension) == 0 {
		return fmt.Errorf("at least one minimum pension step is required")
	}
	dates := make(map[string]bool, len(rc.MinimumPension))
	for i, step := range rc.MinimumPension {
		if step.EffectiveFrom.IsZero() {
			return fmt.Errorf("minimum pension step %d: effective_from is required", i)
		}
		if !step.Amount.IsPositive() {
			return fmt.Errorf("minimum pension step %d: amount must be positive", i)
		}
		key := step.EffectiveFrom.Format("2006-01-02")
		if dates[key] {
			return fmt.Errorf("minimum pension step %d: duplicate effective_from %s", i, key)
		}
		dates[key] = true
	}

	if err := validateThresholds(rc.Eligibility); err != nil {
		return fmt.Errorf("eligibility: %w", err)
	}

	ids := make(map[string]bool, len(rc.Funds))
	for i, f := range rc.Funds {
		if f.ID == "" {
			return fmt.Errorf("fund %d: id is required", i)
		}
		if ids[f.ID] {
			return fmt.Errorf("fund %d: duplicate id %q", i, f.ID)
		}
		ids[f.ID] = true
		if f.TechnicalRatePercent < 0 || f.TechnicalRatePercent > 20 {
			return fmt.Errorf("fund %s: technical rate must be between 0%% and 20%%, got %v%%", f.ID, f.TechnicalRatePercent)
		}
	}

	for i, r := range rc.RetirementAges {
		if r.Female.Months < 0 || r.Female.Months > 11 || r.Male.Months < 0 || r.Male.Months > 11 {
			return fmt.Errorf("retirement age rule %d (%d): months must be between 0 and 11", i, r.Year)
		}
	}
	return nil
}

func validateThresholds(t domain.EligibilityThresholds) error {
	// Zero ratios are allowed here and replaced by the defaults during normalization.
	if t.SmallFundRatio.IsNegative() || t.SmallFundRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("small_fund_ratio must be between 0 and 1")
	}
	if t.LumpSumMultiple.IsNegative() {
		return fmt.Errorf("lump_sum_multiple cannot be negative")
	}
	if t.InstallmentMaxRatio.IsNegative() {
		return fmt.Errorf("installment_max_ratio cannot be negative")
	}
	if !t.InstallmentMaxRatio.IsZero() && !t.SmallFundRatio.IsZero() && t.InstallmentMaxRatio.LessThan(t.SmallFundRatio) {
		return fmt.Errorf("installment_max_ratio must not be below small_fund_ratio")
	}
	return nil
}
