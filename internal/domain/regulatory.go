package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RegulatoryConfig contains the jurisdiction data that applies uniformly to every request.
// This is loaded from regulatory.yaml (or the embedded default) at process start.
type RegulatoryConfig struct {
	Metadata            RegulatoryMetadata       `yaml:"metadata" json:"metadata"`
	Eligibility         EligibilityThresholds    `yaml:"eligibility" json:"eligibility"`
	MinimumPension      []MinimumPensionStep     `yaml:"minimum_pension" json:"minimum_pension"`
	Funds               []PensionFund            `yaml:"funds" json:"funds"`
	RetirementAges      []RetirementAgeRule      `yaml:"retirement_ages" json:"retirement_ages"`
	ServiceRequirements []ServiceRequirementRule `yaml:"service_requirements" json:"service_requirements"`
}

// RegulatoryMetadata contains information about the regulatory data
type RegulatoryMetadata struct {
	Jurisdiction string `yaml:"jurisdiction" json:"jurisdiction"`
	Currency     string `yaml:"currency" json:"currency"`
	LastUpdated  string `yaml:"last_updated" json:"last_updated"`
	Description  string `yaml:"description" json:"description"`
}

// EligibilityThresholds are the ratios of the minimum pension that drive regime selection.
type EligibilityThresholds struct {
	SmallFundRatio      decimal.Decimal `yaml:"small_fund_ratio" json:"small_fund_ratio"`
	LumpSumMultiple     decimal.Decimal `yaml:"lump_sum_multiple" json:"lump_sum_multiple"`
	InstallmentMaxRatio decimal.Decimal `yaml:"installment_max_ratio" json:"installment_max_ratio"`
}

// DefaultEligibilityThresholds returns 15% / 3x / 100% of the minimum pension.
func DefaultEligibilityThresholds() EligibilityThresholds {
	return EligibilityThresholds{
		SmallFundRatio:      decimal.NewFromFloat(0.15),
		LumpSumMultiple:     decimal.NewFromInt(3),
		InstallmentMaxRatio: decimal.NewFromInt(1),
	}
}

// WithDefaults fills zero ratios from DefaultEligibilityThresholds.
func (t EligibilityThresholds) WithDefaults() EligibilityThresholds {
	def := DefaultEligibilityThresholds()
	if t.SmallFundRatio.IsZero() {
		t.SmallFundRatio = def.SmallFundRatio
	}
	if t.LumpSumMultiple.IsZero() {
		t.LumpSumMultiple = def.LumpSumMultiple
	}
	if t.InstallmentMaxRatio.IsZero() {
		t.InstallmentMaxRatio = def.InstallmentMaxRatio
	}
	return t
}

// MinimumPensionStep is a minimum guaranteed pension amount in force from EffectiveFrom.
type MinimumPensionStep struct {
	EffectiveFrom time.Time       `yaml:"effective_from" json:"effective_from"`
	Amount        decimal.Decimal `yaml:"amount" json:"amount"`
}

// PensionFund is a named fund and the technical interest rate it prices annuities with.
type PensionFund struct {
	ID                   string  `yaml:"id" json:"id"`
	Name                 string  `yaml:"name" json:"name"`
	TechnicalRatePercent float64 `yaml:"technical_rate_percent" json:"technical_rate_percent"`
}

// AgeSpec is an age expressed as whole years and months.
type AgeSpec struct {
	Years  int `yaml:"years" json:"years"`
	Months int `yaml:"months" json:"months"`
}

// Fractional returns the age in fractional years.
func (a AgeSpec) Fractional() float64 {
	return float64(a.Years) + float64(a.Months)/12
}

func (a AgeSpec) String() string {
	return fmt.Sprintf("%dy %dm", a.Years, a.Months)
}

// RetirementAgeRule is the statutory retirement age for retirements in Year.
type RetirementAgeRule struct {
	Year   int     `yaml:"year" json:"year"`
	Female AgeSpec `yaml:"female" json:"female"`
	Male   AgeSpec `yaml:"male" json:"male"`
}

// ServiceRequirementRule is the required length of service, in years, for retirements in Year.
type ServiceRequirementRule struct {
	Year   int             `yaml:"year" json:"year"`
	Female decimal.Decimal `yaml:"female" json:"female"`
	Male   decimal.Decimal `yaml:"male" json:"male"`
}

// Normalize sorts the step tables and fills default thresholds. Call once after loading.
func (rc *RegulatoryConfig) Normalize() {
	rc.Eligibility = rc.Eligibility.WithDefaults()
	sort.Slice(rc.MinimumPension, func(i, j int) bool {
		return rc.MinimumPension[i].EffectiveFrom.Before(rc.MinimumPension[j].EffectiveFrom)
	})
	sort.Slice(rc.RetirementAges, func(i, j int) bool { return rc.RetirementAges[i].Year < rc.RetirementAges[j].Year })
	sort.Slice(rc.ServiceRequirements, func(i, j int) bool {
		return rc.ServiceRequirements[i].Year < rc.ServiceRequirements[j].Year
	})
}

// MinimumPensionOn returns the minimum guaranteed pension in force on date.
// The tables must be sorted (see Normalize).
func (rc *RegulatoryConfig) MinimumPensionOn(date time.Time) (decimal.Decimal, error) {
	idx := sort.Search(len(rc.MinimumPension), func(i int) bool {
		return rc.MinimumPension[i].EffectiveFrom.After(date)
	})
	if idx == 0 {
		return decimal.Zero, fmt.Errorf("%w on %s", ErrNoMinimumPension, date.Format("2006-01-02"))
	}
	return rc.MinimumPension[idx-1].Amount, nil
}

// FindFund looks a fund up by ID or display name, case-insensitively.
func (rc *RegulatoryConfig) FindFund(name string) (PensionFund, error) {
	key := strings.TrimSpace(name)
	for _, f := range rc.Funds {
		if strings.EqualFold(f.ID, key) || strings.EqualFold(f.Name, key) {
			return f, nil
		}
	}
	return PensionFund{}, fmt.Errorf("%w: %q", ErrUnknownFund, name)
}

// RetirementAgeFor returns the statutory retirement age for sex in year. Years past the
// last rule use the last rule; years before the first rule are not covered.
func (rc *RegulatoryConfig) RetirementAgeFor(sex Sex, year int) (AgeSpec, bool) {
	rule, ok := findYearRule(rc.RetirementAges, year, func(r RetirementAgeRule) int { return r.Year })
	if !ok {
		return AgeSpec{}, false
	}
	if sex == Female {
		return rule.Female, true
	}
	return rule.Male, true
}

// RequiredServiceFor returns the required years of service for sex in year.
func (rc *RegulatoryConfig) RequiredServiceFor(sex Sex, year int) (decimal.Decimal, bool) {
	rule, ok := findYearRule(rc.ServiceRequirements, year, func(r ServiceRequirementRule) int { return r.Year })
	if !ok {
		return decimal.Zero, false
	}
	if sex == Female {
		return rule.Female, true
	}
	return rule.Male, true
}

func findYearRule[T any](rules []T, year int, yearOf func(T) int) (T, bool) {
	var zero T
	if len(rules) == 0 || year < yearOf(rules[0]) {
		return zero, false
	}
	idx := sort.Search(len(rules), func(i int) bool { return yearOf(rules[i]) > year })
	return rules[idx-1], true
}
