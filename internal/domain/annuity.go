package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sex selects the mortality column used for pricing.
type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

// ParseSex accepts "male"/"female" (any case, "m"/"f" shorthand).
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return Male, nil
	case "female", "f":
		return Female, nil
	}
	return "", NewFieldError("sex", fmt.Sprintf("must be male or female, got %q", s), ErrInvalidInput)
}

// Valid reports whether s is one of the tabulated sexes.
func (s Sex) Valid() bool {
	return s == Male || s == Female
}

// PayoutKind tags the PayoutStructure variant.
type PayoutKind string

const (
	PayoutLifetime              PayoutKind = "lifetime"
	PayoutGuaranteedYears       PayoutKind = "guaranteed_years"
	PayoutScheduledInstallments PayoutKind = "scheduled_installments"
)

// PayoutStructure is the payout shape chosen from the full annuity menu.
//   - lifetime: no guarantee
//   - guaranteed_years: Years certain, then for life
//   - scheduled_installments: Months fixed payments of MonthlyAmount, then for life
type PayoutStructure struct {
	Kind          PayoutKind      `yaml:"kind" json:"kind"`
	Years         int             `yaml:"years,omitempty" json:"years,omitempty"`
	Months        int             `yaml:"months,omitempty" json:"months,omitempty"`
	MonthlyAmount decimal.Decimal `yaml:"monthly_amount,omitempty" json:"monthly_amount,omitempty"`
}

// LifetimeStructure returns a plain lifetime payout.
func LifetimeStructure() PayoutStructure {
	return PayoutStructure{Kind: PayoutLifetime}
}

// GuaranteedYearsStructure returns a lifetime payout with a certain period of years.
func GuaranteedYearsStructure(years int) PayoutStructure {
	return PayoutStructure{Kind: PayoutGuaranteedYears, Years: years}
}

// ScheduledInstallmentsStructure returns months fixed payments followed by a lifetime payout.
func ScheduledInstallmentsStructure(months int, monthly decimal.Decimal) PayoutStructure {
	return PayoutStructure{Kind: PayoutScheduledInstallments, Months: months, MonthlyAmount: monthly}
}

// Validate rejects structure parameters before any pricing happens.
func (p PayoutStructure) Validate() error {
	switch p.Kind {
	case PayoutLifetime, "":
		return nil
	case PayoutGuaranteedYears:
		if p.Years < 1 {
			return NewFieldError("structure.years", fmt.Sprintf("guarantee must be at least 1 year, got %d", p.Years), ErrInvalidStructureParameter)
		}
		return nil
	case PayoutScheduledInstallments:
		if p.Months < 1 {
			return NewFieldError("structure.months", fmt.Sprintf("guarantee must be at least 1 month, got %d", p.Months), ErrInvalidStructureParameter)
		}
		if !p.MonthlyAmount.IsPositive() {
			return NewFieldError("structure.monthly_amount", "installment amount must be positive", ErrInvalidStructureParameter)
		}
		return nil
	}
	return NewFieldError("structure.kind", fmt.Sprintf("unknown payout kind %q", p.Kind), ErrInvalidStructureParameter)
}

// GuaranteeMonths is the length of the certain phase in months.
func (p PayoutStructure) GuaranteeMonths() int {
	switch p.Kind {
	case PayoutGuaranteedYears:
		return p.Years * 12
	case PayoutScheduledInstallments:
		return p.Months
	}
	return 0
}

// Describe returns a short human label such as "Guaranteed 10 years".
func (p PayoutStructure) Describe() string {
	switch p.Kind {
	case PayoutGuaranteedYears:
		return fmt.Sprintf("Guaranteed %d years", p.Years)
	case PayoutScheduledInstallments:
		return fmt.Sprintf("%d x %s then lifetime", p.Months, p.MonthlyAmount.StringFixed(2))
	}
	return "Lifetime"
}

// AnnuityPrincipal is the capital being converted, priced at a given age and rate.
type AnnuityPrincipal struct {
	Amount               decimal.Decimal `yaml:"amount" json:"amount"`
	AgeAtValuation       float64         `yaml:"age_at_valuation" json:"age_at_valuation"`
	TechnicalRatePercent float64         `yaml:"technical_rate_percent" json:"technical_rate_percent"`
}

// EligibilityRegime is the payout regime the law allows for a given fund size.
type EligibilityRegime string

const (
	RegimeLumpSum         EligibilityRegime = "lump_sum"
	RegimeInstallment     EligibilityRegime = "installment"
	RegimeFullAnnuityMenu EligibilityRegime = "full_annuity_menu"
)

// QuoteRequest is one caller request, already validated for shape by the caller.
// Either Age or BirthDate must be set; either Fund or TechnicalRatePercent must be set.
type QuoteRequest struct {
	Name                 string          `yaml:"name" json:"name,omitempty"`
	Principal            decimal.Decimal `yaml:"principal" json:"principal"`
	Age                  float64         `yaml:"age,omitempty" json:"age,omitempty"`
	BirthDate            *time.Time      `yaml:"birth_date,omitempty" json:"birth_date,omitempty"`
	Sex                  Sex             `yaml:"sex" json:"sex"`
	Fund                 string          `yaml:"fund,omitempty" json:"fund,omitempty"`
	TechnicalRatePercent *float64        `yaml:"technical_rate_percent,omitempty" json:"technical_rate_percent,omitempty"`
	ValuationDate        time.Time       `yaml:"valuation_date" json:"valuation_date"`
	Structure            PayoutStructure `yaml:"structure" json:"structure"`

	// InstallmentAmount is the per-month amount requested when the fund falls in the installment regime.
	InstallmentAmount decimal.Decimal `yaml:"installment_amount,omitempty" json:"installment_amount,omitempty"`
}

// Validate checks request fields that do not need the regulatory tables.
func (r *QuoteRequest) Validate() error {
	if r.Principal.IsNegative() {
		return NewFieldError("principal", "cannot be negative", ErrInvalidInput)
	}
	if !r.Sex.Valid() {
		return NewFieldError("sex", fmt.Sprintf("must be male or female, got %q", r.Sex), ErrInvalidInput)
	}
	if r.ValuationDate.IsZero() {
		return NewFieldError("valuation_date", "is required", ErrInvalidInput)
	}
	if r.Age < 0 {
		return NewFieldError("age", "cannot be negative", ErrInvalidAge)
	}
	if r.Age == 0 && r.BirthDate == nil {
		return NewFieldError("age", "age or birth_date is required", ErrInvalidInput)
	}
	if r.BirthDate != nil && r.BirthDate.After(r.ValuationDate) {
		return NewFieldError("birth_date", "cannot be after valuation_date", ErrInvalidAge)
	}
	if r.TechnicalRatePercent != nil && *r.TechnicalRatePercent < 0 {
		return NewFieldError("technical_rate_percent", "cannot be negative", ErrInvalidInput)
	}
	if r.TechnicalRatePercent == nil && r.Fund == "" {
		return NewFieldError("fund", "fund or technical_rate_percent is required", ErrUnknownFund)
	}
	if r.InstallmentAmount.IsNegative() {
		return NewFieldError("installment_amount", "cannot be negative", ErrInvalidStructureParameter)
	}
	return r.Structure.Validate()
}

// Classification is the outcome of the eligibility threshold test.
type Classification struct {
	Regime             EligibilityRegime  `json:"regime"`
	PlainMonthly       decimal.Decimal    `json:"plainMonthly"`
	MinimumPension     decimal.Decimal    `json:"minimumPension"`
	SmallFundThreshold decimal.Decimal    `json:"smallFundThreshold"`
	LumpSumThreshold   decimal.Decimal    `json:"lumpSumThreshold"`
	InstallmentBounds  *InstallmentBounds `json:"installmentBounds,omitempty"`
}

// InstallmentPlan describes how a small fund is paid down in fixed monthly installments.
type InstallmentPlan struct {
	MonthlyAmount    decimal.Decimal `json:"monthlyAmount"`
	FullInstallments int             `json:"fullInstallments"`
	FinalPayment     decimal.Decimal `json:"finalPayment"`
	TotalMonths      int             `json:"totalMonths"`
}

// QuoteResult is the engine output for one request.
type QuoteResult struct {
	Name                 string           `json:"name,omitempty"`
	Principal            decimal.Decimal  `json:"principal"`
	Sex                  Sex              `json:"sex"`
	AgeAtValuation       float64          `json:"ageAtValuation"`
	TableAge             int              `json:"tableAge"`
	TechnicalRatePercent float64          `json:"technicalRatePercent"`
	Fund                 string           `json:"fund,omitempty"`
	ValuationDate        time.Time        `json:"valuationDate"`
	Classification       Classification   `json:"classification"`
	Structure            *PayoutStructure `json:"structure,omitempty"`
	MonthlyAmount        decimal.Decimal  `json:"monthlyAmount"`
	LumpSum              decimal.Decimal  `json:"lumpSum"`
	Installment          *InstallmentPlan `json:"installment,omitempty"`
	GuaranteeCost        decimal.Decimal  `json:"guaranteeCost"`
	BoundaryAge          int              `json:"boundaryAge,omitempty"`
	BelowStatutoryAge    bool             `json:"belowStatutoryAge,omitempty"`
}

// Rejection is a request the engine refused, with its reason code.
type Rejection struct {
	Name    string             `json:"name,omitempty"`
	Code    ReasonCode         `json:"code"`
	Message string             `json:"message"`
	Bounds  *InstallmentBounds `json:"bounds,omitempty"`
}

// NewRejection builds a Rejection from an engine error.
func NewRejection(name string, err error) Rejection {
	rej := Rejection{Name: name, Code: ReasonCodeOf(err), Message: err.Error()}
	var be *InstallmentBoundsError
	if errors.As(err, &be) {
		b := be.Bounds
		rej.Bounds = &b
	}
	return rej
}

// QuoteReport groups the results of a batch of requests for output.
type QuoteReport struct {
	Source      string        `json:"source,omitempty"`
	LifeTable   string        `json:"lifeTable,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Quotes      []QuoteResult `json:"quotes"`
	Rejections  []Rejection   `json:"rejections,omitempty"`
}

// QuoteFile is the on-disk batch request format.
type QuoteFile struct {
	Quotes []QuoteRequest `yaml:"quotes" json:"quotes"`
}
