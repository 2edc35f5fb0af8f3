package calculation

import (
	"fmt"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
)

// Classifier decides the payout regime from the size of the fund relative to the
// minimum guaranteed pension.
type Classifier struct {
	Thresholds domain.EligibilityThresholds
}

// NewClassifier creates a classifier; zero thresholds fall back to 15% / 3x / 100%.
func NewClassifier(t domain.EligibilityThresholds) *Classifier {
	return &Classifier{Thresholds: t.WithDefaults()}
}

// Classify applies the threshold rule:
//   - plainMonthly < 15% of the minimum and principal < 3x the minimum: lump sum
//   - plainMonthly < 15% of the minimum otherwise: installments within [15%, 100%] of the minimum
//   - otherwise (including plainMonthly exactly at 15%): the full annuity menu
func (c *Classifier) Classify(principal, plainMonthly, minPension decimal.Decimal) domain.Classification {
	t := c.Thresholds
	cls := domain.Classification{
		PlainMonthly:       plainMonthly,
		MinimumPension:     minPension,
		SmallFundThreshold: minPension.Mul(t.SmallFundRatio),
		LumpSumThreshold:   minPension.Mul(t.LumpSumMultiple),
	}

	if !plainMonthly.LessThan(cls.SmallFundThreshold) {
		cls.Regime = domain.RegimeFullAnnuityMenu
		return cls
	}
	if principal.LessThan(cls.LumpSumThreshold) {
		cls.Regime = domain.RegimeLumpSum
		return cls
	}

	cls.Regime = domain.RegimeInstallment
	cls.InstallmentBounds = &domain.InstallmentBounds{
		Min: cls.SmallFundThreshold,
		Max: minPension.Mul(t.InstallmentMaxRatio),
	}
	return cls
}

// Classify runs the default classifier.
func Classify(principal, plainMonthly, minPension decimal.Decimal) domain.Classification {
	return NewClassifier(domain.EligibilityThresholds{}).Classify(principal, plainMonthly, minPension)
}

// ValidateInstallment checks a requested installment against the regime bounds.
func ValidateInstallment(amount decimal.Decimal, bounds domain.InstallmentBounds) error {
	if !bounds.Contains(amount) {
		return &domain.InstallmentBoundsError{Amount: amount, Bounds: bounds}
	}
	return nil
}

// PlanInstallments splits principal into fixed monthly installments of amount and a final
// partial payment. The balance is paid down nominally, without interest.
func PlanInstallments(principal, amount decimal.Decimal) (domain.InstallmentPlan, error) {
	if !amount.IsPositive() {
		return domain.InstallmentPlan{}, fmt.Errorf("%w: installment amount must be positive", domain.ErrInvalidStructureParameter)
	}
	if principal.IsNegative() {
		return domain.InstallmentPlan{}, fmt.Errorf("%w: principal cannot be negative", domain.ErrInvalidInput)
	}

	full := principal.Div(amount).Floor()
	final := principal.Sub(full.Mul(amount))
	plan := domain.InstallmentPlan{
		MonthlyAmount:    amount,
		FullInstallments: int(full.IntPart()),
		FinalPayment:     final,
		TotalMonths:      int(full.IntPart()),
	}
	if final.IsPositive() {
		plan.TotalMonths++
	}
	return plan, nil
}
