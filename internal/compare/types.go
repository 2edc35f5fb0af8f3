package compare

import (
	"fmt"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
)

// MenuOption is one priced payout structure from the full annuity menu
type MenuOption struct {
	Label       string                 `json:"label"`
	Description string                 `json:"description"`
	Structure   domain.PayoutStructure `json:"structure"`

	// Key Metrics
	MonthlyAmount   decimal.Decimal `json:"monthlyAmount"`
	GuaranteeMonths int             `json:"guaranteeMonths"`
	GuaranteedTotal decimal.Decimal `json:"guaranteedTotal"` // Nominal sum paid during the certain phase
	GuaranteeCost   decimal.Decimal `json:"guaranteeCost"`
	BoundaryAge     int             `json:"boundaryAge"`

	// Comparison to Base
	MonthlyDiffFromBase decimal.Decimal `json:"monthlyDiffFromBase"`
	MonthlyPctFromBase  decimal.Decimal `json:"monthlyPctFromBase"`

	// Set when the structure cannot be priced for this request
	Rejection *domain.Rejection `json:"rejection,omitempty"`
}

// Available reports whether the option was priced.
func (o *MenuOption) Available() bool {
	return o.Rejection == nil
}

// ComparisonSet is the lifetime base and every alternative payout structure for one request
type ComparisonSet struct {
	Name                 string                   `json:"name"`
	Principal            decimal.Decimal          `json:"principal"`
	Sex                  domain.Sex               `json:"sex"`
	TableAge             int                      `json:"tableAge"`
	TechnicalRatePercent float64                  `json:"technicalRatePercent"`
	Regime               domain.EligibilityRegime `json:"regime"`
	BaseResult           *MenuOption              `json:"baseResult"`
	AlternativeResults   []MenuOption             `json:"alternativeResults"`
	Recommendations      []string                 `json:"recommendations"`
	ConfigPath           string                   `json:"configPath,omitempty"`
}

// MetricsCalculator extracts menu metrics from quote results
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics builds a menu option from a priced quote
func (mc *MetricsCalculator) CalculateMetrics(label string, result *domain.QuoteResult) MenuOption {
	structure := domain.LifetimeStructure()
	if result.Structure != nil {
		structure = *result.Structure
	}

	option := MenuOption{
		Label:           label,
		Description:     structure.Describe(),
		Structure:       structure,
		MonthlyAmount:   result.MonthlyAmount,
		GuaranteeMonths: structure.GuaranteeMonths(),
		GuaranteeCost:   result.GuaranteeCost,
		BoundaryAge:     result.BoundaryAge,
	}
	option.GuaranteedTotal = mc.guaranteedTotal(structure, result.MonthlyAmount)
	return option
}

// CalculateComparison computes the monthly difference between an option and the base
func (mc *MetricsCalculator) CalculateComparison(option, base MenuOption) MenuOption {
	if !option.Available() {
		return option
	}
	option.MonthlyDiffFromBase = option.MonthlyAmount.Sub(base.MonthlyAmount)

	if !base.MonthlyAmount.IsZero() {
		option.MonthlyPctFromBase = option.MonthlyDiffFromBase.
			Div(base.MonthlyAmount).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return option
}

// guaranteedTotal is the nominal amount paid during the certain phase
func (mc *MetricsCalculator) guaranteedTotal(structure domain.PayoutStructure, monthly decimal.Decimal) decimal.Decimal {
	switch structure.Kind {
	case domain.PayoutGuaranteedYears:
		return monthly.Mul(decimal.NewFromInt(int64(structure.GuaranteeMonths())))
	case domain.PayoutScheduledInstallments:
		return structure.MonthlyAmount.Mul(decimal.NewFromInt(int64(structure.Months)))
	}
	return decimal.Zero
}

// GenerateRecommendations summarizes the trade-offs across the menu
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if compSet.BaseResult == nil || len(compSet.AlternativeResults) == 0 {
		return recommendations
	}

	// Highest monthly payout
	best := compSet.BaseResult
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.Available() && alt.MonthlyAmount.GreaterThan(best.MonthlyAmount) {
			best = alt
		}
	}
	recommendations = append(recommendations,
		fmt.Sprintf("Highest Monthly: %s pays %s BGN per month for life", best.Label, best.MonthlyAmount.StringFixed(2)))

	// Longest guarantee among priced options
	var longest *MenuOption
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.Available() && (longest == nil || alt.GuaranteeMonths > longest.GuaranteeMonths) {
			longest = alt
		}
	}
	if longest != nil {
		recommendations = append(recommendations,
			fmt.Sprintf("Longest Guarantee: %s secures %d months of payments for %s BGN less per month",
				longest.Label, longest.GuaranteeMonths, longest.MonthlyDiffFromBase.Neg().StringFixed(2)))
	}

	// Cheapest guarantee per guaranteed month
	var cheapest *MenuOption
	var cheapestCost decimal.Decimal
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if !alt.Available() || alt.GuaranteeMonths == 0 || alt.Structure.Kind != domain.PayoutGuaranteedYears {
			continue
		}
		cost := alt.MonthlyDiffFromBase.Neg().Div(decimal.NewFromInt(int64(alt.GuaranteeMonths)))
		if cheapest == nil || cost.LessThan(cheapestCost) {
			cheapest, cheapestCost = alt, cost
		}
	}
	if cheapest != nil && cheapest != longest {
		recommendations = append(recommendations,
			fmt.Sprintf("Cheapest Guarantee: %s costs the least monthly income per guaranteed month", cheapest.Label))
	}

	for _, alt := range compSet.AlternativeResults {
		if !alt.Available() {
			recommendations = append(recommendations,
				fmt.Sprintf("Not Available: %s (%s)", alt.Label, alt.Rejection.Message))
		}
	}

	return recommendations
}
