package compare

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rgehrsitz/payoutgo/internal/calculation"
	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
)

// CompareEngine prices a request under every payout structure on the menu
type CompareEngine struct {
	CalcEngine        *calculation.CalculationEngine
	MetricsCalculator *MetricsCalculator
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(calcEngine *calculation.CalculationEngine) *CompareEngine {
	return &CompareEngine{
		CalcEngine:        calcEngine,
		MetricsCalculator: NewMetricsCalculator(),
	}
}

// ScheduleOption is a scheduled-installment alternative: Months payments of Amount
type ScheduleOption struct {
	Months int
	Amount decimal.Decimal
}

// CompareOptions configures which alternatives are priced against the lifetime base
type CompareOptions struct {
	GuaranteeYears []int            // Guaranteed-years alternatives
	Schedules      []ScheduleOption // Scheduled-installment alternatives
}

// DefaultCompareOptions prices 5, 10 and 15 year guarantees
func DefaultCompareOptions() CompareOptions {
	return CompareOptions{GuaranteeYears: []int{5, 10, 15}}
}

// Compare prices the lifetime annuity as the base and each configured alternative.
// Alternatives that cannot be priced for this request are kept with their rejection.
func (ce *CompareEngine) Compare(
	ctx context.Context,
	req domain.QuoteRequest,
	options CompareOptions,
) (*ComparisonSet, error) {

	req.Structure = domain.LifetimeStructure()
	baseQuote, err := ce.CalcEngine.Quote(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate lifetime base: %w", err)
	}
	if baseQuote.Classification.Regime != domain.RegimeFullAnnuityMenu {
		return nil, fmt.Errorf("%w: payout menu requires the full annuity regime, fund classified as %s",
			domain.ErrInvalidInput, baseQuote.Classification.Regime)
	}

	baseResult := ce.MetricsCalculator.CalculateMetrics("Lifetime", baseQuote)

	structures := make([]domain.PayoutStructure, 0, len(options.GuaranteeYears)+len(options.Schedules))
	for _, years := range options.GuaranteeYears {
		structures = append(structures, domain.GuaranteedYearsStructure(years))
	}
	for _, s := range options.Schedules {
		structures = append(structures, domain.ScheduledInstallmentsStructure(s.Months, s.Amount))
	}

	alternatives := []MenuOption{}
	for _, structure := range structures {
		altReq := req
		altReq.Structure = structure

		altQuote, err := ce.CalcEngine.Quote(ctx, altReq)
		if err != nil {
			if !isStructureRejection(err) {
				return nil, fmt.Errorf("failed to calculate %s: %w", structure.Describe(), err)
			}
			rej := domain.NewRejection(structure.Describe(), err)
			alternatives = append(alternatives, MenuOption{
				Label:       structure.Describe(),
				Description: structure.Describe(),
				Structure:   structure,
				Rejection:   &rej,
			})
			continue
		}

		altResult := ce.MetricsCalculator.CalculateMetrics(structure.Describe(), altQuote)
		altResult = ce.MetricsCalculator.CalculateComparison(altResult, baseResult)
		alternatives = append(alternatives, altResult)
	}

	compSet := &ComparisonSet{
		Name:                 req.Name,
		Principal:            req.Principal,
		Sex:                  req.Sex,
		TableAge:             baseQuote.TableAge,
		TechnicalRatePercent: baseQuote.TechnicalRatePercent,
		Regime:               baseQuote.Classification.Regime,
		BaseResult:           &baseResult,
		AlternativeResults:   alternatives,
	}

	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}

func isStructureRejection(err error) bool {
	return errors.Is(err, domain.ErrInvalidStructureParameter) || errors.Is(err, domain.ErrInfeasibleResult)
}

// ParseGuaranteeList parses a comma separated list of guarantee lengths in years, e.g. "5,10,15"
func ParseGuaranteeList(s string) ([]int, error) {
	var years []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: invalid guarantee length %q", domain.ErrInvalidStructureParameter, part)
		}
		years = append(years, n)
	}
	return years, nil
}

// ParseScheduleList parses a comma separated list of MONTHSxAMOUNT schedules, e.g. "60x300,120x150.50"
func ParseScheduleList(s string) ([]ScheduleOption, error) {
	var schedules []ScheduleOption
	for _, part := range splitList(s) {
		monthsStr, amountStr, ok := strings.Cut(strings.ToLower(part), "x")
		if !ok {
			return nil, fmt.Errorf("%w: schedule %q must look like MONTHSxAMOUNT", domain.ErrInvalidStructureParameter, part)
		}
		months, err := strconv.Atoi(strings.TrimSpace(monthsStr))
		if err != nil || months < 1 {
			return nil, fmt.Errorf("%w: invalid schedule length in %q", domain.ErrInvalidStructureParameter, part)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(amountStr))
		if err != nil || !amount.IsPositive() {
			return nil, fmt.Errorf("%w: invalid schedule amount in %q", domain.ErrInvalidStructureParameter, part)
		}
		schedules = append(schedules, ScheduleOption{Months: months, Amount: amount})
	}
	return schedules, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
