package breakeven

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/payoutgo/internal/domain"
)

// OptimizeAllTargets runs every target the constraints allow against the same request.
// Targets that cannot be solved are reported as failures instead of aborting the run.
func (s *Solver) OptimizeAllTargets(
	ctx context.Context,
	base domain.QuoteRequest,
	constraints Constraints,
) (*MultiDimensionalResult, error) {

	targets := []OptimizationTarget{TargetPrincipal}
	if constraints.Months > 0 {
		targets = append(targets, TargetMaxInstallment)
	}
	if constraints.TargetMonthly != nil {
		targets = append(targets, TargetGuaranteeYears)
	}

	mdResult := &MultiDimensionalResult{}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req := OptimizationRequest{
			Base:          base,
			Target:        target,
			Constraints:   constraints,
			MaxIterations: s.Options.MaxIterations,
			Tolerance:     s.Options.Tolerance,
		}

		result, err := s.Optimize(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			mdResult.Failures = append(mdResult.Failures, domain.NewRejection(string(target), err))
			continue
		}
		mdResult.Results = append(mdResult.Results, *result)
	}

	if len(mdResult.Results) == 0 {
		return nil, &BreakEvenError{
			Operation: "optimize_all_targets",
			Message:   "no successful optimizations found",
			Cause:     domain.ErrInfeasibleResult,
		}
	}

	mdResult.Recommendations = s.generateRecommendations(mdResult)

	return mdResult, nil
}

// generateRecommendations turns solved parameters into one line each
func (s *Solver) generateRecommendations(result *MultiDimensionalResult) []string {
	var recommendations []string

	for _, r := range result.Results {
		switch {
		case r.OptimalInstallment != nil:
			rec := fmt.Sprintf("Largest affordable schedule: %d installments of %s",
				r.Constraints.Months, r.OptimalInstallment.StringFixed(2))
			if r.Quote != nil {
				rec += fmt.Sprintf(", then %s a month for life", r.Quote.MonthlyAmount.StringFixed(2))
			}
			recommendations = append(recommendations, rec)

		case r.OptimalGuaranteeYears != nil:
			rec := fmt.Sprintf("Longest guarantee paying at least %s: %d years",
				r.Constraints.TargetMonthly.StringFixed(2), *r.OptimalGuaranteeYears)
			if r.Quote != nil {
				rec += fmt.Sprintf(" (%s a month)", r.Quote.MonthlyAmount.StringFixed(2))
			}
			recommendations = append(recommendations, rec)

		case r.OptimalPrincipal != nil:
			if r.Constraints.TargetMonthly == nil || r.Constraints.TargetMonthly.IsZero() {
				recommendations = append(recommendations,
					fmt.Sprintf("Full annuity menu starts at a principal of %s", r.OptimalPrincipal.StringFixed(2)))
			} else {
				recommendations = append(recommendations,
					fmt.Sprintf("A monthly payout of %s needs a principal of %s",
						r.Constraints.TargetMonthly.StringFixed(2), r.OptimalPrincipal.StringFixed(2)))
			}
		}
	}

	for _, f := range result.Failures {
		recommendations = append(recommendations, fmt.Sprintf("Not solvable: %s (%s)", f.Name, f.Message))
	}

	return recommendations
}
