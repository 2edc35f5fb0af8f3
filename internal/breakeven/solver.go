package breakeven

import (
	"context"
	"errors"
	"fmt"

	"github.com/rgehrsitz/payoutgo/internal/calculation"
	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
)

// maxDoublings bounds the search for an upper principal bound when none is given.
const maxDoublings = 40

var (
	two  = decimal.NewFromInt(2)
	cent = decimal.New(1, -2)
)

// Solver searches a payout parameter by repeatedly quoting a request
type Solver struct {
	CalcEngine *calculation.CalculationEngine
	Options    SolverOptions
}

// NewSolver creates a new break-even solver
func NewSolver(calcEngine *calculation.CalculationEngine, options SolverOptions) *Solver {
	return &Solver{
		CalcEngine: calcEngine,
		Options:    options,
	}
}

// NewDefaultSolver creates a solver with default options
func NewDefaultSolver(calcEngine *calculation.CalculationEngine) *Solver {
	return NewSolver(calcEngine, DefaultSolverOptions())
}

// Optimize performs optimization based on the request
func (s *Solver) Optimize(ctx context.Context, req OptimizationRequest) (*OptimizationResult, error) {
	if err := req.Constraints.Validate(req.Target); err != nil {
		return nil, err
	}

	// Apply defaults
	if req.MaxIterations == 0 {
		req.MaxIterations = s.Options.MaxIterations
	}
	if req.Tolerance.IsZero() {
		req.Tolerance = s.Options.Tolerance
	}

	switch req.Target {
	case TargetMaxInstallment:
		return s.optimizeMaxInstallment(ctx, req)
	case TargetGuaranteeYears:
		return s.optimizeGuaranteeYears(ctx, req)
	case TargetPrincipal:
		return s.optimizePrincipal(ctx, req)
	default:
		return nil, &BreakEvenError{
			Operation: "optimize",
			Message:   fmt.Sprintf("unsupported optimization target: %s", req.Target),
			Cause:     domain.ErrInvalidInput,
		}
	}
}

// optimizeMaxInstallment bisects on the installment amount between 0 and twice the
// principal; an installment stream worth more than the principal is infeasible.
func (s *Solver) optimizeMaxInstallment(ctx context.Context, req OptimizationRequest) (*OptimizationResult, error) {
	base, err := s.menuBase(ctx, req, "optimize_max_installment")
	if err != nil {
		return nil, err
	}

	months := req.Constraints.Months
	lo := decimal.Zero
	hi := req.Base.Principal.Mul(two)
	converged := false
	iterations := 0

	for iterations < req.MaxIterations {
		if hi.Sub(lo).LessThanOrEqual(req.Tolerance) {
			converged = true
			break
		}
		iterations++

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		mid := lo.Add(hi).Div(two)
		_, err := s.quoteStructure(ctx, req.Base, domain.ScheduledInstallmentsStructure(months, mid))
		switch {
		case err == nil:
			lo = mid
		case errors.Is(err, domain.ErrInfeasibleResult):
			hi = mid
		default:
			return nil, &BreakEvenError{
				Operation: "optimize_max_installment",
				Message:   fmt.Sprintf("failed to price %d installments of %s", months, mid.StringFixed(2)),
				Cause:     err,
			}
		}
	}

	amount := lo.Truncate(2)
	if !amount.IsPositive() {
		return nil, &BreakEvenError{
			Operation: "optimize_max_installment",
			Message:   fmt.Sprintf("no positive installment over %d months is affordable", months),
			Cause:     domain.ErrInfeasibleResult,
		}
	}

	quote, err := s.quoteStructure(ctx, req.Base, domain.ScheduledInstallmentsStructure(months, amount))
	if err != nil {
		return nil, &BreakEvenError{
			Operation: "optimize_max_installment",
			Message:   "failed to price the solved installment",
			Cause:     err,
		}
	}

	result := s.newResult(req, base, quote, iterations, converged)
	result.OptimalInstallment = &amount
	return result, nil
}

// optimizeGuaranteeYears finds the longest guarantee whose monthly still reaches the
// target. The monthly falls as the guarantee grows, so the search is a bisection over years.
func (s *Solver) optimizeGuaranteeYears(ctx context.Context, req OptimizationRequest) (*OptimizationResult, error) {
	base, err := s.menuBase(ctx, req, "optimize_guarantee_years")
	if err != nil {
		return nil, err
	}

	target := *req.Constraints.TargetMonthly
	maxYears := req.Constraints.MaxGuaranteeYears
	if maxYears == 0 {
		maxYears = DefaultConstraints().MaxGuaranteeYears
	}

	// lo always meets the target (0 stands for "none found"), hi never does
	lo, hi := 0, maxYears+1
	var best *domain.QuoteResult
	iterations := 0

	for hi-lo > 1 && iterations < req.MaxIterations {
		iterations++

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		mid := (lo + hi) / 2
		quote, err := s.quoteStructure(ctx, req.Base, domain.GuaranteedYearsStructure(mid))
		switch {
		case err == nil && quote.MonthlyAmount.GreaterThanOrEqual(target):
			lo, best = mid, quote
		case err == nil, errors.Is(err, domain.ErrInvalidStructureParameter):
			hi = mid
		default:
			return nil, &BreakEvenError{
				Operation: "optimize_guarantee_years",
				Message:   fmt.Sprintf("failed to price a %d year guarantee", mid),
				Cause:     err,
			}
		}
	}

	if best == nil {
		return nil, &BreakEvenError{
			Operation: "optimize_guarantee_years",
			Message:   fmt.Sprintf("no guarantee length pays at least %s a month", target.StringFixed(2)),
			Cause:     domain.ErrInfeasibleResult,
		}
	}

	result := s.newResult(req, base, best, iterations, hi-lo <= 1)
	years := lo
	result.OptimalGuaranteeYears = &years
	return result, nil
}

// optimizePrincipal finds the smallest principal whose payout under the request's structure
// reaches the target monthly in the full annuity regime. With no target it finds where the
// full menu starts.
func (s *Solver) optimizePrincipal(ctx context.Context, req OptimizationRequest) (*OptimizationResult, error) {
	target := decimal.Zero
	if req.Constraints.TargetMonthly != nil {
		target = *req.Constraints.TargetMonthly
	}

	probe := req.Base
	probe.InstallmentAmount = decimal.Zero
	if probe.Structure.Kind == "" {
		probe.Structure = domain.LifetimeStructure()
	}

	meets := func(principal decimal.Decimal) (*domain.QuoteResult, bool, error) {
		r := probe
		r.Principal = principal
		quote, err := s.CalcEngine.Quote(ctx, r)
		if err != nil {
			if errors.Is(err, domain.ErrInfeasibleResult) || errors.Is(err, domain.ErrOutOfBoundsInstallment) {
				return nil, false, nil
			}
			return nil, false, err
		}
		ok := quote.Classification.Regime == domain.RegimeFullAnnuityMenu &&
			quote.MonthlyAmount.GreaterThanOrEqual(target)
		return quote, ok, nil
	}

	iterations := 0
	lo := decimal.Zero
	var hi decimal.Decimal
	var best *domain.QuoteResult

	if req.Constraints.MaxPrincipal != nil {
		hi = *req.Constraints.MaxPrincipal
		iterations++
		quote, ok, err := meets(hi)
		if err != nil {
			return nil, &BreakEvenError{Operation: "optimize_principal", Message: "failed to price max_principal", Cause: err}
		}
		if !ok {
			return nil, &BreakEvenError{
				Operation: "optimize_principal",
				Message:   fmt.Sprintf("target not reached below %s", hi.StringFixed(2)),
				Cause:     domain.ErrInfeasibleResult,
			}
		}
		best = quote
	} else {
		hi = decimal.Max(req.Base.Principal, decimal.NewFromInt(1000))
		for {
			iterations++
			quote, ok, err := meets(hi)
			if err != nil {
				return nil, &BreakEvenError{Operation: "optimize_principal", Message: "failed to price upper bound", Cause: err}
			}
			if ok {
				best = quote
				break
			}
			if iterations >= maxDoublings {
				return nil, &BreakEvenError{
					Operation: "optimize_principal",
					Message:   fmt.Sprintf("target not reached below %s", hi.StringFixed(2)),
					Cause:     domain.ErrInfeasibleResult,
				}
			}
			lo = hi
			hi = hi.Mul(two)
		}
	}

	converged := false
	for steps := 0; steps < req.MaxIterations; steps++ {
		if hi.Sub(lo).LessThanOrEqual(req.Tolerance) {
			converged = true
			break
		}
		iterations++

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		mid := lo.Add(hi).Div(two)
		quote, ok, err := meets(mid)
		if err != nil {
			return nil, &BreakEvenError{
				Operation: "optimize_principal",
				Message:   fmt.Sprintf("failed to price principal %s", mid.StringFixed(2)),
				Cause:     err,
			}
		}
		if ok {
			hi, best = mid, quote
		} else {
			lo = mid
		}
	}

	principal := hi.Truncate(2)
	if principal.LessThan(hi) {
		principal = principal.Add(cent)
	}
	if quote, ok, err := meets(principal); err == nil && ok {
		best = quote
	}

	baseReq := req.Base
	baseReq.Structure = domain.LifetimeStructure()
	base, err := s.CalcEngine.Quote(ctx, baseReq)
	if err != nil {
		base = nil
	}

	result := s.newResult(req, base, best, iterations, converged)
	result.OptimalPrincipal = &principal
	return result, nil
}

// menuBase prices the lifetime annuity of the unmodified request. Guarantee targets only
// exist on the full annuity menu.
func (s *Solver) menuBase(ctx context.Context, req OptimizationRequest, op string) (*domain.QuoteResult, error) {
	base, err := s.quoteStructure(ctx, req.Base, domain.LifetimeStructure())
	if err != nil {
		return nil, &BreakEvenError{Operation: op, Message: "failed to calculate lifetime base", Cause: err}
	}
	if base.Classification.Regime != domain.RegimeFullAnnuityMenu {
		return nil, &BreakEvenError{
			Operation: op,
			Message:   fmt.Sprintf("guarantees require the full annuity regime, fund classified as %s", base.Classification.Regime),
			Cause:     domain.ErrInvalidInput,
		}
	}
	return base, nil
}

func (s *Solver) quoteStructure(ctx context.Context, req domain.QuoteRequest, structure domain.PayoutStructure) (*domain.QuoteResult, error) {
	req.Structure = structure
	return s.CalcEngine.Quote(ctx, req)
}

func (s *Solver) newResult(req OptimizationRequest, base, quote *domain.QuoteResult, iterations int, converged bool) *OptimizationResult {
	result := &OptimizationResult{
		Target:      req.Target,
		Constraints: req.Constraints,
		Success:     converged,
		Iterations:  iterations,
		Quote:       quote,
		BaseQuote:   base,
	}
	if converged {
		result.ConvergenceInfo = "Binary search converged"
	} else {
		result.ConvergenceInfo = fmt.Sprintf("Max iterations (%d) reached", req.MaxIterations)
	}
	if base != nil && quote != nil {
		result.MonthlyDiffFromBase = quote.MonthlyAmount.Sub(base.MonthlyAmount)
	}
	return result
}
