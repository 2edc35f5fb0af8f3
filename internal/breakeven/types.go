package breakeven

import (
	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
)

// OptimizationTarget defines what parameter to solve for
type OptimizationTarget string

const (
	// TargetMaxInstallment finds the largest scheduled installment the principal can fund for Months
	TargetMaxInstallment OptimizationTarget = "max_installment"
	// TargetGuaranteeYears finds the longest guarantee that still pays TargetMonthly
	TargetGuaranteeYears OptimizationTarget = "guarantee_years"
	// TargetPrincipal finds the smallest principal whose payout reaches TargetMonthly
	TargetPrincipal OptimizationTarget = "principal"
	TargetAll       OptimizationTarget = "all"
)

// ParseTarget accepts the target names used on the command line and in the API.
func ParseTarget(s string) (OptimizationTarget, error) {
	switch t := OptimizationTarget(s); t {
	case TargetMaxInstallment, TargetGuaranteeYears, TargetPrincipal, TargetAll:
		return t, nil
	}
	return "", &BreakEvenError{
		Operation: "parse_target",
		Message:   "unknown target " + s + " (max_installment, guarantee_years, principal, all)",
		Cause:     domain.ErrInvalidInput,
	}
}

// Constraints define the bounds of the search
type Constraints struct {
	// Scheduled-installment length for max_installment
	Months int `json:"months,omitempty"`

	// Monthly amount the payout must reach. Required for guarantee_years; for principal a
	// nil or zero target means "smallest principal that unlocks the full annuity menu".
	TargetMonthly *decimal.Decimal `json:"target_monthly,omitempty"`

	// Upper bound for guarantee_years
	MaxGuaranteeYears int `json:"max_guarantee_years,omitempty"`

	// Upper bound for principal
	MaxPrincipal *decimal.Decimal `json:"max_principal,omitempty"`
}

// DefaultConstraints returns a 5 year installment schedule and a 40 year guarantee cap
func DefaultConstraints() Constraints {
	return Constraints{
		Months:            60,
		MaxGuaranteeYears: 40,
	}
}

// OptimizationRequest defines the parameters for one solver run
type OptimizationRequest struct {
	Base          domain.QuoteRequest
	Target        OptimizationTarget
	Constraints   Constraints
	MaxIterations int             // Maximum solver iterations
	Tolerance     decimal.Decimal // Convergence tolerance for binary search, in currency units
}

// OptimizationResult contains the results of a solver run
type OptimizationResult struct {
	Target          OptimizationTarget `json:"target"`
	Constraints     Constraints        `json:"constraints"`
	Success         bool               `json:"success"`
	Iterations      int                `json:"iterations"`
	ConvergenceInfo string             `json:"convergence_info,omitempty"`

	// Solved parameter
	OptimalInstallment    *decimal.Decimal `json:"optimal_installment,omitempty"`
	OptimalGuaranteeYears *int             `json:"optimal_guarantee_years,omitempty"`
	OptimalPrincipal      *decimal.Decimal `json:"optimal_principal,omitempty"`

	// Quote at the solved parameter and the lifetime quote of the unmodified request
	Quote               *domain.QuoteResult `json:"quote,omitempty"`
	BaseQuote           *domain.QuoteResult `json:"base_quote,omitempty"`
	MonthlyDiffFromBase decimal.Decimal     `json:"monthly_diff_from_base"`
}

// MultiDimensionalResult contains the results of running every applicable target
type MultiDimensionalResult struct {
	Results         []OptimizationResult `json:"results"`
	Failures        []domain.Rejection   `json:"failures,omitempty"`
	Recommendations []string             `json:"recommendations"`
}

// SolverOptions configures the solver algorithm
type SolverOptions struct {
	Tolerance     decimal.Decimal // Convergence tolerance
	MaxIterations int             // Maximum iterations
}

// DefaultSolverOptions returns default solver configuration
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		Tolerance:     decimal.NewFromFloat(0.01), // one stotinka
		MaxIterations: 64,
	}
}

// Validate checks the constraints a target needs
func (c *Constraints) Validate(target OptimizationTarget) error {
	if c.TargetMonthly != nil && c.TargetMonthly.IsNegative() {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "target_monthly cannot be negative",
			Cause:     domain.ErrInvalidInput,
		}
	}
	if c.MaxPrincipal != nil && !c.MaxPrincipal.IsPositive() {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "max_principal must be positive",
			Cause:     domain.ErrInvalidInput,
		}
	}

	switch target {
	case TargetMaxInstallment:
		if c.Months < 1 {
			return &BreakEvenError{
				Operation: "validate_constraints",
				Message:   "months must be at least 1",
				Cause:     domain.ErrInvalidStructureParameter,
			}
		}
	case TargetGuaranteeYears:
		if c.TargetMonthly == nil {
			return &BreakEvenError{
				Operation: "validate_constraints",
				Message:   "target_monthly is required",
				Cause:     domain.ErrInvalidInput,
			}
		}
		if c.MaxGuaranteeYears < 0 {
			return &BreakEvenError{
				Operation: "validate_constraints",
				Message:   "max_guarantee_years cannot be negative",
				Cause:     domain.ErrInvalidStructureParameter,
			}
		}
	}

	return nil
}

// BreakEvenError represents errors from the solver
type BreakEvenError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *BreakEvenError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *BreakEvenError) Unwrap() error {
	return e.Cause
}
