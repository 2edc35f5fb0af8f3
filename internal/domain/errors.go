package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors. Wrap them with context and test with errors.Is.
var (
	// ErrInvalidAge is returned when an age falls outside the tabulated range of the life table.
	ErrInvalidAge = errors.New("age outside life table range")

	// ErrInvalidStructureParameter is returned for a guarantee length or installment amount
	// that cannot be priced (zero, negative, or running past the table's terminal age).
	ErrInvalidStructureParameter = errors.New("invalid payout structure parameter")

	// ErrOutOfBoundsInstallment is returned when a requested installment is outside the legal interval.
	ErrOutOfBoundsInstallment = errors.New("installment amount out of bounds")

	// ErrInfeasibleResult is returned when the guaranteed phase costs more than the principal.
	ErrInfeasibleResult = errors.New("guarantee phase exceeds principal")

	// ErrUnknownFund is returned when a named pension fund has no technical rate on record.
	ErrUnknownFund = errors.New("unknown pension fund")

	// ErrInvalidInput is returned for malformed request values (negative principal, unknown sex, ...).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoMinimumPension is returned when no minimum pension step is in force on the valuation date.
	ErrNoMinimumPension = errors.New("no minimum pension in force")

	// ErrMalformedLifeTable is returned when a life table violates its load-time invariants.
	ErrMalformedLifeTable = errors.New("malformed life table")
)

// ReasonCode is the stable, caller-facing identifier of a rejection.
type ReasonCode string

const (
	ReasonInvalidAge                ReasonCode = "INVALID_AGE"
	ReasonInvalidStructureParameter ReasonCode = "INVALID_STRUCTURE_PARAMETER"
	ReasonOutOfBoundsInstallment    ReasonCode = "OUT_OF_BOUNDS_INSTALLMENT"
	ReasonInfeasibleResult          ReasonCode = "INFEASIBLE_RESULT"
	ReasonUnknownFund               ReasonCode = "UNKNOWN_FUND"
	ReasonInvalidInput              ReasonCode = "INVALID_INPUT"
	ReasonNoMinimumPension          ReasonCode = "NO_MINIMUM_PENSION"
	ReasonMalformedLifeTable        ReasonCode = "MALFORMED_LIFE_TABLE"
	ReasonCanceled                  ReasonCode = "CANCELED"
	ReasonInternal                  ReasonCode = "INTERNAL"
)

var reasonBySentinel = []struct {
	err  error
	code ReasonCode
}{
	{ErrInvalidAge, ReasonInvalidAge},
	{ErrInvalidStructureParameter, ReasonInvalidStructureParameter},
	{ErrOutOfBoundsInstallment, ReasonOutOfBoundsInstallment},
	{ErrInfeasibleResult, ReasonInfeasibleResult},
	{ErrUnknownFund, ReasonUnknownFund},
	{ErrInvalidInput, ReasonInvalidInput},
	{ErrNoMinimumPension, ReasonNoMinimumPension},
	{ErrMalformedLifeTable, ReasonMalformedLifeTable},
	{context.Canceled, ReasonCanceled},
	{context.DeadlineExceeded, ReasonCanceled},
}

// ReasonCodeOf maps an error to its reason code. Errors that wrap none of the
// sentinels map to ReasonInternal.
func ReasonCodeOf(err error) ReasonCode {
	if err == nil {
		return ""
	}
	for _, r := range reasonBySentinel {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return ReasonInternal
}

// InstallmentBounds is the closed interval a monthly installment must fall in.
type InstallmentBounds struct {
	Min decimal.Decimal `yaml:"min" json:"min"`
	Max decimal.Decimal `yaml:"max" json:"max"`
}

// Contains reports whether amount lies within the bounds, both ends inclusive.
func (b InstallmentBounds) Contains(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(b.Min) && amount.LessThanOrEqual(b.Max)
}

// InstallmentBoundsError reports a rejected installment together with the valid interval.
type InstallmentBoundsError struct {
	Amount decimal.Decimal
	Bounds InstallmentBounds
}

func (e *InstallmentBoundsError) Error() string {
	return fmt.Sprintf("installment %s outside [%s, %s]",
		e.Amount.StringFixed(2), e.Bounds.Min.StringFixed(2), e.Bounds.Max.StringFixed(2))
}

// Unwrap lets errors.Is match ErrOutOfBoundsInstallment.
func (e *InstallmentBoundsError) Unwrap() error {
	return ErrOutOfBoundsInstallment
}

// InfeasibleError carries the amounts behind an ErrInfeasibleResult rejection.
type InfeasibleError struct {
	Principal        decimal.Decimal
	GuaranteeCost    decimal.Decimal
	GuaranteeMonths  int
	GuaranteeMonthly decimal.Decimal
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("%d installments of %s cost %s, more than the principal %s",
		e.GuaranteeMonths, e.GuaranteeMonthly.StringFixed(2), e.GuaranteeCost.StringFixed(2), e.Principal.StringFixed(2))
}

func (e *InfeasibleError) Unwrap() error {
	return ErrInfeasibleResult
}

// FieldError points at the request field that failed validation.
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// NewFieldError builds a FieldError wrapping one of the sentinels.
func NewFieldError(field, reason string, sentinel error) error {
	return &FieldError{Field: field, Reason: reason, Err: sentinel}
}
