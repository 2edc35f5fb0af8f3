package calculation

import (
	"fmt"
	"math"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/rgehrsitz/payoutgo/internal/mortality"
	"github.com/shopspring/decimal"
)

// Basis is the pricing basis of one request: fractional age at valuation, sex and
// the fund's technical rate in percent.
type Basis struct {
	Age         float64
	Sex         domain.Sex
	RatePercent float64
}

// Payout is a priced monthly amount together with the values it was derived from.
type Payout struct {
	Monthly float64

	// TableAge is the valuation age rounded half-up to the table.
	TableAge int

	// BoundaryAge is the age life-contingent payments start from (TableAge without a guarantee).
	BoundaryAge int

	// Divisor is the value of 1 a month under the structure: principal / Divisor = Monthly.
	Divisor float64

	// GuaranteeCost is the present value of the scheduled installments (scheduled structure only).
	GuaranteeCost float64
}

// Calculator prices the three payout structures against one life table.
type Calculator struct {
	survival *mortality.SurvivalCache
}

// NewCalculator creates a calculator that reads survivorship curves from cache.
func NewCalculator(cache *mortality.SurvivalCache) *Calculator {
	return &Calculator{survival: cache}
}

// Lifetime prices a plain lifetime annuity:
//
//	monthly = P / (12 * (D(x)/C(x) - 11/24))
func (c *Calculator) Lifetime(principal float64, b Basis) (Payout, error) {
	return c.GuaranteedYears(principal, b, 0)
}

// GuaranteedYears prices a lifetime annuity whose first years are certain:
//
//	monthly = P / (12 * (D(b)/C(x) - 11/24 * C(b)/C(x)) + H(years, i)),  b = x + years
//
// A zero guarantee is the plain lifetime annuity.
func (c *Calculator) GuaranteedYears(principal float64, b Basis, years int) (Payout, error) {
	if years < 0 {
		return Payout{}, fmt.Errorf("%w: guarantee of %d years", domain.ErrInvalidStructureParameter, years)
	}
	comm, x, err := c.prepare(principal, b)
	if err != nil {
		return Payout{}, err
	}

	boundary := BoundaryAge(b.Age, years*12)
	life, err := comm.MonthlyDeferredFactor(x, boundary)
	if err != nil {
		return Payout{}, err
	}

	divisor := 12*life + CertainMonthlySum(years, b.RatePercent)
	return Payout{
		Monthly:     principal / divisor,
		TableAge:    x,
		BoundaryAge: boundary,
		Divisor:     divisor,
	}, nil
}

// ScheduledInstallments prices months fixed payments of installment followed by a lifetime
// annuity funded by what the installments leave of the principal:
//
//	PVg = PV(j, months, installment)
//	monthly = (P - PVg) / (12 * (D(b)/C(x) - 11/24 * C(b)/C(x))),  b = round(age + months/12)
//
// An installment stream worth more than the principal is rejected with domain.ErrInfeasibleResult.
func (c *Calculator) ScheduledInstallments(principal float64, b Basis, months int, installment float64) (Payout, error) {
	if months < 1 {
		return Payout{}, fmt.Errorf("%w: guarantee of %d months", domain.ErrInvalidStructureParameter, months)
	}
	if !(installment > 0) || math.IsInf(installment, 0) {
		return Payout{}, fmt.Errorf("%w: installment %v must be positive", domain.ErrInvalidStructureParameter, installment)
	}
	comm, x, err := c.prepare(principal, b)
	if err != nil {
		return Payout{}, err
	}

	boundary := BoundaryAge(b.Age, months)
	life, err := comm.MonthlyDeferredFactor(x, boundary)
	if err != nil {
		return Payout{}, err
	}

	pv := PresentValue(EffectiveMonthlyRate(b.RatePercent), months, installment)
	if pv > principal {
		return Payout{}, &domain.InfeasibleError{
			Principal:        decimal.NewFromFloat(principal),
			GuaranteeCost:    decimal.NewFromFloat(pv).Round(2),
			GuaranteeMonths:  months,
			GuaranteeMonthly: decimal.NewFromFloat(installment),
		}
	}

	divisor := 12 * life
	return Payout{
		Monthly:       (principal - pv) / divisor,
		TableAge:      x,
		BoundaryAge:   boundary,
		Divisor:       divisor,
		GuaranteeCost: pv,
	}, nil
}

// Price dispatches on the structure kind.
func (c *Calculator) Price(principal decimal.Decimal, b Basis, s domain.PayoutStructure) (Payout, error) {
	p := principal.InexactFloat64()
	switch s.Kind {
	case domain.PayoutLifetime, "":
		return c.Lifetime(p, b)
	case domain.PayoutGuaranteedYears:
		return c.GuaranteedYears(p, b, s.Years)
	case domain.PayoutScheduledInstallments:
		return c.ScheduledInstallments(p, b, s.Months, s.MonthlyAmount.InexactFloat64())
	}
	return Payout{}, fmt.Errorf("%w: unknown payout kind %q", domain.ErrInvalidStructureParameter, s.Kind)
}

// Commutation returns the commutation values for the basis and the rounded table age.
func (c *Calculator) Commutation(b Basis) (*Commutation, int, error) {
	return c.prepare(0, b)
}

func (c *Calculator) prepare(principal float64, b Basis) (*Commutation, int, error) {
	if math.IsNaN(principal) || principal < 0 {
		return nil, 0, fmt.Errorf("%w: principal %v cannot be negative", domain.ErrInvalidInput, principal)
	}
	if !b.Sex.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown sex %q", domain.ErrInvalidInput, b.Sex)
	}
	x, err := c.survival.Table().TableAge(b.Age)
	if err != nil {
		return nil, 0, err
	}
	comm, err := NewCommutation(c.survival.Curve(b.Sex), b.RatePercent)
	if err != nil {
		return nil, 0, err
	}
	return comm, x, nil
}

// BoundaryAge is the table age at which life-contingent payments start after a guarantee
// of months: round(age + months/12), halves up. Both guaranteed structures use it, so a
// guarantee of n years and one of 12n months end at the same age.
//
// A short guarantee can round back to the valuation table age (age 65.0 with fewer than
// six months gives 65). The life-contingent stream is then priced from the valuation age
// and overlaps the installments still being paid.
func BoundaryAge(age float64, months int) int {
	return mortality.RoundAge(age + float64(months)/12)
}
