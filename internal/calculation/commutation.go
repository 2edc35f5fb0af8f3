package calculation

import (
	"fmt"
	"math"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/rgehrsitz/payoutgo/internal/mortality"
)

// woolhouseMonthly is the two-term Woolhouse constant (m-1)/(2m) for m = 12.
const woolhouseMonthly = 11.0 / 24.0

// Commutation holds the discounted survivorship values for one sex at one rate:
//
//	C(a) = survivors(a) / (1+i)^a
//	D(a) = sum of C(k) for k = a .. terminal age
//
// Both are zero past the terminal age.
type Commutation struct {
	ratePercent float64
	c           []float64
	d           []float64
}

// NewCommutation builds C and D from curve at ratePercent in O(terminal age).
func NewCommutation(curve mortality.Curve, ratePercent float64) (*Commutation, error) {
	if err := checkRate(ratePercent); err != nil {
		return nil, err
	}

	maxAge := curve.MaxAge()
	v := 1 / (1 + ratePercent/100)

	c := make([]float64, maxAge+1)
	disc := 1.0
	for a := 0; a <= maxAge; a++ {
		c[a] = curve.At(a) * disc
		disc *= v
	}

	d := make([]float64, maxAge+2)
	for a := maxAge; a >= 0; a-- {
		d[a] = d[a+1] + c[a]
	}

	return &Commutation{ratePercent: ratePercent, c: c, d: d[:maxAge+1]}, nil
}

// RatePercent returns the technical rate the values were discounted at.
func (m *Commutation) RatePercent() float64 {
	return m.ratePercent
}

// MaxAge returns the terminal age.
func (m *Commutation) MaxAge() int {
	return len(m.c) - 1
}

// C returns the discounted survivors at age.
func (m *Commutation) C(age int) float64 {
	if age < 0 || age > m.MaxAge() {
		return 0
	}
	return m.c[age]
}

// D returns the sum of C from age to the terminal age.
func (m *Commutation) D(age int) float64 {
	if age < 0 || age > m.MaxAge() {
		return 0
	}
	return m.d[age]
}

// AnnualAnnuityDue is the value at valuationAge of 1 per year payable yearly in advance
// for life: D(x)/C(x).
func (m *Commutation) AnnualAnnuityDue(valuationAge int) (float64, error) {
	cx, err := m.valuationC(valuationAge)
	if err != nil {
		return 0, err
	}
	return m.D(valuationAge) / cx, nil
}

// MonthlyDeferredFactor is the value at valuationAge, per 1 a year, of a life annuity paid
// monthly in advance from boundaryAge, with the Woolhouse correction taken at the boundary:
//
//	D(b)/C(x) - 11/24 * C(b)/C(x)
//
// boundaryAge == valuationAge gives the immediate annuity D(x)/C(x) - 11/24.
func (m *Commutation) MonthlyDeferredFactor(valuationAge, boundaryAge int) (float64, error) {
	cx, err := m.valuationC(valuationAge)
	if err != nil {
		return 0, err
	}
	if boundaryAge < valuationAge {
		return 0, fmt.Errorf("%w: boundary age %d before valuation age %d", domain.ErrInvalidStructureParameter, boundaryAge, valuationAge)
	}
	if boundaryAge > m.MaxAge() {
		return 0, fmt.Errorf("%w: guarantee ends at age %d, past the table's terminal age %d", domain.ErrInvalidStructureParameter, boundaryAge, m.MaxAge())
	}
	return m.D(boundaryAge)/cx - woolhouseMonthly*m.C(boundaryAge)/cx, nil
}

func (m *Commutation) valuationC(age int) (float64, error) {
	if age < 0 || age > m.MaxAge() {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", domain.ErrInvalidAge, age, m.MaxAge())
	}
	cx := m.c[age]
	if cx <= 0 {
		return 0, fmt.Errorf("%w: no survivors at age %d", domain.ErrInvalidAge, age)
	}
	return cx, nil
}

func checkRate(ratePercent float64) error {
	if math.IsNaN(ratePercent) || math.IsInf(ratePercent, 0) || ratePercent < 0 {
		return fmt.Errorf("%w: technical rate %v%% must be a non-negative number", domain.ErrInvalidInput, ratePercent)
	}
	return nil
}
