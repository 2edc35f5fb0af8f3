// Package mortality provides the national life table and the survivorship
// curves derived from it.
package mortality

import (
	"fmt"
	"math"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
)

// LifeTable is an immutable life table indexed by age, starting at age 0 with no gaps.
// The last row is the terminal age and closes every summation over the table.
type LifeTable struct {
	meta domain.LifeTableMetadata
	rows []domain.MortalityRow

	// float copies of px for the survivorship pass
	pxMale   []float64
	pxFemale []float64
}

// NewLifeTable validates data and builds a LifeTable. Any violation of the table
// invariants is reported as domain.ErrMalformedLifeTable.
func NewLifeTable(data domain.LifeTableData) (*LifeTable, error) {
	if len(data.Rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", domain.ErrMalformedLifeTable)
	}

	one := decimal.NewFromInt(1)
	rows := make([]domain.MortalityRow, len(data.Rows))
	copy(rows, data.Rows)

	t := &LifeTable{
		meta:     data.Metadata,
		rows:     rows,
		pxMale:   make([]float64, len(rows)),
		pxFemale: make([]float64, len(rows)),
	}

	for i, row := range rows {
		if row.Age != i {
			return nil, fmt.Errorf("%w: row %d has age %d, ages must start at 0 and increase by 1", domain.ErrMalformedLifeTable, i, row.Age)
		}
		columns := []struct {
			name   string
			qx, px decimal.Decimal
		}{
			{"total", row.Qx.Total, row.Px.Total},
			{"male", row.Qx.Male, row.Px.Male},
			{"female", row.Qx.Female, row.Px.Female},
		}
		for _, c := range columns {
			if c.qx.IsNegative() || c.qx.GreaterThan(one) {
				return nil, fmt.Errorf("%w: age %d %s qx %s outside [0, 1]", domain.ErrMalformedLifeTable, row.Age, c.name, c.qx)
			}
			if !c.qx.Add(c.px).Equal(one) {
				return nil, fmt.Errorf("%w: age %d %s qx+px = %s, want 1", domain.ErrMalformedLifeTable, row.Age, c.name, c.qx.Add(c.px))
			}
		}
		t.pxMale[i] = row.Px.Male.InexactFloat64()
		t.pxFemale[i] = row.Px.Female.InexactFloat64()
	}

	return t, nil
}

// Metadata returns the table's descriptive metadata.
func (t *LifeTable) Metadata() domain.LifeTableMetadata {
	return t.meta
}

// Name returns the table name.
func (t *LifeTable) Name() string {
	return t.meta.Name
}

// MaxAge returns the terminal age of the table.
func (t *LifeTable) MaxAge() int {
	return len(t.rows) - 1
}

// Rows returns a copy of the table rows.
func (t *LifeTable) Rows() []domain.MortalityRow {
	out := make([]domain.MortalityRow, len(t.rows))
	copy(out, t.rows)
	return out
}

// Row returns the row for age.
func (t *LifeTable) Row(age int) (domain.MortalityRow, error) {
	if err := t.checkAge(age); err != nil {
		return domain.MortalityRow{}, err
	}
	return t.rows[age], nil
}

// Mortality returns qx and px for age and sex.
func (t *LifeTable) Mortality(age int, sex domain.Sex) (qx, px decimal.Decimal, err error) {
	if !sex.Valid() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: unknown sex %q", domain.ErrInvalidInput, sex)
	}
	row, err := t.Row(age)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return row.Qx.For(sex), row.Px.For(sex), nil
}

// LifeExpectancy returns the remaining life expectancy in years at age.
func (t *LifeTable) LifeExpectancy(age int, sex domain.Sex) (decimal.Decimal, error) {
	row, err := t.Row(age)
	if err != nil {
		return decimal.Zero, err
	}
	return row.Ex.For(sex), nil
}

// TableAge rounds a fractional age half-up and checks it lies in the table.
func (t *LifeTable) TableAge(age float64) (int, error) {
	if math.IsNaN(age) || math.IsInf(age, 0) {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidAge, age)
	}
	rounded := RoundAge(age)
	if err := t.checkAge(rounded); err != nil {
		return 0, err
	}
	return rounded, nil
}

func (t *LifeTable) checkAge(age int) error {
	if age < 0 || age > t.MaxAge() {
		return fmt.Errorf("%w: %d not in [0, %d]", domain.ErrInvalidAge, age, t.MaxAge())
	}
	return nil
}

func (t *LifeTable) px(sex domain.Sex) []float64 {
	if sex == domain.Female {
		return t.pxFemale
	}
	return t.pxMale
}

// RoundAge rounds a fractional age to the nearest whole year, halves rounding up.
func RoundAge(age float64) int {
	return int(math.Floor(age + 0.5))
}
