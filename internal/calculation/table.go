package calculation

import (
	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
)

// TableRow is one age of the life table with its survivorship and, when a rate is
// given, the commutation values and the lifetime payout they imply.
type TableRow struct {
	Age       int             `json:"age"`
	Qx        decimal.Decimal `json:"qx"`
	Px        decimal.Decimal `json:"px"`
	Ex        decimal.Decimal `json:"ex"`
	Survivors float64         `json:"survivors"`

	C             float64         `json:"c,omitempty"`
	D             float64         `json:"d,omitempty"`
	AnnuityDue    float64         `json:"annuityDue,omitempty"`    // D(x)/C(x)
	MonthlyFactor float64         `json:"monthlyFactor,omitempty"` // 12 * (D(x)/C(x) - 11/24)
	PerThousand   decimal.Decimal `json:"perThousand,omitempty"`   // lifetime monthly payout per 1000 of principal
}

// TableRows lists every age of the table for sex. With a nil rate only the mortality
// columns are filled.
func (ce *CalculationEngine) TableRows(sex domain.Sex, ratePercent *float64) ([]TableRow, error) {
	if !sex.Valid() {
		return nil, domain.NewFieldError("sex", "must be male or female", domain.ErrInvalidInput)
	}

	curve := ce.Survival.Curve(sex)
	var comm *Commutation
	if ratePercent != nil {
		c, err := NewCommutation(curve, *ratePercent)
		if err != nil {
			return nil, err
		}
		comm = c
	}

	source := ce.Table.Rows()
	rows := make([]TableRow, 0, len(source))
	for _, r := range source {
		row := TableRow{
			Age:       r.Age,
			Qx:        r.Qx.For(sex),
			Px:        r.Px.For(sex),
			Ex:        r.Ex.For(sex),
			Survivors: curve.At(r.Age),
		}
		if comm != nil {
			row.C = comm.C(r.Age)
			row.D = comm.D(r.Age)
			if row.C > 0 {
				row.AnnuityDue = row.D / row.C
				row.MonthlyFactor = 12 * (row.AnnuityDue - woolhouseMonthly)
				if row.MonthlyFactor > 0 {
					row.PerThousand = decimal.NewFromFloat(1000 / row.MonthlyFactor).Round(2)
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
