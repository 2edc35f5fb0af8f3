package calculation

import (
	"errors"
	"testing"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestClassify(t *testing.T) {
	minPension := d("636")

	tests := []struct {
		name         string
		principal    string
		plainMonthly string
		want         domain.EligibilityRegime
	}{
		{"zero principal", "0", "0", domain.RegimeLumpSum},
		{"small fund under lump sum threshold", "1500", "10.80", domain.RegimeLumpSum},
		{"just under lump sum threshold", "1907.99", "13.74", domain.RegimeLumpSum},
		{"at lump sum threshold", "1908", "13.74", domain.RegimeInstallment},
		{"small monthly, larger fund", "5000", "36.03", domain.RegimeInstallment},
		{"just under small fund threshold", "13000", "95.39", domain.RegimeInstallment},
		{"at small fund threshold", "13000", "95.40", domain.RegimeFullAnnuityMenu},
		{"large fund", "20000", "144.12", domain.RegimeFullAnnuityMenu},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := Classify(d(tt.principal), d(tt.plainMonthly), minPension)
			assert.Equal(t, tt.want, cls.Regime)
			assert.True(t, cls.SmallFundThreshold.Equal(d("95.4")))
			assert.True(t, cls.LumpSumThreshold.Equal(d("1908")))
			if tt.want == domain.RegimeInstallment {
				require.NotNil(t, cls.InstallmentBounds)
				assert.True(t, cls.InstallmentBounds.Min.Equal(d("95.4")))
				assert.True(t, cls.InstallmentBounds.Max.Equal(minPension))
			} else {
				assert.Nil(t, cls.InstallmentBounds)
			}
		})
	}
}

func TestClassifier_CustomThresholds(t *testing.T) {
	c := NewClassifier(domain.EligibilityThresholds{
		SmallFundRatio:      d("0.2"),
		LumpSumMultiple:     d("5"),
		InstallmentMaxRatio: d("0.8"),
	})

	cls := c.Classify(d("4000"), d("100"), d("600"))
	assert.Equal(t, domain.RegimeInstallment, cls.Regime)
	assert.True(t, cls.InstallmentBounds.Min.Equal(d("120")))
	assert.True(t, cls.InstallmentBounds.Max.Equal(d("480")))

	cls = c.Classify(d("2999"), d("100"), d("600"))
	assert.Equal(t, domain.RegimeLumpSum, cls.Regime)
}

func TestNewClassifier_Defaults(t *testing.T) {
	c := NewClassifier(domain.EligibilityThresholds{})
	assert.True(t, c.Thresholds.SmallFundRatio.Equal(d("0.15")))
	assert.True(t, c.Thresholds.LumpSumMultiple.Equal(d("3")))
	assert.True(t, c.Thresholds.InstallmentMaxRatio.Equal(d("1")))
}

func TestValidateInstallment(t *testing.T) {
	bounds := domain.InstallmentBounds{Min: d("95.4"), Max: d("636")}

	assert.NoError(t, ValidateInstallment(d("95.4"), bounds), "lower bound is inclusive")
	assert.NoError(t, ValidateInstallment(d("636"), bounds), "upper bound is inclusive")
	assert.NoError(t, ValidateInstallment(d("300"), bounds))

	for _, amount := range []string{"95.39", "636.01", "0"} {
		err := ValidateInstallment(d(amount), bounds)
		require.Error(t, err, amount)
		assert.ErrorIs(t, err, domain.ErrOutOfBoundsInstallment)

		var be *domain.InstallmentBoundsError
		require.True(t, errors.As(err, &be))
		assert.Equal(t, bounds, be.Bounds)
		assert.Equal(t, domain.ReasonOutOfBoundsInstallment, domain.ReasonCodeOf(err))
	}
}

func TestPlanInstallments(t *testing.T) {
	tests := []struct {
		name       string
		principal  string
		amount     string
		wantFull   int
		wantFinal  string
		wantMonths int
	}{
		{"remainder", "5000", "636", 7, "548", 8},
		{"exact", "3000", "300", 10, "0", 10},
		{"smaller than one installment", "50", "100", 0, "50", 1},
		{"nothing to pay", "0", "100", 0, "0", 0},
		{"cents", "1000.50", "333.25", 3, "0.75", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanInstallments(d(tt.principal), d(tt.amount))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFull, plan.FullInstallments)
			assert.True(t, plan.FinalPayment.Equal(d(tt.wantFinal)), "final %s", plan.FinalPayment)
			assert.Equal(t, tt.wantMonths, plan.TotalMonths)
		})
	}

	_, err := PlanInstallments(d("1000"), decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidStructureParameter)
	_, err = PlanInstallments(d("-1"), d("10"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
