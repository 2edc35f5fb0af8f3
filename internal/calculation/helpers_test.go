package calculation

import (
	"testing"
	"time"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/rgehrsitz/payoutgo/internal/mortality"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testCalculator(t *testing.T) *Calculator {
	t.Helper()
	table, err := mortality.Default()
	require.NoError(t, err)
	return NewCalculator(mortality.NewSurvivalCache(table))
}

func testRegulatory() *domain.RegulatoryConfig {
	rc := &domain.RegulatoryConfig{
		MinimumPension: []domain.MinimumPensionStep{
			{EffectiveFrom: date(2024, 7, 1), Amount: decimal.RequireFromString("580.57")},
			{EffectiveFrom: date(2025, 7, 1), Amount: decimal.NewFromInt(636)},
		},
		Funds: []domain.PensionFund{
			{ID: "rodina", Name: "Rodina", TechnicalRatePercent: 3},
			{ID: "dsk", Name: "DSK", TechnicalRatePercent: 2},
		},
		RetirementAges: []domain.RetirementAgeRule{
			{Year: 2025, Female: domain.AgeSpec{Years: 62, Months: 4}, Male: domain.AgeSpec{Years: 64, Months: 8}},
			{Year: 2026, Female: domain.AgeSpec{Years: 62, Months: 6}, Male: domain.AgeSpec{Years: 64, Months: 9}},
		},
		ServiceRequirements: []domain.ServiceRequirementRule{
			{Year: 2025, Female: decimal.RequireFromString("36.67"), Male: decimal.RequireFromString("39.67")},
			{Year: 2027, Female: decimal.NewFromInt(37), Male: decimal.NewFromInt(40)},
		},
	}
	rc.Normalize()
	return rc
}

func testEngine(t *testing.T) *CalculationEngine {
	t.Helper()
	table, err := mortality.Default()
	require.NoError(t, err)
	return NewCalculationEngine(table, testRegulatory())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ratePtr(r float64) *float64 {
	return &r
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return v
}
