package calculation

import (
	"time"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
)

// AgeAt returns the age in fractional years on date for someone born on birth.
// The fraction is the share of the current year of age already lived.
func AgeAt(birth, on time.Time) float64 {
	if on.Before(birth) {
		return 0
	}
	years := on.Year() - birth.Year()
	anniversary := birth.AddDate(years, 0, 0)
	if anniversary.After(on) {
		years--
		anniversary = birth.AddDate(years, 0, 0)
	}
	next := birth.AddDate(years+1, 0, 0)
	return float64(years) + on.Sub(anniversary).Hours()/next.Sub(anniversary).Hours()
}

// StatutoryRetirementAge returns the statutory retirement age for sex on date.
func (ce *CalculationEngine) StatutoryRetirementAge(sex domain.Sex, on time.Time) (domain.AgeSpec, bool) {
	return ce.Regulatory.RetirementAgeFor(sex, on.Year())
}

// RequiredService returns the years of service required for a retirement in year.
func (ce *CalculationEngine) RequiredService(sex domain.Sex, year int) (decimal.Decimal, bool) {
	return ce.Regulatory.RequiredServiceFor(sex, year)
}
