package calculation

import "math"

// CertainMonthlySum prices a certain annuity of 1 per month, paid monthly in advance for
// years, in closed form: H = (1 - v^years) / (1 - v^(1/12)) with v = 1/(1+i).
// At a zero rate it is the plain payment count 12*years.
func CertainMonthlySum(years int, ratePercent float64) float64 {
	if years <= 0 {
		return 0
	}
	if ratePercent == 0 {
		return float64(12 * years)
	}
	v := 1 / (1 + ratePercent/100)
	return (1 - math.Pow(v, float64(years))) / (1 - math.Pow(v, 1.0/12))
}

// EffectiveMonthlyRate converts an annual effective rate in percent to the equivalent
// monthly effective rate as a fraction.
func EffectiveMonthlyRate(ratePercent float64) float64 {
	return math.Pow(1+ratePercent/100, 1.0/12) - 1
}

// PresentValue is the ordinary annuity present value of months payments of payment,
// paid in arrears at monthlyRate: payment * (1 - (1+j)^-n) / j.
func PresentValue(monthlyRate float64, months int, payment float64) float64 {
	if months <= 0 {
		return 0
	}
	if monthlyRate == 0 {
		return payment * float64(months)
	}
	return payment * (1 - math.Pow(1+monthlyRate, -float64(months))) / monthlyRate
}
