package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/rgehrsitz/payoutgo/internal/breakeven"
	"github.com/rgehrsitz/payoutgo/internal/calculation"
	"github.com/rgehrsitz/payoutgo/internal/compare"
	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// QuoteRequest is the request body for POST /api/v1/quote and /api/v1/classify.
// Dates are YYYY-MM-DD; a missing valuation_date means today.
type QuoteRequest struct {
	Name                 string                  `json:"name,omitempty"`
	Principal            decimal.Decimal         `json:"principal"`
	Age                  float64                 `json:"age,omitempty"`
	BirthDate            string                  `json:"birth_date,omitempty"`
	Sex                  string                  `json:"sex"`
	Fund                 string                  `json:"fund,omitempty"`
	TechnicalRatePercent *float64                `json:"technical_rate_percent,omitempty"`
	ValuationDate        string                  `json:"valuation_date,omitempty"`
	Structure            *domain.PayoutStructure `json:"structure,omitempty"`
	InstallmentAmount    decimal.Decimal         `json:"installment_amount,omitempty"`
}

// ToDomain converts the body into an engine request.
func (q *QuoteRequest) ToDomain(today time.Time) (domain.QuoteRequest, error) {
	sex, err := domain.ParseSex(q.Sex)
	if err != nil {
		return domain.QuoteRequest{}, err
	}

	valuation := today
	if q.ValuationDate != "" {
		valuation, err = parseDate("valuation_date", q.ValuationDate)
		if err != nil {
			return domain.QuoteRequest{}, err
		}
	}

	req := domain.QuoteRequest{
		Name:                 q.Name,
		Principal:            q.Principal,
		Age:                  q.Age,
		Sex:                  sex,
		Fund:                 q.Fund,
		TechnicalRatePercent: q.TechnicalRatePercent,
		ValuationDate:        valuation,
		Structure:            domain.LifetimeStructure(),
		InstallmentAmount:    q.InstallmentAmount,
	}
	if q.BirthDate != "" {
		birth, err := parseDate("birth_date", q.BirthDate)
		if err != nil {
			return domain.QuoteRequest{}, err
		}
		req.BirthDate = &birth
	}
	if q.Structure != nil && q.Structure.Kind != "" {
		req.Structure = *q.Structure
	}
	return req, nil
}

// ScheduleRequest is one scheduled-installment alternative in a menu request.
type ScheduleRequest struct {
	Months int             `json:"months"`
	Amount decimal.Decimal `json:"amount"`
}

// MenuRequest is the request body for POST /api/v1/menu. With no alternatives the
// 5, 10 and 15 year guarantees are priced.
type MenuRequest struct {
	QuoteRequest
	Guarantees []int             `json:"guarantees,omitempty"`
	Schedules  []ScheduleRequest `json:"schedules,omitempty"`
}

// Options converts the requested alternatives into compare options.
func (m *MenuRequest) Options() compare.CompareOptions {
	if len(m.Guarantees) == 0 && len(m.Schedules) == 0 {
		return compare.DefaultCompareOptions()
	}
	opts := compare.CompareOptions{GuaranteeYears: m.Guarantees}
	for _, s := range m.Schedules {
		opts.Schedules = append(opts.Schedules, compare.ScheduleOption{Months: s.Months, Amount: s.Amount})
	}
	return opts
}

// SolveRequest is the request body for POST /api/v1/solve.
type SolveRequest struct {
	QuoteRequest
	Target            string           `json:"target"`
	Months            int              `json:"months,omitempty"`
	TargetMonthly     *decimal.Decimal `json:"target_monthly,omitempty"`
	MaxGuaranteeYears int              `json:"max_guarantee_years,omitempty"`
	MaxPrincipal      *decimal.Decimal `json:"max_principal,omitempty"`
}

// Constraints converts the body into solver constraints.
func (s *SolveRequest) Constraints() breakeven.Constraints {
	return breakeven.Constraints{
		Months:            s.Months,
		TargetMonthly:     s.TargetMonthly,
		MaxGuaranteeYears: s.MaxGuaranteeYears,
		MaxPrincipal:      s.MaxPrincipal,
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code   domain.ReasonCode         `json:"code"`
	Error  string                    `json:"error"`
	Bounds *domain.InstallmentBounds `json:"bounds,omitempty"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	LifeTable string `json:"lifeTable"`
}

// FundsResponse is the response for GET /api/v1/funds.
type FundsResponse struct {
	Funds []domain.PensionFund `json:"funds"`
}

// MinimumPensionResponse is the response for GET /api/v1/minimum-pension.
type MinimumPensionResponse struct {
	Date               string          `json:"date"`
	MinimumPension     decimal.Decimal `json:"minimumPension"`
	SmallFundThreshold decimal.Decimal `json:"smallFundThreshold"`
	LumpSumThreshold   decimal.Decimal `json:"lumpSumThreshold"`
}

// LifeTableResponse is the response for GET /api/v1/life-table/{sex}.
type LifeTableResponse struct {
	Table                string                 `json:"table"`
	Sex                  domain.Sex             `json:"sex"`
	TechnicalRatePercent *float64               `json:"technicalRatePercent,omitempty"`
	Rows                 []calculation.TableRow `json:"rows"`
}

// RetirementAgeResponse is the response for GET /api/v1/retirement-age.
type RetirementAgeResponse struct {
	Sex             domain.Sex       `json:"sex"`
	Date            string           `json:"date"`
	RetirementAge   domain.AgeSpec   `json:"retirementAge"`
	Fractional      float64          `json:"fractional"`
	RequiredService *decimal.Decimal `json:"requiredService,omitempty"`
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, domain.NewFieldError(field, fmt.Sprintf("must be YYYY-MM-DD, got %q", value), domain.ErrInvalidInput)
	}
	return t, nil
}
