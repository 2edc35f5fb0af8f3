package calculation

import (
	"context"
	"fmt"
	"time"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/rgehrsitz/payoutgo/internal/mortality"
	"github.com/shopspring/decimal"
)

// CalculationEngine turns quote requests into classified, priced payouts.
type CalculationEngine struct {
	Table      *mortality.LifeTable
	Regulatory *domain.RegulatoryConfig
	Survival   *mortality.SurvivalCache
	Calculator *Calculator
	Classifier *Classifier
	Logger     Logger
	Debug      bool // Log the intermediate pricing values
}

// NewCalculationEngine creates an engine over a life table and a regulatory configuration.
func NewCalculationEngine(table *mortality.LifeTable, reg *domain.RegulatoryConfig) *CalculationEngine {
	cache := mortality.NewSurvivalCache(table)
	return &CalculationEngine{
		Table:      table,
		Regulatory: reg,
		Survival:   cache,
		Calculator: NewCalculator(cache),
		Classifier: NewClassifier(reg.Eligibility),
		Logger:     NopLogger{},
	}
}

// SetLogger sets the engine logger. A nil logger disables logging.
func (ce *CalculationEngine) SetLogger(l Logger) {
	if l == nil {
		ce.Logger = NopLogger{}
		return
	}
	ce.Logger = l
}

// ResolveRate returns the technical rate for the request and the fund it came from.
// An explicit rate takes precedence over the fund's rate.
func (ce *CalculationEngine) ResolveRate(req *domain.QuoteRequest) (float64, string, error) {
	if req.TechnicalRatePercent != nil {
		return *req.TechnicalRatePercent, req.Fund, nil
	}
	fund, err := ce.Regulatory.FindFund(req.Fund)
	if err != nil {
		return 0, "", err
	}
	return fund.TechnicalRatePercent, fund.Name, nil
}

// ResolveAge returns the fractional age at the valuation date.
func (ce *CalculationEngine) ResolveAge(req *domain.QuoteRequest) float64 {
	if req.BirthDate != nil {
		return AgeAt(*req.BirthDate, req.ValuationDate)
	}
	return req.Age
}

// Classify returns only the eligibility classification for a request.
func (ce *CalculationEngine) Classify(ctx context.Context, req domain.QuoteRequest) (*domain.Classification, error) {
	res, _, err := ce.classify(ctx, &req)
	if err != nil {
		return nil, err
	}
	return &res.Classification, nil
}

// Quote classifies a request and prices the payout the regime allows.
func (ce *CalculationEngine) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.QuoteResult, error) {
	res, basis, err := ce.classify(ctx, &req)
	if err != nil {
		return nil, err
	}

	switch res.Classification.Regime {
	case domain.RegimeLumpSum:
		res.LumpSum = req.Principal
		ce.Logger.Infof("%s: plain monthly %s under %s, paid as lump sum %s",
			req.Name, res.Classification.PlainMonthly, res.Classification.SmallFundThreshold.StringFixed(2), req.Principal.StringFixed(2))

	case domain.RegimeInstallment:
		bounds := *res.Classification.InstallmentBounds
		amount := req.InstallmentAmount
		if amount.IsZero() {
			amount = bounds.Max.Truncate(2)
			ce.Logger.Debugf("%s: no installment amount requested, using %s", req.Name, amount)
		}
		if err := ValidateInstallment(amount, bounds); err != nil {
			return nil, err
		}
		plan, err := PlanInstallments(req.Principal, amount)
		if err != nil {
			return nil, err
		}
		res.Installment = &plan
		res.MonthlyAmount = amount

	case domain.RegimeFullAnnuityMenu:
		structure := req.Structure
		if structure.Kind == "" {
			structure = domain.LifetimeStructure()
		}
		payout, err := ce.Calculator.Price(req.Principal, basis, structure)
		if err != nil {
			return nil, err
		}
		if ce.Debug {
			ce.Logger.Debugf("%s: %s table age %d boundary %d divisor %.6f guarantee cost %.2f",
				req.Name, structure.Describe(), payout.TableAge, payout.BoundaryAge, payout.Divisor, payout.GuaranteeCost)
		}
		res.Structure = &structure
		res.MonthlyAmount = decimal.NewFromFloat(payout.Monthly).Round(2)
		res.GuaranteeCost = decimal.NewFromFloat(payout.GuaranteeCost).Round(2)
		res.BoundaryAge = payout.BoundaryAge
	}

	return res, nil
}

// RunQuotes prices a batch of requests. Refused requests are collected as rejections
// rather than aborting the batch.
func (ce *CalculationEngine) RunQuotes(ctx context.Context, reqs []domain.QuoteRequest) (*domain.QuoteReport, error) {
	report := &domain.QuoteReport{
		LifeTable:   ce.Table.Name(),
		GeneratedAt: time.Now(),
		Quotes:      make([]domain.QuoteResult, 0, len(reqs)),
	}
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := req.Name
		if name == "" {
			name = fmt.Sprintf("quote-%d", i+1)
			req.Name = name
		}
		res, err := ce.Quote(ctx, req)
		if err != nil {
			ce.Logger.Warnf("%s rejected: %v", name, err)
			report.Rejections = append(report.Rejections, domain.NewRejection(name, err))
			continue
		}
		report.Quotes = append(report.Quotes, *res)
	}
	return report, nil
}

func (ce *CalculationEngine) classify(ctx context.Context, req *domain.QuoteRequest) (*domain.QuoteResult, Basis, error) {
	if err := ctx.Err(); err != nil {
		return nil, Basis{}, err
	}
	if err := req.Validate(); err != nil {
		return nil, Basis{}, err
	}

	rate, fund, err := ce.ResolveRate(req)
	if err != nil {
		return nil, Basis{}, err
	}
	basis := Basis{Age: ce.ResolveAge(req), Sex: req.Sex, RatePercent: rate}

	minPension, err := ce.Regulatory.MinimumPensionOn(req.ValuationDate)
	if err != nil {
		return nil, Basis{}, err
	}

	plain, err := ce.Calculator.Lifetime(req.Principal.InexactFloat64(), basis)
	if err != nil {
		return nil, Basis{}, err
	}

	cls := ce.Classifier.Classify(req.Principal, decimal.NewFromFloat(plain.Monthly), minPension)
	cls.PlainMonthly = cls.PlainMonthly.Round(2)

	res := &domain.QuoteResult{
		Name:                 req.Name,
		Principal:            req.Principal,
		Sex:                  req.Sex,
		AgeAtValuation:       basis.Age,
		TableAge:             plain.TableAge,
		TechnicalRatePercent: rate,
		Fund:                 fund,
		ValuationDate:        req.ValuationDate,
		Classification:       cls,
		BoundaryAge:          plain.BoundaryAge,
	}

	if statutory, ok := ce.StatutoryRetirementAge(req.Sex, req.ValuationDate); ok && basis.Age < statutory.Fractional() {
		res.BelowStatutoryAge = true
		ce.Logger.Warnf("%s: age %.2f is below the statutory retirement age %s for %d",
			req.Name, basis.Age, statutory, req.ValuationDate.Year())
	}

	return res, basis, nil
}
