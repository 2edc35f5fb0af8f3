package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/rgehrsitz/payoutgo/internal/domain"
)

// ConsoleFormatter renders a compact plain-text summary.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console-lite" }

func (c ConsoleFormatter) Format(report *domain.QuoteReport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "ANNUITY PAYOUT SUMMARY")
	fmt.Fprintln(&buf, strings.Repeat("=", 60))
	if report.LifeTable != "" {
		fmt.Fprintf(&buf, "Life table: %s\n", report.LifeTable)
	}
	if report.Source != "" {
		fmt.Fprintf(&buf, "Source: %s\n", report.Source)
	}
	fmt.Fprintln(&buf)

	for _, q := range report.Quotes {
		writeQuoteText(&buf, q)
		fmt.Fprintln(&buf)
	}

	if len(report.Rejections) > 0 {
		fmt.Fprintln(&buf, "REJECTED")
		fmt.Fprintln(&buf, strings.Repeat("-", 60))
		for _, r := range report.Rejections {
			fmt.Fprintf(&buf, "%s: %s (%s)\n", r.Name, r.Message, r.Code)
			if r.Bounds != nil {
				fmt.Fprintf(&buf, "  Valid installment range: %s to %s\n",
					FormatCurrency(r.Bounds.Min), FormatCurrency(r.Bounds.Max))
			}
		}
		fmt.Fprintln(&buf)
	}

	fmt.Fprintln(&buf, "ASSUMPTIONS")
	fmt.Fprintln(&buf, strings.Repeat("-", 60))
	for _, a := range DefaultAssumptions {
		fmt.Fprintf(&buf, "- %s\n", a)
	}

	return buf.Bytes(), nil
}

func writeQuoteText(w io.Writer, q domain.QuoteResult) {
	fmt.Fprintf(w, "%s\n", q.Name)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Principal:        %s\n", FormatCurrency(q.Principal))
	fmt.Fprintf(w, "Age / sex:        %.2f (table age %d) / %s\n", q.AgeAtValuation, q.TableAge, q.Sex)
	fmt.Fprintf(w, "Technical rate:   %.2f%%", q.TechnicalRatePercent)
	if q.Fund != "" {
		fmt.Fprintf(w, " (%s)", q.Fund)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Minimum pension:  %s on %s\n", FormatCurrency(q.Classification.MinimumPension), q.ValuationDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Plain annuity:    %s per month\n", FormatCurrency(q.Classification.PlainMonthly))
	fmt.Fprintf(w, "Regime:           %s\n", describeRegime(q.Classification.Regime))

	switch q.Classification.Regime {
	case domain.RegimeLumpSum:
		fmt.Fprintf(w, "Lump sum:         %s\n", FormatCurrency(q.LumpSum))
	case domain.RegimeInstallment:
		if q.Installment != nil {
			fmt.Fprintf(w, "Installments:     %d x %s", q.Installment.FullInstallments, FormatCurrency(q.Installment.MonthlyAmount))
			if q.Installment.FinalPayment.IsPositive() {
				fmt.Fprintf(w, " + final %s", FormatCurrency(q.Installment.FinalPayment))
			}
			fmt.Fprintf(w, " (%d months)\n", q.Installment.TotalMonths)
		}
	case domain.RegimeFullAnnuityMenu:
		if q.Structure != nil {
			fmt.Fprintf(w, "Structure:        %s\n", q.Structure.Describe())
		}
		fmt.Fprintf(w, "Monthly payout:   %s\n", FormatCurrency(q.MonthlyAmount))
		if q.GuaranteeCost.IsPositive() {
			fmt.Fprintf(w, "Guarantee cost:   %s\n", FormatCurrency(q.GuaranteeCost))
		}
		if q.Structure != nil && q.Structure.GuaranteeMonths() > 0 {
			fmt.Fprintf(w, "Life payments from age %d\n", q.BoundaryAge)
		}
	}
	if q.BelowStatutoryAge {
		fmt.Fprintln(w, "Note: valuation age is below the statutory retirement age")
	}
}
