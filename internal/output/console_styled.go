package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/payoutgo/internal/domain"
)

// StyledConsoleFormatter renders each quote as a bordered card.
type StyledConsoleFormatter struct{}

func (s StyledConsoleFormatter) Name() string { return "console" }

func (s StyledConsoleFormatter) Format(report *domain.QuoteReport) ([]byte, error) {
	blocks := []string{TitleStyle.Render("ANNUITY PAYOUT QUOTES")}
	if report.LifeTable != "" {
		blocks = append(blocks, row("Life table", report.LifeTable))
	}
	if report.Source != "" {
		blocks = append(blocks, row("Source", report.Source))
	}

	for _, q := range report.Quotes {
		blocks = append(blocks, CardStyle.Render(quoteCard(q)))
	}

	if len(report.Rejections) > 0 {
		lines := []string{ErrorStyle.Bold(true).Render("Rejected")}
		for _, r := range report.Rejections {
			line := fmt.Sprintf("%s: %s", r.Name, ErrorStyle.Render(string(r.Code)))
			lines = append(lines, line, "  "+r.Message)
			if r.Bounds != nil {
				lines = append(lines, "  "+row("Valid range", FormatCurrency(r.Bounds.Min)+" to "+FormatCurrency(r.Bounds.Max)))
			}
		}
		blocks = append(blocks, CardStyle.Render(strings.Join(lines, "\n")))
	}

	return []byte(lipgloss.JoinVertical(lipgloss.Left, blocks...) + "\n"), nil
}

func quoteCard(q domain.QuoteResult) string {
	lines := []string{
		CardTitleStyle.Render(q.Name),
		row("Principal", FormatCurrency(q.Principal)),
		row("Age", fmt.Sprintf("%.2f (table %d), %s", q.AgeAtValuation, q.TableAge, q.Sex)),
		row("Technical rate", fmt.Sprintf("%.2f%%", q.TechnicalRatePercent)),
		row("Minimum pension", FormatCurrency(q.Classification.MinimumPension)),
		row("Plain annuity", FormatCurrency(q.Classification.PlainMonthly)),
		LabelStyle.Render("Regime: ") + RegimeStyle(q.Classification.Regime).Render(describeRegime(q.Classification.Regime)),
	}

	switch q.Classification.Regime {
	case domain.RegimeLumpSum:
		lines = append(lines, row("Lump sum", HighlightStyle.Render(FormatCurrency(q.LumpSum))))
	case domain.RegimeInstallment:
		if q.Installment != nil {
			lines = append(lines,
				row("Installment", HighlightStyle.Render(FormatCurrency(q.Installment.MonthlyAmount))),
				row("Months", fmt.Sprintf("%d", q.Installment.TotalMonths)),
			)
			if q.Installment.FinalPayment.IsPositive() {
				lines = append(lines, row("Final payment", FormatCurrency(q.Installment.FinalPayment)))
			}
		}
	case domain.RegimeFullAnnuityMenu:
		if q.Structure != nil {
			lines = append(lines, row("Structure", q.Structure.Describe()))
		}
		lines = append(lines, row("Monthly payout", HighlightStyle.Render(FormatCurrency(q.MonthlyAmount))))
		if q.GuaranteeCost.IsPositive() {
			lines = append(lines, row("Guarantee cost", FormatCurrency(q.GuaranteeCost)))
		}
	}
	if q.BelowStatutoryAge {
		lines = append(lines, WarningStyle.Render("Below statutory retirement age"))
	}
	return strings.Join(lines, "\n")
}

func row(label, value string) string {
	return LabelStyle.Render(label+": ") + ValueStyle.Render(value)
}
