package breakeven

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats optimization results as a console table
type TableFormatter struct{}

// Format generates a formatted table for optimization result
func (tf *TableFormatter) Format(result *OptimizationResult) string {
	var sb strings.Builder

	sb.WriteString("BREAK-EVEN SOLVER RESULTS\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	sb.WriteString(fmt.Sprintf("Target:              %s\n", result.Target))
	sb.WriteString(fmt.Sprintf("Status:              %s\n", tf.formatStatus(result.Success)))
	sb.WriteString(fmt.Sprintf("Iterations:          %d\n", result.Iterations))
	if result.ConvergenceInfo != "" {
		sb.WriteString(fmt.Sprintf("Convergence:         %s\n", result.ConvergenceInfo))
	}
	sb.WriteString("\n")

	sb.WriteString("SOLVED PARAMETER\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	if result.OptimalInstallment != nil {
		sb.WriteString(fmt.Sprintf("Installment:         %s BGN x %d months\n",
			tf.formatCurrency(*result.OptimalInstallment), result.Constraints.Months))
	}
	if result.OptimalGuaranteeYears != nil {
		sb.WriteString(fmt.Sprintf("Guarantee:           %d years\n", *result.OptimalGuaranteeYears))
	}
	if result.OptimalPrincipal != nil {
		sb.WriteString(fmt.Sprintf("Principal:           %s BGN\n", tf.formatCurrency(*result.OptimalPrincipal)))
	}
	if result.Constraints.TargetMonthly != nil {
		sb.WriteString(fmt.Sprintf("Target Monthly:      %s BGN\n", tf.formatCurrency(*result.Constraints.TargetMonthly)))
	}
	sb.WriteString("\n")

	if result.Quote != nil {
		sb.WriteString("PAYOUT AT SOLUTION\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		if result.Quote.Structure != nil {
			sb.WriteString(fmt.Sprintf("Structure:           %s\n", result.Quote.Structure.Describe()))
		}
		sb.WriteString(fmt.Sprintf("Monthly Payout:      %s BGN\n", tf.formatCurrency(result.Quote.MonthlyAmount)))
		if result.Quote.GuaranteeCost.IsPositive() {
			sb.WriteString(fmt.Sprintf("Guarantee Cost:      %s BGN\n", tf.formatCurrency(result.Quote.GuaranteeCost)))
		}
		if result.Quote.BoundaryAge > 0 {
			sb.WriteString(fmt.Sprintf("Lifetime From Age:   %d\n", result.Quote.BoundaryAge))
		}
		sb.WriteString("\n")
	}

	if result.BaseQuote != nil && result.OptimalPrincipal == nil {
		sb.WriteString("COMPARISON TO LIFETIME\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		sb.WriteString(fmt.Sprintf("Lifetime Monthly:    %s BGN\n", tf.formatCurrency(result.BaseQuote.MonthlyAmount)))
		sb.WriteString(fmt.Sprintf("Monthly Change:      %s%s BGN\n",
			tf.deltaSymbol(result.MonthlyDiffFromBase), tf.formatCurrency(result.MonthlyDiffFromBase)))
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatMultiDimensional formats results from every solved target
func (tf *TableFormatter) FormatMultiDimensional(result *MultiDimensionalResult) string {
	var sb strings.Builder

	sb.WriteString("BREAK-EVEN SOLVER SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n\n")

	sb.WriteString(fmt.Sprintf("%-18s %-14s %14s %10s\n", "Target", "Solution", "Monthly", "Status"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	for i := range result.Results {
		r := &result.Results[i]
		monthly := "-"
		if r.Quote != nil {
			monthly = tf.formatCurrency(r.Quote.MonthlyAmount)
		}
		sb.WriteString(fmt.Sprintf("%-18s %-14s %14s %10s\n",
			tf.truncate(string(r.Target), 18), tf.truncate(tf.solution(r), 14), monthly, tf.formatShortStatus(r.Success)))
	}
	for _, f := range result.Failures {
		sb.WriteString(fmt.Sprintf("%-18s %-14s %14s %10s\n", tf.truncate(f.Name, 18), "-", "-", string(f.Code)))
	}
	sb.WriteString("\n")

	if len(result.Recommendations) > 0 {
		sb.WriteString("RECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for i, rec := range result.Recommendations {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, rec))
		}
	}

	return sb.String()
}

// JSONFormatter formats results as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output
func (jf *JSONFormatter) Format(result *OptimizationResult) (string, error) {
	return jf.marshal(result)
}

// FormatMultiDimensional formats multi-target results as JSON
func (jf *JSONFormatter) FormatMultiDimensional(result *MultiDimensionalResult) (string, error) {
	return jf.marshal(result)
}

func (jf *JSONFormatter) marshal(v any) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Helper methods

func (tf *TableFormatter) solution(r *OptimizationResult) string {
	switch {
	case r.OptimalInstallment != nil:
		return fmt.Sprintf("%dx%s", r.Constraints.Months, r.OptimalInstallment.StringFixed(2))
	case r.OptimalGuaranteeYears != nil:
		return fmt.Sprintf("%d years", *r.OptimalGuaranteeYears)
	case r.OptimalPrincipal != nil:
		return tf.formatShort(*r.OptimalPrincipal)
	}
	return "-"
}

func (tf *TableFormatter) formatStatus(success bool) string {
	if success {
		return "✓ Converged"
	}
	return "⚠ Did not converge"
}

func (tf *TableFormatter) formatShortStatus(success bool) string {
	if success {
		return "✓"
	}
	return "⚠"
}

func (tf *TableFormatter) formatCurrency(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (tf *TableFormatter) formatShort(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		millions := d.Div(decimal.NewFromInt(1000000))
		return millions.StringFixed(2) + "M"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		thousands := d.Div(decimal.NewFromInt(1000))
		return thousands.StringFixed(1) + "K"
	}
	return d.StringFixed(0)
}

func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	}
	return ""
}

func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
