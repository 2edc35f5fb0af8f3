package compare

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a formatted table comparing payout structures
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	// Header
	sb.WriteString("PAYOUT MENU COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Request: %s\n", compSet.Name))
	sb.WriteString(fmt.Sprintf("Principal: %s BGN | Sex: %s | Table age: %d | Technical rate: %.2f%%\n",
		compSet.Principal.StringFixed(2), compSet.Sex, compSet.TableAge, compSet.TechnicalRatePercent))
	if compSet.ConfigPath != "" {
		sb.WriteString(fmt.Sprintf("Configuration: %s\n", compSet.ConfigPath))
	}
	sb.WriteString("\n")

	// Column widths
	nameWidth := 28
	numWidth := 12

	// Table header
	sb.WriteString(fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, "Option",
		numWidth, "Monthly",
		numWidth, "Guaranteed",
		numWidth, "Life From",
		numWidth, "vs Base"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	// Base row
	if compSet.BaseResult != nil {
		sb.WriteString(tf.formatRow(compSet.BaseResult, nameWidth, numWidth, true))
	}

	// Alternatives
	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(tf.formatRow(&alt, nameWidth, numWidth, false))
		}
	}

	sb.WriteString(strings.Repeat("=", 80) + "\n")

	// Recommendations
	if len(compSet.Recommendations) > 0 {
		sb.WriteString("\nRECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, rec := range compSet.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRow formats a single option row
func (tf *TableFormatter) formatRow(option *MenuOption, nameWidth, numWidth int, isBase bool) string {
	name := option.Label
	if isBase {
		name += " (base)"
	}

	if !option.Available() {
		return fmt.Sprintf("%-*s %*s\n",
			nameWidth, tf.truncate(name, nameWidth),
			numWidth, "n/a: "+string(option.Rejection.Code))
	}

	guaranteed := "-"
	if option.GuaranteeMonths > 0 {
		guaranteed = fmt.Sprintf("%d mo", option.GuaranteeMonths)
	}

	delta := ""
	if !isBase {
		delta = tf.deltaSymbol(option.MonthlyDiffFromBase) + option.MonthlyDiffFromBase.StringFixed(2)
	}

	return fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, tf.truncate(name, nameWidth),
		numWidth, tf.formatDecimal(option.MonthlyAmount),
		numWidth, guaranteed,
		numWidth, fmt.Sprintf("age %d", option.BoundaryAge),
		numWidth, delta)
}

// formatDecimal formats an amount with two decimals
func (tf *TableFormatter) formatDecimal(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// deltaSymbol returns a + for positive deltas; negative deltas carry their own sign
func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	}
	return ""
}

// truncate truncates a string to maxLen
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// FormatCompact creates a compact single-line summary of the menu
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	if compSet.BaseResult != nil {
		sb.WriteString(fmt.Sprintf("Lifetime: %s | ", compSet.BaseResult.MonthlyAmount.StringFixed(2)))
	}

	for i, alt := range compSet.AlternativeResults {
		if i > 0 {
			sb.WriteString(" | ")
		}
		if !alt.Available() {
			sb.WriteString(fmt.Sprintf("%s: n/a", alt.Label))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %s (%s%s)", alt.Label, alt.MonthlyAmount.StringFixed(2),
			tf.deltaSymbol(alt.MonthlyDiffFromBase), alt.MonthlyDiffFromBase.StringFixed(2)))
	}

	return sb.String()
}
