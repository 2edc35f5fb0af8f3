package compare

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	// Write header
	header := []string{
		"Option",
		"Type",
		"Structure",
		"Monthly Amount",
		"Guarantee Months",
		"Guaranteed Total",
		"Guarantee Cost",
		"Boundary Age",
		"Monthly Diff from Base",
		"Monthly % Change",
		"Rejection",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	// Write base option
	if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
		return "", err
	}

	// Write alternatives
	for _, alt := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&alt, "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a menu option as a CSV row
func (cf *CSVFormatter) formatRow(option *MenuOption, optionType string) []string {
	if !option.Available() {
		return []string{
			option.Label, optionType, string(option.Structure.Kind),
			"", formatInt(option.Structure.GuaranteeMonths()), "", "", "", "", "",
			string(option.Rejection.Code),
		}
	}
	return []string{
		option.Label,
		optionType,
		string(option.Structure.Kind),
		option.MonthlyAmount.StringFixed(2),
		formatInt(option.GuaranteeMonths),
		option.GuaranteedTotal.StringFixed(2),
		option.GuaranteeCost.StringFixed(2),
		formatInt(option.BoundaryAge),
		option.MonthlyDiffFromBase.StringFixed(2),
		option.MonthlyPctFromBase.StringFixed(2),
		"",
	}
}

func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
