package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
)

// Formatter renders a quote report in one output format.
type Formatter interface {
	Name() string
	Format(report *domain.QuoteReport) ([]byte, error)
}

// FormatterFunc adapts a plain function to the Formatter interface.
type FormatterFunc struct {
	ID string
	F  func(report *domain.QuoteReport) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(report *domain.QuoteReport) ([]byte, error) { return f.F(report) }

var formatters = []Formatter{
	ConsoleFormatter{},
	StyledConsoleFormatter{},
	CSVFormatter{},
	JSONFormatter{},
	HTMLFormatter{},
}

var formatAliases = map[string]string{
	"text":    "console-lite",
	"plain":   "console-lite",
	"styled":  "console",
	"table":   "console",
	"verbose": "console",
}

// GetFormatterByName returns the formatter registered under name or one of its aliases,
// or nil if there is none.
func GetFormatterByName(name string) Formatter {
	key := strings.ToLower(strings.TrimSpace(name))
	if target, ok := formatAliases[key]; ok {
		key = target
	}
	for _, f := range formatters {
		if f.Name() == key {
			return f
		}
	}
	return nil
}

// AvailableFormatterNames lists the registered formatter names.
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(formatters))
	for _, f := range formatters {
		names = append(names, f.Name())
	}
	return names
}

// AvailableFormatAliases lists the accepted aliases, sorted.
func AvailableFormatAliases() []string {
	aliases := make([]string, 0, len(formatAliases))
	for a := range formatAliases {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return aliases
}

// WriteFormatted renders report and writes it to a timestamped file in the working directory.
func WriteFormatted(f Formatter, report *domain.QuoteReport, ext string) (string, error) {
	data, err := f.Format(report)
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("payout_report_%s.%s", time.Now().Format("20060102_150405"), ext)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}

// FormatCurrency formats an amount in leva.
func FormatCurrency(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " BGN"
}

// FormatPercentage formats a decimal as percentage
func FormatPercentage(amount decimal.Decimal) string {
	return amount.StringFixed(2) + "%"
}

// describeRegime returns a human label for a payout regime.
func describeRegime(r domain.EligibilityRegime) string {
	switch r {
	case domain.RegimeLumpSum:
		return "Lump sum"
	case domain.RegimeInstallment:
		return "Installments"
	case domain.RegimeFullAnnuityMenu:
		return "Full annuity menu"
	}
	return string(r)
}
