package output

import (
	"encoding/json"

	"github.com/rgehrsitz/payoutgo/internal/domain"
)

// JSONFormatter writes the report as indented JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(report *domain.QuoteReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
