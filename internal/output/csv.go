package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/rgehrsitz/payoutgo/internal/domain"
)

// CSVFormatter writes one row per quote and one per rejection.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(report *domain.QuoteReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Name", "Status", "Principal", "Sex", "Age", "TableAge", "TechnicalRate", "MinimumPension",
		"PlainMonthly", "Regime", "Structure", "MonthlyAmount", "LumpSum", "InstallmentMonths", "GuaranteeCost", "Code", "Message"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, q := range report.Quotes {
		structure := ""
		if q.Structure != nil {
			structure = q.Structure.Describe()
		}
		months := ""
		if q.Installment != nil {
			months = strconv.Itoa(q.Installment.TotalMonths)
		}
		row := []string{
			q.Name,
			"ok",
			q.Principal.StringFixed(2),
			string(q.Sex),
			strconv.FormatFloat(q.AgeAtValuation, 'f', 2, 64),
			strconv.Itoa(q.TableAge),
			strconv.FormatFloat(q.TechnicalRatePercent, 'f', 2, 64),
			q.Classification.MinimumPension.StringFixed(2),
			q.Classification.PlainMonthly.StringFixed(2),
			string(q.Classification.Regime),
			structure,
			q.MonthlyAmount.StringFixed(2),
			q.LumpSum.StringFixed(2),
			months,
			q.GuaranteeCost.StringFixed(2),
			"",
			"",
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	for _, r := range report.Rejections {
		row := make([]string, len(header))
		row[0], row[1] = r.Name, "rejected"
		row[15], row[16] = string(r.Code), r.Message
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
