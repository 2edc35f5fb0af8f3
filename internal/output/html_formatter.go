package output

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/rgehrsitz/payoutgo/internal/domain"
)

// HTMLFormatter produces a standalone HTML report.
type HTMLFormatter struct{}

func (h HTMLFormatter) Name() string { return "html" }

//go:embed templates/report.html.tmpl
var htmlTemplateSource string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"curr":        FormatCurrency,
	"regime":      describeRegime,
	"assumptions": func() []string { return DefaultAssumptions },
}).Parse(htmlTemplateSource))

func (h HTMLFormatter) Format(report *domain.QuoteReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
