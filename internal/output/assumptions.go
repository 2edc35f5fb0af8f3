package output

// DefaultAssumptions lists the pricing basis rendered under every report.
var DefaultAssumptions = []string{
	"Payments monthly in advance; annual factors converted with the Woolhouse 11/24 correction",
	"Guaranteed payments discounted at the technical rate, independent of survival",
	"Scheduled installments priced in arrears at the monthly equivalent of the technical rate",
	"Ages rounded to the nearest whole year, halves up; the table ends at age 99",
	"Regime thresholds are ratios of the minimum pension in force on the valuation date",
}
