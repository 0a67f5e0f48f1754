package render

import (
	"html/template"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"esnafdefter/backend/internal/domain"
)

// reportHTMLTmpl renders the printable page. Names and descriptions are
// auto-escaped by html/template.
var reportHTMLTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"money": func(currency string, amount decimal.Decimal) string {
		return amount.StringFixed(2) + " " + currency
	},
	"day": func(row domain.ReportRow) string {
		return row.Date.Format("2006-01-02")
	},
}).Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    td.amount { text-align: right; }
    h2, h3 { margin-bottom: 4px; }
    .total { font-weight: bold; margin-top: 16px; }
  </style>
</head>
<body>
  {{if .BusinessName}}<h1>{{.BusinessName}}</h1>{{end}}
  <h2>{{.Heading}}</h2>
  <p>Report date: {{.Date}}</p>
  {{$currency := .Currency}}
  {{range .Sections}}
    {{if eq .Kind "customer"}}
      <h3>{{.Title}}</h3>
      {{if .Phone}}<p>Phone: {{.Phone}}</p>{{end}}
      <p>Balance: {{money $currency .Amount}} ({{.Label}})</p>
      <table>
        <thead><tr><th>Date</th><th>Kind</th><th>Amount</th><th>Description</th></tr></thead>
        <tbody>{{range .Rows}}<tr><td>{{day .}}</td><td>{{.Kind}}</td><td class="amount">{{money $currency .Amount}}</td><td>{{.Description}}</td></tr>{{end}}</tbody>
      </table>
    {{else if eq .Kind "grand_total"}}
      <p class="total">Grand total: {{money $currency .Amount}} ({{.Label}})</p>
    {{else if eq .Kind "cash_summary"}}
      <table>
        <tbody>
          {{range .Figures}}<tr><td>{{.Name}}</td><td class="amount">{{money $currency .Amount}}</td></tr>{{end}}
          <tr><td><strong>{{.Label}}</strong></td><td class="amount"><strong>{{money $currency .Amount}}</strong></td></tr>
        </tbody>
      </table>
    {{else if eq .Kind "cash_detail"}}
      <h3>{{.Title}}</h3>
      <table>
        <thead><tr><th>Date</th><th>Kind</th><th>Amount</th><th>Description</th></tr></thead>
        <tbody>{{range .Rows}}<tr><td>{{day .}}</td><td>{{.Kind}}</td><td class="amount">{{money $currency .Amount}}</td><td>{{.Description}}</td></tr>{{end}}</tbody>
      </table>
    {{end}}
  {{end}}
</body>
</html>
`))

type htmlView struct {
	Title        string
	Heading      string
	BusinessName string
	Date         string
	Currency     string
	Sections     []domain.ReportSection
}

// HTML writes a printable page of the report.
func HTML(w io.Writer, report domain.Report, opts Options) error {
	heading := report.Title
	if report.Type == domain.ReportCash {
		heading = report.Title + " - " + strings.ToLower(periodHeading(report.Period))
	}
	return reportHTMLTmpl.Execute(w, htmlView{
		Title:        report.Title,
		Heading:      heading,
		BusinessName: opts.BusinessName,
		Date:         reportDate(report.GeneratedAt),
		Currency:     opts.currency(),
		Sections:     report.Sections,
	})
}

// Write dispatches to the renderer for format. JSON is handled by the caller.
func Write(w io.Writer, format Format, report domain.Report, opts Options) error {
	switch format {
	case FormatText:
		return Text(w, report, opts)
	case FormatCSV:
		return CSV(w, report, opts)
	default:
		return HTML(w, report, opts)
	}
}
