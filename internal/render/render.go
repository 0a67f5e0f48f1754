// Package render turns a domain.Report into the documents handed to the
// shop owner: the plain-text statement, a CSV export and a printable HTML page.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"esnafdefter/backend/internal/domain"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// ParseFormat maps a query value onto a Format; blank means JSON.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatText, "txt":
		return FormatText, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatHTML, "pdf":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", raw)
	}
}

type Options struct {
	Currency     string
	BusinessName string
}

func (o Options) currency() string {
	if strings.TrimSpace(o.Currency) == "" {
		return "TL"
	}
	return o.Currency
}

func (o Options) money(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " " + o.currency()
}

// ContentType is the response media type for a rendered format.
func ContentType(format Format) string {
	switch format {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/json"
	}
}

// FileName follows the desktop program's naming: a dated debt report, and a
// cash report carrying its month (or "all") plus the time of day.
func FileName(report domain.Report, format Format) string {
	ext := extension(format)
	at := report.GeneratedAt
	switch report.Type {
	case domain.ReportCash:
		if report.Period != domain.PeriodAll {
			return fmt.Sprintf("cash-report-%s-%s.%s", report.Period, at.Format("150405"), ext)
		}
		return fmt.Sprintf("cash-report-all-%s.%s", at.Format("20060102-150405"), ext)
	default:
		return fmt.Sprintf("debt-report-%s.%s", at.Format("20060102-150405"), ext)
	}
}

func extension(format Format) string {
	switch format {
	case FormatText:
		return "txt"
	case FormatCSV:
		return "csv"
	case FormatHTML:
		return "html"
	default:
		return "json"
	}
}

func figure(section domain.ReportSection, name string) decimal.Decimal {
	for _, f := range section.Figures {
		if f.Name == name {
			return f.Amount
		}
	}
	return decimal.Zero
}

// periodHeading renders "2025-03" as "03/2025" and "all" as "ALL TIME".
func periodHeading(period string) string {
	if period == "" || period == domain.PeriodAll {
		return "ALL TIME"
	}
	month, err := time.Parse("2006-01", period)
	if err != nil {
		return period
	}
	return month.Format("01/2006")
}

func reportDate(at time.Time) string {
	return at.Format("02.01.2006 15:04")
}

func grandTotalText(section domain.ReportSection, opts Options) string {
	switch section.Label {
	case domain.LabelDebtor:
		return fmt.Sprintf("%s (receivable)", opts.money(section.Amount))
	case domain.LabelCreditor:
		return fmt.Sprintf("%s (payable)", opts.money(section.Amount))
	default:
		return fmt.Sprintf("%s (balanced)", opts.money(decimal.Zero))
	}
}
