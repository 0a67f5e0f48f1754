package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"esnafdefter/backend/internal/domain"
)

var (
	heavyRule = strings.Repeat("=", 60)
	lightRule = strings.Repeat("-", 40)
)

// Text writes the plain-text statement.
func Text(w io.Writer, report domain.Report, opts Options) error {
	out := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	line(heavyRule)
	if opts.BusinessName != "" {
		line("%s", opts.BusinessName)
	}
	switch report.Type {
	case domain.ReportCash:
		line("%s - %s", strings.ToUpper(report.Title), periodHeading(report.Period))
	default:
		line("%s", strings.ToUpper(report.Title))
	}
	line("Report date: %s", reportDate(report.GeneratedAt))
	line(heavyRule)
	line("")

	for _, section := range report.Sections {
		switch section.Kind {
		case domain.SectionCustomer:
			line("Customer: %s", section.Title)
			if section.Phone != "" {
				line("Phone: %s", section.Phone)
			}
			line("Balance: %s (%s)", opts.money(section.Amount), section.Label)
			line(lightRule)
			for _, row := range section.Rows {
				line("  %s - %s: %s", row.Date.Format("2006-01-02"), row.Kind, opts.money(row.Amount))
				if row.Description != "" {
					line("    Description: %s", row.Description)
				}
			}
			line("")
		case domain.SectionGrandTotal:
			line(heavyRule)
			line("GRAND TOTAL: %s", grandTotalText(section, opts))
			line(heavyRule)
		case domain.SectionCashSummary:
			line("Total revenue: %s", opts.money(figure(section, domain.FigureRevenue)))
			line("Total expense: %s", opts.money(figure(section, domain.FigureExpense)))
			line(lightRule)
			if section.Label == domain.LabelLoss {
				line("NET LOSS:      %s", opts.money(section.Amount))
			} else {
				line("NET PROFIT:    %s", opts.money(section.Amount))
			}
			line("")
		case domain.SectionCashDetail:
			line(heavyRule)
			line("DETAILED ENTRIES:")
			line(heavyRule)
			for _, row := range section.Rows {
				line("%s - %s: %s", row.Date.Format("2006-01-02"), row.Kind, opts.money(row.Amount))
				if row.Description != "" {
					line("  Description: %s", row.Description)
				}
			}
		}
	}

	return out.Flush()
}
