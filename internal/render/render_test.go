package render

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"esnafdefter/backend/internal/domain"
)

var generatedAt = time.Date(2025, time.January, 11, 14, 5, 9, 0, time.UTC)

func day(raw string) time.Time {
	parsed, _ := time.Parse("2006-01-02", raw)
	return parsed
}

func debtReport() domain.Report {
	return domain.Report{
		Type:        domain.ReportDebt,
		Title:       "Customer Debt Report",
		Period:      domain.PeriodAll,
		GeneratedAt: generatedAt,
		Sections: []domain.ReportSection{
			{
				Kind:   domain.SectionCustomer,
				Title:  "Ali",
				Label:  domain.LabelDebtor,
				Amount: decimal.NewFromInt(60),
				Rows: []domain.ReportRow{
					{Date: day("2025-01-10"), Kind: "PAYMENT", Amount: decimal.NewFromInt(40), Description: "nakit"},
					{Date: day("2025-01-05"), Kind: "DEBT", Amount: decimal.NewFromInt(100)},
				},
			},
			{Kind: domain.SectionGrandTotal, Title: "Grand Total", Label: domain.LabelDebtor, Amount: decimal.NewFromInt(60)},
		},
	}
}

func cashReport(net int64) domain.Report {
	label := domain.LabelProfit
	if net < 0 {
		label = domain.LabelLoss
	}
	return domain.Report{
		Type:        domain.ReportCash,
		Title:       "Cash Register Report",
		Period:      "2025-03",
		GeneratedAt: generatedAt,
		Sections: []domain.ReportSection{
			{
				Kind:   domain.SectionCashSummary,
				Title:  "Summary",
				Label:  label,
				Amount: decimal.NewFromInt(net).Abs(),
				Figures: []domain.ReportFigure{
					{Name: domain.FigureRevenue, Amount: decimal.NewFromInt(500)},
					{Name: domain.FigureExpense, Amount: decimal.NewFromInt(500 - net)},
					{Name: domain.FigureNet, Amount: decimal.NewFromInt(net)},
				},
			},
			{
				Kind:  domain.SectionCashDetail,
				Title: "Entries",
				Rows: []domain.ReportRow{
					{Date: day("2025-03-15"), Kind: "EXPENSE", Amount: decimal.NewFromInt(500 - net), Description: "kira"},
					{Date: day("2025-03-01"), Kind: "REVENUE", Amount: decimal.NewFromInt(500)},
				},
			},
		},
	}
}

func TestTextDebtReport(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, debtReport(), Options{Currency: "TL", BusinessName: "Yilmaz Bakkal"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		strings.Repeat("=", 60) + "\nYilmaz Bakkal\nCUSTOMER DEBT REPORT\n",
		"Report date: 11.01.2025 14:05",
		"Customer: Ali\nBalance: 60.00 TL (DEBTOR)\n" + strings.Repeat("-", 40) + "\n",
		"  2025-01-10 - PAYMENT: 40.00 TL\n    Description: nakit\n  2025-01-05 - DEBT: 100.00 TL\n",
		"GRAND TOTAL: 60.00 TL (receivable)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Phone:") {
		t.Fatalf("phone line must be omitted when empty")
	}
}

func TestTextGrandTotalBalanced(t *testing.T) {
	report := domain.Report{
		Type:        domain.ReportDebt,
		Title:       "Customer Debt Report",
		GeneratedAt: generatedAt,
		Sections:    []domain.ReportSection{{Kind: domain.SectionGrandTotal, Label: domain.LabelBalanced, Amount: decimal.Zero}},
	}
	var buf bytes.Buffer
	if err := Text(&buf, report, Options{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "GRAND TOTAL: 0.00 TL (balanced)") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestTextCashReport(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, cashReport(300), Options{Currency: "TL"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"CASH REGISTER REPORT - 03/2025",
		"Total revenue: 500.00 TL",
		"Total expense: 200.00 TL",
		"NET PROFIT:    300.00 TL",
		"DETAILED ENTRIES:",
		"2025-03-15 - EXPENSE: 200.00 TL\n  Description: kira\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	buf.Reset()
	_ = Text(&buf, cashReport(-100), Options{})
	if !strings.Contains(buf.String(), "NET LOSS:      100.00 TL") {
		t.Fatalf("expected a net loss line, got:\n%s", buf.String())
	}
}

func TestCSVRecords(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, debtReport(), Options{}); err != nil {
		t.Fatalf("render: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if strings.Join(records[0], ",") != "section,title,label,date,kind,amount,description" {
		t.Fatalf("unexpected header %v", records[0])
	}
	// customer header, two entry rows, grand total
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	if records[1][2] != "DEBTOR" || records[1][5] != "60.00" {
		t.Fatalf("unexpected customer record %v", records[1])
	}
	if records[2][3] != "2025-01-10" || records[2][4] != "PAYMENT" || records[2][6] != "nakit" {
		t.Fatalf("unexpected entry record %v", records[2])
	}
}

func TestHTMLEscapesUserText(t *testing.T) {
	report := debtReport()
	report.Sections[0].Title = "<script>alert(1)</script>"

	var buf bytes.Buffer
	if err := HTML(&buf, report, Options{Currency: "TL"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Fatalf("customer name must be escaped")
	}
	if !strings.Contains(out, "60.00 TL (DEBTOR)") || !strings.Contains(out, "Grand total: 60.00 TL") {
		t.Fatalf("unexpected html:\n%s", out)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(debtReport(), FormatText); got != "debt-report-20250111-140509.txt" {
		t.Fatalf("unexpected debt file name %s", got)
	}
	if got := FileName(cashReport(1), FormatCSV); got != "cash-report-2025-03-140509.csv" {
		t.Fatalf("unexpected cash file name %s", got)
	}
	lifetime := cashReport(1)
	lifetime.Period = domain.PeriodAll
	if got := FileName(lifetime, FormatHTML); got != "cash-report-all-20250111-140509.html" {
		t.Fatalf("unexpected lifetime file name %s", got)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatJSON, "TEXT": FormatText, "csv": FormatCSV, "pdf": FormatHTML, " html ": FormatHTML}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q): expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Fatalf("expected xlsx to be rejected")
	}
}
