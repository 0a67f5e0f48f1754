package service

import (
	"context"

	"esnafdefter/backend/internal/domain"
)

const (
	debtReportTitle = "Customer Debt Report"
	cashReportTitle = "Cash Register Report"
)

// BuildDebtReport lists every customer with an open balance, then the
// balance of the whole book. Settled customers are left out.
func (s *Service) BuildDebtReport(ctx context.Context) (domain.Report, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return domain.Report{}, err
	}

	report := domain.Report{
		Type:        domain.ReportDebt,
		Title:       debtReportTitle,
		Period:      domain.PeriodAll,
		GeneratedAt: s.now(),
		Sections:    make([]domain.ReportSection, 0, len(customers)+1),
	}

	for _, customer := range customers {
		balance, err := s.Balance(ctx, customer.ID)
		if err != nil {
			return domain.Report{}, err
		}
		if balance.IsZero() {
			continue
		}

		entries, err := s.repo.ListLedgerEntries(ctx, customer.ID)
		if err != nil {
			return domain.Report{}, err
		}
		rows := make([]domain.ReportRow, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, domain.ReportRow{
				Date:        entry.Date,
				Kind:        string(entry.Kind),
				Amount:      entry.Amount,
				Description: entry.Description,
			})
		}

		report.Sections = append(report.Sections, domain.ReportSection{
			Kind:   domain.SectionCustomer,
			Title:  customer.Name,
			Phone:  customer.Phone,
			Label:  domain.BalanceLabel(balance),
			Amount: balance.Abs(),
			Rows:   rows,
		})
	}

	// Every entry belongs to a live customer, so the book total equals the
	// sum of all customer balances, settled ones included.
	totals, err := s.repo.SumLedgerEntries(ctx, nil)
	if err != nil {
		return domain.Report{}, err
	}
	report.Sections = append(report.Sections, domain.ReportSection{
		Kind:   domain.SectionGrandTotal,
		Title:  "Grand Total",
		Label:  domain.BalanceLabel(totals.Net),
		Amount: totals.Net.Abs(),
		Figures: []domain.ReportFigure{
			{Name: domain.FigureDebt, Amount: totals.Debt},
			{Name: domain.FigurePayment, Amount: totals.Payment},
		},
	})

	return report, nil
}

// BuildCashReport covers one month when year and month are both non-zero,
// otherwise the whole register. Summary and detail share one date window.
func (s *Service) BuildCashReport(ctx context.Context, year int, month int) (domain.Report, error) {
	var (
		summary domain.CashSummary
		window  domain.DateRange
		err     error
	)
	if year != 0 && month != 0 {
		summary, err = s.MonthlySummary(ctx, year, month)
		window = monthWindow(year, month)
	} else {
		summary, err = s.LifetimeSummary(ctx)
	}
	if err != nil {
		return domain.Report{}, err
	}

	entries, err := s.repo.ListCashEntries(ctx, window)
	if err != nil {
		return domain.Report{}, err
	}
	rows := make([]domain.ReportRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, domain.ReportRow{
			Date:        entry.Date,
			Kind:        string(entry.Kind),
			Amount:      entry.Amount,
			Description: entry.Description,
		})
	}

	return domain.Report{
		Type:        domain.ReportCash,
		Title:       cashReportTitle,
		Period:      summary.Period,
		GeneratedAt: s.now(),
		Sections: []domain.ReportSection{
			{
				Kind:   domain.SectionCashSummary,
				Title:  "Summary",
				Label:  summary.Label,
				Amount: summary.Net.Abs(),
				Figures: []domain.ReportFigure{
					{Name: domain.FigureRevenue, Amount: summary.Revenue},
					{Name: domain.FigureExpense, Amount: summary.Expense},
					{Name: domain.FigureNet, Amount: summary.Net},
				},
			},
			{
				Kind:  domain.SectionCashDetail,
				Title: "Entries",
				Rows:  rows,
			},
		},
	}, nil
}
