package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"esnafdefter/backend/internal/domain"
)

func TestDeleteCustomerRemovesLedgerEntries(t *testing.T) {
	databaseURL := os.Getenv("ESNAFDEFTER_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set ESNAFDEFTER_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	customer, err := s.CreateCustomer(ctx, domain.Customer{Name: fmt.Sprintf("IT Musteri %d", time.Now().UnixNano())})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE customer_id = $1`, int64(customer.ID))
		_, _ = s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, int64(customer.ID))
	})

	date := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	for _, entry := range []domain.LedgerEntry{
		{CustomerID: customer.ID, Date: date, Amount: decimal.RequireFromString("1000"), Kind: domain.KindDebt},
		{CustomerID: customer.ID, Date: date.AddDate(0, 0, 5), Amount: decimal.RequireFromString("300.25"), Kind: domain.KindPayment},
	} {
		if _, err := s.CreateLedgerEntry(ctx, entry); err != nil {
			t.Fatalf("create ledger entry: %v", err)
		}
	}

	totals, err := s.SumLedgerEntries(ctx, &customer.ID)
	if err != nil {
		t.Fatalf("sum ledger entries: %v", err)
	}
	if !totals.Net.Equal(decimal.RequireFromString("699.75")) {
		t.Fatalf("expected net 699.75, got %s", totals.Net)
	}

	if err := s.DeleteCustomer(ctx, customer.ID); err != nil {
		t.Fatalf("delete customer: %v", err)
	}

	var remaining int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM ledger_entries
		WHERE customer_id = $1
	`, int64(customer.ID)).Scan(&remaining); err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected no entries after cascade, got %d", remaining)
	}
}

func TestSumCashEntriesMonthWindow(t *testing.T) {
	databaseURL := os.Getenv("ESNAFDEFTER_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set ESNAFDEFTER_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// A far-future year keeps the window clear of other rows.
	year := 2900 + int(time.Now().UnixNano()%90)
	created := make([]int64, 0, 3)
	for _, entry := range []domain.CashEntry{
		{Date: time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("500"), Kind: domain.KindRevenue},
		{Date: time.Date(year, time.December, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("200"), Kind: domain.KindExpense},
		{Date: time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("999"), Kind: domain.KindRevenue},
	} {
		saved, err := s.CreateCashEntry(ctx, entry)
		if err != nil {
			t.Fatalf("create cash entry: %v", err)
		}
		created = append(created, int64(saved.ID))
	}
	t.Cleanup(func() {
		for _, id := range created {
			_, _ = s.db.ExecContext(ctx, `DELETE FROM cash_entries WHERE id = $1`, id)
		}
	})

	summary, err := s.SumCashEntries(ctx, domain.MonthRange(year, time.December))
	if err != nil {
		t.Fatalf("sum cash entries: %v", err)
	}
	if !summary.Revenue.Equal(decimal.RequireFromString("500")) || !summary.Expense.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("unexpected December summary %+v", summary)
	}
}
