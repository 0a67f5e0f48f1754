package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"esnafdefter/backend/internal/domain"
	"esnafdefter/backend/internal/store"
	"esnafdefter/backend/internal/xid"
)

type Store struct {
	mu            sync.RWMutex
	customersByID map[snowflake.ID]domain.Customer
	ledgerByID    map[snowflake.ID]domain.LedgerEntry
	cashByID      map[snowflake.ID]domain.CashEntry
}

func New() *Store {
	return &Store{
		customersByID: make(map[snowflake.ID]domain.Customer),
		ledgerByID:    make(map[snowflake.ID]domain.LedgerEntry),
		cashByID:      make(map[snowflake.ID]domain.CashEntry),
	}
}

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == 0 {
		customer.ID = xid.New()
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	s.customersByID[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) GetCustomer(_ context.Context, id snowflake.ID) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByID))
	for _, customer := range s.customersByID {
		customers = append(customers, customer)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		if a.Name == b.Name {
			return cmpID(a.ID, b.ID)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for entryID, entry := range s.ledgerByID {
		if entry.CustomerID == id {
			delete(s.ledgerByID, entryID)
		}
	}
	delete(s.customersByID, id)
	return nil
}

func (s *Store) CreateLedgerEntry(_ context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customersByID[entry.CustomerID]; !exists {
		return nil, store.ErrCustomerNotFound
	}
	if entry.ID == 0 {
		entry.ID = xid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.ledgerByID[entry.ID] = entry
	created := entry
	return &created, nil
}

func (s *Store) ListLedgerEntries(_ context.Context, customerID snowflake.ID) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.LedgerEntry, 0, 16)
	for _, entry := range s.ledgerByID {
		if entry.CustomerID == customerID {
			entries = append(entries, entry)
		}
	}
	slices.SortFunc(entries, func(a, b domain.LedgerEntry) int {
		return newestFirst(a.Date, a.ID, b.Date, b.ID)
	})
	return entries, nil
}

func (s *Store) SumLedgerEntries(_ context.Context, customerID *snowflake.ID) (domain.LedgerTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	debt, payment := decimal.Zero, decimal.Zero
	for _, entry := range s.ledgerByID {
		if customerID != nil && entry.CustomerID != *customerID {
			continue
		}
		switch entry.Kind {
		case domain.KindDebt:
			debt = debt.Add(entry.Amount)
		case domain.KindPayment:
			payment = payment.Add(entry.Amount)
		}
	}
	return domain.LedgerTotals{Debt: debt, Payment: payment, Net: debt.Sub(payment)}, nil
}

func (s *Store) DeleteLedgerEntry(_ context.Context, id snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.ledgerByID, id)
	return nil
}

func (s *Store) CreateCashEntry(_ context.Context, entry domain.CashEntry) (*domain.CashEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == 0 {
		entry.ID = xid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.cashByID[entry.ID] = entry
	created := entry
	return &created, nil
}

func (s *Store) ListCashEntries(_ context.Context, window domain.DateRange) ([]domain.CashEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.CashEntry, 0, 32)
	for _, entry := range s.cashByID {
		if window.Contains(entry.Date) {
			entries = append(entries, entry)
		}
	}
	slices.SortFunc(entries, func(a, b domain.CashEntry) int {
		return newestFirst(a.Date, a.ID, b.Date, b.ID)
	})
	return entries, nil
}

func (s *Store) SumCashEntries(_ context.Context, window domain.DateRange) (domain.CashSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revenue, expense := decimal.Zero, decimal.Zero
	for _, entry := range s.cashByID {
		if !window.Contains(entry.Date) {
			continue
		}
		switch entry.Kind {
		case domain.KindRevenue:
			revenue = revenue.Add(entry.Amount)
		case domain.KindExpense:
			expense = expense.Add(entry.Amount)
		}
	}
	return domain.CashSummary{Revenue: revenue, Expense: expense, Net: revenue.Sub(expense)}, nil
}

func (s *Store) DeleteCashEntry(_ context.Context, id snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cashByID, id)
	return nil
}

// newestFirst orders by date descending, then by id descending.
func newestFirst(aDate time.Time, aID snowflake.ID, bDate time.Time, bID snowflake.ID) int {
	if !aDate.Equal(bDate) {
		if aDate.After(bDate) {
			return -1
		}
		return 1
	}
	return cmpID(bID, aID)
}

func cmpID(a snowflake.ID, b snowflake.ID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

var _ store.Repository = (*Store)(nil)
