package store

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	"esnafdefter/backend/internal/domain"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

// Repository is the persistence collaborator. Implementations turn rows into
// typed records at this boundary and never return partially applied writes.
type Repository interface {
	// Migrate creates the customers, ledger_entries and cash_entries tables
	// when they are absent.
	Migrate(ctx context.Context) error

	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id snowflake.ID) (*domain.Customer, error)
	// ListCustomers orders by name ascending with byte-wise collation.
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	// DeleteCustomer removes the customer and all of its ledger entries as one
	// unit. A missing id is not an error.
	DeleteCustomer(ctx context.Context, id snowflake.ID) error

	CreateLedgerEntry(ctx context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error)
	// ListLedgerEntries orders by date descending, then id descending.
	ListLedgerEntries(ctx context.Context, customerID snowflake.ID) ([]domain.LedgerEntry, error)
	// SumLedgerEntries totals one customer's entries, or every entry when
	// customerID is nil.
	SumLedgerEntries(ctx context.Context, customerID *snowflake.ID) (domain.LedgerTotals, error)
	DeleteLedgerEntry(ctx context.Context, id snowflake.ID) error

	CreateCashEntry(ctx context.Context, entry domain.CashEntry) (*domain.CashEntry, error)
	// ListCashEntries orders by date descending, then id descending.
	ListCashEntries(ctx context.Context, window domain.DateRange) ([]domain.CashEntry, error)
	SumCashEntries(ctx context.Context, window domain.DateRange) (domain.CashSummary, error)
	DeleteCashEntry(ctx context.Context, id snowflake.ID) error
}
