// Package sqlite keeps the ledger in a single local database file, the way
// the desktop deployment of the shop book has always stored it.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"esnafdefter/backend/internal/domain"
	"esnafdefter/backend/internal/store"
	"esnafdefter/backend/internal/xid"
)

const dateLayout = "2006-01-02"

// Dates and amounts are kept as text: dates sort lexicographically and
// amounts keep their exact decimal form.
type customerRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"type:text;not null;index"`
	Phone     string    `gorm:"type:text;not null;default:''"`
	Note      string    `gorm:"type:text;not null;default:''"`
	CreatedAt time.Time `gorm:"not null"`
}

func (customerRow) TableName() string { return "customers" }

type ledgerEntryRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false"`
	CustomerID  int64     `gorm:"not null;index"`
	EntryDate   string    `gorm:"type:text;not null;index"`
	Description string    `gorm:"type:text;not null;default:''"`
	Amount      string    `gorm:"type:text;not null"`
	Kind        string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (ledgerEntryRow) TableName() string { return "ledger_entries" }

type cashEntryRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false"`
	EntryDate   string    `gorm:"type:text;not null;index"`
	Description string    `gorm:"type:text;not null;default:''"`
	Amount      string    `gorm:"type:text;not null"`
	Kind        string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (cashEntryRow) TableName() string { return "cash_entries" }

type Store struct {
	db *gorm.DB
}

// New opens (or creates) the database at path. ":memory:" style DSNs work
// for tests.
func New(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&customerRow{}, &ledgerEntryRow{}, &cashEntryRow{})
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == 0 {
		customer.ID = xid.New()
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	row := customerRow{
		ID:        int64(customer.ID),
		Name:      customer.Name,
		Phone:     customer.Phone,
		Note:      customer.Note,
		CreatedAt: customer.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) GetCustomer(ctx context.Context, id snowflake.ID) (*domain.Customer, error) {
	var row customerRow
	err := s.db.WithContext(ctx).Where("id = ?", int64(id)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	customer := row.toDomain()
	return &customer, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	var rows []customerRow
	if err := s.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	customers := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, row.toDomain())
	}
	return customers, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", int64(id)).Delete(&ledgerEntryRow{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", int64(id)).Delete(&customerRow{}).Error
	})
}

func (s *Store) CreateLedgerEntry(ctx context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	if entry.ID == 0 {
		entry.ID = xid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	row := ledgerEntryRow{
		ID:          int64(entry.ID),
		CustomerID:  int64(entry.CustomerID),
		EntryDate:   entry.Date.Format(dateLayout),
		Description: entry.Description,
		Amount:      entry.Amount.String(),
		Kind:        string(entry.Kind),
		CreatedAt:   entry.CreatedAt,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := tx.Model(&customerRow{}).Where("id = ?", row.CustomerID).Count(&owners).Error; err != nil {
			return err
		}
		if owners == 0 {
			return store.ErrCustomerNotFound
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}

	created := entry
	return &created, nil
}

func (s *Store) ListLedgerEntries(ctx context.Context, customerID snowflake.ID) ([]domain.LedgerEntry, error) {
	var rows []ledgerEntryRow
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", int64(customerID)).
		Order("entry_date DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) SumLedgerEntries(ctx context.Context, customerID *snowflake.ID) (domain.LedgerTotals, error) {
	totals := domain.LedgerTotals{Debt: decimal.Zero, Payment: decimal.Zero, Net: decimal.Zero}

	query := s.db.WithContext(ctx).Model(&ledgerEntryRow{})
	if customerID != nil {
		query = query.Where("customer_id = ?", int64(*customerID))
	}
	var rows []ledgerEntryRow
	if err := query.Select("amount", "kind").Find(&rows).Error; err != nil {
		return totals, err
	}

	// SQLite sums text amounts as floats, so the totals are added here.
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return totals, fmt.Errorf("ledger amount %q: %w", row.Amount, err)
		}
		switch domain.LedgerKind(row.Kind) {
		case domain.KindDebt:
			totals.Debt = totals.Debt.Add(amount)
		case domain.KindPayment:
			totals.Payment = totals.Payment.Add(amount)
		}
	}
	totals.Net = totals.Debt.Sub(totals.Payment)
	return totals, nil
}

func (s *Store) DeleteLedgerEntry(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Where("id = ?", int64(id)).Delete(&ledgerEntryRow{}).Error
}

func (s *Store) CreateCashEntry(ctx context.Context, entry domain.CashEntry) (*domain.CashEntry, error) {
	if entry.ID == 0 {
		entry.ID = xid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	row := cashEntryRow{
		ID:          int64(entry.ID),
		EntryDate:   entry.Date.Format(dateLayout),
		Description: entry.Description,
		Amount:      entry.Amount.String(),
		Kind:        string(entry.Kind),
		CreatedAt:   entry.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}

	created := entry
	return &created, nil
}

func (s *Store) ListCashEntries(ctx context.Context, window domain.DateRange) ([]domain.CashEntry, error) {
	var rows []cashEntryRow
	err := s.windowed(ctx, window).Order("entry_date DESC").Order("id DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.CashEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) SumCashEntries(ctx context.Context, window domain.DateRange) (domain.CashSummary, error) {
	summary := domain.CashSummary{Revenue: decimal.Zero, Expense: decimal.Zero, Net: decimal.Zero}

	var rows []cashEntryRow
	if err := s.windowed(ctx, window).Select("amount", "kind").Find(&rows).Error; err != nil {
		return summary, err
	}
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return summary, fmt.Errorf("cash amount %q: %w", row.Amount, err)
		}
		switch domain.CashKind(row.Kind) {
		case domain.KindRevenue:
			summary.Revenue = summary.Revenue.Add(amount)
		case domain.KindExpense:
			summary.Expense = summary.Expense.Add(amount)
		}
	}
	summary.Net = summary.Revenue.Sub(summary.Expense)
	return summary, nil
}

func (s *Store) DeleteCashEntry(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Where("id = ?", int64(id)).Delete(&cashEntryRow{}).Error
}

func (s *Store) windowed(ctx context.Context, window domain.DateRange) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&cashEntryRow{})
	if window.From != nil {
		query = query.Where("entry_date >= ?", window.From.Format(dateLayout))
	}
	// Dates compare as text, so a bound past year 9999 would sort before
	// every stored date; no stored date can reach it anyway.
	if window.To != nil && window.To.Year() <= 9999 {
		query = query.Where("entry_date < ?", window.To.Format(dateLayout))
	}
	return query
}

func (r customerRow) toDomain() domain.Customer {
	return domain.Customer{
		ID:        snowflake.ID(r.ID),
		Name:      r.Name,
		Phone:     r.Phone,
		Note:      r.Note,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (r ledgerEntryRow) toDomain() (domain.LedgerEntry, error) {
	date, amount, err := decodeDateAmount(r.EntryDate, r.Amount)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("ledger entry %d: %w", r.ID, err)
	}
	return domain.LedgerEntry{
		ID:          snowflake.ID(r.ID),
		CustomerID:  snowflake.ID(r.CustomerID),
		Date:        date,
		Description: r.Description,
		Amount:      amount,
		Kind:        domain.LedgerKind(r.Kind),
		CreatedAt:   r.CreatedAt.UTC(),
	}, nil
}

func (r cashEntryRow) toDomain() (domain.CashEntry, error) {
	date, amount, err := decodeDateAmount(r.EntryDate, r.Amount)
	if err != nil {
		return domain.CashEntry{}, fmt.Errorf("cash entry %d: %w", r.ID, err)
	}
	return domain.CashEntry{
		ID:          snowflake.ID(r.ID),
		Date:        date,
		Description: r.Description,
		Amount:      amount,
		Kind:        domain.CashKind(r.Kind),
		CreatedAt:   r.CreatedAt.UTC(),
	}, nil
}

func decodeDateAmount(rawDate string, rawAmount string) (time.Time, decimal.Decimal, error) {
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return time.Time{}, decimal.Zero, err
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return time.Time{}, decimal.Zero, err
	}
	return date, amount, nil
}

var _ store.Repository = (*Store)(nil)
