package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"esnafdefter/backend/internal/domain"
	"esnafdefter/backend/internal/store"
	"esnafdefter/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id BIGINT PRIMARY KEY,
			customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
			entry_date DATE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
			kind TEXT NOT NULL CHECK (kind IN ('DEBT','PAYMENT')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS ledger_entries_customer_idx ON ledger_entries (customer_id, entry_date DESC, id DESC)`,
		`CREATE TABLE IF NOT EXISTS cash_entries (
			id BIGINT PRIMARY KEY,
			entry_date DATE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
			kind TEXT NOT NULL CHECK (kind IN ('REVENUE','EXPENSE')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS cash_entries_date_idx ON cash_entries (entry_date DESC, id DESC)`,
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == 0 {
		customer.ID = xid.New()
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, note, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, int64(customer.ID), customer.Name, customer.Phone, customer.Note, customer.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) GetCustomer(ctx context.Context, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, note, created_at
		FROM customers
		WHERE id = $1
	`, int64(id)).Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.Note, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	customer.CreatedAt = customer.CreatedAt.UTC()
	return &customer, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, note, created_at
		FROM customers
		ORDER BY name COLLATE "C" ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Phone, &customer.Note, &customer.CreatedAt); err != nil {
			return nil, err
		}
		customer.CreatedAt = customer.CreatedAt.UTC()
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id snowflake.ID) error {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	// Entries go first so the cascade holds even on tables created without
	// the ON DELETE action.
	if _, err := pgTx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE customer_id = $1`, int64(id)); err != nil {
		return err
	}
	if _, err := pgTx.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, int64(id)); err != nil {
		return err
	}

	return pgTx.Commit()
}

func (s *Store) CreateLedgerEntry(ctx context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	if entry.ID == 0 {
		entry.ID = xid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, customer_id, entry_date, description, amount, kind, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, int64(entry.ID), int64(entry.CustomerID), entry.Date, entry.Description, entry.Amount, string(entry.Kind), entry.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrCustomerNotFound
		}
		return nil, err
	}

	created := entry
	return &created, nil
}

func (s *Store) ListLedgerEntries(ctx context.Context, customerID snowflake.ID) ([]domain.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, entry_date, description, amount, kind, created_at
		FROM ledger_entries
		WHERE customer_id = $1
		ORDER BY entry_date DESC, id DESC
	`, int64(customerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0, 32)
	for rows.Next() {
		var entry domain.LedgerEntry
		var kind string
		if err := rows.Scan(&entry.ID, &entry.CustomerID, &entry.Date, &entry.Description, &entry.Amount, &kind, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Kind = domain.LedgerKind(kind)
		entry.Date = dateUTC(entry.Date)
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) SumLedgerEntries(ctx context.Context, customerID *snowflake.ID) (domain.LedgerTotals, error) {
	var totals domain.LedgerTotals
	var filter any
	if customerID != nil {
		filter = int64(*customerID)
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN kind = 'DEBT' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN kind = 'PAYMENT' THEN amount END), 0)
		FROM ledger_entries
		WHERE ($1::bigint IS NULL OR customer_id = $1)
	`, filter).Scan(&totals.Debt, &totals.Payment)
	if err != nil {
		return totals, err
	}
	totals.Net = totals.Debt.Sub(totals.Payment)
	return totals, nil
}

func (s *Store) DeleteLedgerEntry(ctx context.Context, id snowflake.ID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = $1`, int64(id))
	return err
}

func (s *Store) CreateCashEntry(ctx context.Context, entry domain.CashEntry) (*domain.CashEntry, error) {
	if entry.ID == 0 {
		entry.ID = xid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cash_entries (id, entry_date, description, amount, kind, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, int64(entry.ID), entry.Date, entry.Description, entry.Amount, string(entry.Kind), entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := entry
	return &created, nil
}

func (s *Store) ListCashEntries(ctx context.Context, window domain.DateRange) ([]domain.CashEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_date, description, amount, kind, created_at
		FROM cash_entries
		WHERE ($1::date IS NULL OR entry_date >= $1)
			AND ($2::date IS NULL OR entry_date < $2)
		ORDER BY entry_date DESC, id DESC
	`, nullDate(window.From), nullDate(window.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.CashEntry, 0, 64)
	for rows.Next() {
		var entry domain.CashEntry
		var kind string
		if err := rows.Scan(&entry.ID, &entry.Date, &entry.Description, &entry.Amount, &kind, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Kind = domain.CashKind(kind)
		entry.Date = dateUTC(entry.Date)
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) SumCashEntries(ctx context.Context, window domain.DateRange) (domain.CashSummary, error) {
	var summary domain.CashSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN kind = 'REVENUE' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN kind = 'EXPENSE' THEN amount END), 0)
		FROM cash_entries
		WHERE ($1::date IS NULL OR entry_date >= $1)
			AND ($2::date IS NULL OR entry_date < $2)
	`, nullDate(window.From), nullDate(window.To)).Scan(&summary.Revenue, &summary.Expense)
	if err != nil {
		return summary, err
	}
	summary.Net = summary.Revenue.Sub(summary.Expense)
	return summary, nil
}

func (s *Store) DeleteCashEntry(ctx context.Context, id snowflake.ID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cash_entries WHERE id = $1`, int64(id))
	return err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func dateUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nullDate(val *time.Time) any {
	if val == nil {
		return nil
	}
	return dateUTC(*val)
}

var _ store.Repository = (*Store)(nil)
