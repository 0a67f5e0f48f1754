package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"esnafdefter/backend/internal/domain"
	"esnafdefter/backend/internal/events"
	"esnafdefter/backend/internal/validate"
)

func (s *Service) AddLedgerEntry(ctx context.Context, req domain.LedgerEntryCreateRequest) (domain.LedgerEntry, error) {
	date, err := validate.Date(req.Date)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	amount, err := validate.Amount(req.Amount)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	if !req.Kind.Valid() {
		return domain.LedgerEntry{}, validate.ErrInvalidKind
	}

	created, err := s.repo.CreateLedgerEntry(ctx, domain.LedgerEntry{
		CustomerID:  req.CustomerID,
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		Amount:      amount,
		Kind:        req.Kind,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	s.logger.Info("ledger entry recorded",
		zap.String("entry_id", created.ID.String()),
		zap.String("customer_id", created.CustomerID.String()),
		zap.String("kind", string(created.Kind)),
		zap.String("amount", created.Amount.StringFixed(2)),
	)
	s.publish(ctx, events.LedgerEntryRecorded, created.ID.String(), created)
	return *created, nil
}

// ListLedgerEntries returns newest first. An unknown customer has no entries.
func (s *Service) ListLedgerEntries(ctx context.Context, customerID snowflake.ID) ([]domain.LedgerEntry, error) {
	return s.repo.ListLedgerEntries(ctx, customerID)
}

func (s *Service) DeleteLedgerEntry(ctx context.Context, id snowflake.ID) error {
	if err := s.repo.DeleteLedgerEntry(ctx, id); err != nil {
		return err
	}

	s.logger.Info("ledger entry deleted", zap.String("entry_id", id.String()))
	s.publish(ctx, events.LedgerEntryDeleted, id.String(), nil)
	return nil
}

// AggregateTotals sums every ledger entry of every customer.
func (s *Service) AggregateTotals(ctx context.Context) (domain.LedgerTotals, error) {
	return s.repo.SumLedgerEntries(ctx, nil)
}
