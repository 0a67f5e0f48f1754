package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"esnafdefter/backend/internal/domain"
	"esnafdefter/backend/internal/events"
	"esnafdefter/backend/internal/validate"
)

func (s *Service) AddCashEntry(ctx context.Context, req domain.CashEntryCreateRequest) (domain.CashEntry, error) {
	date, err := validate.Date(req.Date)
	if err != nil {
		return domain.CashEntry{}, err
	}
	amount, err := validate.Amount(req.Amount)
	if err != nil {
		return domain.CashEntry{}, err
	}
	if !req.Kind.Valid() {
		return domain.CashEntry{}, validate.ErrInvalidKind
	}

	created, err := s.repo.CreateCashEntry(ctx, domain.CashEntry{
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		Amount:      amount,
		Kind:        req.Kind,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return domain.CashEntry{}, err
	}

	s.logger.Info("cash entry recorded",
		zap.String("entry_id", created.ID.String()),
		zap.String("kind", string(created.Kind)),
		zap.String("amount", created.Amount.StringFixed(2)),
	)
	s.publish(ctx, events.CashEntryRecorded, created.ID.String(), created)
	return *created, nil
}

// ListCashEntries returns every entry, or only those on dateText when it is
// not blank.
func (s *Service) ListCashEntries(ctx context.Context, dateText string) ([]domain.CashEntry, error) {
	if strings.TrimSpace(dateText) == "" {
		return s.repo.ListCashEntries(ctx, domain.DateRange{})
	}
	day, err := validate.Date(dateText)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCashEntries(ctx, domain.DayRange(day))
}

func (s *Service) DeleteCashEntry(ctx context.Context, id snowflake.ID) error {
	if err := s.repo.DeleteCashEntry(ctx, id); err != nil {
		return err
	}

	s.logger.Info("cash entry deleted", zap.String("entry_id", id.String()))
	s.publish(ctx, events.CashEntryDeleted, id.String(), nil)
	return nil
}

func (s *Service) DailySummary(ctx context.Context, dateText string) (domain.CashSummary, error) {
	day, err := validate.Date(dateText)
	if err != nil {
		return domain.CashSummary{}, err
	}
	return s.summarize(ctx, domain.DayRange(day), day.Format(validate.DateLayout))
}

func (s *Service) MonthlySummary(ctx context.Context, year int, month int) (domain.CashSummary, error) {
	if err := validate.Month(year, month); err != nil {
		return domain.CashSummary{}, err
	}
	return s.summarize(ctx, domain.MonthRange(year, time.Month(month)), monthPeriod(year, month))
}

func (s *Service) LifetimeSummary(ctx context.Context) (domain.CashSummary, error) {
	return s.summarize(ctx, domain.DateRange{}, domain.PeriodAll)
}

func (s *Service) summarize(ctx context.Context, window domain.DateRange, period string) (domain.CashSummary, error) {
	summary, err := s.repo.SumCashEntries(ctx, window)
	if err != nil {
		return domain.CashSummary{}, err
	}
	summary.Period = period
	summary.Label = domain.NetLabel(summary.Net)
	return summary, nil
}

func monthPeriod(year int, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func monthWindow(year int, month int) domain.DateRange {
	return domain.MonthRange(year, time.Month(month))
}
