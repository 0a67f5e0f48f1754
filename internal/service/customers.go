package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"esnafdefter/backend/internal/domain"
	"esnafdefter/backend/internal/events"
	"esnafdefter/backend/internal/store"
	"esnafdefter/backend/internal/validate"
)

func (s *Service) AddCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	name, err := validate.Name(req.Name)
	if err != nil {
		return domain.Customer{}, err
	}

	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		Name:      name,
		Phone:     strings.TrimSpace(req.Phone),
		Note:      strings.TrimSpace(req.Note),
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.Customer{}, err
	}

	s.logger.Info("customer added", zap.String("customer_id", created.ID.String()), zap.String("name", created.Name))
	s.publish(ctx, events.CustomerCreated, created.ID.String(), created)
	return *created, nil
}

func (s *Service) GetCustomer(ctx context.Context, id snowflake.ID) (domain.Customer, error) {
	customer, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Customer{}, store.ErrCustomerNotFound
		}
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// ListCustomerBalances is the customer list as the shop sees it: every
// customer in name order with the current balance.
func (s *Service) ListCustomerBalances(ctx context.Context) ([]domain.CustomerBalance, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}

	balances := make([]domain.CustomerBalance, 0, len(customers))
	for _, customer := range customers {
		balance, err := s.Balance(ctx, customer.ID)
		if err != nil {
			return nil, err
		}
		balances = append(balances, domain.CustomerBalance{
			Customer: customer,
			Balance:  balance,
			Label:    domain.BalanceLabel(balance),
		})
	}
	return balances, nil
}

func (s *Service) CustomerDetail(ctx context.Context, id snowflake.ID) (domain.CustomerDetailResponse, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return domain.CustomerDetailResponse{}, err
	}
	balance, err := s.Balance(ctx, id)
	if err != nil {
		return domain.CustomerDetailResponse{}, err
	}
	entries, err := s.repo.ListLedgerEntries(ctx, id)
	if err != nil {
		return domain.CustomerDetailResponse{}, err
	}

	return domain.CustomerDetailResponse{
		Customer: customer,
		Balance:  balance,
		Label:    domain.BalanceLabel(balance),
		Entries:  entries,
	}, nil
}

// DeleteCustomer removes the customer together with its ledger entries.
// Deleting an unknown id succeeds without doing anything.
func (s *Service) DeleteCustomer(ctx context.Context, id snowflake.ID) error {
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return err
	}

	s.logger.Info("customer deleted", zap.String("customer_id", id.String()))
	s.publish(ctx, events.CustomerDeleted, id.String(), nil)
	return nil
}

// Balance is debts minus payments; positive means the customer owes the
// business.
func (s *Service) Balance(ctx context.Context, id snowflake.ID) (decimal.Decimal, error) {
	totals, err := s.repo.SumLedgerEntries(ctx, &id)
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Net, nil
}
