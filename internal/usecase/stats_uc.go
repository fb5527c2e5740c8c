package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	// Totals returns account count and voucher counts keyed by status.
	Totals(ctx context.Context) (accounts int, vouchersByStatus map[string]int, err error)
	// Revenue returns completed payment totals keyed by method.
	Revenue(ctx context.Context) (map[string]int64, error)
}

type statsUC struct {
	accounts     repository.AccountRepository
	vouchers     repository.VoucherRepository
	transactions repository.TransactionRepository

	log *zerolog.Logger
}

func NewStatsUseCase(accounts repository.AccountRepository, vouchers repository.VoucherRepository, transactions repository.TransactionRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{accounts: accounts, vouchers: vouchers, transactions: transactions, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (int, map[string]int, error) {
	accounts, err := s.accounts.CountAccounts(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, err
	}
	byStatus, err := s.vouchers.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, err
	}
	return accounts, byStatus, nil
}

func (s *statsUC) Revenue(ctx context.Context) (map[string]int64, error) {
	return s.transactions.SumCompletedByMethod(ctx, repository.NoTX)
}
