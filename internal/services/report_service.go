package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moneta/internal/cache"
	"moneta/internal/core"
	"moneta/internal/finance"
	"moneta/internal/storage"
)

// ReportService builds reports from the full ledger, caching the result per
// user and option set.
type ReportService struct {
	storage *storage.SQLiteRepository
	cache   *cache.LRU[finance.Report]
}

func NewReportService(st *storage.SQLiteRepository, cacheSize int, cacheTTL time.Duration) *ReportService {
	return &ReportService{
		storage: st,
		cache:   cache.NewLRU[finance.Report](cacheSize, cacheTTL),
	}
}

// Build assembles the report for the given options, serving from cache when
// possible.
func (s *ReportService) Build(ctx context.Context, userID int64, opts finance.ReportOptions) (finance.Report, error) {
	key := cacheKey(userID, opts)
	if rep, ok := s.cache.Get(key); ok {
		slog.DebugContext(ctx, "Report served from cache", "user_id", userID, "key", key)
		return rep, nil
	}

	currencies, err := s.storage.ListCurrencies(ctx, userID)
	if err != nil {
		return finance.Report{}, fmt.Errorf("list currencies: %w", err)
	}
	txs, err := s.storage.ListTransactions(ctx, userID)
	if err != nil {
		return finance.Report{}, fmt.Errorf("list transactions: %w", err)
	}
	categories, err := s.storage.ListCategories(ctx, userID)
	if err != nil {
		return finance.Report{}, fmt.Errorf("list categories: %w", err)
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	var diag finance.Diagnostics
	rep := finance.BuildReport(opts, txs, names, finance.NewTable(currencies), &diag)

	if n := len(rep.Anomalies); n > 0 {
		slog.WarnContext(ctx, "Report built with conversion anomalies",
			"user_id", userID, "anomalies", n)
	}
	s.cache.Set(key, rep)
	return rep, nil
}

// Invalidate drops cached reports after a write. The cache is keyed per user
// and option set but small, so dropping everything is cheaper than tracking
// which keys a write touched.
func (s *ReportService) Invalidate() {
	s.cache.Clear()
}

func cacheKey(userID int64, opts finance.ReportOptions) string {
	return fmt.Sprintf("%d|%d|%d|%s|%s",
		userID, opts.Period.Year, opts.Period.Month, opts.DisplayCurrency, opts.GroupBy)
}

// BalanceOverview is the per-account and total balance response.
type BalanceOverview struct {
	Accounts []AccountWithBalance
	Total    finance.BalanceSummary
}

type AccountWithBalance struct {
	Account core.Account
	Balance finance.BalanceSummary
}

// Balances computes every account balance plus the global total in the
// user's base currency. Per-account figures use the account's own currency.
func (s *ReportService) Balances(ctx context.Context, userID int64) (BalanceOverview, []finance.Anomaly, error) {
	currencies, err := s.storage.ListCurrencies(ctx, userID)
	if err != nil {
		return BalanceOverview{}, nil, fmt.Errorf("list currencies: %w", err)
	}
	txs, err := s.storage.ListTransactions(ctx, userID)
	if err != nil {
		return BalanceOverview{}, nil, fmt.Errorf("list transactions: %w", err)
	}
	accounts, err := s.storage.ListAccounts(ctx, userID)
	if err != nil {
		return BalanceOverview{}, nil, fmt.Errorf("list accounts: %w", err)
	}

	table := finance.NewTable(currencies)
	var diag finance.Diagnostics

	out := BalanceOverview{}
	for _, a := range accounts {
		out.Accounts = append(out.Accounts, AccountWithBalance{
			Account: a,
			Balance: finance.AccountBalance(a.ID, txs, table, a.Currency, &diag),
		})
	}
	out.Total = finance.BalanceSummary{
		Balance:          finance.TotalBalance(txs, table, "", &diag),
		TransactionCount: len(txs),
		Currency:         table.Base(),
	}
	return out, diag.Anomalies(), nil
}
