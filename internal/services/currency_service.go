// Package services orchestrates the aggregation engine across storage, the
// rate provider, AMQP and the export backends.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"moneta/internal/core"
	"moneta/internal/finance"
	"moneta/internal/rates"
	"moneta/internal/storage"
)

// CurrencyService manages the per-user currency ledger and its exchange
// rates.
type CurrencyService struct {
	storage *storage.SQLiteRepository
	source  rates.Source
}

func NewCurrencyService(st *storage.SQLiteRepository, source rates.Source) *CurrencyService {
	return &CurrencyService{storage: st, source: source}
}

func (s *CurrencyService) List(ctx context.Context, userID int64) ([]core.Currency, error) {
	return s.storage.ListCurrencies(ctx, userID)
}

func (s *CurrencyService) Create(ctx context.Context, c core.Currency) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, fmt.Errorf("validate currency: %w", err)
	}
	return s.storage.CreateCurrency(ctx, c)
}

func (s *CurrencyService) Delete(ctx context.Context, userID, currencyID int64) error {
	return s.storage.DeleteCurrency(ctx, userID, currencyID)
}

// SetDefault makes the given currency the user's base. The flag move and the
// rate reset happen atomically in storage.
func (s *CurrencyService) SetDefault(ctx context.Context, userID, currencyID int64) error {
	if err := s.storage.SetDefaultCurrency(ctx, userID, currencyID); err != nil {
		return fmt.Errorf("set default currency: %w", err)
	}
	slog.InfoContext(ctx, "Default currency changed", "user_id", userID, "currency_id", currencyID)
	return nil
}

// RefreshRates fetches fresh rates quoted against the user's base currency
// and merges them into the ledger. On provider failure the stored rates stay
// untouched and the error is returned.
func (s *CurrencyService) RefreshRates(ctx context.Context, userID int64) (int, error) {
	if s.source == nil {
		return 0, fmt.Errorf("no rate provider configured")
	}

	currencies, err := s.storage.ListCurrencies(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list currencies: %w", err)
	}
	table := finance.NewTable(currencies)
	base := table.Base()
	if base == "" {
		return 0, fmt.Errorf("user has no currencies")
	}

	fetched, err := s.source.FetchRates(ctx, base)
	if err != nil {
		return 0, fmt.Errorf("fetch rates: %w", err)
	}

	updated, err := s.storage.UpdateRates(ctx, userID, fetched)
	if err != nil {
		return 0, fmt.Errorf("store rates: %w", err)
	}

	slog.InfoContext(ctx, "Exchange rates refreshed",
		"user_id", userID, "base_currency", base, "updated", updated)
	return updated, nil
}

// Table loads the user's currencies as a conversion table.
func (s *CurrencyService) Table(ctx context.Context, userID int64) (*finance.Table, error) {
	currencies, err := s.storage.ListCurrencies(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	return finance.NewTable(currencies), nil
}
