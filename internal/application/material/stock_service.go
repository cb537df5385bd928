package material

import (
	"context"

	"github.com/mes/backend/internal/domain/material"
	"github.com/mes/backend/internal/domain/shared"
)

// StockService answers stock queries
type StockService struct {
	stocks       material.MatStockRepository
	transactions material.MatTransactionRepository
}

// NewStockService creates a new StockService
func NewStockService(stocks material.MatStockRepository, transactions material.MatTransactionRepository) *StockService {
	return &StockService{stocks: stocks, transactions: transactions}
}

// List returns a page of stock rows; warehouse_id, part_id and lot_id go through filter
func (s *StockService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[material.MatStock], error) {
	items, total, err := s.stocks.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[material.MatStock]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// Summary totals on-hand stock per part
func (s *StockService) Summary(ctx context.Context, actor shared.Actor, filter shared.Filter) ([]material.StockSummary, error) {
	rows, err := s.stocks.Summary(ctx, actor, filter.Normalized())
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []material.StockSummary{}
	}
	return rows, nil
}

// Shortages returns the parts whose available stock is below their safety stock
func (s *StockService) Shortages(ctx context.Context, actor shared.Actor) ([]material.StockSummary, error) {
	rows, err := s.Summary(ctx, actor, shared.Filter{})
	if err != nil {
		return nil, err
	}
	out := []material.StockSummary{}
	for _, r := range rows {
		if r.BelowSafety() {
			out = append(out, r)
		}
	}
	return out, nil
}

// Transactions returns a page of stock movements
func (s *StockService) Transactions(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[material.MatTransaction], error) {
	items, total, err := s.transactions.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[material.MatTransaction]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}
