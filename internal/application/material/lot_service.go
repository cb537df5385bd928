package material

import (
	"context"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/material"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LotService reads lots and records IQC verdicts and holds
type LotService struct {
	lots   material.MatLotRepository
	stocks material.MatStockRepository
}

// NewLotService creates a new LotService
func NewLotService(lots material.MatLotRepository, stocks material.MatStockRepository) *LotService {
	return &LotService{lots: lots, stocks: stocks}
}

// List returns a page of lots
func (s *LotService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[material.MatLot], error) {
	items, total, err := s.lots.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[material.MatLot]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one lot
func (s *LotService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*material.MatLot, error) {
	return s.lots.FindByID(ctx, actor, id)
}

// GetByLotNo looks a lot up by a scanned or typed lot number
func (s *LotService) GetByLotNo(ctx context.Context, actor shared.Actor, lotNo string) (*material.MatLot, error) {
	return s.lots.FindOne(ctx, actor, shared.Conds{"lot_no": shared.NormalizeScan(lotNo)})
}

// Stocks returns the stock rows holding the lot
func (s *LotService) Stocks(ctx context.Context, actor shared.Actor, id uuid.UUID) ([]material.MatStock, error) {
	return s.stocks.FindByLot(ctx, actor, id)
}

// UpdateIqc records the incoming inspection verdict of a lot
func (s *LotService) UpdateIqc(ctx context.Context, actor shared.Actor, id uuid.UUID, req IqcRequest) (*material.MatLot, error) {
	lot, err := s.lots.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	prev := lot.IqcStatus
	if err := lot.UpdateIqc(material.IqcStatus(req.IqcStatus), actor.UserID); err != nil {
		return nil, err
	}
	if err := s.lots.Save(ctx, lot); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("IQC recorded",
		zap.String("lot_no", lot.LotNo),
		zap.String("from", string(prev)),
		zap.String("to", string(lot.IqcStatus)))
	return lot, nil
}

// Hold blocks a lot from use
func (s *LotService) Hold(ctx context.Context, actor shared.Actor, id uuid.UUID) (*material.MatLot, error) {
	return s.apply(ctx, actor, id, (*material.MatLot).Hold)
}

// Release lifts a hold
func (s *LotService) Release(ctx context.Context, actor shared.Actor, id uuid.UUID) (*material.MatLot, error) {
	return s.apply(ctx, actor, id, (*material.MatLot).Release)
}

func (s *LotService) apply(ctx context.Context, actor shared.Actor, id uuid.UUID, fn func(*material.MatLot, string) error) (*material.MatLot, error) {
	lot, err := s.lots.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := fn(lot, actor.UserID); err != nil {
		return nil, err
	}
	if err := s.lots.Save(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}
