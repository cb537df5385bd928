// Package material books raw material in and out of the plant: purchase
// orders, arrivals, put-away, issues to production, lots and UID labels.
package material

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	appnum "github.com/mes/backend/internal/application/numbering"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/material"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Repositories are the repositories bound to one transaction
type Repositories interface {
	PurchaseOrders() material.PurchaseOrderRepository
	MatLots() material.MatLotRepository
	MatStocks() material.MatStockRepository
	MatTransactions() material.MatTransactionRepository
	MatIssues() material.MatIssueRepository
	LabelLogs() material.LabelPrintLogRepository
	Parts() master.PartRepository
	Warehouses() master.WarehouseRepository
	Rules() numbering.RuleRepository
	UIDs() numbering.UIDSource
}

// TransactionScope runs fn inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// drawNumber takes the next number of ruleType inside the caller's transaction.
// Without a registered rule it falls back to <prefix>YYYYMMDD-<random>.
func drawNumber(ctx context.Context, rules numbering.RuleRepository, actor shared.Actor, ruleType, prefix string, now time.Time) (string, error) {
	no, err := appnum.NextNumberInTx(ctx, rules, actor, ruleType, now)
	if err == nil {
		return no, nil
	}
	if !errors.Is(err, appnum.ErrRuleNotRegistered) {
		return "", err
	}
	no = fallbackNumber(prefix, now)
	logger.L(ctx).Debug("numbering rule missing, using fallback",
		zap.String("rule_type", ruleType),
		zap.String("number", no))
	return no, nil
}

func fallbackNumber(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%s-%s", prefix, now.Format("20060102"), strings.ToUpper(uuid.NewString()[:6]))
}

// transNo numbers a stock movement: <prefix>-YYYYMMDDHHmmss-<random>
func transNo(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102150405"), strings.ToUpper(uuid.NewString()[:4]))
}

// upsertStock applies delta to the (warehouse, part, lot) row.
// A missing row is only opened for a positive delta.
func upsertStock(ctx context.Context, stocks material.MatStockRepository, actor shared.Actor, warehouseID, partID uuid.UUID, lotID *uuid.UUID, delta int, now time.Time) error {
	stock, err := stocks.FindByKey(ctx, actor, warehouseID, partID, lotID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if delta <= 0 {
			return nil
		}
		return stocks.Create(ctx, material.NewMatStock(actor, warehouseID, partID, lotID, delta, now))
	}
	stock.ApplyDelta(delta, now)
	stock.Touch(actor.UserID)
	return stocks.Save(ctx, stock)
}

func ensureWarehouse(ctx context.Context, warehouses master.WarehouseRepository, actor shared.Actor, id uuid.UUID) error {
	if _, err := warehouses.FindByID(ctx, actor, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("warehouse", id)
		}
		return err
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
