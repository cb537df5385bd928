package material

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/material"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// IssueService issues material from lots to production, subcontractors or samples
type IssueService struct {
	issues material.MatIssueRepository
	tx     TransactionScope
	now    func() time.Time
}

// NewIssueService creates a new IssueService
func NewIssueService(issues material.MatIssueRepository, tx TransactionScope) *IssueService {
	return &IssueService{issues: issues, tx: tx, now: time.Now}
}

// List returns a page of issues
func (s *IssueService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[material.MatIssue], error) {
	items, total, err := s.issues.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[material.MatIssue]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one issue with its lot
func (s *IssueService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*material.MatIssue, error) {
	return s.issues.FindByID(ctx, actor, id)
}

// Issue takes the requested quantities out of their lots and stock.
// Every lot must have passed IQC, be off hold and hold enough quantity.
func (s *IssueService) Issue(ctx context.Context, actor shared.Actor, req IssueRequest) ([]material.MatIssue, error) {
	if len(req.Items) == 0 {
		return nil, shared.InvalidInput("at least one item is required")
	}
	issueType := material.IssueType(req.IssueType)
	now := s.now()
	var out []material.MatIssue
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		issueNo, err := drawNumber(ctx, repos.Rules(), actor, numbering.RuleMatIssue, "ISS", now)
		if err != nil {
			return err
		}
		for _, item := range req.Items {
			lot, err := repos.MatLots().FindByID(ctx, actor, item.LotID)
			if err != nil {
				return err
			}
			if lot.Status == material.LotStatusHold {
				return shared.InvalidState("lot %s is on hold", lot.LotNo)
			}
			issue, err := material.NewMatIssue(actor, lot.ID, item.Qty, issueType, now)
			if err != nil {
				return err
			}
			if err := lot.Consume(item.Qty); err != nil {
				return err
			}
			lot.Touch(actor.UserID)
			if err := repos.MatLots().Save(ctx, lot); err != nil {
				return err
			}
			stock, err := stockRowForLot(ctx, repos, actor, lot, req.WarehouseID)
			if err != nil {
				return err
			}
			if stock != nil {
				stock.ApplyDelta(-item.Qty, now)
				stock.Touch(actor.UserID)
				if err := repos.MatStocks().Save(ctx, stock); err != nil {
					return err
				}
				issue.WarehouseID = &stock.WarehouseID
			}
			issue.IssueNo = issueNo
			issue.JobOrderID = req.JobOrderID
			issue.Remark = req.Remark
			if err := repos.MatIssues().Create(ctx, issue); err != nil {
				return err
			}
			t := material.NewMatTransaction(actor, transNo("ISS", now), material.TransIssue, lot.PartID, &lot.ID, -item.Qty, now)
			t.FromWarehouseID = issue.WarehouseID
			t.RefType = material.RefIssue
			t.RefID = &issue.ID
			if err := repos.MatTransactions().Create(ctx, t); err != nil {
				return err
			}
			out = append(out, *issue)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("material issued",
		zap.String("issue_no", out[0].IssueNo),
		zap.Int("lots", len(out)))
	return out, nil
}

// stockRowForLot picks the stock row an issue draws from: the row in
// warehouseID when given, otherwise the lot's largest row. nil when none exists.
func stockRowForLot(ctx context.Context, repos Repositories, actor shared.Actor, lot *material.MatLot, warehouseID *uuid.UUID) (*material.MatStock, error) {
	if warehouseID != nil {
		stock, err := repos.MatStocks().FindByKey(ctx, actor, *warehouseID, lot.PartID, &lot.ID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return stock, err
	}
	rows, err := repos.MatStocks().FindByLot(ctx, actor, lot.ID)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Cancel voids a DONE issue and puts the quantity back into the lot and stock
func (s *IssueService) Cancel(ctx context.Context, actor shared.Actor, id uuid.UUID, reason string) (*material.MatIssue, error) {
	now := s.now()
	var issue *material.MatIssue
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		var err error
		issue, err = repos.MatIssues().FindByID(ctx, actor, id)
		if err != nil {
			return err
		}
		if err := issue.Cancel(reason, actor.UserID); err != nil {
			return err
		}
		issue.Lot = nil
		if err := repos.MatIssues().Save(ctx, issue); err != nil {
			return err
		}
		lot, err := repos.MatLots().FindByID(ctx, actor, issue.LotID)
		if err != nil {
			return err
		}
		lot.Restore(issue.IssueQty)
		lot.Touch(actor.UserID)
		lot.Part = nil
		if err := repos.MatLots().Save(ctx, lot); err != nil {
			return err
		}
		if issue.WarehouseID != nil {
			if err := upsertStock(ctx, repos.MatStocks(), actor, *issue.WarehouseID, lot.PartID, &lot.ID, issue.IssueQty, now); err != nil {
				return err
			}
		}
		t := material.NewMatTransaction(actor, transNo("ISC", now), material.TransIssueCancel, lot.PartID, &lot.ID, issue.IssueQty, now)
		t.ToWarehouseID = issue.WarehouseID
		t.RefType = material.RefCancel
		t.CancelRefID = &issue.ID
		t.Remark = reason
		return repos.MatTransactions().Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}
