package material

import (
	"context"
	"errors"
	"time"

	"github.com/mes/backend/internal/domain/material"
	"github.com/mes/backend/internal/domain/numbering"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/printing"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"

	appnum "github.com/mes/backend/internal/application/numbering"
)

// LabelRenderer turns a label sheet into a PDF
type LabelRenderer interface {
	RenderLabels(ctx context.Context, sheet printing.LabelSheet) ([]byte, error)
}

// ErrRendererUnavailable is returned when server-side label rendering is disabled
var ErrRendererUnavailable = shared.NewDomainError("SERVICE_UNAVAILABLE", "label rendering is not enabled")

// ErrPrinterBusy is returned when the renderer timed out or crashed; the
// operator may print again
var ErrPrinterBusy = shared.NewDomainError("SERVICE_UNAVAILABLE", "label rendering failed, try again")

// LabelService cuts single-piece UID lots from an arrival lot and prints their labels
type LabelService struct {
	logs     material.LabelPrintLogRepository
	tx       TransactionScope
	renderer LabelRenderer
	now      func() time.Time
}

// NewLabelService creates a new LabelService. renderer may be nil when PDF rendering is off.
func NewLabelService(logs material.LabelPrintLogRepository, tx TransactionScope, renderer LabelRenderer) *LabelService {
	return &LabelService{logs: logs, tx: tx, renderer: renderer, now: time.Now}
}

// CreateMatLabels draws qty material UIDs and creates one lot of quantity 1
// per UID under the arrival lot. The batch is recorded in the print log.
func (s *LabelService) CreateMatLabels(ctx context.Context, actor shared.Actor, req MatLabelRequest) ([]MatLabel, error) {
	if req.Qty <= 0 || req.Qty > appnum.MaxBatchUIDs {
		return nil, shared.InvalidInput("qty must be between 1 and %d", appnum.MaxBatchUIDs)
	}
	mode := req.PrintMode
	if mode == "" {
		mode = material.PrintModeBrowser
	}
	now := s.now()
	var labels []MatLabel
	err := s.tx.Execute(ctx, func(repos Repositories) error {
		src, err := repos.MatLots().FindByID(ctx, actor, req.LotID)
		if err != nil {
			return err
		}
		if src.IqcStatus != material.IqcPass {
			return shared.InvalidState("lot %s has not passed IQC", src.LotNo)
		}
		var partCode, partName string
		if src.Part != nil {
			partCode, partName = src.Part.PartCode, src.Part.PartName
		}
		supUID := req.SupUID
		if supUID == "" {
			supUID = src.SupUID
		}
		uids, err := appnum.NextUIDsInTx(ctx, repos.UIDs(), numbering.UIDMaterial, req.Qty)
		if err != nil {
			return err
		}
		labels = make([]MatLabel, 0, len(uids))
		for _, uid := range uids {
			lot, err := material.NewMatLot(actor, uid, src.PartID, 1, now)
			if err != nil {
				return err
			}
			lot.PartType = src.PartType
			lot.ParentLotNo = src.LotNo
			lot.PoNo = src.PoNo
			lot.Vendor = src.Vendor
			lot.SupUID = supUID
			lot.IqcStatus = material.IqcPass
			if err := repos.MatLots().Create(ctx, lot); err != nil {
				return err
			}
			labels = append(labels, MatLabel{MatUID: uid, PartCode: partCode, PartName: partName, LotNo: src.LotNo, SupUID: supUID})
		}
		log, err := material.NewLabelPrintLog(actor, material.LabelCategoryMatUID, mode, uids)
		if err != nil {
			return err
		}
		return repos.LabelLogs().Create(ctx, log)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("material UID labels created",
		zap.String("lot_id", req.LotID.String()),
		zap.Int("count", len(labels)))
	return labels, nil
}

// RenderPDF lays the labels out on a sheet and renders it server-side
func (s *LabelService) RenderPDF(ctx context.Context, title string, labels []MatLabel) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrRendererUnavailable
	}
	if len(labels) == 0 {
		return nil, shared.InvalidInput("no labels to render")
	}
	sheet := printing.LabelSheet{Title: title, Labels: make([]printing.Label, 0, len(labels))}
	for _, l := range labels {
		lines := []string{l.PartCode, l.PartName, "LOT " + l.LotNo}
		if l.SupUID != "" {
			lines = append(lines, "SUP "+l.SupUID)
		}
		sheet.Labels = append(sheet.Labels, printing.Label{Code: l.MatUID, Lines: lines})
	}
	pdf, err := s.renderer.RenderLabels(ctx, sheet)
	if err != nil {
		var rerr *printing.RenderError
		if errors.As(err, &rerr) {
			logger.L(ctx).Error("label render failed", zap.String("code", rerr.Code), zap.Int("labels", len(labels)), zap.Error(err))
			if rerr.Temporary() {
				return nil, ErrPrinterBusy
			}
		}
		return nil, err
	}
	return pdf, nil
}

// Logs returns a page of print batches; filter.Status selects the category
func (s *LabelService) Logs(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[material.LabelPrintLog], error) {
	items, total, err := s.logs.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[material.LabelPrintLog]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}
