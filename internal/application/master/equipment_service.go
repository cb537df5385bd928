package master

import (
	"context"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// ObjectStorage hands out presigned URLs for attachment objects
type ObjectStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (*storage.PresignedURL, error)
	PresignDownload(ctx context.Context, key string) (*storage.PresignedURL, error)
	Delete(ctx context.Context, key string) error
}

// EquipmentService manages machines and their attachments
type EquipmentService struct {
	equipments  master.EquipmentRepository
	attachments master.EquipAttachmentRepository
	objects     ObjectStorage
	logger      *zap.Logger
}

// NewEquipmentService creates a new EquipmentService
func NewEquipmentService(equipments master.EquipmentRepository, attachments master.EquipAttachmentRepository, objects ObjectStorage, logger *zap.Logger) *EquipmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EquipmentService{equipments: equipments, attachments: attachments, objects: objects, logger: logger}
}

// List returns a page of machines; status, line_code and equip_type go through filter
func (s *EquipmentService) List(ctx context.Context, actor shared.Actor, filter shared.Filter) (shared.Page[master.Equipment], error) {
	items, total, err := s.equipments.List(ctx, actor, filter)
	if err != nil {
		return shared.Page[master.Equipment]{}, err
	}
	return shared.NewPage(items, total, filter), nil
}

// GetByID returns one machine
func (s *EquipmentService) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*master.Equipment, error) {
	return s.equipments.FindByID(ctx, actor, id)
}

// Create adds a machine; equipCode is unique
func (s *EquipmentService) Create(ctx context.Context, actor shared.Actor, req EquipmentRequest) (*master.Equipment, error) {
	e, err := master.NewEquipment(actor, req.EquipCode, req.EquipName)
	if err != nil {
		return nil, err
	}
	if err := shared.EnsureUnique(ctx, s.equipments, actor, shared.Conds{"equip_code": e.EquipCode}, nil, "equipCode", e.EquipCode); err != nil {
		return nil, err
	}
	applyEquipment(e, req)
	if err := s.equipments.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update replaces a machine's fields; the status only changes through ChangeStatus
func (s *EquipmentService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req EquipmentRequest) (*master.Equipment, error) {
	e, err := s.equipments.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.EquipCode != e.EquipCode {
		if err := shared.EnsureUnique(ctx, s.equipments, actor, shared.Conds{"equip_code": req.EquipCode}, &e.ID, "equipCode", req.EquipCode); err != nil {
			return nil, err
		}
	}
	e.EquipCode = req.EquipCode
	e.EquipName = req.EquipName
	applyEquipment(e, req)
	e.Touch(actor.UserID)
	if err := s.equipments.Save(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func applyEquipment(e *master.Equipment, req EquipmentRequest) {
	e.EquipType = req.EquipType
	e.ModelName = req.ModelName
	e.Maker = req.Maker
	e.LineCode = req.LineCode
	e.ProcessCode = req.ProcessCode
	e.IPAddress = req.IPAddress
	e.InstallDate = req.InstallDate
	e.UseYn = shared.YNOrDefault(req.UseYn, e.UseYn)
	e.Remark = req.Remark
}

// Delete soft-deletes a machine
func (s *EquipmentService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	return s.equipments.SoftDelete(ctx, actor, id)
}

// ChangeStatus moves a machine to another status and logs the transition
func (s *EquipmentService) ChangeStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, req ChangeStatusRequest) (*master.Equipment, error) {
	e, err := s.equipments.FindByID(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	prev, err := e.ChangeStatus(master.EquipStatus(req.Status), req.Reason, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.equipments.Save(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("equipment status changed",
		zap.String("equip_code", e.EquipCode),
		zap.String("from", string(prev)),
		zap.String("to", string(e.Status)),
		zap.String("reason", req.Reason),
		zap.String("user_id", actor.UserID))
	return e, nil
}

// Stats counts machines by status and by type
func (s *EquipmentService) Stats(ctx context.Context, actor shared.Actor) (*master.EquipmentStats, error) {
	byStatus, err := s.equipments.CountBy(ctx, actor, "status")
	if err != nil {
		return nil, err
	}
	byType, err := s.equipments.CountBy(ctx, actor, "equip_type")
	if err != nil {
		return nil, err
	}
	stats := &master.EquipmentStats{ByStatus: byStatus, ByType: byType}
	for _, c := range byStatus {
		stats.Total += c.Count
	}
	return stats, nil
}

// MaintenanceList returns machines that are in MAINT or STOP
func (s *EquipmentService) MaintenanceList(ctx context.Context, actor shared.Actor) ([]master.Equipment, error) {
	return s.equipments.FindByStatuses(ctx, actor, []master.EquipStatus{master.EquipStatusMaint, master.EquipStatusStop})
}

// RequestUpload records a new attachment and returns the URL the client uploads the file to
func (s *EquipmentService) RequestUpload(ctx context.Context, actor shared.Actor, equipmentID uuid.UUID, req AttachmentUploadRequest) (*AttachmentUpload, error) {
	if _, err := s.equipments.FindByID(ctx, actor, equipmentID); err != nil {
		return nil, err
	}
	a, err := master.NewEquipAttachment(actor, equipmentID, req.FileName, req.ContentType, req.FileSize, req.Category)
	if err != nil {
		return nil, err
	}
	url, err := s.objects.PresignUpload(ctx, a.ObjectKey, a.ContentType)
	if err != nil {
		return nil, err
	}
	if err := s.attachments.Create(ctx, a); err != nil {
		return nil, err
	}
	return &AttachmentUpload{Attachment: a, UploadURL: url.URL, Method: url.Method, ExpiresAt: url.ExpiresAt}, nil
}

// Attachments lists a machine's attachments with download URLs filled in
func (s *EquipmentService) Attachments(ctx context.Context, actor shared.Actor, equipmentID uuid.UUID) ([]master.EquipAttachment, error) {
	items, err := s.attachments.FindByEquipment(ctx, actor, equipmentID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		url, err := s.objects.PresignDownload(ctx, items[i].ObjectKey)
		if err != nil {
			return nil, err
		}
		items[i].URL = url.URL
	}
	if items == nil {
		items = []master.EquipAttachment{}
	}
	return items, nil
}

// DeleteAttachment removes the object and soft-deletes the record.
// A failed object delete is logged and leaves the record removed.
func (s *EquipmentService) DeleteAttachment(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	a, err := s.attachments.FindByID(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.attachments.SoftDelete(ctx, actor, id); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, a.ObjectKey); err != nil {
		s.logger.Warn("delete attachment object failed",
			zap.String("object_key", a.ObjectKey),
			zap.Error(err))
	}
	return nil
}
