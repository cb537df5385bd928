package master

import (
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/shopspring/decimal"
)

// CreateComCodeRequest adds a common code
type CreateComCodeRequest struct {
	GroupCode  string `json:"groupCode" binding:"required,max=50"`
	DetailCode string `json:"detailCode" binding:"required,max=50"`
	CodeName   string `json:"codeName" binding:"required,max=100"`
	CodeDesc   string `json:"codeDesc" binding:"max=500"`
	ParentCode string `json:"parentCode" binding:"max=50"`
	SortOrder  int    `json:"sortOrder"`
	UseYn      string `json:"useYn" binding:"omitempty,yn"`
	Attr1      string `json:"attr1" binding:"max=100"`
	Attr2      string `json:"attr2" binding:"max=100"`
	Attr3      string `json:"attr3" binding:"max=100"`
}

// UpdateComCodeRequest changes a common code; the group and detail code are fixed
type UpdateComCodeRequest struct {
	CodeName   *string `json:"codeName" binding:"omitempty,max=100"`
	CodeDesc   *string `json:"codeDesc" binding:"omitempty,max=500"`
	ParentCode *string `json:"parentCode" binding:"omitempty,max=50"`
	SortOrder  *int    `json:"sortOrder"`
	UseYn      *string `json:"useYn" binding:"omitempty,yn"`
	Attr1      *string `json:"attr1" binding:"omitempty,max=100"`
	Attr2      *string `json:"attr2" binding:"omitempty,max=100"`
	Attr3      *string `json:"attr3" binding:"omitempty,max=100"`
}

// PartRequest creates or replaces a part
type PartRequest struct {
	PartCode    string `json:"partCode" binding:"required,max=50"`
	PartName    string `json:"partName" binding:"required,max=200"`
	PartType    string `json:"partType" binding:"required,oneof=RAW WIP FG"`
	Unit        string `json:"unit" binding:"max=10"`
	Spec        string `json:"spec" binding:"max=500"`
	SafetyStock int    `json:"safetyStock" binding:"min=0"`
	UseYn       string `json:"useYn" binding:"omitempty,yn"`
	Remark      string `json:"remark" binding:"max=500"`
}

// BomRequest creates or replaces a BOM line
type BomRequest struct {
	ParentPartID uuid.UUID       `json:"parentPartId" binding:"required"`
	ChildPartID  uuid.UUID       `json:"childPartId" binding:"required"`
	QtyPer       decimal.Decimal `json:"qtyPer" binding:"required"`
	Revision     string          `json:"revision" binding:"max=10"`
	EcoNo        string          `json:"ecoNo" binding:"max=50"`
	ValidFrom    *time.Time      `json:"validFrom"`
	ValidTo      *time.Time      `json:"validTo"`
	UseYn        string          `json:"useYn" binding:"omitempty,yn"`
	Remark       string          `json:"remark" binding:"max=500"`
}

// RoutingRequest creates or replaces a routing step
type RoutingRequest struct {
	PartID      uuid.UUID       `json:"partId" binding:"required"`
	Seq         int             `json:"seq" binding:"required,min=1"`
	ProcessCode string          `json:"processCode" binding:"required,max=50"`
	ProcessName string          `json:"processName" binding:"max=100"`
	ProcessType string          `json:"processType" binding:"required,oneof=CUTTING CRIMPING ASSEMBLY INSPECTION PACKING"`
	EquipType   string          `json:"equipType" binding:"max=50"`
	StdTime     decimal.Decimal `json:"stdTime"`
	UseYn       string          `json:"useYn" binding:"omitempty,yn"`
	Remark      string          `json:"remark" binding:"max=500"`
}

// EquipmentRequest creates or replaces a machine
type EquipmentRequest struct {
	EquipCode   string     `json:"equipCode" binding:"required,max=50"`
	EquipName   string     `json:"equipName" binding:"required,max=100"`
	EquipType   string     `json:"equipType" binding:"max=50"`
	ModelName   string     `json:"modelName" binding:"max=100"`
	Maker       string     `json:"maker" binding:"max=100"`
	LineCode    string     `json:"lineCode" binding:"max=50"`
	ProcessCode string     `json:"processCode" binding:"max=50"`
	IPAddress   string     `json:"ipAddress" binding:"omitempty,ip"`
	InstallDate *time.Time `json:"installDate"`
	UseYn       string     `json:"useYn" binding:"omitempty,yn"`
	Remark      string     `json:"remark" binding:"max=500"`
}

// ChangeStatusRequest moves a machine to another status
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=NORMAL MAINT STOP"`
	Reason string `json:"reason" binding:"max=500"`
}

// AttachmentUploadRequest asks for an upload URL for a new attachment
type AttachmentUploadRequest struct {
	FileName    string `json:"fileName" binding:"required,max=255"`
	ContentType string `json:"contentType" binding:"max=100"`
	FileSize    int64  `json:"fileSize" binding:"min=0"`
	Category    string `json:"category" binding:"omitempty,oneof=MANUAL DRAWING PHOTO CERT ETC"`
}

// AttachmentUpload is the created record and where to PUT the file
type AttachmentUpload struct {
	Attachment *master.EquipAttachment `json:"attachment"`
	UploadURL  string                  `json:"uploadUrl"`
	Method     string                  `json:"method"`
	ExpiresAt  time.Time               `json:"expiresAt"`
}

// PartnerRequest creates or replaces a partner
type PartnerRequest struct {
	PartnerCode   string `json:"partnerCode" binding:"required,max=50"`
	PartnerName   string `json:"partnerName" binding:"required,max=200"`
	PartnerType   string `json:"partnerType" binding:"required,oneof=VENDOR CUSTOMER BOTH"`
	BizNo         string `json:"bizNo" binding:"max=50"`
	CeoName       string `json:"ceoName" binding:"max=100"`
	Address       string `json:"address" binding:"max=500"`
	Tel           string `json:"tel" binding:"max=50"`
	Email         string `json:"email" binding:"omitempty,email,max=200"`
	ContactPerson string `json:"contactPerson" binding:"max=100"`
	UseYn         string `json:"useYn" binding:"omitempty,yn"`
	Remark        string `json:"remark" binding:"max=500"`
}

// WarehouseRequest creates or replaces a warehouse
type WarehouseRequest struct {
	WarehouseCode string `json:"warehouseCode" binding:"required,max=50"`
	WarehouseName string `json:"warehouseName" binding:"required,max=100"`
	WarehouseType string `json:"warehouseType" binding:"required,oneof=RAW WIP FG FLOOR DEFECT SCRAP SUBCON"`
	LineCode      string `json:"lineCode" binding:"max=50"`
	IsDefault     string `json:"isDefault" binding:"omitempty,yn"`
	UseYn         string `json:"useYn" binding:"omitempty,yn"`
	Remark        string `json:"remark" binding:"max=500"`
}
