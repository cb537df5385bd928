package material

import (
	"encoding/json"

	"github.com/mes/backend/internal/domain/shared"
)

// Label categories
const (
	LabelCategoryMatUID = "mat_uid"
	LabelCategoryBox    = "box"
)

// Print modes
const (
	PrintModeBrowser = "BROWSER"
	PrintModeServer  = "SERVER"
)

// LabelPrintLog records one label print batch
type LabelPrintLog struct {
	shared.TenantEntity
	Category   string `gorm:"type:varchar(20);not null;index" json:"category"`
	PrintMode  string `gorm:"type:varchar(10);not null" json:"printMode"`
	UIDList    string `gorm:"column:uid_list;type:text" json:"uidList"`
	LabelCount int    `gorm:"not null" json:"labelCount"`
	Status     string `gorm:"type:varchar(10);not null" json:"status"`
}

// TableName returns the table name for GORM
func (LabelPrintLog) TableName() string {
	return "label_print_logs"
}

// NewLabelPrintLog records a successful print of uids
func NewLabelPrintLog(actor shared.Actor, category, printMode string, uids []string) (*LabelPrintLog, error) {
	raw, err := json.Marshal(uids)
	if err != nil {
		return nil, err
	}
	return &LabelPrintLog{
		TenantEntity: shared.NewTenantEntity(actor),
		Category:     category,
		PrintMode:    printMode,
		UIDList:      string(raw),
		LabelCount:   len(uids),
		Status:       "SUCCESS",
	}, nil
}

// UIDs decodes the printed uid list; a malformed list yields nil
func (l *LabelPrintLog) UIDs() []string {
	var ids []string
	if err := json.Unmarshal([]byte(l.UIDList), &ids); err != nil {
		return nil
	}
	return ids
}
