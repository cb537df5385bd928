package shipping

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/master"
	"github.com/mes/backend/internal/domain/shared"
)

// BoxStatus is the packing state of a box
type BoxStatus string

const (
	BoxOpen    BoxStatus = "OPEN"
	BoxClosed  BoxStatus = "CLOSED"
	BoxShipped BoxStatus = "SHIPPED"
)

// OQC verdicts stamped on boxes
const (
	OqcPending = "PENDING"
	OqcPass    = "PASS"
	OqcFail    = "FAIL"
)

// Box holds finished harnesses identified by serial numbers
type Box struct {
	shared.TenantEntity
	BoxNo      string       `gorm:"type:varchar(50);not null;index" json:"boxNo"`
	PartID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"partId"`
	Qty        int          `gorm:"not null;default:0" json:"qty"`
	SerialList []string     `gorm:"type:text;serializer:json" json:"serialList"`
	Status     BoxStatus    `gorm:"type:varchar(10);not null;default:'OPEN';index" json:"status"`
	PalletID   *uuid.UUID   `gorm:"type:uuid;index" json:"palletId,omitempty"`
	OqcStatus  *string      `gorm:"type:varchar(10)" json:"oqcStatus,omitempty"`
	CloseAt    *time.Time   `json:"closeAt,omitempty"`
	ShipAt     *time.Time   `json:"shipAt,omitempty"`
	Remark     string       `gorm:"type:varchar(500)" json:"remark,omitempty"`
	Part       *master.Part `gorm:"foreignKey:PartID" json:"part,omitempty"`
}

// TableName returns the table name for GORM
func (Box) TableName() string {
	return "boxes"
}

// NewBox opens an empty box for a part, optionally seeded with serials
func NewBox(actor shared.Actor, boxNo string, partID uuid.UUID, serials []string) (*Box, error) {
	boxNo = strings.TrimSpace(boxNo)
	if boxNo == "" {
		return nil, shared.InvalidInput("boxNo is required")
	}
	b := &Box{
		TenantEntity: shared.NewTenantEntity(actor),
		BoxNo:        boxNo,
		PartID:       partID,
		SerialList:   []string{},
		Status:       BoxOpen,
	}
	if len(serials) > 0 {
		if err := b.AddSerials(serials); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// AddSerials appends serials to an OPEN box; qty follows the serial count
func (b *Box) AddSerials(serials []string) error {
	if b.Status != BoxOpen {
		return shared.InvalidState("cannot add serials to box in status %s, must be OPEN", b.Status)
	}
	existing := make(map[string]bool, len(b.SerialList)+len(serials))
	for _, s := range b.SerialList {
		existing[s] = true
	}
	var dups []string
	for _, s := range serials {
		if existing[s] {
			dups = append(dups, s)
		}
		existing[s] = true
	}
	if len(dups) > 0 {
		return shared.Conflict("serial", strings.Join(dups, ", "))
	}
	b.SerialList = append(b.SerialList, serials...)
	b.Qty = len(b.SerialList)
	return nil
}

// RemoveSerials drops serials from an OPEN box
func (b *Box) RemoveSerials(serials []string) error {
	if b.Status != BoxOpen {
		return shared.InvalidState("cannot remove serials from box in status %s, must be OPEN", b.Status)
	}
	drop := make(map[string]bool, len(serials))
	for _, s := range serials {
		drop[s] = true
	}
	present := make(map[string]bool, len(b.SerialList))
	kept := make([]string, 0, len(b.SerialList))
	for _, s := range b.SerialList {
		present[s] = true
		if !drop[s] {
			kept = append(kept, s)
		}
	}
	var missing []string
	for _, s := range serials {
		if !present[s] {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return shared.NotFound("serial", strings.Join(missing, ", "))
	}
	b.SerialList = kept
	b.Qty = len(kept)
	return nil
}

// Close seals a non-empty OPEN box
func (b *Box) Close(now time.Time, userID string) error {
	if b.Status != BoxOpen {
		return shared.InvalidState("cannot close box in status %s, must be OPEN", b.Status)
	}
	if b.Qty <= 0 {
		return shared.InvalidState("cannot close an empty box")
	}
	b.Status = BoxClosed
	b.CloseAt = &now
	b.Touch(userID)
	return nil
}

// Reopen opens a CLOSED box that is not on a pallet
func (b *Box) Reopen(userID string) error {
	if b.Status != BoxClosed {
		return shared.InvalidState("cannot reopen box in status %s, must be CLOSED", b.Status)
	}
	if b.PalletID != nil {
		return shared.InvalidState("box %s is on a pallet", b.BoxNo)
	}
	b.Status = BoxOpen
	b.CloseAt = nil
	b.Touch(userID)
	return nil
}

// CanModify checks that the box has not left the plant
func (b *Box) CanModify() error {
	if b.Status == BoxShipped {
		return shared.InvalidState("box %s is shipped", b.BoxNo)
	}
	return nil
}

// CanDelete checks that the box is neither shipped nor palletized
func (b *Box) CanDelete() error {
	if err := b.CanModify(); err != nil {
		return err
	}
	if b.PalletID != nil {
		return shared.InvalidState("box %s is on a pallet, remove it first", b.BoxNo)
	}
	return nil
}

// OqcBlocksShipping reports whether the OQC verdict forbids shipping
func (b *Box) OqcBlocksShipping() bool {
	return b.OqcStatus != nil && (*b.OqcStatus == OqcFail || *b.OqcStatus == OqcPending)
}

// SetOqcStatus stamps an OQC verdict
func (b *Box) SetOqcStatus(status string) {
	b.OqcStatus = &status
}

// AwaitingOqc reports whether the box may be put into an OQC request
func (b *Box) AwaitingOqc() bool {
	return b.Status == BoxClosed && b.OqcStatus == nil
}
