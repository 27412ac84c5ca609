package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sitestock/pkg/enums"
)

// ShipmentEvent is an immutable ledger entry. Receipts carry a positive qty;
// cancellations carry -|qty| of the event referenced by CancelsEventID.
type ShipmentEvent struct {
	ID             int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProjectID      int64               `gorm:"column:project_id;not null;index" json:"project_id"`
	MaterialID     int64               `gorm:"column:material_id;not null;index" json:"material_id"`
	Qty            decimal.Decimal     `gorm:"column:qty;type:numeric(20,4);not null" json:"qty"`
	UserName       string              `gorm:"column:user_name;not null" json:"user_name"`
	Store          string              `gorm:"column:store;not null;default:''" json:"store"`
	DocNumber      string              `gorm:"column:doc_number;not null;default:''" json:"doc_number"`
	Note           string              `gorm:"column:note;not null;default:''" json:"note"`
	OpType         enums.OperationType `gorm:"column:op_type;not null" json:"op_type"`
	CancelsEventID *int64              `gorm:"column:cancels_event_id;index" json:"cancels_event_id,omitempty"`
	OccurredAt     time.Time           `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
}

func (ShipmentEvent) TableName() string { return "shipment_events" }

// HistoryEntry is a ledger entry joined with the material it was booked against.
// Orphaned entries reference a material id that a later plan import replaced.
type HistoryEntry struct {
	ShipmentEvent
	MaterialName string `json:"material_name"`
	MaterialUnit string `json:"material_unit"`
	Orphaned     bool   `json:"orphaned"`
}
