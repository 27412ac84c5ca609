package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material is one plan line of a project. Each plan import replaces the whole
// set for the project with freshly numbered rows.
type Material struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProjectID  int64           `gorm:"column:project_id;not null;index" json:"project_id"`
	Name       string          `gorm:"column:name;not null" json:"name"`
	Unit       string          `gorm:"column:unit;not null;default:''" json:"unit"`
	PlannedQty decimal.Decimal `gorm:"column:planned_qty;type:numeric(20,4);not null;default:0" json:"planned_qty"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Material) TableName() string { return "materials" }

// MaterialInput carries one parsed plan row into ReplaceMaterials.
type MaterialInput struct {
	Name       string
	Unit       string
	PlannedQty decimal.Decimal
}
