package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement types. Reserve/release only move quantity between the on-hand and
// reserved buckets; stock_in/stock_out/consume change physical stock.
const (
	MovementStockIn  = "stock_in"
	MovementStockOut = "stock_out"
	MovementReserve  = "reserve"
	MovementRelease  = "release"
	MovementConsume  = "consume"
)

// Reservation statuses.
const (
	ReservationPending   = "pending"
	ReservationCancelled = "cancelled"
)

// StockItem is one (productCode, colorCode) fabric/profile variant shared by
// all jobs. Quantities are float64 because units are metres and square metres.
// Invariant after every committed operation: 0 <= reserved <= onHand.
type StockItem struct {
	ID           string  `gorm:"primaryKey;type:varchar(24)" json:"id"`
	ProductCode  string  `gorm:"uniqueIndex:idx_product_color;not null" json:"productCode"`
	ColorCode    string  `gorm:"uniqueIndex:idx_product_color;not null" json:"colorCode"`
	Name         string  `gorm:"index;not null" json:"name"`
	ColorName    string  `json:"colorName,omitempty"`
	Unit         string  `gorm:"not null" json:"unit"`
	SupplierID   string  `gorm:"index" json:"supplierId"`
	SupplierName string  `json:"supplierName,omitempty"`
	OnHand       float64 `gorm:"not null;default:0" json:"onHand"`
	Reserved     float64 `gorm:"not null;default:0" json:"reserved"`
	Critical     float64 `gorm:"not null;default:0" json:"critical"`
	UnitCost     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"unitCost,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	LastUpdated  string  `gorm:"type:varchar(10)" json:"lastUpdated"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Available is the quantity free to allocate.
func (s *StockItem) Available() float64 { return s.OnHand - s.Reserved }

// IsCritical reports whether available stock has fallen to the reorder level.
func (s *StockItem) IsCritical() bool { return s.Available() <= s.Critical }

// Touch stamps the item with today's date, matching the ledger's day granularity.
func (s *StockItem) Touch() { s.LastUpdated = time.Now().UTC().Format("2006-01-02") }

// StockMovement is an immutable ledger entry. Movements are NEVER modified or
// deleted — corrections create inverse entries.
type StockMovement struct {
	ID          string    `gorm:"primaryKey;type:varchar(24)" json:"id"`
	Date        string    `gorm:"type:varchar(10);index" json:"date"`
	ItemID      string    `gorm:"index;not null" json:"itemId"`
	ItemName    string    `json:"item"`
	ProductCode string    `json:"productCode"`
	ColorCode   string    `json:"colorCode"`
	Change      float64   `gorm:"not null" json:"change"` // signed
	Type        string    `gorm:"not null" json:"type"`
	Reason      string    `json:"reason"`
	Operator    string    `json:"operator"`
	Reference   string    `json:"reference,omitempty"`
	JobID       string    `gorm:"index" json:"jobId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Reservation earmarks quantity for a job without removing it from stock.
// A later consume by another job may shrink or cancel it (cascading
// adjustment); AffectedBy then records the job that caused the reduction.
type Reservation struct {
	ID          string     `gorm:"primaryKey;type:varchar(24)" json:"id"`
	JobID       string     `gorm:"index;not null" json:"jobId"`
	ItemID      string     `gorm:"index;not null" json:"itemId"`
	ProductCode string     `json:"productCode"`
	ColorCode   string     `json:"colorCode"`
	ItemName    string     `json:"item"`
	Qty         float64    `gorm:"not null" json:"qty"`
	Unit        string     `json:"unit,omitempty"`
	Status      string     `gorm:"index;not null;default:'pending'" json:"status"`
	AffectedBy  string     `json:"affectedBy,omitempty"`
	Note        string     `json:"note,omitempty"`
	ReleasedAt  *time.Time `json:"releasedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
