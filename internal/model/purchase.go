package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase order statuses. Unlike production orders these are stored
// transitions, not derived: draft → sent → partial → delivered.
const (
	PurchaseDraft     = "draft"
	PurchaseSent      = "sent"
	PurchasePartial   = "partial"
	PurchaseDelivered = "delivered"
)

// PurchaseOrderID builds the human order number PO-YYMMDD-NNN.
func PurchaseOrderID(day time.Time, seq int) string {
	return fmt.Sprintf("PO-%s-%03d", day.UTC().Format("060102"), seq)
}

type PurchaseOrderItem struct {
	ID          string           `gorm:"primaryKey;type:varchar(24)" json:"id"`
	OrderID     string           `gorm:"index;not null" json:"-"`
	ProductCode string           `gorm:"not null" json:"productCode"`
	ColorCode   string           `gorm:"not null" json:"colorCode"`
	ProductName string           `json:"productName"`
	Quantity    float64          `gorm:"not null" json:"quantity"`
	ReceivedQty float64          `gorm:"not null;default:0" json:"receivedQty"`
	Unit        string           `json:"unit"`
	UnitCost    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"unitCost,omitempty"`
	TotalCost   *decimal.Decimal `gorm:"type:decimal(12,2)" json:"totalCost,omitempty"`
}

// PurchaseReceipt is one goods receipt against a purchase order. Items are a
// verbatim snapshot of the delivery slip.
type PurchaseReceipt struct {
	ID         string                   `json:"id"`
	Date       string                   `json:"date"`
	Items      []map[string]interface{} `json:"items"`
	Note       string                   `json:"note,omitempty"`
	ReceivedBy string                   `json:"receivedBy"`
}

// PurchaseOrder is a stock replenishment order to a supplier. Receiving a
// delivery feeds the stock ledger (on-hand increase + stock_in movement).
type PurchaseOrder struct {
	ID           string              `gorm:"primaryKey;type:varchar(24)" json:"id"`
	SupplierID   string              `gorm:"index;not null" json:"supplierId"`
	SupplierName string              `json:"supplierName"`
	Status       string              `gorm:"index;not null;default:'draft'" json:"status"`
	Items        []PurchaseOrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Deliveries   []PurchaseReceipt   `gorm:"serializer:json" json:"deliveries"`
	TotalAmount  decimal.Decimal     `gorm:"type:decimal(12,2)" json:"totalAmount"`
	Notes        string              `json:"notes,omitempty"`
	RelatedJobs  []string            `gorm:"serializer:json" json:"relatedJobs"`
	ExpectedDate string              `gorm:"type:varchar(10)" json:"expectedDate,omitempty"`
	CreatedBy    string              `json:"createdBy"`
	CreatedAt    time.Time           `json:"createdAt"`
	SentAt       *time.Time          `json:"sentAt,omitempty"`
	CompletedAt  *time.Time          `json:"completedAt,omitempty"`
}
