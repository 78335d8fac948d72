package model

import "time"

// Supplier types.
const (
	SupplierManufacturer = "manufacturer"
	SupplierDealer       = "dealer"
)

type Supplier struct {
	ID           string                 `gorm:"primaryKey;type:varchar(24)" json:"id"`
	Name         string                 `gorm:"index;not null" json:"name"`
	Type         string                 `gorm:"not null;default:'manufacturer'" json:"type"`
	Category     string                 `json:"category,omitempty"`
	Contact      map[string]interface{} `gorm:"serializer:json" json:"contact,omitempty"`
	LeadTimeDays *int                   `json:"leadTimeDays,omitempty"`
	Rating       float64                `gorm:"not null;default:0" json:"rating"`
	Notes        string                 `json:"notes,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// SupplierTransaction records product moved to/from a dealer outside purchase
// orders (consignment give/take). Balance per product is derived, not stored.
type SupplierTransaction struct {
	ID           string    `gorm:"primaryKey;type:varchar(24)" json:"id"`
	SupplierID   string    `gorm:"index;not null" json:"supplierId"`
	SupplierName string    `json:"supplierName"`
	Date         string    `gorm:"type:varchar(10)" json:"date"`
	ProductCode  string    `gorm:"not null" json:"productCode"`
	ColorCode    string    `gorm:"not null" json:"colorCode"`
	ProductName  string    `json:"productName"`
	Quantity     float64   `gorm:"not null" json:"quantity"`
	Unit         string    `json:"unit"`
	Type         string    `gorm:"not null" json:"type"` // received | given
	Note         string    `json:"note,omitempty"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
}
