package dto

import (
	"github.com/shopspring/decimal"

	"github.com/mudogruer/istakip-18.01.26/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateStockItemRequest struct {
	ProductCode  string           `json:"productCode" validate:"required"`
	ColorCode    string           `json:"colorCode"   validate:"required"`
	Name         string           `json:"name"        validate:"required"`
	ColorName    string           `json:"colorName"`
	Unit         string           `json:"unit"        validate:"required"`
	SupplierID   string           `json:"supplierId"  validate:"required"`
	SupplierName string           `json:"supplierName"`
	OnHand       float64          `json:"onHand"      validate:"min=0"`
	Reserved     float64          `json:"reserved"    validate:"min=0"`
	Critical     float64          `json:"critical"    validate:"min=0"`
	UnitCost     *decimal.Decimal `json:"unitCost"`
	Notes        string           `json:"notes"`
}

// UpdateStockItemRequest uses pointers so absent fields are left untouched.
type UpdateStockItemRequest struct {
	ProductCode  *string          `json:"productCode"`
	ColorCode    *string          `json:"colorCode"`
	Name         *string          `json:"name"`
	ColorName    *string          `json:"colorName"`
	Unit         *string          `json:"unit"`
	SupplierID   *string          `json:"supplierId"`
	SupplierName *string          `json:"supplierName"`
	OnHand       *float64         `json:"onHand"   validate:"omitempty,min=0"`
	Reserved     *float64         `json:"reserved" validate:"omitempty,min=0"`
	Critical     *float64         `json:"critical" validate:"omitempty,min=0"`
	UnitCost     *decimal.Decimal `json:"unitCost"`
	Notes        *string          `json:"notes"`
}

type MovementRequest struct {
	ItemID    string  `json:"itemId" validate:"required"`
	Qty       float64 `json:"qty"    validate:"required,gt=0"`
	Type      string  `json:"type"   validate:"required,oneof=stock_in stock_out reserve release consume"`
	Reason    string  `json:"reason"`
	Operator  string  `json:"operator"`
	Reference string  `json:"reference"`
	JobID     string  `json:"jobId"`
}

type ReserveLine struct {
	ItemID string  `json:"itemId" validate:"required"`
	Qty    float64 `json:"qty"    validate:"required,gt=0"`
}

type BulkReserveRequest struct {
	JobID       string        `json:"jobId"       validate:"required"`
	Items       []ReserveLine `json:"items"       validate:"required,min=1,dive"`
	ReserveType string        `json:"reserveType" validate:"omitempty,oneof=reserve consume"`
	Note        string        `json:"note"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// StockItemResponse decorates the item with the derived availability fields.
type StockItemResponse struct {
	model.StockItem
	Available  float64 `json:"available"`
	IsCritical bool    `json:"isCritical"`
}

func NewStockItemResponse(item model.StockItem) StockItemResponse {
	return StockItemResponse{
		StockItem:  item,
		Available:  item.Available(),
		IsCritical: item.IsCritical(),
	}
}

// AffectedReservation tells the caller which other job lost reserved quantity
// to a cascading adjustment, so the impacted job can be notified.
type AffectedReservation struct {
	ReservationID string  `json:"reservationId"`
	JobID         string  `json:"jobId"`
	ReducedBy     float64 `json:"reducedBy"`
}

type ReserveResult struct {
	ItemID               string                `json:"itemId"`
	Name                 string                `json:"name"`
	Qty                  float64               `json:"qty"`
	NewOnHand            float64               `json:"newOnHand"`
	NewReserved          float64               `json:"newReserved"`
	Available            float64               `json:"available"`
	AffectedReservations []AffectedReservation `json:"affectedReservations,omitempty"`
}

type ReserveError struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name,omitempty"`
	Error    string  `json:"error"`
	Shortage float64 `json:"shortage,omitempty"`
}

type BulkReserveResponse struct {
	Success bool            `json:"success"`
	JobID   string          `json:"jobId"`
	Results []ReserveResult `json:"results"`
	Errors  []ReserveError  `json:"errors"`
}

type CriticalItemResponse struct {
	model.StockItem
	Available float64 `json:"available"`
	Shortage  float64 `json:"shortage"`
}

type AvailabilityLine struct {
	ItemID      string  `json:"itemId"`
	Name        string  `json:"name,omitempty"`
	ProductCode string  `json:"productCode,omitempty"`
	ColorCode   string  `json:"colorCode,omitempty"`
	Requested   float64 `json:"requested"`
	Available   float64 `json:"available"`
	IsEnough    bool    `json:"isEnough"`
	Shortage    float64 `json:"shortage"`
	Error       string  `json:"error,omitempty"`
}

type AvailabilityResponse struct {
	AllAvailable bool               `json:"allAvailable"`
	Items        []AvailabilityLine `json:"items"`
}

type ReleaseResponse struct {
	Success     bool              `json:"success"`
	Reservation model.Reservation `json:"reservation"`
}

type MovementResponse struct {
	Item     StockItemResponse   `json:"item"`
	Movement model.StockMovement `json:"movement"`
}
