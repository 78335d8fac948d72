package dto

import (
	"github.com/shopspring/decimal"

	"github.com/mudogruer/istakip-18.01.26/internal/model"
)

// ─── Purchase orders ─────────────────────────────────────────────────────────

type PurchaseItemRequest struct {
	ProductCode string           `json:"productCode" validate:"required"`
	ColorCode   string           `json:"colorCode"   validate:"required"`
	ProductName string           `json:"productName" validate:"required"`
	Quantity    float64          `json:"quantity"    validate:"required,gt=0"`
	Unit        string           `json:"unit"        validate:"required"`
	UnitCost    *decimal.Decimal `json:"unitCost"`
}

type CreatePurchaseOrderRequest struct {
	SupplierID   string                `json:"supplierId"   validate:"required"`
	SupplierName string                `json:"supplierName" validate:"required"`
	Items        []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes        string                `json:"notes"`
	ExpectedDate string                `json:"expectedDate"`
	RelatedJobs  []string              `json:"relatedJobs"`
}

type AddPurchaseItemsRequest struct {
	Items       []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
	RelatedJobs []string              `json:"relatedJobs"`
}

type ReceiveLine struct {
	ProductCode string  `json:"productCode" validate:"required"`
	ColorCode   string  `json:"colorCode"   validate:"required"`
	Quantity    float64 `json:"quantity"    validate:"required,gt=0"`
}

type ReceiveDeliveryRequest struct {
	Items      []ReceiveLine `json:"items" validate:"required,min=1,dive"`
	Note       string        `json:"note"`
	ReceivedBy string        `json:"receivedBy"`
}

type MissingItemResponse struct {
	ItemID          string  `json:"itemId"`
	ProductCode     string  `json:"productCode"`
	ColorCode       string  `json:"colorCode"`
	Name            string  `json:"name"`
	ColorName       string  `json:"colorName,omitempty"`
	Unit            string  `json:"unit"`
	SupplierID      string  `json:"supplierId"`
	SupplierName    string  `json:"supplierName,omitempty"`
	OnHand          float64 `json:"onHand"`
	Reserved        float64 `json:"reserved"`
	Available       float64 `json:"available"`
	Critical        float64 `json:"critical"`
	SuggestedQty    float64 `json:"suggestedQty"`
	PendingInOrders float64 `json:"pendingInOrders"`
}

type PendingItemResponse struct {
	OrderID      string  `json:"orderId"`
	SupplierID   string  `json:"supplierId"`
	SupplierName string  `json:"supplierName"`
	ExpectedDate string  `json:"expectedDate,omitempty"`
	ProductCode  string  `json:"productCode"`
	ColorCode    string  `json:"colorCode"`
	ProductName  string  `json:"productName"`
	Ordered      float64 `json:"ordered"`
	Received     float64 `json:"received"`
	Remaining    float64 `json:"remaining"`
	Unit         string  `json:"unit"`
}

// ─── Suppliers ───────────────────────────────────────────────────────────────

type CreateSupplierRequest struct {
	Name         string                 `json:"name" validate:"required,min=2"`
	Type         string                 `json:"type" validate:"omitempty,oneof=manufacturer dealer"`
	Category     string                 `json:"category"`
	Contact      map[string]interface{} `json:"contact"`
	LeadTimeDays *int                   `json:"leadTimeDays"`
	Notes        string                 `json:"notes"`
}

type UpdateSupplierRequest struct {
	Name         *string                `json:"name"`
	Type         *string                `json:"type" validate:"omitempty,oneof=manufacturer dealer"`
	Category     *string                `json:"category"`
	Contact      map[string]interface{} `json:"contact"`
	LeadTimeDays *int                   `json:"leadTimeDays"`
	Notes        *string                `json:"notes"`
	Rating       *float64               `json:"rating" validate:"omitempty,min=0,max=5"`
}

type SupplierTransactionRequest struct {
	ProductCode string  `json:"productCode" validate:"required"`
	ColorCode   string  `json:"colorCode"   validate:"required"`
	ProductName string  `json:"productName" validate:"required"`
	Quantity    float64 `json:"quantity"    validate:"required,gt=0"`
	Unit        string  `json:"unit"        validate:"required"`
	Type        string  `json:"type"        validate:"required,oneof=received given"`
	Note        string  `json:"note"`
	Date        string  `json:"date"`
}

// ProductBalance aggregates one product's consignment position with a dealer.
// Positive balance: we took more than we gave back.
type ProductBalance struct {
	ProductCode   string  `json:"productCode"`
	ColorCode     string  `json:"colorCode"`
	ProductName   string  `json:"productName"`
	Unit          string  `json:"unit"`
	TotalReceived float64 `json:"totalReceived"`
	TotalGiven    float64 `json:"totalGiven"`
	Balance       float64 `json:"balance"`
}

type SupplierTransactionsResponse struct {
	Transactions []model.SupplierTransaction `json:"transactions"`
	Balances     []ProductBalance            `json:"balances"`
}
