package dto

import (
	"github.com/shopspring/decimal"

	"github.com/mudogruer/istakip-18.01.26/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateJobRequest struct {
	CustomerID   string   `json:"customerId"   validate:"required"`
	CustomerName string   `json:"customerName" validate:"required"`
	Title        string   `json:"title"        validate:"required,min=2"`
	StartType    string   `json:"startType"    validate:"required,oneof=measurement customer_measurement service archive"`
	Roles        []string `json:"roles"`

	ServiceNote     string           `json:"serviceNote"`
	ServiceFixedFee *decimal.Decimal `json:"serviceFixedFee"`

	// Archive intake — historical jobs are created pre-closed.
	IsArchive            bool             `json:"isArchive"`
	ArchiveDate          *string          `json:"archiveDate"`
	ArchiveCompletedDate *string          `json:"archiveCompletedDate"`
	ArchiveTotalAmount   *decimal.Decimal `json:"archiveTotalAmount"`
	ArchiveNote          string           `json:"archiveNote"`
}

type MeasureUpdateRequest struct {
	Measurements map[string]interface{} `json:"measurements"`
	Appointment  map[string]interface{} `json:"appointment"`
	Service      map[string]interface{} `json:"service"`
	Status       string                 `json:"status"`
}

type OfferUpdateRequest struct {
	Lines  []model.OfferLine `json:"lines"  validate:"required,min=1"`
	Total  decimal.Decimal   `json:"total"  validate:"required"`
	Status string            `json:"status"`
}

type ApprovalStartRequest struct {
	PaymentPlan model.PaymentPlan `json:"paymentPlan" validate:"required"`
	ContractURL string            `json:"contractUrl"`
	StockNeeds  []model.StockNeed `json:"stockNeeds"`
}

type PaymentUpdateRequest struct {
	PaymentPlan model.PaymentPlan `json:"paymentPlan" validate:"required"`
}

type StockStatusRequest struct {
	Ready         bool              `json:"ready"`
	PurchaseNotes string            `json:"purchaseNotes"`
	Items         []model.StockNeed `json:"items"`
	EstimatedDate string            `json:"estimatedDate"`
}

type ProductionStatusRequest struct {
	Status        string `json:"status" validate:"required,oneof=in_production ready_for_assembly under_agreement"`
	Note          string `json:"note"`
	AgreementDate string `json:"agreementDate"`
}

type AssemblyScheduleRequest struct {
	Date string `json:"date" validate:"required"`
	Note string `json:"note"`
	Team string `json:"team"`
}

type AssemblyCompleteRequest struct {
	Date  string                 `json:"date"`
	Note  string                 `json:"note"`
	Team  string                 `json:"team"`
	Proof map[string]interface{} `json:"proof"`
}

type StatusUpdateRequest struct {
	Status    string                 `json:"status" validate:"required"`
	Service   map[string]interface{} `json:"service"`
	Offer     map[string]interface{} `json:"offer"`
	Rejection *model.Rejection       `json:"rejection"`
}

type FinanceCloseRequest struct {
	Payments model.Payments  `json:"payments" validate:"required"`
	Discount *model.Discount `json:"discount"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// FinanceCloseError reports the balance delta when closure is rejected.
type FinanceCloseError struct {
	Detail  string          `json:"detail"`
	Balance decimal.Decimal `json:"balance"`
}
