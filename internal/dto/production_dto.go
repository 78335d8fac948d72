package dto

import "github.com/mudogruer/istakip-18.01.26/internal/model"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrderLineRequest struct {
	GlassType   string `json:"glassType"`
	GlassName   string `json:"glassName"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	Unit        string `json:"unit"`
	Combination string `json:"combination"`
	Notes       string `json:"notes"`
}

type CreateOrderRequest struct {
	JobID             string             `json:"jobId"     validate:"required"`
	RoleID            string             `json:"roleId"    validate:"required"`
	RoleName          string             `json:"roleName"  validate:"required"`
	OrderType         string             `json:"orderType" validate:"required,oneof=internal external glass"`
	SupplierID        string             `json:"supplierId"`
	SupplierName      string             `json:"supplierName"`
	Items             []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
	DocumentURL       string             `json:"documentUrl"`
	EstimatedDelivery string             `json:"estimatedDelivery"`
	Notes             string             `json:"notes"`
}

type DeliveryLineRequest struct {
	LineIndex   int    `json:"lineIndex"   validate:"min=0"`
	ReceivedQty int    `json:"receivedQty" validate:"required,gt=0"`
	ProblemQty  int    `json:"problemQty"  validate:"min=0"`
	ProblemType string `json:"problemType" validate:"omitempty,oneof=broken missing wrong other"`
	ProblemNote string `json:"problemNote"`
}

type RecordDeliveryRequest struct {
	Deliveries   []DeliveryLineRequest `json:"deliveries" validate:"required,min=1,dive"`
	DeliveryDate string                `json:"deliveryDate"`
	DeliveryNote string                `json:"deliveryNote"`
	DocumentURL  string                `json:"documentUrl"`
}

type ResolveIssueRequest struct {
	Resolution  string `json:"resolution"  validate:"required,oneof=replaced refunded credited cancelled"`
	ResolvedQty int    `json:"resolvedQty" validate:"required,gt=0"`
	Note        string `json:"note"`
	// Chained issue: part of the replacement shipment was defective too.
	NewIssueQty  int    `json:"newIssueQty"  validate:"min=0"`
	NewIssueType string `json:"newIssueType" validate:"omitempty,oneof=broken missing wrong other"`
	NewIssueNote string `json:"newIssueNote"`
}

type OrderFilter struct {
	JobID      string `form:"jobId"`
	RoleID     string `form:"roleId"`
	OrderType  string `form:"orderType"`
	Status     string `form:"status"`
	SupplierID string `form:"supplierId"`
	Overdue    bool   `form:"overdue"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// OrderResponse decorates the order with derived fields computed at read time.
type OrderResponse struct {
	model.ProductionOrder
	CalculatedStatus string `json:"calculatedStatus"`
	IsOverdue        bool   `json:"isOverdue"`
}

type JobOrdersSummary struct {
	TotalOrders      int  `json:"totalOrders"`
	TotalItems       int  `json:"totalItems"`
	ReceivedItems    int  `json:"receivedItems"`
	PendingIssues    int  `json:"pendingIssues"`
	AllCompleted     bool `json:"allCompleted"`
	ReadyForAssembly bool `json:"readyForAssembly"`
}

type JobOrdersResponse struct {
	Orders  []OrderResponse  `json:"orders"`
	Summary JobOrdersSummary `json:"summary"`
}

type OrderSummaryResponse struct {
	Total         int             `json:"total"`
	Pending       int             `json:"pending"`
	Partial       int             `json:"partial"`
	Completed     int             `json:"completed"`
	Overdue       int             `json:"overdue"`
	ByType        map[string]int  `json:"byType"`
	PendingIssues int             `json:"pendingIssues"`
	OverdueOrders []OrderResponse `json:"overdueOrders"`
	RecentIssues  []PendingIssue  `json:"recentIssues"`
}

// PendingIssue flattens an issue with its order context for alert lists.
type PendingIssue struct {
	model.Issue
	OrderID string `json:"orderId"`
	JobID   string `json:"jobId"`
}

type Alert struct {
	Type              string `json:"type"` // overdue | due_today | pending_issue
	Severity          string `json:"severity"`
	OrderID           string `json:"orderId"`
	JobID             string `json:"jobId"`
	JobTitle          string `json:"jobTitle"`
	RoleName          string `json:"roleName,omitempty"`
	EstimatedDelivery string `json:"estimatedDelivery,omitempty"`
	IssueID           string `json:"issueId,omitempty"`
	IssueType         string `json:"issueType,omitempty"`
	Quantity          int    `json:"quantity,omitempty"`
	Message           string `json:"message"`
}
