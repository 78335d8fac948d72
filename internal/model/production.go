package model

import (
	"time"
)

// Order types.
const (
	OrderInternal = "internal" // produced in our own workshop
	OrderExternal = "external" // purchased from a supplier
	OrderGlass    = "glass"    // glass dependency of internal production
)

// Derived order statuses. The stored Status column is only a query mirror —
// CalculateOrderStatus is the single source of truth.
const (
	OrderPending   = "pending"
	OrderPartial   = "partial"
	OrderCompleted = "completed"
)

// Issue statuses and resolutions.
const (
	IssuePending  = "pending"
	IssuePartial  = "partial"
	IssueResolved = "resolved"

	ResolutionReplaced  = "replaced"
	ResolutionRefunded  = "refunded"
	ResolutionCredited  = "credited"
	ResolutionCancelled = "cancelled"
)

// OrderLine is one ordered position. LineIndex is the stable position used by
// deliveries and issues to reference the line.
type OrderLine struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID     string  `gorm:"index;not null" json:"-"`
	LineIndex   int     `gorm:"not null" json:"lineIndex"`
	GlassType   string  `json:"glassType,omitempty"`
	GlassName   string  `json:"glassName,omitempty"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	Unit        string  `gorm:"not null;default:'pcs'" json:"unit"`
	Combination string  `json:"combination,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	ReceivedQty int     `gorm:"not null;default:0" json:"receivedQty"`
	ProblemQty  int     `gorm:"not null;default:0" json:"problemQty"`
}

// IssueResolution is one entry in an issue's resolution history.
type IssueResolution struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	IssueID     string    `gorm:"index;not null" json:"-"`
	Date        time.Time `json:"date"`
	Resolution  string    `gorm:"not null" json:"resolution"`
	ResolvedQty int       `gorm:"not null" json:"resolvedQty"`
	Note        string    `json:"note,omitempty"`
}

// Issue is a recorded delivery defect against one order line. A replacement
// shipment that itself arrives defective opens a child issue chained via
// ParentIssueID.
type Issue struct {
	ID            string            `gorm:"primaryKey;type:varchar(24)" json:"id"`
	OrderID       string            `gorm:"index;not null" json:"-"`
	LineIndex     int               `gorm:"not null" json:"lineIndex"`
	Type          string            `gorm:"not null" json:"type"` // broken | missing | wrong | other
	Quantity      int               `gorm:"not null" json:"quantity"`
	Note          string            `json:"note,omitempty"`
	Status        string            `gorm:"index;not null;default:'pending'" json:"status"`
	ParentIssueID *string           `gorm:"type:varchar(24);index" json:"parentIssueId,omitempty"`
	History       []IssueResolution `gorm:"foreignKey:IssueID" json:"history"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// DeliveryItem is the claim made at delivery time for one line. It is stored
// verbatim in the delivery record and never corrected afterwards — later
// issue resolutions do not rewrite history.
type DeliveryItem struct {
	LineIndex   int    `json:"lineIndex"`
	ReceivedQty int    `json:"receivedQty"`
	ProblemQty  int    `json:"problemQty"`
	ProblemType string `json:"problemType,omitempty"`
	ProblemNote string `json:"problemNote,omitempty"`
}

// Delivery is one receipt event against an order.
type Delivery struct {
	ID          string         `gorm:"primaryKey;type:varchar(24)" json:"id"`
	OrderID     string         `gorm:"index;not null" json:"-"`
	Date        string         `gorm:"type:varchar(10)" json:"date"`
	Note        string         `json:"note,omitempty"`
	DocumentURL string         `json:"documentUrl,omitempty"`
	Items       []DeliveryItem `gorm:"serializer:json" json:"items"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// ProductionOrder tracks internal production or an external purchase for one
// job and role. Progress is recomputed from lines and issues, never trusted
// from the stored column.
type ProductionOrder struct {
	ID           string `gorm:"primaryKey;type:varchar(24)" json:"id"`
	JobID        string `gorm:"index;not null" json:"jobId"`
	JobTitle     string `json:"jobTitle"`
	CustomerName string `json:"customerName"`
	RoleID       string `gorm:"index;not null" json:"roleId"`
	RoleName     string `json:"roleName"`
	OrderType    string `gorm:"index;not null" json:"orderType"`
	SupplierID   string `gorm:"index" json:"supplierId,omitempty"`
	SupplierName string `json:"supplierName,omitempty"`

	Items           []OrderLine `gorm:"foreignKey:OrderID" json:"items"`
	Issues          []Issue     `gorm:"foreignKey:OrderID" json:"issues"`
	DeliveryHistory []Delivery  `gorm:"foreignKey:OrderID" json:"deliveryHistory"`

	DocumentURL       string `json:"documentUrl,omitempty"`
	EstimatedDelivery string `gorm:"type:varchar(10)" json:"estimatedDelivery,omitempty"`
	Notes             string `json:"notes,omitempty"`

	Status    string    `gorm:"index;not null;default:'pending'" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CalculateOrderStatus recomputes an order's authoritative progress:
// pending while nothing was received, completed only when every line is fully
// received and no issue is still pending, partial in between.
func CalculateOrderStatus(o *ProductionOrder) string {
	if len(o.Items) == 0 {
		return OrderPending
	}

	totalQty, receivedQty := 0, 0
	for _, it := range o.Items {
		totalQty += it.Quantity
		receivedQty += it.ReceivedQty
	}

	pendingIssues := false
	for _, iss := range o.Issues {
		if iss.Status == IssuePending {
			pendingIssues = true
			break
		}
	}

	switch {
	case receivedQty == 0:
		return OrderPending
	case receivedQty < totalQty || pendingIssues:
		return OrderPartial
	default:
		return OrderCompleted
	}
}

// IsOverdue reports whether the estimated delivery date has passed while the
// order is not yet completed.
func IsOverdue(o *ProductionOrder, now time.Time) bool {
	if o.EstimatedDelivery == "" {
		return false
	}
	est, err := time.Parse("2006-01-02", o.EstimatedDelivery)
	if err != nil {
		return false
	}
	return now.After(est) && CalculateOrderStatus(o) != OrderCompleted
}

// LineByIndex returns the order line at lineIndex, or nil.
func (o *ProductionOrder) LineByIndex(lineIndex int) *OrderLine {
	for i := range o.Items {
		if o.Items[i].LineIndex == lineIndex {
			return &o.Items[i]
		}
	}
	return nil
}

// IssueIndex returns the position of the issue with the given id in Issues,
// or -1. Callers mutate via the index: a pointer into the slice goes stale
// when a chained child issue is appended.
func (o *ProductionOrder) IssueIndex(id string) int {
	for i := range o.Issues {
		if o.Issues[i].ID == id {
			return i
		}
	}
	return -1
}

// Combination is an autocomplete value for profile/color combinations used
// when creating orders. Folded case-insensitively on write.
type Combination struct {
	ID   string `gorm:"primaryKey;type:varchar(24)" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

func (Combination) TableName() string { return "combinations" }
