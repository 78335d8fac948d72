package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Start types decide which branch of the pipeline a job enters.
const (
	StartMeasurement         = "measurement"          // we send a team to measure
	StartCustomerMeasurement = "customer_measurement" // customer supplies measurements
	StartService             = "service"              // repair / service call
	StartArchive             = "archive"              // historical record, created pre-closed
)

// Job statuses. The pipeline is workflow-defined, not table-validated: every
// stage endpoint sets the status it completes into (see JobService).
const (
	StatusMeasureAppointmentPending  = "measure_appointment_pending"
	StatusCustomerMeasurePending     = "customer_measure_pending"
	StatusServiceAppointmentPending  = "service_appointment_pending"
	StatusOfferDraft                 = "offer_draft"
	StatusAgreementCompleted         = "agreement_completed"
	StatusProductionReady            = "production_ready"
	StatusProductionDeferred         = "production_deferred"
	StatusInProduction               = "in_production"
	StatusReadyForAssembly           = "ready_for_assembly"
	StatusUnderAgreement             = "under_agreement"
	StatusAssemblyScheduled          = "assembly_scheduled"
	StatusAwaitingAccounting         = "awaiting_accounting"
	StatusClosed                     = "closed"
	StatusRejected                   = "rejected"
)

// InitialStatus derives the status a freshly created job starts in.
func InitialStatus(startType string) string {
	switch startType {
	case StartCustomerMeasurement:
		return StatusCustomerMeasurePending
	case StartService:
		return StatusServiceAppointmentPending
	default:
		return StatusMeasureAppointmentPending
	}
}

// LogEntry is one append-only audit line on a job.
type LogEntry struct {
	At     time.Time `json:"at"`
	Action string    `json:"action"`
	Note   string    `json:"note,omitempty"`
}

// MeasureStage holds appointment and measurement data.
type MeasureStage struct {
	Measurements map[string]interface{} `json:"measurements,omitempty"`
	Appointment  map[string]interface{} `json:"appointment,omitempty"`
	Completed    bool                   `json:"completed,omitempty"`
}

// OfferLine is a single proposal line.
type OfferLine struct {
	Description string          `json:"description"`
	Qty         float64         `json:"qty"`
	Unit        string          `json:"unit,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

type OfferStage struct {
	Lines     []OfferLine     `json:"lines,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Completed bool            `json:"completed,omitempty"`
}

// PaymentPlan records what the customer committed to at agreement time.
// Cash/Card/Cheque are pre-payments received up front; AfterDelivery is the
// remainder collected at financial closure.
type PaymentPlan struct {
	Type          string          `json:"type,omitempty"`
	Cash          decimal.Decimal `json:"cash"`
	Card          decimal.Decimal `json:"card"`
	Cheque        decimal.Decimal `json:"cheque"`
	AfterDelivery decimal.Decimal `json:"afterDelivery"`
	ChequeDetail  string          `json:"chequeDetail,omitempty"`
}

type StockNeed struct {
	ItemID      string  `json:"id"`
	Name        string  `json:"name"`
	ProductCode string  `json:"productCode,omitempty"`
	ColorCode   string  `json:"colorCode,omitempty"`
	Qty         float64 `json:"qty"`
	Unit        string  `json:"unit,omitempty"`
}

type ApprovalStage struct {
	Started     bool            `json:"started,omitempty"`
	Completed   bool            `json:"completed,omitempty"`
	PaymentPlan PaymentPlan     `json:"paymentPlan"`
	ContractURL string          `json:"contractUrl,omitempty"`
	StockNeeds  []StockNeed     `json:"stockNeeds,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ArchiveDate string          `json:"archiveDate,omitempty"`
}

type StockStage struct {
	Ready         bool        `json:"ready"`
	Completed     bool        `json:"completed,omitempty"`
	PurchaseNotes string      `json:"purchaseNotes,omitempty"`
	Items         []StockNeed `json:"items,omitempty"`
	// EstimatedDate is set when production is deferred until supply arrives.
	EstimatedDate string `json:"estimatedDate,omitempty"`
}

type ProductionStage struct {
	Status        string `json:"status,omitempty"`
	Note          string `json:"note,omitempty"`
	AgreementDate string `json:"agreementDate,omitempty"`
	Completed     bool   `json:"completed,omitempty"`
}

type AssemblySchedule struct {
	Date string `json:"date,omitempty"`
	Note string `json:"note,omitempty"`
	Team string `json:"team,omitempty"`
}

type AssemblyCompletion struct {
	At    time.Time              `json:"at"`
	Proof map[string]interface{} `json:"proof,omitempty"`
}

type AssemblyStage struct {
	Schedule  AssemblySchedule    `json:"schedule"`
	Complete  *AssemblyCompletion `json:"complete,omitempty"`
	Completed bool                `json:"completed,omitempty"`
	Date      string              `json:"date,omitempty"`
}

type Discount struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

type Payments struct {
	Cash   decimal.Decimal `json:"cash"`
	Card   decimal.Decimal `json:"card"`
	Cheque decimal.Decimal `json:"cheque"`
}

type FinanceStage struct {
	Closed        bool            `json:"closed"`
	Total         decimal.Decimal `json:"total"`
	PrePayments   Payments        `json:"prePayments"`
	FinalPayments Payments        `json:"finalPayments"`
	Discount      *Discount       `json:"discount,omitempty"`
	ClosedAt      *time.Time      `json:"closedAt,omitempty"`
}

type ServiceStage struct {
	Note           string                   `json:"note,omitempty"`
	FixedFee       *decimal.Decimal         `json:"fixedFee,omitempty"`
	ExtraMaterials []map[string]interface{} `json:"extraMaterials,omitempty"`
	Completed      bool                     `json:"completed"`
}

type Rejection struct {
	Reason string `json:"reason,omitempty"`
	Note   string `json:"note,omitempty"`
	At     string `json:"at,omitempty"`
}

// Job is the top-level workflow record. Stage sub-documents are owned
// exclusively by the job and stored as jsonb; each pipeline endpoint rewrites
// its own stage and appends a log entry. Jobs are never hard-deleted.
type Job struct {
	ID           string `gorm:"primaryKey;type:varchar(24)" json:"id"`
	Title        string `gorm:"not null" json:"title"`
	CustomerID   string `gorm:"index;not null" json:"customerId"`
	CustomerName string `json:"customerName"`
	Status       string `gorm:"index;not null" json:"status"`
	StartType    string `gorm:"not null" json:"startType"`
	Roles        []string `gorm:"serializer:json" json:"roles"`

	Measure    MeasureStage    `gorm:"serializer:json" json:"measure"`
	Offer      OfferStage      `gorm:"serializer:json" json:"offer"`
	Approval   ApprovalStage   `gorm:"serializer:json" json:"approval"`
	Stock      StockStage      `gorm:"serializer:json" json:"stock"`
	Production ProductionStage `gorm:"serializer:json" json:"production"`
	Assembly   AssemblyStage   `gorm:"serializer:json" json:"assembly"`
	Finance    FinanceStage    `gorm:"serializer:json" json:"finance"`
	Service    ServiceStage    `gorm:"serializer:json" json:"service"`
	Rejection  *Rejection      `gorm:"serializer:json" json:"rejection,omitempty"`

	Logs  []LogEntry `gorm:"serializer:json" json:"logs"`
	Notes string     `json:"notes,omitempty"`

	IsArchive           bool    `gorm:"not null;default:false" json:"isArchive"`
	ArchiveDate         *string `json:"archiveDate,omitempty"`
	ArchiveCompletedDate *string `json:"archiveCompletedDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Log appends an audit entry. Entries are never rewritten.
func (j *Job) Log(action, note string) {
	j.Logs = append(j.Logs, LogEntry{At: time.Now().UTC(), Action: action, Note: note})
}
