package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mudogruer/istakip-18.01.26/internal/apierror"
	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/model"
	"github.com/mudogruer/istakip-18.01.26/internal/repository"
)

// closeTolerance is the rounding slack accepted when balancing a closure.
var closeTolerance = decimal.NewFromFloat(0.01)

// JobService drives the job pipeline. Every mutation loads the job, rewrites
// exactly one stage sub-document, appends a log entry and saves.
type JobService interface {
	Create(ctx context.Context, req dto.CreateJobRequest) (*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, filter repository.JobFilter) ([]model.Job, error)

	UpdateMeasure(ctx context.Context, id string, req dto.MeasureUpdateRequest) (*model.Job, error)
	UpdateOffer(ctx context.Context, id string, req dto.OfferUpdateRequest) (*model.Job, error)
	StartApproval(ctx context.Context, id string, req dto.ApprovalStartRequest) (*model.Job, error)
	UpdatePayment(ctx context.Context, id string, req dto.PaymentUpdateRequest) (*model.Job, error)
	UpdateStock(ctx context.Context, id string, req dto.StockStatusRequest) (*model.Job, error)
	UpdateProduction(ctx context.Context, id string, req dto.ProductionStatusRequest) (*model.Job, error)
	ScheduleAssembly(ctx context.Context, id string, req dto.AssemblyScheduleRequest) (*model.Job, error)
	CompleteAssembly(ctx context.Context, id string, req dto.AssemblyCompleteRequest) (*model.Job, error)
	UpdateStatus(ctx context.Context, id string, req dto.StatusUpdateRequest) (*model.Job, error)
	CloseFinance(ctx context.Context, id string, req dto.FinanceCloseRequest) (*model.Job, error)
}

type jobService struct {
	repo repository.JobRepository
}

func NewJobService(repo repository.JobRepository) JobService {
	return &jobService{repo: repo}
}

func (s *jobService) Create(ctx context.Context, req dto.CreateJobRequest) (*model.Job, error) {
	job := &model.Job{
		ID:           model.NewID("JOB"),
		Title:        req.Title,
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
		StartType:    req.StartType,
		Roles:        req.Roles,
		Status:       model.InitialStatus(req.StartType),
	}

	if req.StartType == model.StartService {
		job.Service = model.ServiceStage{Note: req.ServiceNote, FixedFee: req.ServiceFixedFee}
	}

	if req.StartType == model.StartArchive || req.IsArchive {
		// Historical intake: the work already happened, the record arrives
		// pre-closed with every stage marked done.
		job.IsArchive = true
		job.Status = model.StatusClosed
		job.ArchiveDate = req.ArchiveDate
		job.ArchiveCompletedDate = req.ArchiveCompletedDate
		job.Notes = req.ArchiveNote

		job.Measure.Completed = true
		job.Offer.Completed = true
		job.Approval.Started = true
		job.Approval.Completed = true
		job.Stock.Ready = true
		job.Stock.Completed = true
		job.Production.Completed = true
		job.Assembly.Completed = true
		job.Service.Completed = true

		now := time.Now().UTC()
		job.Finance.Closed = true
		job.Finance.ClosedAt = &now
		if req.ArchiveTotalAmount != nil {
			job.Finance.Total = *req.ArchiveTotalAmount
			job.Offer.Total = *req.ArchiveTotalAmount
		}
		job.Log("archive.created", req.ArchiveNote)
	} else {
		job.Log("job.created", "start type "+req.StartType)
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) Get(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("job")
	}
	return job, nil
}

func (s *jobService) List(ctx context.Context, filter repository.JobFilter) ([]model.Job, error) {
	return s.repo.List(ctx, filter)
}

func (s *jobService) UpdateMeasure(ctx context.Context, id string, req dto.MeasureUpdateRequest) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("job")
	}

	if req.Measurements != nil {
		job.Measure.Measurements = mergeMap(job.Measure.Measurements, req.Measurements)
		job.Measure.Completed = true
	}
	if req.Appointment != nil {
		job.Measure.Appointment = mergeMap(job.Measure.Appointment, req.Appointment)
	}
	if req.Service != nil {
		applyServiceMap(&job.Service, req.Service)
	}
	s.transition(job, req.Status, "measure.updated")

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) UpdateOffer(ctx context.Context, id string, req dto.OfferUpdateRequest) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("job")
	}

	job.Offer = model.OfferStage{Lines: req.Lines, Total: req.Total, Completed: true}

	status := req.Status
	if status == "" {
		status = model.StatusOfferDraft
	}
	s.transition(job, status, "offer.updated")

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) StartApproval(ctx context.Context, id string, req dto.ApprovalStartRequest) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("job")
	}

	job.Approval = model.ApprovalStage{
		Started:     true,
		Completed:   true,
		PaymentPlan: req.PaymentPlan,
		ContractURL: req.ContractURL,
		StockNeeds:  req.StockNeeds,
		TotalAmount: job.Offer.Total,
	}
	s.transition(job, model.StatusAgreementCompleted, "approval.started")

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) UpdatePayment(ctx context.Context, id string, req dto.PaymentUpdateRequest) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("job")
	}

	job.Approval.PaymentPlan = req.PaymentPlan
	job.Log("approval.payment_updated", "")

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) UpdateStock(ctx context.Context, id string, req dto.StockStatusRequest) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("job")
	}

	job.Stock.Ready = req.Ready
	job.Stock.PurchaseNotes = req.PurchaseNotes
	if req.Items != nil {
		job.Stock.Items = req.Items
	}

	if req.Ready {
		job.Stock.Completed = true
		job.Stock.EstimatedDate = ""
		s.transition(job, model.StatusProductionReady, "stock.ready")
	} else {
		// Material not on hand yet: production waits for supply.
		job.Stock.EstimatedDate = req.EstimatedDate
		s.transition(job, model.StatusProductionDeferred, "stock.deferred")
	}

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) UpdateProduction(ctx context.Context, id string, req dto.ProductionStatusRequest) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("job")
	}

	job.Production.Status = req.Status
	job.Production.Note = req.Note
	if req.AgreementDate != "" {
		job.Production.AgreementDate = req.AgreementDate
	}
	if req.Status == model.StatusReadyForAssembly {
		job.Production.Completed = true
	}
	s.transition(job, req.Status, "production.updated")

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) ScheduleAssembly(ctx context.Context, id string, req dto.AssemblyScheduleRequest) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("job")
	}

	job.Assembly.Schedule = model.AssemblySchedule{Date: req.Date, Note: req.Note, Team: req.Team}
	job.Assembly.Date = req.Date
	s.transition(job, model.StatusAssemblyScheduled, "assembly.scheduled")

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) CompleteAssembly(ctx context.Context, id string, req dto.AssemblyCompleteRequest) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("job")
	}

	job.Assembly.Complete = &model.AssemblyCompletion{At: time.Now().UTC(), Proof: req.Proof}
	job.Assembly.Completed = true
	if req.Date != "" {
		job.Assembly.Date = req.Date
	}
	if req.Team != "" {
		job.Assembly.Schedule.Team = req.Team
	}
	s.transition(job, model.StatusAwaitingAccounting, "assembly.completed")

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateStatus is the free-form transition endpoint used by the office for
// corrections, rejections and service flows. Transitions are not restricted
// to a fixed table.
func (s *jobService) UpdateStatus(ctx context.Context, id string, req dto.StatusUpdateRequest) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("job")
	}

	if req.Service != nil {
		applyServiceMap(&job.Service, req.Service)
	}
	if req.Offer != nil {
		if total, ok := req.Offer["total"]; ok {
			if d, err := toDecimal(total); err == nil {
				job.Offer.Total = d
			}
		}
	}
	if req.Rejection != nil {
		rej := *req.Rejection
		if rej.At == "" {
			rej.At = time.Now().UTC().Format("2006-01-02")
		}
		job.Rejection = &rej
	}
	s.transition(job, req.Status, "status.updated")

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// CloseFinance settles the job. The books must balance before anything is
// written: offer total minus pre-payments, final payments and discount must
// land within 0.01, and a non-zero discount carries a note.
func (s *jobService) CloseFinance(ctx context.Context, id string, req dto.FinanceCloseRequest) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("job")
	}
	if job.Finance.Closed {
		return nil, apierror.InvalidState("job is already financially closed")
	}

	plan := job.Approval.PaymentPlan
	pre := model.Payments{Cash: plan.Cash, Card: plan.Card, Cheque: plan.Cheque}

	discount := decimal.Zero
	if req.Discount != nil {
		discount = req.Discount.Amount
		if !discount.IsZero() && req.Discount.Note == "" {
			return nil, apierror.Validation("a discount requires a note")
		}
	}

	// The amount owed is the job's offer total, never a client-supplied figure.
	total := job.Offer.Total

	paid := pre.Cash.Add(pre.Card).Add(pre.Cheque).
		Add(req.Payments.Cash).Add(req.Payments.Card).Add(req.Payments.Cheque).
		Add(discount)
	balance := total.Sub(paid)

	if balance.Abs().GreaterThan(closeTolerance) {
		return nil, &apierror.Error{
			Kind:   apierror.KindValidation,
			Detail: fmt.Sprintf("books do not balance: %s remaining", balance.StringFixed(2)),
			Meta:   map[string]interface{}{"balance": balance.StringFixed(2)},
		}
	}

	now := time.Now().UTC()
	job.Finance = model.FinanceStage{
		Closed:        true,
		Total:         total,
		PrePayments:   pre,
		FinalPayments: req.Payments,
		Discount:      req.Discount,
		ClosedAt:      &now,
	}
	s.transition(job, model.StatusClosed, "finance.closed")

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// transition sets the status when it actually changes and logs the move.
func (s *jobService) transition(job *model.Job, newStatus, action string) {
	if newStatus == "" || newStatus == job.Status {
		job.Log(action, "")
		return
	}
	old := job.Status
	job.Status = newStatus
	job.Log(action, old+" -> "+newStatus)
}

func mergeMap(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func applyServiceMap(stage *model.ServiceStage, m map[string]interface{}) {
	if note, ok := m["note"].(string); ok {
		stage.Note = note
	}
	if completed, ok := m["completed"].(bool); ok {
		stage.Completed = completed
	}
	if fee, ok := m["fixedFee"]; ok {
		if d, err := toDecimal(fee); err == nil {
			stage.FixedFee = &d
		}
	}
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	case int:
		return decimal.NewFromInt(int64(n)), nil
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", v)
	}
}
