package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mudogruer/istakip-18.01.26/internal/apierror"
	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/model"
	"github.com/mudogruer/istakip-18.01.26/internal/repository"
	"github.com/mudogruer/istakip-18.01.26/internal/worker"
)

// ProductionService tracks internal production and external procurement
// orders with partial deliveries and chained issue resolution. Progress is
// always recomputed from lines and issues; the stored status column is only
// refreshed as a query mirror.
type ProductionService interface {
	Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, id string) (*dto.OrderResponse, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]dto.OrderResponse, error)
	Update(ctx context.Context, id string, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Delete(ctx context.Context, id string) error

	RecordDelivery(ctx context.Context, id string, req dto.RecordDeliveryRequest) (*dto.OrderResponse, error)
	ResolveIssue(ctx context.Context, orderID, issueID string, req dto.ResolveIssueRequest) (*dto.OrderResponse, error)

	ByJob(ctx context.Context, jobID string) (*dto.JobOrdersResponse, error)
	Summary(ctx context.Context) (*dto.OrderSummaryResponse, error)
	Alerts(ctx context.Context) ([]dto.Alert, error)
	Combinations(ctx context.Context) ([]string, error)
}

// alertsCacheKey is shared with the overdue scanner, which invalidates the
// cached payload on every pass.
const alertsCacheKey = worker.AlertsCacheKey

type productionService struct {
	repo    repository.ProductionOrderRepository
	jobRepo repository.JobRepository
	rdb     *redis.Client // nil disables alert caching
}

func NewProductionService(repo repository.ProductionOrderRepository, jobRepo repository.JobRepository, rdb *redis.Client) ProductionService {
	return &productionService{repo: repo, jobRepo: jobRepo, rdb: rdb}
}

func (s *productionService) Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	job, err := s.jobRepo.FindByID(ctx, req.JobID)
	if err != nil {
		return nil, apierror.NotFound("job")
	}

	order := &model.ProductionOrder{
		ID:                model.NewID("PROD"),
		JobID:             job.ID,
		JobTitle:          job.Title,
		CustomerName:      job.CustomerName,
		RoleID:            req.RoleID,
		RoleName:          req.RoleName,
		OrderType:         req.OrderType,
		SupplierID:        req.SupplierID,
		SupplierName:      req.SupplierName,
		DocumentURL:       req.DocumentURL,
		EstimatedDelivery: req.EstimatedDelivery,
		Notes:             req.Notes,
		Status:            model.OrderPending,
	}
	for i, line := range req.Items {
		unit := line.Unit
		if unit == "" {
			unit = "pcs"
		}
		order.Items = append(order.Items, model.OrderLine{
			LineIndex:   i,
			GlassType:   line.GlassType,
			GlassName:   line.GlassName,
			Quantity:    line.Quantity,
			Unit:        unit,
			Combination: line.Combination,
			Notes:       line.Notes,
		})
		if line.Combination != "" {
			_ = s.repo.SaveCombination(ctx, line.Combination)
		}
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	return s.respond(order), nil
}

func (s *productionService) Get(ctx context.Context, id string) (*dto.OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("order")
	}
	return s.respond(order), nil
}

func (s *productionService) List(ctx context.Context, filter dto.OrderFilter) ([]dto.OrderResponse, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		status := model.CalculateOrderStatus(o)
		if filter.JobID != "" && o.JobID != filter.JobID {
			continue
		}
		if filter.RoleID != "" && o.RoleID != filter.RoleID {
			continue
		}
		if filter.OrderType != "" && o.OrderType != filter.OrderType {
			continue
		}
		if filter.SupplierID != "" && o.SupplierID != filter.SupplierID {
			continue
		}
		if filter.Status != "" && status != filter.Status {
			continue
		}
		if filter.Overdue && !model.IsOverdue(o, now) {
			continue
		}
		out = append(out, dto.OrderResponse{
			ProductionOrder:  *o,
			CalculatedStatus: status,
			IsOverdue:        model.IsOverdue(o, now),
		})
	}
	return out, nil
}

// Update replaces the order head and lines. Only pending or partial orders may
// change, and received quantities survive the rewrite per line index.
func (s *productionService) Update(ctx context.Context, id string, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("order")
	}
	if status := model.CalculateOrderStatus(order); status == model.OrderCompleted {
		return nil, apierror.InvalidState("completed orders cannot be modified")
	}

	received := make(map[int]model.OrderLine, len(order.Items))
	for _, line := range order.Items {
		received[line.LineIndex] = line
	}

	order.RoleID = req.RoleID
	order.RoleName = req.RoleName
	order.OrderType = req.OrderType
	order.SupplierID = req.SupplierID
	order.SupplierName = req.SupplierName
	order.DocumentURL = req.DocumentURL
	order.EstimatedDelivery = req.EstimatedDelivery
	order.Notes = req.Notes

	lines := make([]model.OrderLine, 0, len(req.Items))
	for i, line := range req.Items {
		unit := line.Unit
		if unit == "" {
			unit = "pcs"
		}
		newLine := model.OrderLine{
			OrderID:     order.ID,
			LineIndex:   i,
			GlassType:   line.GlassType,
			GlassName:   line.GlassName,
			Quantity:    line.Quantity,
			Unit:        unit,
			Combination: line.Combination,
			Notes:       line.Notes,
		}
		if old, ok := received[i]; ok {
			newLine.ID = old.ID
			newLine.ReceivedQty = old.ReceivedQty
			newLine.ProblemQty = old.ProblemQty
		}
		lines = append(lines, newLine)
		if line.Combination != "" {
			_ = s.repo.SaveCombination(ctx, line.Combination)
		}
	}
	order.Items = lines
	order.Status = model.CalculateOrderStatus(order)

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return s.respond(order), nil
}

func (s *productionService) Delete(ctx context.Context, id string) error {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFound("order")
	}
	if status := model.CalculateOrderStatus(order); status != model.OrderPending {
		return apierror.InvalidState("only pending orders can be deleted")
	}
	return s.repo.Delete(ctx, id)
}

// RecordDelivery books a (possibly partial) goods receipt. Each line's
// receivedQty grows by the delivered amount; a reported problem opens a
// pending issue. The delivery record stores the claim verbatim and is never
// corrected afterwards.
func (s *productionService) RecordDelivery(ctx context.Context, id string, req dto.RecordDeliveryRequest) (*dto.OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("order")
	}

	date := req.DeliveryDate
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	delivery := model.Delivery{
		ID:          model.NewID("DEL"),
		OrderID:     order.ID,
		Date:        date,
		Note:        req.DeliveryNote,
		DocumentURL: req.DocumentURL,
	}

	for _, d := range req.Deliveries {
		line := order.LineByIndex(d.LineIndex)
		if line == nil {
			return nil, apierror.Validationf("order has no line %d", d.LineIndex)
		}

		line.ReceivedQty += d.ReceivedQty

		if d.ProblemQty > 0 {
			if d.ProblemType == "" {
				return nil, apierror.Validation("problemType is required when problemQty > 0")
			}
			line.ProblemQty += d.ProblemQty
			order.Issues = append(order.Issues, model.Issue{
				ID:        model.NewID("ISS"),
				OrderID:   order.ID,
				LineIndex: d.LineIndex,
				Type:      d.ProblemType,
				Quantity:  d.ProblemQty,
				Note:      d.ProblemNote,
				Status:    model.IssuePending,
			})
		}

		delivery.Items = append(delivery.Items, model.DeliveryItem{
			LineIndex:   d.LineIndex,
			ReceivedQty: d.ReceivedQty,
			ProblemQty:  d.ProblemQty,
			ProblemType: d.ProblemType,
			ProblemNote: d.ProblemNote,
		})
	}

	order.DeliveryHistory = append(order.DeliveryHistory, delivery)
	order.Status = model.CalculateOrderStatus(order)

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return s.respond(order), nil
}

// ResolveIssue appends a resolution to the issue's history. When part of the
// replacement shipment is itself defective, a child issue is opened and
// chained via parentIssueId. For replaced and credited resolutions the line's
// receivedQty grows by the net resolved amount.
func (s *productionService) ResolveIssue(ctx context.Context, orderID, issueID string, req dto.ResolveIssueRequest) (*dto.OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, apierror.NotFound("order")
	}
	issueIdx := order.IssueIndex(issueID)
	if issueIdx < 0 {
		return nil, apierror.NotFound("issue")
	}
	issue := &order.Issues[issueIdx]
	if issue.Status == model.IssueResolved {
		return nil, apierror.InvalidState("issue is already resolved")
	}
	if req.NewIssueQty > 0 && req.NewIssueType == "" {
		return nil, apierror.Validation("newIssueType is required when newIssueQty > 0")
	}
	if req.NewIssueQty > req.ResolvedQty {
		return nil, apierror.Validation("newIssueQty cannot exceed resolvedQty")
	}

	issue.History = append(issue.History, model.IssueResolution{
		IssueID:     issue.ID,
		Date:        time.Now().UTC(),
		Resolution:  req.Resolution,
		ResolvedQty: req.ResolvedQty,
		Note:        req.Note,
	})

	netResolved := req.ResolvedQty - req.NewIssueQty

	if req.NewIssueQty > 0 {
		parentID := issue.ID
		order.Issues = append(order.Issues, model.Issue{
			ID:            model.NewID("ISS"),
			OrderID:       order.ID,
			LineIndex:     issue.LineIndex,
			Type:          req.NewIssueType,
			Quantity:      req.NewIssueQty,
			Note:          req.NewIssueNote,
			Status:        model.IssuePending,
			ParentIssueID: &parentID,
		})
		// The append may have moved the backing array.
		issue = &order.Issues[issueIdx]
	}

	totalResolved := 0
	for _, h := range issue.History {
		totalResolved += h.ResolvedQty
	}
	// A chained child issue keeps the disputed quantity open on the child:
	// only the net amount counts toward closing the parent.
	if totalResolved-req.NewIssueQty >= issue.Quantity {
		issue.Status = model.IssueResolved
	} else {
		issue.Status = model.IssuePartial
	}

	if req.Resolution == model.ResolutionReplaced || req.Resolution == model.ResolutionCredited {
		if line := order.LineByIndex(issue.LineIndex); line != nil && netResolved > 0 {
			line.ReceivedQty += netResolved
		}
	}

	order.Status = model.CalculateOrderStatus(order)

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return s.respond(order), nil
}

// ByJob reports all orders of one job plus the readiness summary the job
// pipeline consumes before scheduling assembly.
func (s *productionService) ByJob(ctx context.Context, jobID string) (*dto.JobOrdersResponse, error) {
	orders, err := s.List(ctx, dto.OrderFilter{JobID: jobID})
	if err != nil {
		return nil, err
	}

	resp := &dto.JobOrdersResponse{Orders: orders}
	resp.Summary.TotalOrders = len(orders)
	allCompleted := len(orders) > 0
	for _, o := range orders {
		for _, line := range o.Items {
			resp.Summary.TotalItems += line.Quantity
			resp.Summary.ReceivedItems += line.ReceivedQty
		}
		for _, iss := range o.Issues {
			if iss.Status == model.IssuePending {
				resp.Summary.PendingIssues++
			}
		}
		if o.CalculatedStatus != model.OrderCompleted {
			allCompleted = false
		}
	}
	resp.Summary.AllCompleted = allCompleted
	resp.Summary.ReadyForAssembly = allCompleted && resp.Summary.PendingIssues == 0
	return resp, nil
}

func (s *productionService) Summary(ctx context.Context) (*dto.OrderSummaryResponse, error) {
	orders, err := s.List(ctx, dto.OrderFilter{})
	if err != nil {
		return nil, err
	}

	resp := &dto.OrderSummaryResponse{
		Total:         len(orders),
		ByType:        map[string]int{},
		OverdueOrders: []dto.OrderResponse{},
		RecentIssues:  []dto.PendingIssue{},
	}
	for _, o := range orders {
		switch o.CalculatedStatus {
		case model.OrderPending:
			resp.Pending++
		case model.OrderPartial:
			resp.Partial++
		case model.OrderCompleted:
			resp.Completed++
		}
		resp.ByType[o.OrderType]++
		if o.IsOverdue {
			resp.Overdue++
			resp.OverdueOrders = append(resp.OverdueOrders, o)
		}
		for _, iss := range o.Issues {
			if iss.Status == model.IssuePending {
				resp.PendingIssues++
				resp.RecentIssues = append(resp.RecentIssues, dto.PendingIssue{
					Issue:   iss,
					OrderID: o.ID,
					JobID:   o.JobID,
				})
			}
		}
	}

	sort.Slice(resp.RecentIssues, func(i, j int) bool {
		return resp.RecentIssues[i].CreatedAt.After(resp.RecentIssues[j].CreatedAt)
	})
	if len(resp.RecentIssues) > 10 {
		resp.RecentIssues = resp.RecentIssues[:10]
	}
	return resp, nil
}

// Alerts flattens overdue orders, today's expected deliveries and pending
// issues into one severity-sorted list for the dashboard.
func (s *productionService) Alerts(ctx context.Context) ([]dto.Alert, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, alertsCacheKey).Result(); err == nil {
			var alerts []dto.Alert
			if json.Unmarshal([]byte(cached), &alerts) == nil {
				return alerts, nil
			}
		}
	}

	orders, err := s.List(ctx, dto.OrderFilter{})
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Format("2006-01-02")
	alerts := []dto.Alert{}
	for _, o := range orders {
		if o.IsOverdue {
			alerts = append(alerts, dto.Alert{
				Type:              "overdue",
				Severity:          "high",
				OrderID:           o.ID,
				JobID:             o.JobID,
				JobTitle:          o.JobTitle,
				RoleName:          o.RoleName,
				EstimatedDelivery: o.EstimatedDelivery,
				Message:           fmt.Sprintf("%s delivery overdue since %s", o.RoleName, o.EstimatedDelivery),
			})
		} else if o.EstimatedDelivery == today && o.CalculatedStatus != model.OrderCompleted {
			alerts = append(alerts, dto.Alert{
				Type:              "due_today",
				Severity:          "medium",
				OrderID:           o.ID,
				JobID:             o.JobID,
				JobTitle:          o.JobTitle,
				RoleName:          o.RoleName,
				EstimatedDelivery: o.EstimatedDelivery,
				Message:           fmt.Sprintf("%s delivery expected today", o.RoleName),
			})
		}
		for _, iss := range o.Issues {
			if iss.Status != model.IssuePending {
				continue
			}
			alerts = append(alerts, dto.Alert{
				Type:      "pending_issue",
				Severity:  "medium",
				OrderID:   o.ID,
				JobID:     o.JobID,
				JobTitle:  o.JobTitle,
				RoleName:  o.RoleName,
				IssueID:   iss.ID,
				IssueType: iss.Type,
				Quantity:  iss.Quantity,
				Message:   fmt.Sprintf("unresolved %s issue (%d pcs)", iss.Type, iss.Quantity),
			})
		}
	}

	rank := map[string]int{"high": 0, "medium": 1, "low": 2}
	sort.SliceStable(alerts, func(i, j int) bool {
		return rank[alerts[i].Severity] < rank[alerts[j].Severity]
	})

	if s.rdb != nil {
		if data, err := json.Marshal(alerts); err == nil {
			_ = s.rdb.Set(ctx, alertsCacheKey, data, time.Minute).Err()
		}
	}
	return alerts, nil
}

func (s *productionService) Combinations(ctx context.Context) ([]string, error) {
	return s.repo.ListCombinations(ctx)
}

func (s *productionService) respond(o *model.ProductionOrder) *dto.OrderResponse {
	return &dto.OrderResponse{
		ProductionOrder:  *o,
		CalculatedStatus: model.CalculateOrderStatus(o),
		IsOverdue:        model.IsOverdue(o, time.Now()),
	}
}
