package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mudogruer/istakip-18.01.26/internal/apierror"
	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/model"
	"github.com/mudogruer/istakip-18.01.26/internal/repository"
	"github.com/mudogruer/istakip-18.01.26/internal/worker"

	"gorm.io/gorm"
)

// StockService is the stock ledger and reservation engine. Every committed
// mutation appends an immutable movement; every error is returned before any
// write for that line.
type StockService interface {
	CreateItem(ctx context.Context, req dto.CreateStockItemRequest) (*dto.StockItemResponse, error)
	UpdateItem(ctx context.Context, id string, req dto.UpdateStockItemRequest) (*dto.StockItemResponse, error)
	DeleteItem(ctx context.Context, id string) error
	GetItem(ctx context.Context, id string) (*dto.StockItemResponse, error)
	GetItemByCode(ctx context.Context, productCode, colorCode string) (*dto.StockItemResponse, error)
	ListItems(ctx context.Context, filter repository.StockItemFilter) ([]dto.StockItemResponse, error)

	RecordMovement(ctx context.Context, req dto.MovementRequest) (*dto.MovementResponse, error)
	ListMovements(ctx context.Context, filter repository.MovementFilter) ([]model.StockMovement, error)

	BulkReserve(ctx context.Context, req dto.BulkReserveRequest) (*dto.BulkReserveResponse, error)
	ListReservations(ctx context.Context, filter repository.ReservationFilter) ([]model.Reservation, error)
	ReleaseReservation(ctx context.Context, id string) (*dto.ReleaseResponse, error)

	CriticalItems(ctx context.Context) ([]dto.CriticalItemResponse, error)
	CheckAvailability(ctx context.Context, query string) (*dto.AvailabilityResponse, error)
}

type stockService struct {
	repo       repository.StockRepository
	dispatcher *worker.Dispatcher // nil in unit tests — notifications are best-effort
}

func NewStockService(repo repository.StockRepository, dispatcher *worker.Dispatcher) StockService {
	return &stockService{repo: repo, dispatcher: dispatcher}
}

// ── Items ────────────────────────────────────────────────────────────────────

func (s *stockService) CreateItem(ctx context.Context, req dto.CreateStockItemRequest) (*dto.StockItemResponse, error) {
	if existing, err := s.repo.FindItemByCode(ctx, req.ProductCode, req.ColorCode); err == nil && existing != nil && existing.ID != "" {
		return nil, apierror.Conflict("a stock item with this product code and color code already exists")
	}

	item := &model.StockItem{
		ID:           model.NewID("STK"),
		ProductCode:  req.ProductCode,
		ColorCode:    req.ColorCode,
		Name:         req.Name,
		ColorName:    req.ColorName,
		Unit:         req.Unit,
		SupplierID:   req.SupplierID,
		SupplierName: req.SupplierName,
		OnHand:       req.OnHand,
		Reserved:     req.Reserved,
		Critical:     req.Critical,
		UnitCost:     req.UnitCost,
		Notes:        req.Notes,
	}
	item.Touch()

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	resp := dto.NewStockItemResponse(*item)
	return &resp, nil
}

func (s *stockService) UpdateItem(ctx context.Context, id string, req dto.UpdateStockItemRequest) (*dto.StockItemResponse, error) {
	item, err := s.repo.FindItemByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("stock item")
	}

	if req.ProductCode != nil {
		item.ProductCode = *req.ProductCode
	}
	if req.ColorCode != nil {
		item.ColorCode = *req.ColorCode
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.ColorName != nil {
		item.ColorName = *req.ColorName
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.SupplierID != nil {
		item.SupplierID = *req.SupplierID
	}
	if req.SupplierName != nil {
		item.SupplierName = *req.SupplierName
	}
	if req.OnHand != nil {
		item.OnHand = *req.OnHand
	}
	if req.Reserved != nil {
		item.Reserved = *req.Reserved
	}
	if req.Critical != nil {
		item.Critical = *req.Critical
	}
	if req.UnitCost != nil {
		item.UnitCost = req.UnitCost
	}
	if req.Notes != nil {
		item.Notes = *req.Notes
	}
	item.Touch()

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	resp := dto.NewStockItemResponse(*item)
	return &resp, nil
}

func (s *stockService) DeleteItem(ctx context.Context, id string) error {
	return s.repo.DeleteItem(ctx, id)
}

func (s *stockService) GetItem(ctx context.Context, id string) (*dto.StockItemResponse, error) {
	item, err := s.repo.FindItemByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("stock item")
	}
	resp := dto.NewStockItemResponse(*item)
	return &resp, nil
}

func (s *stockService) GetItemByCode(ctx context.Context, productCode, colorCode string) (*dto.StockItemResponse, error) {
	item, err := s.repo.FindItemByCode(ctx, productCode, colorCode)
	if err != nil {
		return nil, apierror.NotFound("stock item")
	}
	resp := dto.NewStockItemResponse(*item)
	return &resp, nil
}

func (s *stockService) ListItems(ctx context.Context, filter repository.StockItemFilter) ([]dto.StockItemResponse, error) {
	items, err := s.repo.ListItems(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.NewStockItemResponse(item))
	}
	return out, nil
}

// ── Single movements ─────────────────────────────────────────────────────────

func (s *stockService) RecordMovement(ctx context.Context, req dto.MovementRequest) (*dto.MovementResponse, error) {
	item, err := s.repo.FindItemByID(ctx, req.ItemID)
	if err != nil {
		return nil, apierror.NotFound("stock item")
	}

	change := req.Qty
	switch req.Type {
	case model.MovementStockIn:
		item.OnHand += req.Qty
	case model.MovementStockOut:
		if req.Qty > item.Available() {
			return nil, apierror.InsufficientStock(
				fmt.Sprintf("insufficient stock: available %g, requested %g", item.Available(), req.Qty),
				req.Qty-item.Available())
		}
		item.OnHand = maxFloat(0, item.OnHand-req.Qty)
		change = -req.Qty
	case model.MovementReserve:
		if req.Qty > item.Available() {
			return nil, apierror.InsufficientStock(
				fmt.Sprintf("insufficient available stock: available %g, requested %g", item.Available(), req.Qty),
				req.Qty-item.Available())
		}
		item.Reserved += req.Qty
	case model.MovementRelease:
		item.Reserved = maxFloat(0, item.Reserved-req.Qty)
		change = -req.Qty
	case model.MovementConsume:
		// Reservation is lifted and physical stock removed (production start).
		item.Reserved = maxFloat(0, item.Reserved-req.Qty)
		item.OnHand = maxFloat(0, item.OnHand-req.Qty)
		change = -req.Qty
	default:
		return nil, apierror.Validationf("unknown movement type %q", req.Type)
	}
	item.Touch()

	reason := req.Reason
	if reason == "" {
		reason = req.Type
	}
	movement := s.newMovement(item, change, req.Type, reason, req.Operator, req.Reference, req.JobID)

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateItemTx(tx, item); err != nil {
			return err
		}
		return s.repo.CreateMovementTx(tx, movement)
	})
	if err != nil {
		return nil, err
	}

	return &dto.MovementResponse{Item: dto.NewStockItemResponse(*item), Movement: *movement}, nil
}

func (s *stockService) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]model.StockMovement, error) {
	return s.repo.ListMovements(ctx, filter)
}

// ── Bulk reserve / consume ───────────────────────────────────────────────────

// BulkReserve allocates a batch of lines to a job. Lines are evaluated in
// order with partial-batch semantics: a failing line is reported in errors[]
// and leaves no trace, the remaining lines still commit. All committed effects
// (items, movements, reservations) are written in one transaction at the end
// of the batch.
//
// In consume mode a line may drive onHand below the total reserved quantity;
// the shortfall is then cascaded into other jobs' pending reservations for the
// same item, oldest first, and the impacted jobs are reported back (and
// notified asynchronously). The acting job's own reservations are never
// reduced.
func (s *stockService) BulkReserve(ctx context.Context, req dto.BulkReserveRequest) (*dto.BulkReserveResponse, error) {
	mode := req.ReserveType
	if mode == "" {
		mode = "reserve"
	}

	resp := &dto.BulkReserveResponse{JobID: req.JobID, Results: []dto.ReserveResult{}, Errors: []dto.ReserveError{}}

	// State touched by earlier lines of the same batch must be re-used so a
	// duplicate line sees the in-batch state, not the stored one. This holds
	// for items and for the reservations the cascade reduces.
	touched := make(map[string]*model.StockItem)
	changed := make(map[string]*model.StockItem)
	touchedRes := make(map[string]*model.Reservation)
	var movements []*model.StockMovement
	var newReservations []*model.Reservation
	var reducedReservations []*model.Reservation
	var impacts []worker.ReservationImpact

	for _, line := range req.Items {
		item, ok := touched[line.ItemID]
		if !ok {
			fetched, err := s.repo.FindItemByID(ctx, line.ItemID)
			if err != nil {
				resp.Errors = append(resp.Errors, dto.ReserveError{ItemID: line.ItemID, Error: "stock item not found"})
				continue
			}
			touched[line.ItemID] = fetched
			item = fetched
		}

		if mode == "consume" {
			if line.Qty > item.OnHand {
				resp.Errors = append(resp.Errors, dto.ReserveError{
					ItemID:   line.ItemID,
					Name:     item.Name,
					Error:    fmt.Sprintf("insufficient stock: on hand %g, requested %g", item.OnHand, line.Qty),
					Shortage: line.Qty - item.OnHand,
				})
				continue
			}

			oldReserved := item.Reserved
			item.OnHand -= line.Qty

			var affected []dto.AffectedReservation
			shortfall := oldReserved - item.OnHand
			if shortfall > 0 {
				// Restore reserved <= onHand, then distribute the reduction
				// over the other jobs' pending reservations, oldest first.
				item.Reserved = maxFloat(0, oldReserved-shortfall)

				pending, err := s.repo.ListPendingByItem(ctx, line.ItemID, req.JobID)
				if err != nil {
					return nil, err
				}
				remaining := shortfall
				for i := range pending {
					if remaining <= 0 {
						break
					}
					res, seen := touchedRes[pending[i].ID]
					if !seen {
						fetched := pending[i]
						res = &fetched
						touchedRes[res.ID] = res
						reducedReservations = append(reducedReservations, res)
					}
					// Already drained by an earlier line of this batch.
					if res.Status != model.ReservationPending || res.Qty <= 0 {
						continue
					}
					reduce := minFloat(res.Qty, remaining)
					res.Qty -= reduce
					res.AffectedBy = req.JobID
					res.Note = fmt.Sprintf("stock consumed by another job (-%g)", reduce)
					remaining -= reduce
					if res.Qty <= 0 {
						res.Status = model.ReservationCancelled
					}
					affected = append(affected, dto.AffectedReservation{
						ReservationID: res.ID,
						JobID:         res.JobID,
						ReducedBy:     reduce,
					})
					impacts = append(impacts, worker.ReservationImpact{
						ReservationID: res.ID,
						AffectedJobID: res.JobID,
						ActingJobID:   req.JobID,
						ItemID:        item.ID,
						ItemName:      item.Name,
						ReducedBy:     reduce,
						Cancelled:     res.Status == model.ReservationCancelled,
					})
				}
			}

			reason := "taken into production - " + req.JobID
			if len(affected) > 0 {
				reason += fmt.Sprintf(" (%d reservations of other jobs affected)", len(affected))
			}
			movements = append(movements, s.newMovement(item, -line.Qty, model.MovementStockOut, reason, "system", "", req.JobID))

			item.Touch()
			changed[item.ID] = item
			resp.Results = append(resp.Results, dto.ReserveResult{
				ItemID:               line.ItemID,
				Name:                 item.Name,
				Qty:                  line.Qty,
				NewOnHand:            item.OnHand,
				NewReserved:          item.Reserved,
				Available:            item.Available(),
				AffectedReservations: affected,
			})
			continue
		}

		// reserve mode
		if line.Qty > item.Available() {
			resp.Errors = append(resp.Errors, dto.ReserveError{
				ItemID:   line.ItemID,
				Name:     item.Name,
				Error:    fmt.Sprintf("insufficient available stock: available %g, requested %g", item.Available(), line.Qty),
				Shortage: line.Qty - item.Available(),
			})
			continue
		}

		item.Reserved += line.Qty
		item.Touch()
		changed[item.ID] = item

		newReservations = append(newReservations, &model.Reservation{
			ID:          model.NewID("RSV"),
			JobID:       req.JobID,
			ItemID:      item.ID,
			ProductCode: item.ProductCode,
			ColorCode:   item.ColorCode,
			ItemName:    item.Name,
			Qty:         line.Qty,
			Unit:        item.Unit,
			Status:      model.ReservationPending,
		})
		movements = append(movements, s.newMovement(item, line.Qty, model.MovementReserve, "reserved - "+req.JobID, "system", "", req.JobID))

		resp.Results = append(resp.Results, dto.ReserveResult{
			ItemID:      line.ItemID,
			Name:        item.Name,
			Qty:         line.Qty,
			NewOnHand:   item.OnHand,
			NewReserved: item.Reserved,
			Available:   item.Available(),
		})
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, item := range changed {
			if err := s.repo.UpdateItemTx(tx, item); err != nil {
				return err
			}
		}
		for _, m := range movements {
			if err := s.repo.CreateMovementTx(tx, m); err != nil {
				return err
			}
		}
		for _, res := range newReservations {
			if err := s.repo.CreateReservationTx(tx, res); err != nil {
				return err
			}
		}
		for _, res := range reducedReservations {
			if err := s.repo.UpdateReservationTx(tx, res); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp.Success = len(resp.Errors) == 0

	// Impacted jobs are notified asynchronously; failures never surface here.
	if s.dispatcher != nil {
		for _, impact := range impacts {
			_ = s.dispatcher.EnqueueNotification(ctx, impact)
		}
	}

	return resp, nil
}

// ── Reservations ─────────────────────────────────────────────────────────────

func (s *stockService) ListReservations(ctx context.Context, filter repository.ReservationFilter) ([]model.Reservation, error) {
	return s.repo.ListReservations(ctx, filter)
}

// ReleaseReservation cancels a pending reservation and returns the quantity to
// the available pool. Releasing an already-cancelled reservation is a no-op:
// stock is restored exactly once.
func (s *stockService) ReleaseReservation(ctx context.Context, id string) (*dto.ReleaseResponse, error) {
	res, err := s.repo.FindReservationByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("reservation")
	}
	if res.Status != model.ReservationPending {
		return &dto.ReleaseResponse{Success: true, Reservation: *res}, nil
	}

	item, err := s.repo.FindItemByID(ctx, res.ItemID)
	if err != nil {
		return nil, apierror.NotFound("stock item")
	}

	item.Reserved = maxFloat(0, item.Reserved-res.Qty)
	item.Touch()

	now := time.Now().UTC()
	res.Status = model.ReservationCancelled
	res.ReleasedAt = &now

	movement := s.newMovement(item, -res.Qty, model.MovementRelease, "reservation released - "+res.JobID, "system", "", res.JobID)

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateItemTx(tx, item); err != nil {
			return err
		}
		if err := s.repo.CreateMovementTx(tx, movement); err != nil {
			return err
		}
		return s.repo.UpdateReservationTx(tx, res)
	})
	if err != nil {
		return nil, err
	}

	return &dto.ReleaseResponse{Success: true, Reservation: *res}, nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *stockService) CriticalItems(ctx context.Context) ([]dto.CriticalItemResponse, error) {
	items, err := s.repo.ListItems(ctx, repository.StockItemFilter{CriticalOnly: true})
	if err != nil {
		return nil, err
	}
	out := make([]dto.CriticalItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.CriticalItemResponse{
			StockItem: item,
			Available: item.Available(),
			Shortage:  item.Critical - item.Available(),
		})
	}
	return out, nil
}

// CheckAvailability answers "can these lines be reserved right now" without
// touching anything. The query format is "itemId:qty,itemId:qty,...".
func (s *stockService) CheckAvailability(ctx context.Context, query string) (*dto.AvailabilityResponse, error) {
	resp := &dto.AvailabilityResponse{AllAvailable: true, Items: []dto.AvailabilityLine{}}

	for _, part := range strings.Split(query, ",") {
		if !strings.Contains(part, ":") {
			continue
		}
		fields := strings.SplitN(part, ":", 2)
		qty, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, apierror.Validationf("malformed quantity in %q", part)
		}

		item, err := s.repo.FindItemByID(ctx, fields[0])
		if err != nil {
			resp.AllAvailable = false
			resp.Items = append(resp.Items, dto.AvailabilityLine{ItemID: fields[0], Requested: qty, Error: "not found"})
			continue
		}

		available := item.Available()
		enough := available >= qty
		if !enough {
			resp.AllAvailable = false
		}
		line := dto.AvailabilityLine{
			ItemID:      item.ID,
			Name:        item.Name,
			ProductCode: item.ProductCode,
			ColorCode:   item.ColorCode,
			Requested:   qty,
			Available:   available,
			IsEnough:    enough,
		}
		if !enough {
			line.Shortage = qty - available
		}
		resp.Items = append(resp.Items, line)
	}

	return resp, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *stockService) newMovement(item *model.StockItem, change float64, movType, reason, operator, reference, jobID string) *model.StockMovement {
	if operator == "" {
		operator = "system"
	}
	return &model.StockMovement{
		ID:          model.NewID("MOV"),
		Date:        time.Now().UTC().Format("2006-01-02"),
		ItemID:      item.ID,
		ItemName:    item.Name,
		ProductCode: item.ProductCode,
		ColorCode:   item.ColorCode,
		Change:      change,
		Type:        movType,
		Reason:      reason,
		Operator:    operator,
		Reference:   reference,
		JobID:       jobID,
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
