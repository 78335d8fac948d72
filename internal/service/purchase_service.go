package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mudogruer/istakip-18.01.26/internal/apierror"
	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/model"
	"github.com/mudogruer/istakip-18.01.26/internal/repository"
)

// PurchaseService manages stock replenishment orders. Receiving a delivery
// feeds the stock ledger: the matching item's on-hand grows and a stock_in
// movement is appended.
type PurchaseService interface {
	Create(ctx context.Context, createdBy string, req dto.CreatePurchaseOrderRequest) (*model.PurchaseOrder, error)
	Get(ctx context.Context, id string) (*model.PurchaseOrder, error)
	List(ctx context.Context, filter repository.PurchaseOrderFilter) ([]model.PurchaseOrder, error)
	AddItems(ctx context.Context, id string, req dto.AddPurchaseItemsRequest) (*model.PurchaseOrder, error)
	Send(ctx context.Context, id string) (*model.PurchaseOrder, error)
	ReceiveDelivery(ctx context.Context, id string, req dto.ReceiveDeliveryRequest) (*model.PurchaseOrder, error)
	Delete(ctx context.Context, id string) error

	MissingItems(ctx context.Context) ([]dto.MissingItemResponse, error)
	PendingItems(ctx context.Context) ([]dto.PendingItemResponse, error)
}

type purchaseService struct {
	repo      repository.PurchaseOrderRepository
	stockRepo repository.StockRepository
}

func NewPurchaseService(repo repository.PurchaseOrderRepository, stockRepo repository.StockRepository) PurchaseService {
	return &purchaseService{repo: repo, stockRepo: stockRepo}
}

func (s *purchaseService) Create(ctx context.Context, createdBy string, req dto.CreatePurchaseOrderRequest) (*model.PurchaseOrder, error) {
	now := time.Now().UTC()
	seq, err := s.repo.CountCreatedOn(ctx, now)
	if err != nil {
		return nil, err
	}

	order := &model.PurchaseOrder{
		ID:           model.PurchaseOrderID(now, int(seq)+1),
		SupplierID:   req.SupplierID,
		SupplierName: req.SupplierName,
		Status:       model.PurchaseDraft,
		Notes:        req.Notes,
		RelatedJobs:  req.RelatedJobs,
		ExpectedDate: req.ExpectedDate,
		CreatedBy:    createdBy,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, buildPurchaseItem(order.ID, item))
	}
	order.TotalAmount = purchaseTotal(order.Items)

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *purchaseService) Get(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("purchase order")
	}
	return order, nil
}

func (s *purchaseService) List(ctx context.Context, filter repository.PurchaseOrderFilter) ([]model.PurchaseOrder, error) {
	return s.repo.List(ctx, filter)
}

// AddItems extends a draft order. Lines for an already listed
// productCode+colorCode pair merge into the existing line.
func (s *purchaseService) AddItems(ctx context.Context, id string, req dto.AddPurchaseItemsRequest) (*model.PurchaseOrder, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("purchase order")
	}
	if order.Status != model.PurchaseDraft {
		return nil, apierror.InvalidState("items can only be added to draft orders")
	}

	for _, item := range req.Items {
		merged := false
		for i := range order.Items {
			line := &order.Items[i]
			if line.ProductCode == item.ProductCode && line.ColorCode == item.ColorCode {
				line.Quantity += item.Quantity
				if item.UnitCost != nil {
					line.UnitCost = item.UnitCost
				}
				if line.UnitCost != nil {
					total := line.UnitCost.Mul(decimal.NewFromFloat(line.Quantity))
					line.TotalCost = &total
				}
				merged = true
				break
			}
		}
		if !merged {
			order.Items = append(order.Items, buildPurchaseItem(order.ID, item))
		}
	}

	for _, jobID := range req.RelatedJobs {
		if !containsString(order.RelatedJobs, jobID) {
			order.RelatedJobs = append(order.RelatedJobs, jobID)
		}
	}
	order.TotalAmount = purchaseTotal(order.Items)

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *purchaseService) Send(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("purchase order")
	}
	if order.Status != model.PurchaseDraft {
		return nil, apierror.InvalidState("only draft orders can be sent")
	}

	now := time.Now().UTC()
	order.Status = model.PurchaseSent
	order.SentAt = &now

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ReceiveDelivery books received quantities against a sent or partial order.
// Each received line raises the matching stock item's on-hand and appends a
// stock_in movement, so procurement lands in the ledger immediately.
func (s *purchaseService) ReceiveDelivery(ctx context.Context, id string, req dto.ReceiveDeliveryRequest) (*model.PurchaseOrder, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("purchase order")
	}
	if order.Status != model.PurchaseSent && order.Status != model.PurchasePartial {
		return nil, apierror.InvalidState("deliveries can only be received on sent or partial orders")
	}

	receipt := model.PurchaseReceipt{
		ID:         model.NewID("DEL"),
		Date:       time.Now().UTC().Format("2006-01-02"),
		Note:       req.Note,
		ReceivedBy: req.ReceivedBy,
	}

	type stockEffect struct {
		item     *model.StockItem
		movement *model.StockMovement
	}
	var effects []stockEffect

	for _, line := range req.Items {
		var target *model.PurchaseOrderItem
		for i := range order.Items {
			if order.Items[i].ProductCode == line.ProductCode && order.Items[i].ColorCode == line.ColorCode {
				target = &order.Items[i]
				break
			}
		}
		if target == nil {
			return nil, apierror.Validationf("order has no line %s/%s", line.ProductCode, line.ColorCode)
		}
		target.ReceivedQty += line.Quantity

		receipt.Items = append(receipt.Items, map[string]interface{}{
			"productCode": line.ProductCode,
			"colorCode":   line.ColorCode,
			"productName": target.ProductName,
			"quantity":    line.Quantity,
			"unit":        target.Unit,
		})

		// Procurement feeds the ledger: missing stock items are not created
		// implicitly, they just don't book.
		item, err := s.stockRepo.FindItemByCode(ctx, line.ProductCode, line.ColorCode)
		if err != nil || item == nil || item.ID == "" {
			continue
		}
		item.OnHand += line.Quantity
		if target.UnitCost != nil {
			item.UnitCost = target.UnitCost
		}
		item.Touch()
		effects = append(effects, stockEffect{
			item: item,
			movement: &model.StockMovement{
				ID:          model.NewID("MOV"),
				Date:        receipt.Date,
				ItemID:      item.ID,
				ItemName:    item.Name,
				ProductCode: item.ProductCode,
				ColorCode:   item.ColorCode,
				Change:      line.Quantity,
				Type:        model.MovementStockIn,
				Reason:      "purchase delivery - " + order.ID,
				Operator:    req.ReceivedBy,
				Reference:   order.ID,
			},
		})
	}

	order.Deliveries = append(order.Deliveries, receipt)

	allReceived := true
	for _, item := range order.Items {
		if item.ReceivedQty < item.Quantity {
			allReceived = false
			break
		}
	}
	if allReceived {
		now := time.Now().UTC()
		order.Status = model.PurchaseDelivered
		order.CompletedAt = &now
	} else {
		order.Status = model.PurchasePartial
	}

	err = runTx(ctx, s.stockRepo.DB(), func(tx *gorm.DB) error {
		for _, e := range effects {
			if err := s.stockRepo.UpdateItemTx(tx, e.item); err != nil {
				return err
			}
			if err := s.stockRepo.CreateMovementTx(tx, e.movement); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *purchaseService) Delete(ctx context.Context, id string) error {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFound("purchase order")
	}
	if order.Status != model.PurchaseDraft {
		return apierror.InvalidState("only draft orders can be deleted")
	}
	return s.repo.Delete(ctx, id)
}

// MissingItems lists stock items at or below their critical level with a
// suggested reorder quantity, minus what open purchase orders already cover.
func (s *purchaseService) MissingItems(ctx context.Context) ([]dto.MissingItemResponse, error) {
	items, err := s.stockRepo.ListItems(ctx, repository.StockItemFilter{CriticalOnly: true})
	if err != nil {
		return nil, err
	}

	pendingByCode, err := s.pendingQuantities(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MissingItemResponse, 0, len(items))
	for _, item := range items {
		available := item.Available()
		// Restock to twice the critical level.
		suggested := item.Critical*2 - available
		if suggested < 0 {
			suggested = 0
		}
		out = append(out, dto.MissingItemResponse{
			ItemID:          item.ID,
			ProductCode:     item.ProductCode,
			ColorCode:       item.ColorCode,
			Name:            item.Name,
			ColorName:       item.ColorName,
			Unit:            item.Unit,
			SupplierID:      item.SupplierID,
			SupplierName:    item.SupplierName,
			OnHand:          item.OnHand,
			Reserved:        item.Reserved,
			Available:       available,
			Critical:        item.Critical,
			SuggestedQty:    suggested,
			PendingInOrders: pendingByCode[item.ProductCode+"/"+item.ColorCode],
		})
	}
	return out, nil
}

// PendingItems flattens every undelivered purchase order line.
func (s *purchaseService) PendingItems(ctx context.Context) ([]dto.PendingItemResponse, error) {
	orders, err := s.repo.List(ctx, repository.PurchaseOrderFilter{HasPending: true})
	if err != nil {
		return nil, err
	}

	var out []dto.PendingItemResponse
	for _, order := range orders {
		for _, item := range order.Items {
			remaining := item.Quantity - item.ReceivedQty
			if remaining <= 0 {
				continue
			}
			out = append(out, dto.PendingItemResponse{
				OrderID:      order.ID,
				SupplierID:   order.SupplierID,
				SupplierName: order.SupplierName,
				ExpectedDate: order.ExpectedDate,
				ProductCode:  item.ProductCode,
				ColorCode:    item.ColorCode,
				ProductName:  item.ProductName,
				Ordered:      item.Quantity,
				Received:     item.ReceivedQty,
				Remaining:    remaining,
				Unit:         item.Unit,
			})
		}
	}
	return out, nil
}

func (s *purchaseService) pendingQuantities(ctx context.Context) (map[string]float64, error) {
	pending, err := s.PendingItems(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]float64, len(pending))
	for _, p := range pending {
		byCode[p.ProductCode+"/"+p.ColorCode] += p.Remaining
	}
	return byCode, nil
}

func buildPurchaseItem(orderID string, req dto.PurchaseItemRequest) model.PurchaseOrderItem {
	item := model.PurchaseOrderItem{
		ID:          model.NewID("POI"),
		OrderID:     orderID,
		ProductCode: req.ProductCode,
		ColorCode:   req.ColorCode,
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		UnitCost:    req.UnitCost,
	}
	if req.UnitCost != nil {
		total := req.UnitCost.Mul(decimal.NewFromFloat(req.Quantity))
		item.TotalCost = &total
	}
	return item
}

func purchaseTotal(items []model.PurchaseOrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.TotalCost != nil {
			total = total.Add(*item.TotalCost)
		}
	}
	return total
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
