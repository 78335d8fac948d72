package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mudogruer/istakip-18.01.26/internal/apierror"
	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/model"
	"github.com/mudogruer/istakip-18.01.26/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── In-memory PurchaseOrderRepository stub ───────────────────────────────────

type stubPurchaseRepo struct {
	orders map[string]*model.PurchaseOrder
}

func newStubPurchaseRepo() *stubPurchaseRepo {
	return &stubPurchaseRepo{orders: make(map[string]*model.PurchaseOrder)}
}

func (r *stubPurchaseRepo) Create(_ context.Context, o *model.PurchaseOrder) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	r.orders[o.ID] = o
	return nil
}

func (r *stubPurchaseRepo) FindByID(_ context.Context, id string) (*model.PurchaseOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return o, nil
}

func (r *stubPurchaseRepo) List(_ context.Context, filter repository.PurchaseOrderFilter) ([]model.PurchaseOrder, error) {
	var out []model.PurchaseOrder
	for _, o := range r.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.SupplierID != "" && o.SupplierID != filter.SupplierID {
			continue
		}
		if filter.HasPending && o.Status == model.PurchaseDelivered {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (r *stubPurchaseRepo) Update(_ context.Context, o *model.PurchaseOrder) error {
	r.orders[o.ID] = o
	return nil
}

func (r *stubPurchaseRepo) Delete(_ context.Context, id string) error {
	delete(r.orders, id)
	return nil
}

func (r *stubPurchaseRepo) CountCreatedOn(_ context.Context, day time.Time) (int64, error) {
	prefix := model.PurchaseOrderID(day, 0)[:len("PO-060102")]
	var n int64
	for id := range r.orders {
		if len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			n++
		}
	}
	return n, nil
}

func purchaseFixture() (PurchaseService, *stubPurchaseRepo, *stubStockRepo) {
	repo := newStubPurchaseRepo()
	stockRepo := newStubStockRepo()
	return NewPurchaseService(repo, stockRepo), repo, stockRepo
}

func cost(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func createPO(t *testing.T, svc PurchaseService) *model.PurchaseOrder {
	t.Helper()
	order, err := svc.Create(context.Background(), "office1", dto.CreatePurchaseOrderRequest{
		SupplierID:   "SUP-1",
		SupplierName: "Aydin Profil",
		Items: []dto.PurchaseItemRequest{
			{ProductCode: "PRF-40", ColorCode: "RAL9016", ProductName: "40mm profile", Quantity: 100, Unit: "m", UnitCost: cost(42.5)},
			{ProductCode: "FAB-01", ColorCode: "GREY", ProductName: "screen fabric", Quantity: 30, Unit: "m2"},
		},
		ExpectedDate: "2026-09-10",
	})
	require.NoError(t, err)
	return order
}

// ── Creation / numbering ─────────────────────────────────────────────────────

func TestCreatePurchaseOrderNumbering(t *testing.T) {
	svc, _, _ := purchaseFixture()

	first := createPO(t, svc)
	second := createPO(t, svc)

	day := time.Now().UTC().Format("060102")
	assert.Equal(t, "PO-"+day+"-001", first.ID)
	assert.Equal(t, "PO-"+day+"-002", second.ID)
	assert.Equal(t, model.PurchaseDraft, first.Status)
	assert.Equal(t, "office1", first.CreatedBy)

	// 100 * 42.50, the line without a cost contributes nothing
	assert.Equal(t, "4250", first.TotalAmount.String())
}

func TestAddItemsMergesSameCodePair(t *testing.T) {
	svc, _, _ := purchaseFixture()
	order := createPO(t, svc)

	order, err := svc.AddItems(context.Background(), order.ID, dto.AddPurchaseItemsRequest{
		Items: []dto.PurchaseItemRequest{
			{ProductCode: "PRF-40", ColorCode: "RAL9016", ProductName: "40mm profile", Quantity: 50, Unit: "m", UnitCost: cost(45)},
			{ProductCode: "PRF-60", ColorCode: "RAL7016", ProductName: "60mm profile", Quantity: 20, Unit: "m", UnitCost: cost(60)},
		},
		RelatedJobs: []string{"JOB-1", "JOB-1"},
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 3)
	merged := order.Items[0]
	assert.Equal(t, float64(150), merged.Quantity)
	assert.Equal(t, "45", merged.UnitCost.String())
	assert.Equal(t, "6750", merged.TotalCost.String())

	assert.Equal(t, []string{"JOB-1"}, order.RelatedJobs)
	// 150*45 + 20*60
	assert.Equal(t, "7950", order.TotalAmount.String())
}

func TestAddItemsOnlyOnDraft(t *testing.T) {
	svc, _, _ := purchaseFixture()
	order := createPO(t, svc)

	_, err := svc.Send(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.AddItems(context.Background(), order.ID, dto.AddPurchaseItemsRequest{
		Items: []dto.PurchaseItemRequest{{ProductCode: "X", ColorCode: "Y", ProductName: "x", Quantity: 1, Unit: "m"}},
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindInvalidState, apierror.AsError(err).Kind)
}

// ── Sending / receiving ──────────────────────────────────────────────────────

func TestSendTransition(t *testing.T) {
	svc, _, _ := purchaseFixture()
	order := createPO(t, svc)

	order, err := svc.Send(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseSent, order.Status)
	require.NotNil(t, order.SentAt)

	_, err = svc.Send(context.Background(), order.ID)
	require.Error(t, err)
	assert.Equal(t, apierror.KindInvalidState, apierror.AsError(err).Kind)
}

func TestReceiveDeliveryFeedsStockLedger(t *testing.T) {
	svc, _, stockRepo := purchaseFixture()
	item := seedItem(stockRepo, "STK-1", "40mm profile", 20, 0, 30)
	item.ProductCode = "PRF-40"
	item.ColorCode = "RAL9016"

	order := createPO(t, svc)
	_, err := svc.Send(context.Background(), order.ID)
	require.NoError(t, err)

	order, err = svc.ReceiveDelivery(context.Background(), order.ID, dto.ReceiveDeliveryRequest{
		Items: []dto.ReceiveLine{
			{ProductCode: "PRF-40", ColorCode: "RAL9016", Quantity: 60},
			{ProductCode: "FAB-01", ColorCode: "GREY", Quantity: 30}, // no stock item — skipped
		},
		ReceivedBy: "warehouse1",
	})
	require.NoError(t, err)

	// order bookkeeping
	assert.Equal(t, model.PurchasePartial, order.Status)
	assert.Equal(t, float64(60), order.Items[0].ReceivedQty)
	assert.Equal(t, float64(30), order.Items[1].ReceivedQty)
	require.Len(t, order.Deliveries, 1)
	assert.Equal(t, "warehouse1", order.Deliveries[0].ReceivedBy)
	assert.Len(t, order.Deliveries[0].Items, 2)

	// ledger side: on-hand grew, unit cost refreshed, stock_in appended
	assert.Equal(t, float64(80), stockRepo.items["STK-1"].OnHand)
	require.NotNil(t, stockRepo.items["STK-1"].UnitCost)
	assert.Equal(t, "42.5", stockRepo.items["STK-1"].UnitCost.String())
	require.Len(t, stockRepo.movements, 1)
	assert.Equal(t, model.MovementStockIn, stockRepo.movements[0].Type)
	assert.Equal(t, float64(60), stockRepo.movements[0].Change)
	assert.Equal(t, order.ID, stockRepo.movements[0].Reference)

	// second delivery completes the order
	order, err = svc.ReceiveDelivery(context.Background(), order.ID, dto.ReceiveDeliveryRequest{
		Items: []dto.ReceiveLine{{ProductCode: "PRF-40", ColorCode: "RAL9016", Quantity: 40}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseDelivered, order.Status)
	require.NotNil(t, order.CompletedAt)
	assert.Equal(t, float64(120), stockRepo.items["STK-1"].OnHand)
}

func TestReceiveDeliveryUnknownLine(t *testing.T) {
	svc, _, _ := purchaseFixture()
	order := createPO(t, svc)
	_, err := svc.Send(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.ReceiveDelivery(context.Background(), order.ID, dto.ReceiveDeliveryRequest{
		Items: []dto.ReceiveLine{{ProductCode: "NOPE", ColorCode: "N", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.AsError(err).Kind)
}

func TestReceiveDeliveryOnDraftRejected(t *testing.T) {
	svc, _, _ := purchaseFixture()
	order := createPO(t, svc)

	_, err := svc.ReceiveDelivery(context.Background(), order.ID, dto.ReceiveDeliveryRequest{
		Items: []dto.ReceiveLine{{ProductCode: "PRF-40", ColorCode: "RAL9016", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindInvalidState, apierror.AsError(err).Kind)
}

func TestDeleteOnlyDraft(t *testing.T) {
	svc, repo, _ := purchaseFixture()
	order := createPO(t, svc)
	_, err := svc.Send(context.Background(), order.ID)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), order.ID)
	require.Error(t, err)
	assert.Equal(t, apierror.KindInvalidState, apierror.AsError(err).Kind)
	assert.Len(t, repo.orders, 1)
}

// ── Replenishment views ──────────────────────────────────────────────────────

func TestMissingItemsSuggestsReorder(t *testing.T) {
	svc, _, stockRepo := purchaseFixture()
	low := seedItem(stockRepo, "STK-1", "40mm profile", 10, 5, 20) // available 5
	low.ProductCode = "PRF-40"
	low.ColorCode = "RAL9016"
	seedItem(stockRepo, "STK-2", "healthy", 500, 0, 10)

	order := createPO(t, svc)
	_, err := svc.Send(context.Background(), order.ID)
	require.NoError(t, err)

	missing, err := svc.MissingItems(context.Background())
	require.NoError(t, err)
	require.Len(t, missing, 1)

	m := missing[0]
	assert.Equal(t, "STK-1", m.ItemID)
	assert.Equal(t, float64(5), m.Available)
	assert.Equal(t, float64(35), m.SuggestedQty) // 2*20 - 5
	assert.Equal(t, float64(100), m.PendingInOrders)
}

func TestPendingItemsFlattensOpenLines(t *testing.T) {
	svc, _, _ := purchaseFixture()
	order := createPO(t, svc)
	_, err := svc.Send(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.ReceiveDelivery(context.Background(), order.ID, dto.ReceiveDeliveryRequest{
		Items: []dto.ReceiveLine{{ProductCode: "PRF-40", ColorCode: "RAL9016", Quantity: 70}},
	})
	require.NoError(t, err)

	pending, err := svc.PendingItems(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)

	byCode := map[string]dto.PendingItemResponse{}
	for _, p := range pending {
		byCode[p.ProductCode] = p
	}
	assert.Equal(t, float64(30), byCode["PRF-40"].Remaining)
	assert.Equal(t, float64(30), byCode["FAB-01"].Remaining)
	assert.Equal(t, "2026-09-10", byCode["PRF-40"].ExpectedDate)
}
