package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/mudogruer/istakip-18.01.26/internal/apierror"
	"github.com/mudogruer/istakip-18.01.26/internal/dto"
	"github.com/mudogruer/istakip-18.01.26/internal/model"
	"github.com/mudogruer/istakip-18.01.26/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory StockRepository stub ───────────────────────────────────────────

type stubStockRepo struct {
	items        map[string]*model.StockItem
	movements    []*model.StockMovement
	reservations map[string]*model.Reservation
}

func newStubStockRepo() *stubStockRepo {
	return &stubStockRepo{
		items:        make(map[string]*model.StockItem),
		reservations: make(map[string]*model.Reservation),
	}
}

func (r *stubStockRepo) CreateItem(_ context.Context, item *model.StockItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubStockRepo) FindItemByID(_ context.Context, id string) (*model.StockItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return item, nil
}

func (r *stubStockRepo) FindItemByCode(_ context.Context, productCode, colorCode string) (*model.StockItem, error) {
	for _, item := range r.items {
		if item.ProductCode == productCode && item.ColorCode == colorCode {
			return item, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *stubStockRepo) ListItems(_ context.Context, filter repository.StockItemFilter) ([]model.StockItem, error) {
	var out []model.StockItem
	for _, item := range r.items {
		if filter.CriticalOnly && !item.IsCritical() {
			continue
		}
		if filter.SupplierID != "" && item.SupplierID != filter.SupplierID {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (r *stubStockRepo) UpdateItem(_ context.Context, item *model.StockItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubStockRepo) UpdateItemTx(_ *gorm.DB, item *model.StockItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubStockRepo) DeleteItem(_ context.Context, id string) error {
	delete(r.items, id)
	return nil
}

func (r *stubStockRepo) CreateMovement(_ context.Context, m *model.StockMovement) error {
	r.movements = append(r.movements, m)
	return nil
}

func (r *stubStockRepo) CreateMovementTx(_ *gorm.DB, m *model.StockMovement) error {
	r.movements = append(r.movements, m)
	return nil
}

func (r *stubStockRepo) ListMovements(_ context.Context, filter repository.MovementFilter) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if filter.ItemID != "" && m.ItemID != filter.ItemID {
			continue
		}
		if filter.JobID != "" && m.JobID != filter.JobID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (r *stubStockRepo) CreateReservation(_ context.Context, res *model.Reservation) error {
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	r.reservations[res.ID] = res
	return nil
}

func (r *stubStockRepo) CreateReservationTx(_ *gorm.DB, res *model.Reservation) error {
	return r.CreateReservation(context.Background(), res)
}

func (r *stubStockRepo) FindReservationByID(_ context.Context, id string) (*model.Reservation, error) {
	res, ok := r.reservations[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return res, nil
}

func (r *stubStockRepo) ListReservations(_ context.Context, filter repository.ReservationFilter) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, res := range r.reservations {
		if filter.JobID != "" && res.JobID != filter.JobID {
			continue
		}
		if filter.ItemID != "" && res.ItemID != filter.ItemID {
			continue
		}
		if filter.Status != "" && res.Status != filter.Status {
			continue
		}
		out = append(out, *res)
	}
	return out, nil
}

func (r *stubStockRepo) ListPendingByItem(_ context.Context, itemID, excludeJobID string) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, res := range r.reservations {
		if res.ItemID != itemID || res.JobID == excludeJobID || res.Status != model.ReservationPending {
			continue
		}
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubStockRepo) UpdateReservation(_ context.Context, res *model.Reservation) error {
	r.reservations[res.ID] = res
	return nil
}

func (r *stubStockRepo) UpdateReservationTx(_ *gorm.DB, res *model.Reservation) error {
	r.reservations[res.ID] = res
	return nil
}

func (r *stubStockRepo) DB() *gorm.DB { return nil }

// ── Helpers ──────────────────────────────────────────────────────────────────

func seedItem(repo *stubStockRepo, id, name string, onHand, reserved, critical float64) *model.StockItem {
	item := &model.StockItem{
		ID:          id,
		ProductCode: "P-" + id,
		ColorCode:   "C-" + id,
		Name:        name,
		Unit:        "m",
		OnHand:      onHand,
		Reserved:    reserved,
		Critical:    critical,
	}
	repo.items[id] = item
	return item
}

func seedReservation(repo *stubStockRepo, id, jobID, itemID string, qty float64, createdAt time.Time) *model.Reservation {
	res := &model.Reservation{
		ID:        id,
		JobID:     jobID,
		ItemID:    itemID,
		Qty:       qty,
		Status:    model.ReservationPending,
		CreatedAt: createdAt,
	}
	repo.reservations[id] = res
	return res
}

// ── Items ────────────────────────────────────────────────────────────────────

func TestCreateItemDuplicateCodePair(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "alu profile", 10, 0, 2)

	_, err := svc.CreateItem(context.Background(), dto.CreateStockItemRequest{
		ProductCode: "P-STK-1",
		ColorCode:   "C-STK-1",
		Name:        "duplicate",
		Unit:        "m",
		SupplierID:  "SUP-1",
	})
	require.Error(t, err)
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.KindConflict, apiErr.Kind)
}

func TestCreateItemDerivedFields(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)

	resp, err := svc.CreateItem(context.Background(), dto.CreateStockItemRequest{
		ProductCode: "PRF-40",
		ColorCode:   "RAL9016",
		Name:        "40mm profile",
		Unit:        "m",
		SupplierID:  "SUP-1",
		OnHand:      100,
		Reserved:    30,
		Critical:    80,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(70), resp.Available)
	assert.True(t, resp.IsCritical)
	assert.NotEmpty(t, resp.LastUpdated)
}

// ── Single movements ─────────────────────────────────────────────────────────

func TestRecordMovementStockOutInsufficient(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "fabric", 10, 4, 0)

	_, err := svc.RecordMovement(context.Background(), dto.MovementRequest{
		ItemID: "STK-1", Qty: 8, Type: model.MovementStockOut,
	})
	require.Error(t, err)
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.KindInsufficientStock, apiErr.Kind)

	// nothing changed, nothing logged
	assert.Equal(t, float64(10), repo.items["STK-1"].OnHand)
	assert.Empty(t, repo.movements)
}

func TestRecordMovementConsumeLiftsReservation(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "fabric", 20, 5, 0)

	resp, err := svc.RecordMovement(context.Background(), dto.MovementRequest{
		ItemID: "STK-1", Qty: 5, Type: model.MovementConsume, JobID: "JOB-1",
	})
	require.NoError(t, err)
	assert.Equal(t, float64(15), resp.Item.OnHand)
	assert.Equal(t, float64(0), resp.Item.Reserved)
	assert.Equal(t, float64(-5), resp.Movement.Change)

	require.Len(t, repo.movements, 1)
	assert.Equal(t, model.MovementConsume, repo.movements[0].Type)
	assert.Equal(t, "JOB-1", repo.movements[0].JobID)
}

func TestRecordMovementUnknownType(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "fabric", 20, 0, 0)

	_, err := svc.RecordMovement(context.Background(), dto.MovementRequest{
		ItemID: "STK-1", Qty: 1, Type: "teleport",
	})
	require.Error(t, err)
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.KindValidation, apiErr.Kind)
}

// ── Bulk reserve ─────────────────────────────────────────────────────────────

func TestBulkReserveHappyPath(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "profile", 100, 0, 10)
	seedItem(repo, "STK-2", "fabric", 50, 10, 5)

	resp, err := svc.BulkReserve(context.Background(), dto.BulkReserveRequest{
		JobID: "JOB-1",
		Items: []dto.ReserveLine{
			{ItemID: "STK-1", Qty: 40},
			{ItemID: "STK-2", Qty: 20},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Len(t, resp.Results, 2)
	assert.Empty(t, resp.Errors)

	assert.Equal(t, float64(40), repo.items["STK-1"].Reserved)
	assert.Equal(t, float64(30), repo.items["STK-2"].Reserved)
	assert.Len(t, repo.reservations, 2)
	assert.Len(t, repo.movements, 2)
	for _, res := range repo.reservations {
		assert.Equal(t, model.ReservationPending, res.Status)
		assert.Equal(t, "JOB-1", res.JobID)
	}
}

func TestBulkReservePartialBatch(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "profile", 100, 0, 10)
	seedItem(repo, "STK-2", "fabric", 10, 8, 5) // only 2 available

	resp, err := svc.BulkReserve(context.Background(), dto.BulkReserveRequest{
		JobID: "JOB-1",
		Items: []dto.ReserveLine{
			{ItemID: "STK-1", Qty: 40},
			{ItemID: "STK-2", Qty: 5},
			{ItemID: "STK-MISSING", Qty: 1},
		},
	})
	require.NoError(t, err)

	// failing lines are reported, the good line still commits
	assert.False(t, resp.Success)
	require.Len(t, resp.Results, 1)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, "STK-1", resp.Results[0].ItemID)
	assert.Equal(t, float64(3), resp.Errors[0].Shortage)
	assert.Equal(t, "stock item not found", resp.Errors[1].Error)

	assert.Equal(t, float64(40), repo.items["STK-1"].Reserved)
	assert.Equal(t, float64(8), repo.items["STK-2"].Reserved)
	assert.Len(t, repo.reservations, 1)
}

func TestBulkReserveDuplicateLineSeesInBatchState(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "profile", 10, 0, 0)

	resp, err := svc.BulkReserve(context.Background(), dto.BulkReserveRequest{
		JobID: "JOB-1",
		Items: []dto.ReserveLine{
			{ItemID: "STK-1", Qty: 7},
			{ItemID: "STK-1", Qty: 7}, // only 3 left after the first line
		},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, float64(4), resp.Errors[0].Shortage)
	assert.Equal(t, float64(7), repo.items["STK-1"].Reserved)
}

// ── Consume with cascading adjustment ────────────────────────────────────────

func TestConsumeCascadesIntoOtherJobs(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	// 100 on hand, 90 reserved across three jobs
	seedItem(repo, "STK-1", "profile", 100, 90, 0)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seedReservation(repo, "RSV-A", "JOB-A", "STK-1", 30, base)
	seedReservation(repo, "RSV-B", "JOB-B", "STK-1", 30, base.Add(time.Hour))
	seedReservation(repo, "RSV-C", "JOB-C", "STK-1", 30, base.Add(2*time.Hour))

	// JOB-C consumes 55: onHand 100->45, shortfall 90-45=45.
	// Oldest-first walk over the OTHER jobs: RSV-A cancelled (30), RSV-B -15.
	resp, err := svc.BulkReserve(context.Background(), dto.BulkReserveRequest{
		JobID:       "JOB-C",
		ReserveType: "consume",
		Items:       []dto.ReserveLine{{ItemID: "STK-1", Qty: 55}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	item := repo.items["STK-1"]
	assert.Equal(t, float64(45), item.OnHand)
	assert.Equal(t, float64(45), item.Reserved)

	a := repo.reservations["RSV-A"]
	assert.Equal(t, model.ReservationCancelled, a.Status)
	assert.Equal(t, float64(0), a.Qty)
	assert.Equal(t, "JOB-C", a.AffectedBy)

	b := repo.reservations["RSV-B"]
	assert.Equal(t, model.ReservationPending, b.Status)
	assert.Equal(t, float64(15), b.Qty)
	assert.Equal(t, "JOB-C", b.AffectedBy)
	assert.Contains(t, b.Note, "-15")

	// acting job's own reservation is never touched
	c := repo.reservations["RSV-C"]
	assert.Equal(t, float64(30), c.Qty)
	assert.Empty(t, c.AffectedBy)

	require.Len(t, resp.Results, 1)
	require.Len(t, resp.Results[0].AffectedReservations, 2)
	assert.Equal(t, "RSV-A", resp.Results[0].AffectedReservations[0].ReservationID)
	assert.Equal(t, float64(30), resp.Results[0].AffectedReservations[0].ReducedBy)
	assert.Equal(t, "RSV-B", resp.Results[0].AffectedReservations[1].ReservationID)
	assert.Equal(t, float64(15), resp.Results[0].AffectedReservations[1].ReducedBy)

	require.Len(t, repo.movements, 1)
	assert.Equal(t, model.MovementStockOut, repo.movements[0].Type)
	assert.Equal(t, float64(-55), repo.movements[0].Change)
	assert.Contains(t, repo.movements[0].Reason, "2 reservations of other jobs affected")
}

func TestConsumeCascadeSeesInBatchReservationState(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "profile", 60, 60, 0)
	seedReservation(repo, "RSV-A", "JOB-A", "STK-1", 60, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))

	// Two consume lines for the same item each cascade a shortfall of 30 into
	// RSV-A. The second line must reduce the already-halved reservation, not
	// the stored one.
	resp, err := svc.BulkReserve(context.Background(), dto.BulkReserveRequest{
		JobID:       "JOB-B",
		ReserveType: "consume",
		Items: []dto.ReserveLine{
			{ItemID: "STK-1", Qty: 30},
			{ItemID: "STK-1", Qty: 30},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	item := repo.items["STK-1"]
	assert.Equal(t, float64(0), item.OnHand)
	assert.Equal(t, float64(0), item.Reserved)

	a := repo.reservations["RSV-A"]
	assert.Equal(t, model.ReservationCancelled, a.Status)
	assert.Equal(t, float64(0), a.Qty)
	assert.Equal(t, "JOB-B", a.AffectedBy)

	require.Len(t, resp.Results, 2)
	require.Len(t, resp.Results[0].AffectedReservations, 1)
	assert.Equal(t, float64(30), resp.Results[0].AffectedReservations[0].ReducedBy)
	require.Len(t, resp.Results[1].AffectedReservations, 1)
	assert.Equal(t, float64(30), resp.Results[1].AffectedReservations[0].ReducedBy)
}

func TestConsumeWithoutShortfallLeavesReservationsAlone(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "profile", 100, 20, 0)
	seedReservation(repo, "RSV-A", "JOB-A", "STK-1", 20, time.Now().UTC())

	resp, err := svc.BulkReserve(context.Background(), dto.BulkReserveRequest{
		JobID:       "JOB-B",
		ReserveType: "consume",
		Items:       []dto.ReserveLine{{ItemID: "STK-1", Qty: 50}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Results[0].AffectedReservations)
	assert.Equal(t, float64(20), repo.reservations["RSV-A"].Qty)
	assert.Equal(t, float64(50), repo.items["STK-1"].OnHand)
	assert.Equal(t, float64(20), repo.items["STK-1"].Reserved)
}

func TestConsumeMoreThanOnHandFailsLine(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "profile", 10, 0, 0)

	resp, err := svc.BulkReserve(context.Background(), dto.BulkReserveRequest{
		JobID:       "JOB-A",
		ReserveType: "consume",
		Items:       []dto.ReserveLine{{ItemID: "STK-1", Qty: 12}},
	})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, float64(2), resp.Errors[0].Shortage)
	assert.Equal(t, float64(10), repo.items["STK-1"].OnHand)
	assert.Empty(t, repo.movements)
}

// ── Release ──────────────────────────────────────────────────────────────────

func TestReleaseReservation(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "profile", 50, 20, 0)
	seedReservation(repo, "RSV-1", "JOB-1", "STK-1", 20, time.Now().UTC())

	resp, err := svc.ReleaseReservation(context.Background(), "RSV-1")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, model.ReservationCancelled, resp.Reservation.Status)
	require.NotNil(t, resp.Reservation.ReleasedAt)

	assert.Equal(t, float64(0), repo.items["STK-1"].Reserved)
	require.Len(t, repo.movements, 1)
	assert.Equal(t, model.MovementRelease, repo.movements[0].Type)
	assert.Equal(t, float64(-20), repo.movements[0].Change)
}

func TestReleaseReservationIdempotent(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "profile", 50, 20, 0)
	seedReservation(repo, "RSV-1", "JOB-1", "STK-1", 20, time.Now().UTC())

	_, err := svc.ReleaseReservation(context.Background(), "RSV-1")
	require.NoError(t, err)

	// second release: success, but stock is restored exactly once
	resp, err := svc.ReleaseReservation(context.Background(), "RSV-1")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, float64(0), repo.items["STK-1"].Reserved)
	assert.Len(t, repo.movements, 1)
}

// ── Reads ────────────────────────────────────────────────────────────────────

func TestGetItemByCode(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "profile", 10, 0, 0)

	item, err := svc.GetItemByCode(context.Background(), "P-STK-1", "C-STK-1")
	require.NoError(t, err)
	assert.Equal(t, "STK-1", item.ID)

	_, err = svc.GetItemByCode(context.Background(), "P-STK-1", "other")
	require.Error(t, err)
	assert.Equal(t, apierror.KindNotFound, apierror.AsError(err).Kind)
}

func TestCriticalItemsShortage(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "low fabric", 10, 5, 8)   // available 5 <= 8
	seedItem(repo, "STK-2", "healthy item", 100, 0, 5)

	out, err := svc.CriticalItems(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "STK-1", out[0].ID)
	assert.Equal(t, float64(5), out[0].Available)
	assert.Equal(t, float64(3), out[0].Shortage)
}

func TestCheckAvailability(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)
	seedItem(repo, "STK-1", "profile", 30, 10, 0)

	resp, err := svc.CheckAvailability(context.Background(), "STK-1:15,STK-1:25,STK-GONE:5")
	require.NoError(t, err)
	assert.False(t, resp.AllAvailable)
	require.Len(t, resp.Items, 3)

	assert.True(t, resp.Items[0].IsEnough)
	assert.False(t, resp.Items[1].IsEnough)
	assert.Equal(t, float64(5), resp.Items[1].Shortage)
	assert.Equal(t, "not found", resp.Items[2].Error)
}

func TestCheckAvailabilityMalformedQty(t *testing.T) {
	repo := newStubStockRepo()
	svc := NewStockService(repo, nil)

	_, err := svc.CheckAvailability(context.Background(), "STK-1:abc")
	require.Error(t, err)
	var apiErr *apierror.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apierror.KindValidation, apiErr.Kind)
}
