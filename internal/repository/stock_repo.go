package repository

import (
	"context"

	"github.com/mudogruer/istakip-18.01.26/internal/model"

	"gorm.io/gorm"
)

// StockItemFilter narrows item listings.
type StockItemFilter struct {
	ProductCode  string
	ColorCode    string
	SupplierID   string
	CriticalOnly bool
	Query        string // free-text against code / name / color name
}

// MovementFilter narrows ledger listings.
type MovementFilter struct {
	ItemID string
	JobID  string
	Type   string
	Limit  int
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	JobID  string
	ItemID string
	Status string
}

// StockRepository is the data access contract for the stock ledger: items,
// immutable movements and reservations. Tx variants participate in a caller
// transaction so that a bulk batch commits items, movements and reservations
// together.
type StockRepository interface {
	CreateItem(ctx context.Context, item *model.StockItem) error
	FindItemByID(ctx context.Context, id string) (*model.StockItem, error)
	FindItemByCode(ctx context.Context, productCode, colorCode string) (*model.StockItem, error)
	ListItems(ctx context.Context, filter StockItemFilter) ([]model.StockItem, error)
	UpdateItem(ctx context.Context, item *model.StockItem) error
	UpdateItemTx(tx *gorm.DB, item *model.StockItem) error
	DeleteItem(ctx context.Context, id string) error

	CreateMovement(ctx context.Context, m *model.StockMovement) error
	CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error
	ListMovements(ctx context.Context, filter MovementFilter) ([]model.StockMovement, error)

	CreateReservation(ctx context.Context, res *model.Reservation) error
	CreateReservationTx(tx *gorm.DB, res *model.Reservation) error
	FindReservationByID(ctx context.Context, id string) (*model.Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]model.Reservation, error)
	// ListPendingByItem returns pending reservations for an item excluding one
	// job, oldest first — the deterministic walk order for cascading adjustment.
	ListPendingByItem(ctx context.Context, itemID, excludeJobID string) ([]model.Reservation, error)
	UpdateReservation(ctx context.Context, res *model.Reservation) error
	UpdateReservationTx(tx *gorm.DB, res *model.Reservation) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepository(db *gorm.DB) StockRepository { return &stockRepo{db: db} }

// ── Items ────────────────────────────────────────────────────────────────────

func (r *stockRepo) CreateItem(ctx context.Context, item *model.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *stockRepo) FindItemByID(ctx context.Context, id string) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	return &item, err
}

func (r *stockRepo) FindItemByCode(ctx context.Context, productCode, colorCode string) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.WithContext(ctx).
		Where("product_code = ? AND color_code = ?", productCode, colorCode).
		First(&item).Error
	return &item, err
}

func (r *stockRepo) ListItems(ctx context.Context, filter StockItemFilter) ([]model.StockItem, error) {
	q := r.db.WithContext(ctx).Model(&model.StockItem{})

	if filter.ProductCode != "" {
		q = q.Where("product_code LIKE ?", filter.ProductCode+"%")
	}
	if filter.ColorCode != "" {
		q = q.Where("color_code LIKE ?", filter.ColorCode+"%")
	}
	if filter.SupplierID != "" {
		q = q.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.CriticalOnly {
		q = q.Where("on_hand - reserved <= critical")
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("product_code ILIKE ? OR name ILIKE ? OR color_name ILIKE ?", like, like, like)
	}

	var items []model.StockItem
	err := q.Order("product_code ASC, color_code ASC").Find(&items).Error
	return items, err
}

func (r *stockRepo) UpdateItem(ctx context.Context, item *model.StockItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *stockRepo) UpdateItemTx(tx *gorm.DB, item *model.StockItem) error {
	return tx.Save(item).Error
}

func (r *stockRepo) DeleteItem(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.StockItem{}, "id = ?", id).Error
}

// ── Movements ────────────────────────────────────────────────────────────────

func (r *stockRepo) CreateMovement(ctx context.Context, m *model.StockMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *stockRepo) CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]model.StockMovement, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{})
	if filter.ItemID != "" {
		q = q.Where("item_id = ?", filter.ItemID)
	}
	if filter.JobID != "" {
		q = q.Where("job_id = ?", filter.JobID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	var movements []model.StockMovement
	err := q.Order("created_at DESC").Limit(limit).Find(&movements).Error
	return movements, err
}

// ── Reservations ─────────────────────────────────────────────────────────────

func (r *stockRepo) CreateReservation(ctx context.Context, res *model.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *stockRepo) CreateReservationTx(tx *gorm.DB, res *model.Reservation) error {
	return tx.Create(res).Error
}

func (r *stockRepo) FindReservationByID(ctx context.Context, id string) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error
	return &res, err
}

func (r *stockRepo) ListReservations(ctx context.Context, filter ReservationFilter) ([]model.Reservation, error) {
	q := r.db.WithContext(ctx).Model(&model.Reservation{})
	if filter.JobID != "" {
		q = q.Where("job_id = ?", filter.JobID)
	}
	if filter.ItemID != "" {
		q = q.Where("item_id = ?", filter.ItemID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var reservations []model.Reservation
	err := q.Order("created_at DESC").Find(&reservations).Error
	return reservations, err
}

func (r *stockRepo) ListPendingByItem(ctx context.Context, itemID, excludeJobID string) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND status = ? AND job_id <> ?", itemID, model.ReservationPending, excludeJobID).
		Order("created_at ASC").
		Find(&reservations).Error
	return reservations, err
}

func (r *stockRepo) UpdateReservation(ctx context.Context, res *model.Reservation) error {
	return r.db.WithContext(ctx).Save(res).Error
}

func (r *stockRepo) UpdateReservationTx(tx *gorm.DB, res *model.Reservation) error {
	return tx.Save(res).Error
}

func (r *stockRepo) DB() *gorm.DB { return r.db }
