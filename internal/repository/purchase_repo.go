package repository

import (
	"context"
	"time"

	"github.com/mudogruer/istakip-18.01.26/internal/model"

	"gorm.io/gorm"
)

// PurchaseOrderFilter narrows purchase order listings.
type PurchaseOrderFilter struct {
	Status     string
	SupplierID string
	// HasPending selects orders with undelivered quantity (draft/sent/partial).
	HasPending bool
}

type PurchaseOrderRepository interface {
	Create(ctx context.Context, o *model.PurchaseOrder) error
	FindByID(ctx context.Context, id string) (*model.PurchaseOrder, error)
	List(ctx context.Context, filter PurchaseOrderFilter) ([]model.PurchaseOrder, error)
	Update(ctx context.Context, o *model.PurchaseOrder) error
	Delete(ctx context.Context, id string) error
	// CountCreatedOn counts orders created on the given day — used to build
	// the sequential PO-YYMMDD-NNN number.
	CountCreatedOn(ctx context.Context, day time.Time) (int64, error)
}

type purchaseRepo struct{ db *gorm.DB }

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseRepo{db: db}
}

func (r *purchaseRepo) Create(ctx context.Context, o *model.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *purchaseRepo) FindByID(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	var o model.PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error
	return &o, err
}

func (r *purchaseRepo) List(ctx context.Context, filter PurchaseOrderFilter) ([]model.PurchaseOrder, error) {
	q := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).Preload("Items")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != "" {
		q = q.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.HasPending {
		q = q.Where("status IN ?", []string{model.PurchaseDraft, model.PurchaseSent, model.PurchasePartial})
	}
	var orders []model.PurchaseOrder
	err := q.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *purchaseRepo) Update(ctx context.Context, o *model.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(o).Error
	})
}

func (r *purchaseRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.PurchaseOrderItem{}, "order_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.PurchaseOrder{}, "id = ?", id).Error
	})
}

func (r *purchaseRepo) CountCreatedOn(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error
	return count, err
}
