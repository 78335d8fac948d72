package repository

import (
	"context"

	"github.com/mudogruer/istakip-18.01.26/internal/model"

	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, s *model.Supplier) error
	FindByID(ctx context.Context, id string) (*model.Supplier, error)
	List(ctx context.Context, supplierType string) ([]model.Supplier, error)
	Update(ctx context.Context, s *model.Supplier) error
	Delete(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, tx *model.SupplierTransaction) error
	ListTransactions(ctx context.Context, supplierID string) ([]model.SupplierTransaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepository(db *gorm.DB) SupplierRepository { return &supplierRepo{db: db} }

func (r *supplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *supplierRepo) FindByID(ctx context.Context, id string) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *supplierRepo) List(ctx context.Context, supplierType string) ([]model.Supplier, error) {
	q := r.db.WithContext(ctx).Model(&model.Supplier{})
	if supplierType != "" {
		q = q.Where("type = ?", supplierType)
	}
	var suppliers []model.Supplier
	err := q.Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepo) Update(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *supplierRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Supplier{}, "id = ?", id).Error
}

func (r *supplierRepo) CreateTransaction(ctx context.Context, tx *model.SupplierTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *supplierRepo) ListTransactions(ctx context.Context, supplierID string) ([]model.SupplierTransaction, error) {
	var txs []model.SupplierTransaction
	err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}

func (r *supplierRepo) DeleteTransaction(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.SupplierTransaction{}, "id = ?", id).Error
}
