package repository

import (
	"context"

	"github.com/mudogruer/istakip-18.01.26/internal/model"

	"gorm.io/gorm"
)

// ProductionOrderRepository is the data access contract for production/
// procurement orders with their lines, issues and delivery history.
type ProductionOrderRepository interface {
	Create(ctx context.Context, o *model.ProductionOrder) error
	FindByID(ctx context.Context, id string) (*model.ProductionOrder, error)
	List(ctx context.Context) ([]model.ProductionOrder, error)
	// Update persists the order and all loaded child rows (lines, issues,
	// resolutions, deliveries) in one transaction.
	Update(ctx context.Context, o *model.ProductionOrder) error
	Delete(ctx context.Context, id string) error

	ListCombinations(ctx context.Context) ([]string, error)
	SaveCombination(ctx context.Context, name string) error
}

type productionRepo struct{ db *gorm.DB }

func NewProductionOrderRepository(db *gorm.DB) ProductionOrderRepository {
	return &productionRepo{db: db}
}

func (r *productionRepo) Create(ctx context.Context, o *model.ProductionOrder) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *productionRepo) FindByID(ctx context.Context, id string) (*model.ProductionOrder, error) {
	var o model.ProductionOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_index ASC") }).
		Preload("Issues", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Issues.History").
		Preload("DeliveryHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&o, "id = ?", id).Error
	return &o, err
}

func (r *productionRepo) List(ctx context.Context) ([]model.ProductionOrder, error) {
	var orders []model.ProductionOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_index ASC") }).
		Preload("Issues").
		Preload("Issues.History").
		Preload("DeliveryHistory").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *productionRepo) Update(ctx context.Context, o *model.ProductionOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(o).Error
	})
}

func (r *productionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.OrderLine{}, "order_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Issue{}, "order_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Delivery{}, "order_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ProductionOrder{}, "id = ?", id).Error
	})
}

// Combination autocomplete values live in their own tiny table; duplicates
// are folded case-insensitively.

func (r *productionRepo) ListCombinations(ctx context.Context) ([]string, error) {
	var rows []model.Combination
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names, nil
}

func (r *productionRepo) SaveCombination(ctx context.Context, name string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Combination{}).
		Where("LOWER(name) = LOWER(?)", name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&model.Combination{ID: model.NewID("COMB"), Name: name}).Error
}
