package repository

import (
	"context"

	"github.com/mudogruer/istakip-18.01.26/internal/model"

	"gorm.io/gorm"
)

// JobFilter narrows job listings. Zero values mean "no constraint".
type JobFilter struct {
	Status     string
	StartType  string
	CustomerID string
	IsArchive  *bool
}

// JobRepository defines the data access contract for jobs.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory fakes.
type JobRepository interface {
	Create(ctx context.Context, j *model.Job) error
	FindByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, filter JobFilter) ([]model.Job, error)
	Update(ctx context.Context, j *model.Job) error
}

type jobRepo struct{ db *gorm.DB }

func NewJobRepository(db *gorm.DB) JobRepository { return &jobRepo{db: db} }

func (r *jobRepo) Create(ctx context.Context, j *model.Job) error {
	return r.db.WithContext(ctx).Create(j).Error
}

func (r *jobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	var j model.Job
	err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error
	return &j, err
}

func (r *jobRepo) List(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.StartType != "" {
		q = q.Where("start_type = ?", filter.StartType)
	}
	if filter.CustomerID != "" {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.IsArchive != nil {
		q = q.Where("is_archive = ?", *filter.IsArchive)
	}
	var jobs []model.Job
	err := q.Find(&jobs).Error
	return jobs, err
}

func (r *jobRepo) Update(ctx context.Context, j *model.Job) error {
	return r.db.WithContext(ctx).Save(j).Error
}
