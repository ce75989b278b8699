package repository

import (
	"context"
	"errors"

	"github.com/munidigital/plano/internal/plan/entity"
	"gorm.io/gorm"
)

// DepartmentRepository persists departments.
type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// FindAll lists departments, optionally filtered by status.
func (r *DepartmentRepository) FindAll(ctx context.Context, status string) ([]entity.Department, error) {
	var departments []entity.Department
	query := r.db.WithContext(ctx).Model(&entity.Department{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("name ASC").Find(&departments).Error
	return departments, err
}

func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*entity.Department, error) {
	var dept entity.Department
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &dept, nil
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *entity.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *DepartmentRepository) Update(ctx context.Context, dept *entity.Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}
