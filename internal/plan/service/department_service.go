package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/munidigital/plano/internal/plan/entity"
	"github.com/munidigital/plano/internal/plan/repository"
)

// DepartmentService owns the department registry.
type DepartmentService struct {
	deptRepo *repository.DepartmentRepository
}

func NewDepartmentService(deptRepo *repository.DepartmentRepository) *DepartmentService {
	return &DepartmentService{deptRepo: deptRepo}
}

func (s *DepartmentService) ListDepartments(ctx context.Context, status string) ([]entity.Department, error) {
	return s.deptRepo.FindAll(ctx, status)
}

func (s *DepartmentService) GetDepartment(ctx context.Context, id string) (*entity.Department, error) {
	return s.deptRepo.FindByID(ctx, id)
}

// CreateDepartmentRequest registers a requesting unit.
type CreateDepartmentRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Acronym string `json:"acronym"`
}

// UpdateDepartmentRequest renames a department or toggles its status.
type UpdateDepartmentRequest struct {
	Name    *string `json:"name"`
	Acronym *string `json:"acronym"`
	Status  *string `json:"status"`
}

func (s *DepartmentService) UpdateDepartment(ctx context.Context, id string, req *UpdateDepartmentRequest) (*entity.Department, error) {
	dept, err := s.deptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, validationErr("name", "name is required")
		}
		dept.Name = strings.TrimSpace(*req.Name)
	}
	if req.Acronym != nil {
		dept.Acronym = *req.Acronym
	}
	if req.Status != nil {
		if *req.Status != entity.DepartmentStatusActive && *req.Status != entity.DepartmentStatusInactive {
			return nil, validationErr("status", "status must be active or inactive")
		}
		dept.Status = *req.Status
	}
	if err := s.deptRepo.Update(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

func (s *DepartmentService) CreateDepartment(ctx context.Context, req *CreateDepartmentRequest) (*entity.Department, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationErr("name", "name is required")
	}
	dept := &entity.Department{
		ID:      uuid.New().String()[:32],
		Code:    strings.TrimSpace(req.Code),
		Name:    strings.TrimSpace(req.Name),
		Acronym: req.Acronym,
		Status:  entity.DepartmentStatusActive,
	}
	if err := s.deptRepo.Create(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}
