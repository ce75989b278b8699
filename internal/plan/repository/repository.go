package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories is the plan repository set.
type Repositories struct {
	Department *DepartmentRepository
	Demand     *DemandRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Department: NewDepartmentRepository(db),
		Demand:     NewDemandRepository(db),
	}
}
