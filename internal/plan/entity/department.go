package entity

import "time"

// Department is the requesting unit that owns demand records.
type Department struct {
	ID      string `json:"id" gorm:"primaryKey;size:32"`
	Code    string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name    string `json:"name" gorm:"size:200;not null"`
	Acronym string `json:"acronym" gorm:"size:20"`
	Status  string `json:"status" gorm:"size:20;default:active"` // active/inactive

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Department) TableName() string {
	return "plan_departments"
}

const (
	DepartmentStatusActive   = "active"
	DepartmentStatusInactive = "inactive"
)
