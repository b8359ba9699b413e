package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы сотрудников
const (
	EmployeeStatusActive   = "active"
	EmployeeStatusOnLeave  = "on_leave"
	EmployeeStatusInactive = "inactive"
)

type Employee struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	Position      string          `gorm:"type:varchar(50)" json:"position"`
	Department    string          `gorm:"type:varchar(50)" json:"department"`
	MaxHours      decimal.Decimal `gorm:"type:decimal(6,2);not null;default:40" json:"maxHours"`
	MinHours      decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"minHours"`
	AvailableDays Tags            `json:"availableDays"`
	Skills        Tags            `json:"skills"`
	Status        string          `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Employee) TableName() string {
	return "employees"
}

func IsValidEmployeeStatus(status string) bool {
	switch status {
	case EmployeeStatusActive, EmployeeStatusOnLeave, EmployeeStatusInactive:
		return true
	}
	return false
}

// IsValid проверяет валидность данных
func (e *Employee) IsValid() bool {
	if e.Name == "" {
		return false
	}
	if e.MinHours.IsNegative() || e.MaxHours.IsNegative() {
		return false
	}
	if e.MinHours.GreaterThan(e.MaxHours) {
		return false
	}
	return IsValidEmployeeStatus(e.Status)
}

func (e *Employee) IsActive() bool {
	return e.Status == EmployeeStatusActive
}
