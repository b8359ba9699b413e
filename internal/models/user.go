package models

import "time"

type Role string

const (
	RoleDirector Role = "director"
	RoleEmployee Role = "employee"
)

func IsValidRole(role Role) bool {
	return role == RoleDirector || role == RoleEmployee
}

type User struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Username   string    `gorm:"uniqueIndex;not null" json:"username"`
	ChatID     *int64    `gorm:"uniqueIndex" json:"chatId,omitempty"`
	EmployeeID *uint     `gorm:"index" json:"employeeId,omitempty"`
	Role       Role      `gorm:"type:varchar(20);not null;default:'employee'" json:"role"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// IsDirector проверяет, является ли пользователь директором
func (u *User) IsDirector() bool {
	return u.Role == RoleDirector
}

// TableName задает имя таблицы в БД
func (User) TableName() string {
	return "users"
}
