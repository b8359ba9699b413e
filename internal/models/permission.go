package models

import "time"

// Module - функциональный раздел панели, единица выдачи прав
type Module string

const (
	ModuleMenu         Module = "menu"
	ModuleOrders       Module = "orders"
	ModuleCustomers    Module = "customers"
	ModuleReservations Module = "reservations"
	ModuleReports      Module = "reports"
	ModuleSchedule     Module = "schedule"
	ModuleQuality      Module = "quality"
	ModuleLoyalty      Module = "loyalty"
	ModuleMessages     Module = "messages"
	ModuleSettings     Module = "settings"
	ModulePermissions  Module = "permissions"
)

var Modules = []Module{
	ModuleMenu,
	ModuleOrders,
	ModuleCustomers,
	ModuleReservations,
	ModuleReports,
	ModuleSchedule,
	ModuleQuality,
	ModuleLoyalty,
	ModuleMessages,
	ModuleSettings,
	ModulePermissions,
}

func ParseModule(s string) (Module, bool) {
	for _, m := range Modules {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionView, ActionCreate, ActionEdit, ActionDelete:
		return a, true
	}
	return "", false
}

// PermissionField - имя булева флага в записи прав
type PermissionField string

const (
	FieldCanView   PermissionField = "canView"
	FieldCanCreate PermissionField = "canCreate"
	FieldCanEdit   PermissionField = "canEdit"
	FieldCanDelete PermissionField = "canDelete"
)

func ParsePermissionField(s string) (PermissionField, bool) {
	switch f := PermissionField(s); f {
	case FieldCanView, FieldCanCreate, FieldCanEdit, FieldCanDelete:
		return f, true
	}
	return "", false
}

// Field возвращает флаг, отвечающий за действие
func (a Action) Field() PermissionField {
	switch a {
	case ActionView:
		return FieldCanView
	case ActionCreate:
		return FieldCanCreate
	case ActionEdit:
		return FieldCanEdit
	case ActionDelete:
		return FieldCanDelete
	}
	return ""
}

// Column возвращает имя колонки в таблице permissions
func (f PermissionField) Column() string {
	switch f {
	case FieldCanView:
		return "can_view"
	case FieldCanCreate:
		return "can_create"
	case FieldCanEdit:
		return "can_edit"
	case FieldCanDelete:
		return "can_delete"
	}
	return ""
}

type Permission struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_permissions_user_module" json:"userId"`
	Module    Module    `gorm:"type:varchar(30);not null;uniqueIndex:idx_permissions_user_module" json:"module"`
	CanView   bool      `gorm:"not null;default:false" json:"canView"`
	CanCreate bool      `gorm:"not null;default:false" json:"canCreate"`
	CanEdit   bool      `gorm:"not null;default:false" json:"canEdit"`
	CanDelete bool      `gorm:"not null;default:false" json:"canDelete"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Permission) TableName() string {
	return "permissions"
}

// Allows возвращает значение флага для действия
func (p Permission) Allows(action Action) bool {
	return p.Get(action.Field())
}

func (p Permission) Get(field PermissionField) bool {
	switch field {
	case FieldCanView:
		return p.CanView
	case FieldCanCreate:
		return p.CanCreate
	case FieldCanEdit:
		return p.CanEdit
	case FieldCanDelete:
		return p.CanDelete
	}
	return false
}

// With возвращает копию записи с измененным флагом
func (p Permission) With(field PermissionField, value bool) Permission {
	switch field {
	case FieldCanView:
		p.CanView = value
	case FieldCanCreate:
		p.CanCreate = value
	case FieldCanEdit:
		p.CanEdit = value
	case FieldCanDelete:
		p.CanDelete = value
	}
	return p
}
