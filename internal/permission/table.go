// Package permission отвечает на вопрос "может ли пользователь выполнить
// действие в разделе панели". Записи хранятся по ключу (пользователь, раздел);
// отсутствие записи означает запрет на все действия.
package permission

import (
	"sort"
	"sync"

	"cafe-schedule/internal/models"
)

type key struct {
	userID uint
	module models.Module
}

// Table - таблица прав в памяти. Безопасна для конкурентного использования.
type Table struct {
	mu      sync.RWMutex
	records map[key]models.Permission
}

func NewTable(records []models.Permission) *Table {
	t := &Table{records: make(map[key]models.Permission, len(records))}
	for _, p := range records {
		t.records[key{p.UserID, p.Module}] = p
	}
	return t
}

// Can возвращает значение флага для действия; нет записи - нет доступа
func (t *Table) Can(userID uint, module models.Module, action models.Action) bool {
	p, ok := t.Get(userID, module)
	if !ok {
		return false
	}
	return p.Allows(action)
}

// IsReadOnly - пользователь не может создавать записи в разделе
func (t *Table) IsReadOnly(userID uint, module models.Module) bool {
	return !t.Can(userID, module, models.ActionCreate)
}

func (t *Table) Get(userID uint, module models.Module) (models.Permission, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.records[key{userID, module}]
	return p, ok
}

// Set перезаписывает один флаг записи либо создает запись, в которой
// остальные флаги false. Возвращает итоговую запись и признак изменения.
func (t *Table) Set(userID uint, module models.Module, field models.PermissionField, value bool) (models.Permission, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, changed := t.next(userID, module, field, value)
	if changed {
		t.records[key{userID, module}] = next
	}
	return next, changed
}

// Next считает запись, которую дал бы Set, не меняя таблицу
func (t *Table) Next(userID uint, module models.Module, field models.PermissionField, value bool) (models.Permission, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.next(userID, module, field, value)
}

func (t *Table) next(userID uint, module models.Module, field models.PermissionField, value bool) (models.Permission, bool) {
	current, exists := t.records[key{userID, module}]
	if !exists {
		current = models.Permission{UserID: userID, Module: module}
	}

	next := current.With(field, value)
	if exists && next == current {
		return current, false
	}
	return next, true
}

// Put заменяет запись целиком
func (t *Table) Put(p models.Permission) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records[key{p.UserID, p.Module}] = p
}

// Delete удаляет запись; после этого действует запрет по умолчанию
func (t *Table) Delete(userID uint, module models.Module) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.records, key{userID, module})
}

// ForUser возвращает записи пользователя, отсортированные по разделу
func (t *Table) ForUser(userID uint) []models.Permission {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []models.Permission
	for k, p := range t.records {
		if k.userID == userID {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Module < out[j].Module
	})
	return out
}

// Matrix возвращает права пользователя по всем разделам, включая
// разделы без записи (все флаги false)
func (t *Table) Matrix(userID uint) []models.Permission {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.Permission, 0, len(models.Modules))
	for _, m := range models.Modules {
		p, ok := t.records[key{userID, m}]
		if !ok {
			p = models.Permission{UserID: userID, Module: m}
		}
		out = append(out, p)
	}
	return out
}
