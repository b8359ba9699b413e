package permission_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-schedule/internal/models"
	"cafe-schedule/internal/permission"
)

var actions = []models.Action{models.ActionView, models.ActionCreate, models.ActionEdit, models.ActionDelete}

func TestTable_FailClosed(t *testing.T) {
	t.Parallel()

	table := permission.NewTable(nil)

	for _, action := range actions {
		assert.False(t, table.Can(42, models.ModuleOrders, action))
	}
	assert.True(t, table.IsReadOnly(42, models.ModuleOrders))
	assert.False(t, table.Can(42, models.Module("typo"), models.ActionView))
	assert.False(t, table.Can(42, models.ModuleOrders, models.Action("approve")))
}

func TestTable_SetSingleFlag(t *testing.T) {
	t.Parallel()

	table := permission.NewTable(nil)

	p, changed := table.Set(1, models.ModuleOrders, models.FieldCanEdit, true)
	require.True(t, changed)
	assert.Equal(t, models.Permission{UserID: 1, Module: models.ModuleOrders, CanEdit: true}, p)

	assert.True(t, table.Can(1, models.ModuleOrders, models.ActionEdit))
	assert.False(t, table.Can(1, models.ModuleOrders, models.ActionView))
	assert.False(t, table.Can(1, models.ModuleOrders, models.ActionCreate))
	assert.False(t, table.Can(1, models.ModuleOrders, models.ActionDelete))

	for _, action := range actions {
		assert.False(t, table.Can(1, models.ModuleMenu, action), "other modules stay closed")
		assert.False(t, table.Can(2, models.ModuleOrders, action), "other users stay closed")
	}
}

func TestTable_SetOverwritesExistingRecord(t *testing.T) {
	t.Parallel()

	table := permission.NewTable([]models.Permission{
		{UserID: 1, Module: models.ModuleMenu, CanView: true, CanCreate: true},
	})
	require.False(t, table.IsReadOnly(1, models.ModuleMenu))

	table.Set(1, models.ModuleMenu, models.FieldCanCreate, false)

	assert.True(t, table.Can(1, models.ModuleMenu, models.ActionView))
	assert.True(t, table.IsReadOnly(1, models.ModuleMenu))
}

func TestTable_SetIsIdempotent(t *testing.T) {
	t.Parallel()

	table := permission.NewTable(nil)

	first, changed := table.Set(3, models.ModuleReports, models.FieldCanView, true)
	require.True(t, changed)

	second, changed := table.Set(3, models.ModuleReports, models.FieldCanView, true)
	assert.False(t, changed)
	assert.Equal(t, first, second)

	stored, ok := table.Get(3, models.ModuleReports)
	require.True(t, ok)
	assert.Equal(t, first, stored)
}

func TestTable_Matrix(t *testing.T) {
	t.Parallel()

	table := permission.NewTable([]models.Permission{
		{UserID: 5, Module: models.ModuleSchedule, CanView: true},
	})

	matrix := table.Matrix(5)
	require.Len(t, matrix, len(models.Modules))

	for _, p := range matrix {
		if p.Module == models.ModuleSchedule {
			assert.True(t, p.CanView)
			continue
		}
		assert.False(t, p.CanView || p.CanCreate || p.CanEdit || p.CanDelete)
	}

	assert.Len(t, table.ForUser(5), 1)
	assert.Empty(t, table.ForUser(6))
}

func TestTable_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	table := permission.NewTable(nil)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func(userID uint) {
			defer wg.Done()
			table.Set(userID, models.ModuleOrders, models.FieldCanView, true)
		}(uint(i))
		go func(userID uint) {
			defer wg.Done()
			p, ok := table.Get(userID, models.ModuleOrders)
			if ok {
				assert.True(t, p.CanView)
				assert.False(t, p.CanCreate || p.CanEdit || p.CanDelete)
			}
		}(uint(i))
	}
	wg.Wait()

	for i := range 50 {
		assert.True(t, table.Can(uint(i), models.ModuleOrders, models.ActionView))
	}
}

func TestTable_DeleteFallsBackToDeny(t *testing.T) {
	t.Parallel()

	table := permission.NewTable([]models.Permission{
		{UserID: 1, Module: models.ModuleOrders, CanView: true, CanCreate: true},
	})
	require.True(t, table.Can(1, models.ModuleOrders, models.ActionCreate))

	table.Delete(1, models.ModuleOrders)
	assert.False(t, table.Can(1, models.ModuleOrders, models.ActionView))
	assert.True(t, table.IsReadOnly(1, models.ModuleOrders))

	table.Delete(2, models.ModuleMenu)
	assert.Empty(t, table.ForUser(2))
}

func TestTable_NextDoesNotMutate(t *testing.T) {
	t.Parallel()

	table := permission.NewTable([]models.Permission{
		{UserID: 1, Module: models.ModuleMenu, CanView: true},
	})

	next, changed := table.Next(1, models.ModuleMenu, models.FieldCanEdit, true)
	assert.True(t, changed)
	assert.True(t, next.CanView && next.CanEdit)
	assert.False(t, table.Can(1, models.ModuleMenu, models.ActionEdit))

	fresh, changed := table.Next(2, models.ModuleMenu, models.FieldCanView, false)
	assert.True(t, changed, "a missing record is created even with false")
	assert.Equal(t, models.Permission{UserID: 2, Module: models.ModuleMenu}, fresh)
	assert.Empty(t, table.ForUser(2))

	_, changed = table.Next(1, models.ModuleMenu, models.FieldCanView, true)
	assert.False(t, changed)
}
