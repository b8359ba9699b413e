package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cafe-schedule/internal/api"
	"cafe-schedule/internal/models"
	"cafe-schedule/internal/repository"
	"cafe-schedule/internal/service"
)

type testAPI struct {
	server      *httptest.Server
	users       *service.UserService
	permissions *service.PermissionService
	directorID  uint
	employeeID  uint
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	logger, _ := logtest.NewNullLogger()
	ctx := context.Background()

	employeeRepo, err := repository.NewGormEmployeeRepository(db, logger)
	require.NoError(t, err)
	shiftRepo, err := repository.NewGormShiftRepository(db, logger)
	require.NoError(t, err)
	permissionRepo, err := repository.NewGormPermissionRepository(db, logger)
	require.NoError(t, err)
	userRepo, err := repository.NewGormUserRepository(db, logger)
	require.NoError(t, err)

	permissions, err := service.NewPermissionService(ctx, permissionRepo, logger)
	require.NoError(t, err)
	users := service.NewUserService(userRepo, employeeRepo, permissions, logger)

	// Конфигурация по умолчанию: чат директора не задан
	director, err := users.InitializeDirector(ctx, 0, "director")
	require.NoError(t, err)
	staff, err := users.CreateUser(ctx, "barista", models.RoleEmployee)
	require.NoError(t, err)

	h := api.NewHandler(
		service.NewEmployeeService(employeeRepo, logger),
		service.NewScheduleService(shiftRepo, employeeRepo, logger),
		permissions,
		users,
	)
	mw := api.NewMiddleware(users, permissions, logger)

	server := httptest.NewServer(api.NewRouter(h, mw))
	t.Cleanup(server.Close)

	return &testAPI{
		server:      server,
		users:       users,
		permissions: permissions,
		directorID:  director.ID,
		employeeID:  staff.ID,
	}
}

func (a *testAPI) do(t *testing.T, userID uint, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprint(userID))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, data
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)

	resp, body := a.do(t, 0, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestAuth(t *testing.T) {
	a := newTestAPI(t)

	resp, _ := a.do(t, 0, http.MethodGet, "/api/me/permissions", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.do(t, 999, http.MethodGet, "/api/me/permissions", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := a.do(t, a.employeeID, http.MethodGet, "/api/me/permissions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var matrix []models.Permission
	require.NoError(t, json.Unmarshal(body, &matrix))
	assert.Len(t, matrix, len(models.Modules))
	for _, p := range matrix {
		assert.False(t, p.CanView, p.Module)
	}
}

func TestPermissionGatingByMethod(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()

	resp, _ := a.do(t, a.employeeID, http.MethodGet, "/api/shifts", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, err := a.permissions.SetPermission(ctx, a.employeeID, models.ModuleSchedule, models.FieldCanView, true)
	require.NoError(t, err)

	resp, _ = a.do(t, a.employeeID, http.MethodGet, "/api/shifts", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = a.do(t, a.employeeID, http.MethodPost, "/api/employees", map[string]any{"name": "Анна"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "view does not imply create")

	resp, _ = a.do(t, a.employeeID, http.MethodGet, fmt.Sprintf("/api/permissions/%d", a.employeeID), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "other modules stay closed")
}

func TestScheduleFlow(t *testing.T) {
	a := newTestAPI(t)
	d := a.directorID

	resp, body := a.do(t, d, http.MethodPost, "/api/employees", map[string]any{
		"name":          "Анна",
		"position":      "бариста",
		"maxHours":      "8",
		"availableDays": []string{"mon", "tue"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var employee models.Employee
	require.NoError(t, json.Unmarshal(body, &employee))

	resp, body = a.do(t, d, http.MethodPost, "/api/shifts", map[string]any{
		"employeeId": employee.ID,
		"date":       "2026-10-12",
		"startTime":  "09:00",
		"endTime":    "13:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var first map[string]any
	require.NoError(t, json.Unmarshal(body, &first))
	assert.Equal(t, "2026-10-12", first["date"])
	assert.Equal(t, "09:00", first["startTime"])
	assert.Equal(t, models.ShiftStatusDraft, first["status"])

	resp, body = a.do(t, d, http.MethodPost, "/api/shifts", map[string]any{
		"employeeId": employee.ID,
		"date":       "12.10.2026",
		"startTime":  "12:00",
		"endTime":    "18:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = a.do(t, d, http.MethodPost, "/api/shifts", map[string]any{
		"employeeId": employee.ID,
		"date":       "2026-10-12",
		"startTime":  "18:00",
		"endTime":    "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = a.do(t, d, http.MethodGet, "/api/schedule/conflicts?week=2026-10-14", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var conflicts []models.Conflict
	require.NoError(t, json.Unmarshal(body, &conflicts))
	require.Len(t, conflicts, 2)
	assert.Equal(t, models.ConflictOverlap, conflicts[0].Type)
	assert.Equal(t, models.ConflictOvertime, conflicts[1].Type)

	resp, body = a.do(t, d, http.MethodPost, "/api/shifts/publish?week=2026-10-12", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"week":"2026-10-12","published":2}`, string(body))

	id := uint(first["id"].(float64))

	resp, _ = a.do(t, d, http.MethodPatch, fmt.Sprintf("/api/shifts/%d/status", id), map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = a.do(t, d, http.MethodPatch, fmt.Sprintf("/api/shifts/%d/status", id), map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = a.do(t, d, http.MethodGet, "/api/schedule/conflicts?week=2026-10-12", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = a.do(t, d, http.MethodPatch, "/api/shifts/bulk", map[string]any{"ids": []uint{id, 999}, "notes": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = a.do(t, d, http.MethodDelete, fmt.Sprintf("/api/shifts/%d", id), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = a.do(t, d, http.MethodGet, fmt.Sprintf("/api/shifts/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = a.do(t, d, http.MethodGet, "/api/shifts?week=someday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPermissionsEndpoints(t *testing.T) {
	a := newTestAPI(t)
	d := a.directorID
	path := fmt.Sprintf("/api/permissions/%d", a.employeeID)

	resp, body := a.do(t, d, http.MethodPut, path, map[string]any{"module": "orders", "field": "canCreate", "value": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var p models.Permission
	require.NoError(t, json.Unmarshal(body, &p))
	assert.True(t, p.CanCreate)
	assert.False(t, p.CanView)

	resp, body = a.do(t, d, http.MethodGet, path+"/check?module=orders&action=create", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"allowed":true,"readOnly":false}`, string(body))

	resp, body = a.do(t, d, http.MethodGet, path+"/check?module=orders&action=delete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"allowed":false,"readOnly":false}`, string(body))

	resp, body = a.do(t, d, http.MethodGet, path+"/check?module=kitchen&action=view", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"allowed":false,"readOnly":true}`, string(body))

	resp, _ = a.do(t, d, http.MethodPut, path, map[string]any{"module": "kitchen", "field": "canView", "value": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = a.do(t, d, http.MethodPut, "/api/permissions/999", map[string]any{"module": "orders", "field": "canView", "value": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListEmployeesByStatus(t *testing.T) {
	a := newTestAPI(t)
	d := a.directorID

	for _, body := range []map[string]any{
		{"name": "Анна"},
		{"name": "Борис", "status": "inactive"},
	} {
		resp, data := a.do(t, d, http.MethodPost, "/api/employees", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	}

	var all, active []models.Employee

	resp, body := a.do(t, d, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &all))
	assert.Len(t, all, 2)

	resp, body = a.do(t, d, http.MethodGet, "/api/employees?status=active", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &active))
	require.Len(t, active, 1)
	assert.Equal(t, "Анна", active[0].Name)

	resp, _ = a.do(t, d, http.MethodGet, "/api/employees?status=fired", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPublishRequiresEdit(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()
	u := a.employeeID

	_, err := a.permissions.SetPermission(ctx, u, models.ModuleSchedule, models.FieldCanCreate, true)
	require.NoError(t, err)

	resp, _ := a.do(t, u, http.MethodPost, "/api/shifts/publish?week=2026-10-12", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "create does not allow publishing")

	_, err = a.permissions.SetPermission(ctx, u, models.ModuleSchedule, models.FieldCanCreate, false)
	require.NoError(t, err)
	_, err = a.permissions.SetPermission(ctx, u, models.ModuleSchedule, models.FieldCanEdit, true)
	require.NoError(t, err)

	resp, body := a.do(t, u, http.MethodPost, "/api/shifts/publish?week=2026-10-12", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"week":"2026-10-12","published":0}`, string(body))

	resp, _ = a.do(t, u, http.MethodPost, "/api/shifts", map[string]any{"employeeId": 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "edit does not allow creating")
}

func TestUsersEndpoints(t *testing.T) {
	a := newTestAPI(t)
	d := a.directorID

	resp, body := a.do(t, d, http.MethodPost, "/api/users", map[string]any{"username": "@chef"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created models.User
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "chef", created.Username)
	assert.Equal(t, models.RoleEmployee, created.Role)
	assert.Nil(t, created.ChatID)

	resp, _ = a.do(t, d, http.MethodPost, "/api/users", map[string]any{"username": "chef"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = a.do(t, d, http.MethodPost, "/api/users", map[string]any{"username": "sous", "role": "owner"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = a.do(t, d, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var users []models.User
	require.NoError(t, json.Unmarshal(body, &users))
	assert.Len(t, users, 3)

	resp, _ = a.do(t, a.employeeID, http.MethodPost, "/api/users", map[string]any{"username": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Созданный пользователь сразу может обращаться к API
	resp, _ = a.do(t, created.ID, http.MethodGet, "/api/me/permissions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
