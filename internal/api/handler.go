package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"cafe-schedule/internal/models"
	"cafe-schedule/internal/service"
	"cafe-schedule/pkg/weekdays"

	"github.com/go-chi/chi/v5"
)

type EmployeeService interface {
	CreateEmployee(ctx context.Context, input service.EmployeeInput) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, id uint, input service.EmployeeInput) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, id uint) error
	GetEmployee(ctx context.Context, id uint) (*models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	ListActiveEmployees(ctx context.Context) ([]models.Employee, error)
}

type ScheduleService interface {
	AddShift(ctx context.Context, input service.ShiftInput) (*models.Shift, error)
	ChangeStatus(ctx context.Context, id uint, status string) (*models.Shift, error)
	BulkUpdate(ctx context.Context, ids []uint, patch service.ShiftPatch) ([]models.Shift, error)
	PublishWeek(ctx context.Context, date time.Time) (int, error)
	DeleteShift(ctx context.Context, id uint) error
	GetShift(ctx context.Context, id uint) (*models.Shift, error)
	ListWeek(ctx context.Context, date time.Time) ([]models.Shift, error)
	WeekConflicts(ctx context.Context, date time.Time) ([]models.Conflict, error)
	WeekHours(ctx context.Context, date time.Time) ([]service.EmployeeHours, error)
}

type PermissionService interface {
	Can(userID uint, module models.Module, action models.Action) bool
	IsReadOnly(userID uint, module models.Module) bool
	UserMatrix(userID uint) []models.Permission
	SetPermission(ctx context.Context, userID uint, module models.Module, field models.PermissionField, value bool) (models.Permission, error)
}

type UserService interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, username string, role models.Role) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

type Handler struct {
	employees   EmployeeService
	schedule    ScheduleService
	permissions PermissionService
	users       UserService
	now         func() time.Time
}

func NewHandler(employees EmployeeService, schedule ScheduleService, permissions PermissionService, users UserService) *Handler {
	return &Handler{
		employees:   employees,
		schedule:    schedule,
		permissions: permissions,
		users:       users,
		now:         time.Now,
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, loggerFrom(r.Context()), http.StatusOK, map[string]string{"status": "ok"})
}

// week читает параметр ?week=; пустое значение - текущая неделя
func (h *Handler) week(r *http.Request) (time.Time, error) {
	date, err := weekdays.ParseDate(r.URL.Query().Get("week"), h.now())
	if err != nil {
		return time.Time{}, err
	}
	return date, nil
}

func pathID(r *http.Request, name string) (uint, error) {
	return parseID(chi.URLParam(r, name))
}

func decode(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// Employees

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		employees []models.Employee
		err       error
	)

	switch status := r.URL.Query().Get("status"); status {
	case "":
		employees, err = h.employees.ListEmployees(ctx)
	case models.EmployeeStatusActive:
		employees, err = h.employees.ListActiveEmployees(ctx)
	default:
		sendJSONErr(w, loggerFrom(ctx), http.StatusBadRequest, nil, "Поддерживается только status=active")
		return
	}
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	if employees == nil {
		employees = []models.Employee{}
	}
	sendJSON(w, loggerFrom(ctx), http.StatusOK, employees)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.EmployeeInput
	if err := decode(r, &req); err != nil {
		sendJSONErr(w, loggerFrom(ctx), http.StatusBadRequest, err, "Невалидный JSON")
		return
	}

	employee, err := h.employees.CreateEmployee(ctx, req)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusCreated, employee)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	employee, err := h.employees.GetEmployee(ctx, id)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusOK, employee)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	var req service.EmployeeInput
	if err := decode(r, &req); err != nil {
		sendJSONErr(w, loggerFrom(ctx), http.StatusBadRequest, err, "Невалидный JSON")
		return
	}

	employee, err := h.employees.UpdateEmployee(ctx, id, req)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusOK, employee)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	if err := h.employees.DeleteEmployee(ctx, id); err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Shifts

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	week, err := h.week(r)
	if err != nil {
		sendJSONErr(w, loggerFrom(ctx), http.StatusBadRequest, err, "Неверный параметр week")
		return
	}

	shifts, err := h.schedule.ListWeek(ctx, week)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	if shifts == nil {
		shifts = []models.Shift{}
	}
	sendJSON(w, loggerFrom(ctx), http.StatusOK, shifts)
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req service.ShiftInput
	if err := decode(r, &req); err != nil {
		sendJSONErr(w, loggerFrom(ctx), http.StatusBadRequest, err, "Невалидный JSON")
		return
	}

	shift, err := h.schedule.AddShift(ctx, req)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusCreated, shift)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	shift, err := h.schedule.GetShift(ctx, id)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusOK, shift)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	if err := h.schedule.DeleteShift(ctx, id); err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) ChangeShiftStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	var req ChangeStatusRequest
	if err := decode(r, &req); err != nil {
		sendJSONErr(w, loggerFrom(ctx), http.StatusBadRequest, err, "Невалидный JSON")
		return
	}

	shift, err := h.schedule.ChangeStatus(ctx, id, req.Status)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusOK, shift)
}

type BulkUpdateRequest struct {
	IDs []uint `json:"ids"`
	service.ShiftPatch
}

func (h *Handler) BulkUpdateShifts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BulkUpdateRequest
	if err := decode(r, &req); err != nil {
		sendJSONErr(w, loggerFrom(ctx), http.StatusBadRequest, err, "Невалидный JSON")
		return
	}

	shifts, err := h.schedule.BulkUpdate(ctx, req.IDs, req.ShiftPatch)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusOK, shifts)
}

type PublishWeekResponse struct {
	Week      string `json:"week"`
	Published int    `json:"published"`
}

func (h *Handler) PublishWeek(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	week, err := h.week(r)
	if err != nil {
		sendJSONErr(w, loggerFrom(ctx), http.StatusBadRequest, err, "Неверный параметр week")
		return
	}

	count, err := h.schedule.PublishWeek(ctx, week)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusOK, PublishWeekResponse{
		Week:      weekdays.WeekStart(week).Format(models.DateLayout),
		Published: count,
	})
}

// Schedule reports

func (h *Handler) Conflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	week, err := h.week(r)
	if err != nil {
		sendJSONErr(w, loggerFrom(ctx), http.StatusBadRequest, err, "Неверный параметр week")
		return
	}

	conflicts, err := h.schedule.WeekConflicts(ctx, week)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusOK, conflicts)
}

func (h *Handler) Hours(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	week, err := h.week(r)
	if err != nil {
		sendJSONErr(w, loggerFrom(ctx), http.StatusBadRequest, err, "Неверный параметр week")
		return
	}

	report, err := h.schedule.WeekHours(ctx, week)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusOK, report)
}

// Users

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.users.ListUsers(ctx)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	if users == nil {
		users = []*models.User{}
	}
	sendJSON(w, loggerFrom(ctx), http.StatusOK, users)
}

type CreateUserRequest struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// CreateUser заводит пользователя без чата. Права выдаются отдельно,
// чат привяжется при первом /start с тем же username.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateUserRequest
	if err := decode(r, &req); err != nil {
		sendJSONErr(w, loggerFrom(ctx), http.StatusBadRequest, err, "Невалидный JSON")
		return
	}

	if req.Role == "" {
		req.Role = models.RoleEmployee
	}

	user, err := h.users.CreateUser(ctx, req.Username, req.Role)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusCreated, user)
}

// Permissions

func (h *Handler) UserPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pathID(r, "userID")
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	if _, err := h.users.GetUser(ctx, userID); err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusOK, h.permissions.UserMatrix(userID))
}

func (h *Handler) MyPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := userFrom(ctx)
	if !ok {
		sendServiceErr(w, loggerFrom(ctx), models.ErrUnauthorized)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusOK, h.permissions.UserMatrix(user.ID))
}

type SetPermissionRequest struct {
	Module string `json:"module"`
	Field  string `json:"field"`
	Value  bool   `json:"value"`
}

func (h *Handler) SetPermission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pathID(r, "userID")
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	var req SetPermissionRequest
	if err := decode(r, &req); err != nil {
		sendJSONErr(w, loggerFrom(ctx), http.StatusBadRequest, err, "Невалидный JSON")
		return
	}

	if _, err := h.users.GetUser(ctx, userID); err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	p, err := h.permissions.SetPermission(ctx, userID, models.Module(req.Module), models.PermissionField(req.Field), req.Value)
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	sendJSON(w, loggerFrom(ctx), http.StatusOK, p)
}

type CheckPermissionResponse struct {
	Allowed  bool `json:"allowed"`
	ReadOnly bool `json:"readOnly"`
}

// CheckPermission отвечает на запрос с неизвестным разделом или действием
// запретом, а не ошибкой
func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pathID(r, "userID")
	if err != nil {
		sendServiceErr(w, loggerFrom(ctx), err)
		return
	}

	module := models.Module(r.URL.Query().Get("module"))
	action := models.Action(r.URL.Query().Get("action"))

	sendJSON(w, loggerFrom(ctx), http.StatusOK, CheckPermissionResponse{
		Allowed:  h.permissions.Can(userID, module, action),
		ReadOnly: h.permissions.IsReadOnly(userID, module),
	})
}
