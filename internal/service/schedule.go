package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafe-schedule/internal/conflict"
	"cafe-schedule/internal/models"
	"cafe-schedule/internal/repository"
	"cafe-schedule/pkg/weekdays"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ShiftInput - новая смена. Дата в формате 2006-01-02 или 02.01.2006,
// время в формате ЧЧ:ММ.
type ShiftInput struct {
	EmployeeID uint   `json:"employeeId"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Position   string `json:"position"`
	Notes      string `json:"notes"`
}

// ShiftPatch - частичное обновление смены; nil-поля не меняются
type ShiftPatch struct {
	Status   *string `json:"status"`
	Position *string `json:"position"`
	Notes    *string `json:"notes"`
}

func (p ShiftPatch) IsEmpty() bool {
	return p.Status == nil && p.Position == nil && p.Notes == nil
}

// EmployeeHours - запланированные часы сотрудника за неделю
type EmployeeHours struct {
	EmployeeID uint            `json:"employeeId"`
	Name       string          `json:"name"`
	Shifts     int             `json:"shifts"`
	Minutes    int             `json:"minutes"`
	Hours      decimal.Decimal `json:"hours"`
	MaxHours   decimal.Decimal `json:"maxHours"`
	Overtime   bool            `json:"overtime"`
}

type ScheduleService struct {
	shifts    repository.ShiftRepository
	employees repository.EmployeeRepository
	logger    *logrus.Logger
	now       func() time.Time
}

func NewScheduleService(
	shifts repository.ShiftRepository,
	employees repository.EmployeeRepository,
	logger *logrus.Logger,
) *ScheduleService {
	return &ScheduleService{
		shifts:    shifts,
		employees: employees,
		logger:    logger,
		now:       time.Now,
	}
}

// AddShift создает смену в статусе draft
func (s *ScheduleService) AddShift(ctx context.Context, input ShiftInput) (*models.Shift, error) {
	s.logger.WithFields(logrus.Fields{
		"employee_id": input.EmployeeID,
		"date":        input.Date,
		"start":       input.StartTime,
		"end":         input.EndTime,
	}).Info("Creating new shift")

	if strings.TrimSpace(input.Date) == "" {
		return nil, fmt.Errorf("%w: дата смены обязательна", models.ErrValidation)
	}

	date, err := weekdays.ParseDate(input.Date, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: неверная дата, используйте ГГГГ-ММ-ДД или ДД.ММ.ГГГГ", models.ErrValidation)
	}

	start, err := models.ParseTimeOfDay(input.StartTime)
	if err != nil {
		return nil, fmt.Errorf("неверное время начала: %w", err)
	}

	end, err := models.ParseTimeOfDay(input.EndTime)
	if err != nil {
		return nil, fmt.Errorf("неверное время окончания: %w", err)
	}

	if end <= start {
		return nil, fmt.Errorf("%w: смена должна заканчиваться позже, чем начинается, в пределах одного дня", models.ErrValidation)
	}

	employee, err := s.employees.GetByID(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: сотрудник с ID %d не найден", models.ErrValidation, input.EmployeeID)
	}

	position := strings.TrimSpace(input.Position)
	if position == "" {
		position = employee.Position
	}

	shift := &models.Shift{
		EmployeeID: employee.ID,
		Date:       models.NormalizeDate(date),
		StartTime:  start,
		EndTime:    end,
		Position:   position,
		Status:     models.ShiftStatusDraft,
		Notes:      strings.TrimSpace(input.Notes),
	}

	if !shift.IsValid() {
		return nil, fmt.Errorf("%w: некорректные данные смены", models.ErrValidation)
	}

	if err := s.shifts.Create(ctx, shift); err != nil {
		s.logger.WithError(err).Error("Failed to create shift")
		return nil, err
	}

	return shift, nil
}

// ChangeStatus переводит смену в новый статус по таблице переходов
func (s *ScheduleService) ChangeStatus(ctx context.Context, id uint, status string) (*models.Shift, error) {
	shift, err := s.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := transition(shift, status); err != nil {
		s.logger.WithFields(logrus.Fields{
			"id":   id,
			"from": shift.Status,
			"to":   status,
		}).Warn("Rejected shift status change")
		return nil, err
	}

	if err := s.shifts.Update(ctx, shift); err != nil {
		return nil, err
	}

	return shift, nil
}

// BulkUpdate применяет patch ко всем сменам атомарно: если хотя бы одна
// смена не найдена или переход статуса недопустим, не меняется ни одна
func (s *ScheduleService) BulkUpdate(ctx context.Context, ids []uint, patch ShiftPatch) ([]models.Shift, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: не указаны смены", models.ErrValidation)
	}
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: нет полей для обновления", models.ErrValidation)
	}

	updated, err := s.shifts.BulkUpdate(ctx, ids, func(shift *models.Shift) error {
		if patch.Status != nil && *patch.Status != shift.Status {
			if err := transition(shift, *patch.Status); err != nil {
				return fmt.Errorf("смена %d: %w", shift.ID, err)
			}
		}
		if patch.Position != nil {
			shift.Position = strings.TrimSpace(*patch.Position)
		}
		if patch.Notes != nil {
			shift.Notes = strings.TrimSpace(*patch.Notes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField("count", len(updated)).Info("Shifts updated in bulk")
	return updated, nil
}

// PublishWeek публикует все черновики недели, в которую попадает date.
// Возвращает количество опубликованных смен.
func (s *ScheduleService) PublishWeek(ctx context.Context, date time.Time) (int, error) {
	shifts, err := s.ListWeek(ctx, date)
	if err != nil {
		return 0, err
	}

	var ids []uint
	for _, shift := range shifts {
		if shift.Status == models.ShiftStatusDraft {
			ids = append(ids, shift.ID)
		}
	}

	if len(ids) == 0 {
		return 0, nil
	}

	status := models.ShiftStatusPublished
	updated, err := s.BulkUpdate(ctx, ids, ShiftPatch{Status: &status})
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"week":  weekdays.WeekStart(date).Format(models.DateLayout),
		"count": len(updated),
	}).Info("Week published")

	return len(updated), nil
}

func (s *ScheduleService) DeleteShift(ctx context.Context, id uint) error {
	if err := s.shifts.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: смена с ID %d не найдена", models.ErrNotFound, id)
		}
		return err
	}
	return nil
}

// GetShift возвращает смену или ErrNotFound
func (s *ScheduleService) GetShift(ctx context.Context, id uint) (*models.Shift, error) {
	shift, err := s.shifts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if shift == nil {
		return nil, fmt.Errorf("%w: смена с ID %d не найдена", models.ErrNotFound, id)
	}

	return shift, nil
}

// ListWeek возвращает смены недели (понедельник - воскресенье), в которую попадает date
func (s *ScheduleService) ListWeek(ctx context.Context, date time.Time) ([]models.Shift, error) {
	from, to := weekdays.WeekBounds(date)
	return s.shifts.ListBetween(ctx, from, to)
}

// ListEmployeeWeek возвращает смены сотрудника за неделю
func (s *ScheduleService) ListEmployeeWeek(ctx context.Context, employeeID uint, date time.Time) ([]models.Shift, error) {
	from, to := weekdays.WeekBounds(date)
	return s.shifts.ListByEmployeeBetween(ctx, employeeID, from, to)
}

// WeekConflicts ищет конфликты среди неотмененных смен недели
func (s *ScheduleService) WeekConflicts(ctx context.Context, date time.Time) ([]models.Conflict, error) {
	shifts, err := s.activeWeekShifts(ctx, date)
	if err != nil {
		return nil, err
	}

	employees, err := s.employees.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	conflicts := conflict.Detect(shifts, employees)

	s.logger.WithFields(logrus.Fields{
		"week":      weekdays.WeekStart(date).Format(models.DateLayout),
		"shifts":    len(shifts),
		"conflicts": len(conflicts),
	}).Debug("Week conflicts detected")

	if conflicts == nil {
		conflicts = []models.Conflict{}
	}
	return conflicts, nil
}

// WeekHours считает запланированные часы каждого сотрудника за неделю.
// Сотрудники без смен попадают в отчет с нулем.
func (s *ScheduleService) WeekHours(ctx context.Context, date time.Time) ([]EmployeeHours, error) {
	shifts, err := s.activeWeekShifts(ctx, date)
	if err != nil {
		return nil, err
	}

	employees, err := s.employees.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	byEmployee := make(map[uint][]models.Shift)
	for _, shift := range shifts {
		byEmployee[shift.EmployeeID] = append(byEmployee[shift.EmployeeID], shift)
	}

	report := make([]EmployeeHours, 0, len(employees))
	for _, employee := range employees {
		own := byEmployee[employee.ID]
		minutes := conflict.TotalMinutes(own)
		hours := decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))

		report = append(report, EmployeeHours{
			EmployeeID: employee.ID,
			Name:       employee.Name,
			Shifts:     len(own),
			Minutes:    minutes,
			Hours:      hours.Round(2),
			MaxHours:   employee.MaxHours,
			Overtime:   hours.GreaterThan(employee.MaxHours),
		})
	}

	return report, nil
}

func (s *ScheduleService) activeWeekShifts(ctx context.Context, date time.Time) ([]models.Shift, error) {
	shifts, err := s.ListWeek(ctx, date)
	if err != nil {
		return nil, err
	}

	active := shifts[:0]
	for _, shift := range shifts {
		if shift.Status != models.ShiftStatusCancelled {
			active = append(active, shift)
		}
	}
	return active, nil
}

func transition(shift *models.Shift, status string) error {
	if !models.IsValidShiftStatus(status) {
		return fmt.Errorf("%w: неизвестный статус %q", models.ErrValidation, status)
	}

	if !models.CanTransition(shift.Status, status) {
		return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, shift.Status, status)
	}

	shift.Status = status
	return nil
}
