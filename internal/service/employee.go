package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"cafe-schedule/internal/models"
	"cafe-schedule/internal/repository"
	"cafe-schedule/pkg/weekdays"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// EmployeeInput - данные сотрудника от клиента. Пустые MaxHours и Status
// заменяются значениями по умолчанию.
type EmployeeInput struct {
	Name          string           `json:"name"`
	Position      string           `json:"position"`
	Department    string           `json:"department"`
	MaxHours      *decimal.Decimal `json:"maxHours"`
	MinHours      *decimal.Decimal `json:"minHours"`
	AvailableDays []string         `json:"availableDays"`
	Skills        []string         `json:"skills"`
	Status        string           `json:"status"`
}

var defaultMaxHours = decimal.NewFromInt(40)

type EmployeeService struct {
	repo   repository.EmployeeRepository
	logger *logrus.Logger
}

func NewEmployeeService(repo repository.EmployeeRepository, logger *logrus.Logger) *EmployeeService {
	return &EmployeeService{repo: repo, logger: logger}
}

// CreateEmployee создает сотрудника
func (s *EmployeeService) CreateEmployee(ctx context.Context, input EmployeeInput) (*models.Employee, error) {
	employee := &models.Employee{
		MaxHours: defaultMaxHours,
		Status:   models.EmployeeStatusActive,
	}

	if err := applyEmployeeInput(employee, input); err != nil {
		s.logger.WithError(err).Warn("Invalid employee data provided")
		return nil, err
	}

	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, fmt.Errorf("ошибка создания сотрудника: %w", err)
	}

	return employee, nil
}

// UpdateEmployee заменяет данные сотрудника
func (s *EmployeeService) UpdateEmployee(ctx context.Context, id uint, input EmployeeInput) (*models.Employee, error) {
	employee, err := s.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyEmployeeInput(employee, input); err != nil {
		s.logger.WithError(err).WithField("id", id).Warn("Invalid employee data after update")
		return nil, err
	}

	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, fmt.Errorf("ошибка обновления сотрудника: %w", err)
	}

	return employee, nil
}

func (s *EmployeeService) DeleteEmployee(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: сотрудник с ID %d не найден", models.ErrNotFound, id)
		}
		return err
	}
	return nil
}

// GetEmployee возвращает сотрудника или ErrNotFound
func (s *EmployeeService) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сотрудника: %w", err)
	}

	if employee == nil {
		return nil, fmt.Errorf("%w: сотрудник с ID %d не найден", models.ErrNotFound, id)
	}

	return employee, nil
}

func (s *EmployeeService) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	return s.repo.GetAll(ctx)
}

// ListActiveEmployees возвращает только работающих сотрудников
func (s *EmployeeService) ListActiveEmployees(ctx context.Context) ([]models.Employee, error) {
	return s.repo.GetActive(ctx)
}

func applyEmployeeInput(employee *models.Employee, input EmployeeInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return fmt.Errorf("%w: имя не может быть пустым", models.ErrValidation)
	}

	days, err := weekdays.Normalize(input.AvailableDays)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	employee.Name = name
	employee.Position = strings.TrimSpace(input.Position)
	employee.Department = strings.TrimSpace(input.Department)
	employee.AvailableDays = days
	employee.Skills = normalizeSkills(input.Skills)

	if input.MaxHours != nil {
		employee.MaxHours = *input.MaxHours
	}
	if input.MinHours != nil {
		employee.MinHours = *input.MinHours
	}
	if input.Status != "" {
		employee.Status = input.Status
	}

	if !employee.IsValid() {
		return fmt.Errorf("%w: часы не могут быть отрицательными, минимум не больше максимума, статус active, on_leave или inactive",
			models.ErrValidation)
	}

	return nil
}

func normalizeSkills(skills []string) models.Tags {
	out := models.Tags{}
	for _, skill := range skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" || slices.Contains(out, skill) {
			continue
		}
		out = append(out, skill)
	}
	return out
}
