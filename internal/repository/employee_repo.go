package repository

import (
	"context"
	"errors"

	"cafe-schedule/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type EmployeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.Employee, error)
	GetAll(ctx context.Context) ([]models.Employee, error)
	GetActive(ctx context.Context) ([]models.Employee, error)
}

type GormEmployeeRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormEmployeeRepository(db *gorm.DB, logger *logrus.Logger) (*GormEmployeeRepository, error) {
	// Автомиграция
	if err := db.AutoMigrate(&models.Employee{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate employees table")
		return nil, err
	}

	logger.Info("Employee repository initialized")

	return &GormEmployeeRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormEmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	result := r.db.WithContext(ctx).Create(employee)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create employee")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":       employee.ID,
		"position": employee.Position,
	}).Info("Employee created")

	return nil
}

func (r *GormEmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	result := r.db.WithContext(ctx).Save(employee)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update employee")
		return result.Error
	}

	r.logger.WithField("id", employee.ID).Info("Employee updated")
	return nil
}

func (r *GormEmployeeRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Employee{}, id)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete employee")
		return result.Error
	}

	if result.RowsAffected == 0 {
		r.logger.WithField("id", id).Warn("Employee not found for deletion")
		return models.ErrNotFound
	}

	r.logger.WithField("id", id).Info("Employee deleted")
	return nil
}

func (r *GormEmployeeRepository) GetByID(ctx context.Context, id uint) (*models.Employee, error) {
	var employee models.Employee
	result := r.db.WithContext(ctx).First(&employee, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Employee not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get employee by ID")
		return nil, result.Error
	}

	return &employee, nil
}

func (r *GormEmployeeRepository) GetAll(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	result := r.db.WithContext(ctx).Order("id ASC").Find(&employees)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get employees")
		return nil, result.Error
	}

	r.logger.WithField("count", len(employees)).Debug("Retrieved employees")
	return employees, nil
}

// GetActive возвращает сотрудников со статусом active
func (r *GormEmployeeRepository) GetActive(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	result := r.db.WithContext(ctx).
		Where("status = ?", models.EmployeeStatusActive).
		Order("id ASC").
		Find(&employees)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get active employees")
		return nil, result.Error
	}

	return employees, nil
}
