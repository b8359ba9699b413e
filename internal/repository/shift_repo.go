package repository

import (
	"context"
	"errors"
	"time"

	"cafe-schedule/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ShiftRepository interface {
	Create(ctx context.Context, shift *models.Shift) error
	Update(ctx context.Context, shift *models.Shift) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.Shift, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Shift, error)
	ListByEmployeeBetween(ctx context.Context, employeeID uint, from, to time.Time) ([]models.Shift, error)
	BulkUpdate(ctx context.Context, ids []uint, apply func(shift *models.Shift) error) ([]models.Shift, error)
}

type GormShiftRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormShiftRepository(db *gorm.DB, logger *logrus.Logger) (*GormShiftRepository, error) {
	// Автомиграция
	if err := db.AutoMigrate(&models.Shift{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate shifts table")
		return nil, err
	}

	logger.Info("Shift repository initialized")

	return &GormShiftRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormShiftRepository) Create(ctx context.Context, shift *models.Shift) error {
	shift.Date = models.NormalizeDate(shift.Date)

	result := r.db.WithContext(ctx).Create(shift)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create shift")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":          shift.ID,
		"employee_id": shift.EmployeeID,
		"date":        shift.DateKey(),
		"interval":    shift.Interval(),
	}).Info("Shift created")

	return nil
}

func (r *GormShiftRepository) Update(ctx context.Context, shift *models.Shift) error {
	shift.Date = models.NormalizeDate(shift.Date)

	result := r.db.WithContext(ctx).Save(shift)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update shift")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":     shift.ID,
		"status": shift.Status,
	}).Info("Shift updated")

	return nil
}

func (r *GormShiftRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Shift{}, id)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete shift")
		return result.Error
	}

	if result.RowsAffected == 0 {
		r.logger.WithField("id", id).Warn("Shift not found for deletion")
		return models.ErrNotFound
	}

	r.logger.WithField("id", id).Info("Shift deleted")
	return nil
}

func (r *GormShiftRepository) GetByID(ctx context.Context, id uint) (*models.Shift, error) {
	var shift models.Shift
	result := r.db.WithContext(ctx).First(&shift, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Shift not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get shift by ID")
		return nil, result.Error
	}

	return &shift, nil
}

// ListBetween возвращает смены с датой в полуинтервале [from, to)
func (r *GormShiftRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Shift, error) {
	var shifts []models.Shift
	result := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", models.NormalizeDate(from), models.NormalizeDate(to)).
		Order("date ASC, start_time ASC, id ASC").
		Find(&shifts)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list shifts")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"from":  from.Format(models.DateLayout),
		"to":    to.Format(models.DateLayout),
		"count": len(shifts),
	}).Debug("Retrieved shifts")

	return shifts, nil
}

func (r *GormShiftRepository) ListByEmployeeBetween(ctx context.Context, employeeID uint, from, to time.Time) ([]models.Shift, error) {
	var shifts []models.Shift
	result := r.db.WithContext(ctx).
		Where("employee_id = ? AND date >= ? AND date < ?", employeeID, models.NormalizeDate(from), models.NormalizeDate(to)).
		Order("date ASC, start_time ASC, id ASC").
		Find(&shifts)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list employee shifts")
		return nil, result.Error
	}

	return shifts, nil
}

// BulkUpdate применяет apply к каждой смене и сохраняет все изменения
// в одной транзакции. Ошибка apply или отсутствующая смена откатывает всю пачку.
func (r *GormShiftRepository) BulkUpdate(ctx context.Context, ids []uint, apply func(shift *models.Shift) error) ([]models.Shift, error) {
	var updated []models.Shift

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shifts []models.Shift
		if err := tx.Where("id IN ?", ids).Order("id ASC").Find(&shifts).Error; err != nil {
			return err
		}

		if len(shifts) != len(uniqueIDs(ids)) {
			return models.ErrNotFound
		}

		for i := range shifts {
			if err := apply(&shifts[i]); err != nil {
				return err
			}
			if err := tx.Save(&shifts[i]).Error; err != nil {
				return err
			}
		}

		updated = shifts
		return nil
	})
	if err != nil {
		r.logger.WithError(err).WithField("ids", ids).Warn("Bulk shift update rolled back")
		return nil, err
	}

	r.logger.WithField("count", len(updated)).Info("Shifts bulk updated")
	return updated, nil
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
