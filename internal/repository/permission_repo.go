package repository

import (
	"context"

	"cafe-schedule/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PermissionRepository interface {
	ListAll(ctx context.Context) ([]models.Permission, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Permission, error)
	Upsert(ctx context.Context, permission *models.Permission) error
	DeleteByUser(ctx context.Context, userID uint) error
}

type GormPermissionRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormPermissionRepository(db *gorm.DB, logger *logrus.Logger) (*GormPermissionRepository, error) {
	// Автомиграция
	if err := db.AutoMigrate(&models.Permission{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate permissions table")
		return nil, err
	}

	logger.Info("Permission repository initialized")

	return &GormPermissionRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormPermissionRepository) ListAll(ctx context.Context) ([]models.Permission, error) {
	var permissions []models.Permission
	result := r.db.WithContext(ctx).Order("user_id ASC, module ASC").Find(&permissions)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list permissions")
		return nil, result.Error
	}

	return permissions, nil
}

func (r *GormPermissionRepository) ListByUser(ctx context.Context, userID uint) ([]models.Permission, error) {
	var permissions []models.Permission
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("module ASC").Find(&permissions)

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list user permissions")
		return nil, result.Error
	}

	return permissions, nil
}

// Upsert сохраняет запись целиком по ключу (user_id, module)
func (r *GormPermissionRepository) Upsert(ctx context.Context, permission *models.Permission) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "module"}},
		DoUpdates: clause.AssignmentColumns([]string{"can_view", "can_create", "can_edit", "can_delete", "updated_at"}),
	}).Create(permission)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to upsert permission")
		return result.Error
	}

	return nil
}

func (r *GormPermissionRepository) DeleteByUser(ctx context.Context, userID uint) error {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Permission{})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete user permissions")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"deleted": result.RowsAffected,
	}).Info("User permissions deleted")

	return nil
}
