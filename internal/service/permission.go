package service

import (
	"context"
	"fmt"
	"sync"

	"cafe-schedule/internal/models"
	"cafe-schedule/internal/permission"
	"cafe-schedule/internal/repository"

	"github.com/sirupsen/logrus"
)

// PermissionService держит таблицу прав в памяти и синхронно
// сохраняет каждое изменение в БД
type PermissionService struct {
	repo   repository.PermissionRepository
	table  *permission.Table
	logger *logrus.Logger

	// writeMu упорядочивает запись в БД и обновление таблицы
	writeMu sync.Mutex
}

// NewPermissionService загружает все записи прав из БД
func NewPermissionService(ctx context.Context, repo repository.PermissionRepository, logger *logrus.Logger) (*PermissionService, error) {
	records, err := repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки прав: %w", err)
	}

	logger.WithField("records", len(records)).Info("Permissions loaded")

	return &PermissionService{
		repo:   repo,
		table:  permission.NewTable(records),
		logger: logger,
	}, nil
}

// Can - может ли пользователь выполнить действие в разделе
func (s *PermissionService) Can(userID uint, module models.Module, action models.Action) bool {
	return s.table.Can(userID, module, action)
}

// IsReadOnly - пользователь не может создавать записи в разделе
func (s *PermissionService) IsReadOnly(userID uint, module models.Module) bool {
	return s.table.IsReadOnly(userID, module)
}

// UserMatrix возвращает права пользователя по всем разделам
func (s *PermissionService) UserMatrix(userID uint) []models.Permission {
	return s.table.Matrix(userID)
}

// SetPermission меняет один флаг. Если записи не было, она создается
// с остальными флагами false.
func (s *PermissionService) SetPermission(
	ctx context.Context,
	userID uint,
	module models.Module,
	field models.PermissionField,
	value bool,
) (models.Permission, error) {
	if _, ok := models.ParseModule(string(module)); !ok {
		return models.Permission{}, fmt.Errorf("%w: неизвестный раздел %q", models.ErrValidation, module)
	}
	if _, ok := models.ParsePermissionField(string(field)); !ok {
		return models.Permission{}, fmt.Errorf("%w: неизвестный флаг %q", models.ErrValidation, field)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next, changed := s.table.Next(userID, module, field, value)
	if !changed {
		return next, nil
	}

	// Запись сохраняется целиком; конфликт разрешается по (user_id, module)
	record := next
	record.ID = 0
	if err := s.repo.Upsert(ctx, &record); err != nil {
		return models.Permission{}, fmt.Errorf("ошибка сохранения прав: %w", err)
	}

	applied, _ := s.table.Set(userID, module, field, value)

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"module":  module,
		"field":   field,
		"value":   value,
	}).Info("Permission changed")

	return applied, nil
}

// GrantAll выдает пользователю все права во всех разделах
func (s *PermissionService) GrantAll(ctx context.Context, userID uint) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for _, module := range models.Modules {
		p := &models.Permission{
			UserID:    userID,
			Module:    module,
			CanView:   true,
			CanCreate: true,
			CanEdit:   true,
			CanDelete: true,
		}
		if err := s.repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("ошибка выдачи прав: %w", err)
		}
		s.table.Put(*p)
	}

	s.logger.WithField("user_id", userID).Info("All permissions granted")
	return nil
}

// RevokeAll удаляет все записи прав пользователя
func (s *PermissionService) RevokeAll(ctx context.Context, userID uint) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("ошибка получения прав: %w", err)
	}

	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("ошибка удаления прав: %w", err)
	}

	for _, p := range s.table.ForUser(userID) {
		s.table.Delete(userID, p.Module)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"records": len(records),
	}).Info("Permissions revoked")
	return nil
}
