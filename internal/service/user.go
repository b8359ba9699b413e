package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cafe-schedule/internal/models"
	"cafe-schedule/internal/repository"

	"github.com/sirupsen/logrus"
)

type UserService struct {
	repo        repository.UserRepository
	employees   repository.EmployeeRepository
	permissions *PermissionService
	logger      *logrus.Logger
}

func NewUserService(
	repo repository.UserRepository,
	employees repository.EmployeeRepository,
	permissions *PermissionService,
	logger *logrus.Logger,
) *UserService {
	return &UserService{
		repo:        repo,
		employees:   employees,
		permissions: permissions,
		logger:      logger,
	}
}

// RegisterUser возвращает пользователя чата, создавая его с ролью employee
// при первом обращении. Новый пользователь не имеет прав ни в одном разделе.
// Если пользователь с таким username заведен без чата (например, директор
// из конфига), чат привязывается к нему.
func (s *UserService) RegisterUser(ctx context.Context, chatID int64, username string) (*models.User, error) {
	user, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	if user != nil {
		return user, nil
	}

	username = strings.TrimPrefix(strings.TrimSpace(username), "@")

	if user, err := s.bindChat(ctx, chatID, username); err != nil || user != nil {
		return user, err
	}

	if username == "" {
		username = fmt.Sprintf("user%d", chatID)
	}

	user = &models.User{
		Username: username,
		ChatID:   &chatID,
		Role:     models.RoleEmployee, // По умолчанию employee
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	return user, nil
}

// bindChat привязывает чат к пользователю с таким username, у которого
// еще нет чата. Возвращает nil, если такого пользователя нет.
func (s *UserService) bindChat(ctx context.Context, chatID int64, username string) (*models.User, error) {
	if username == "" {
		return nil, nil
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	if user == nil || user.ChatID != nil {
		return nil, nil
	}

	user.ChatID = &chatID
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("ошибка привязки чата: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"chat_id": chatID,
	}).Info("Chat bound to user")

	return user, nil
}

// CreateUser создает пользователя без привязки к чату
func (s *UserService) CreateUser(ctx context.Context, username string, role models.Role) (*models.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, fmt.Errorf("%w: имя пользователя не может быть пустым", models.ErrValidation)
	}
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: неизвестная роль %q", models.ErrValidation, role)
	}

	user := &models.User{Username: username, Role: role}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	return user, nil
}

// GetUser возвращает пользователя по ID
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if user == nil {
		return nil, fmt.Errorf("%w: пользователь %d не найден", models.ErrNotFound, id)
	}

	return user, nil
}

// GetByChatID возвращает пользователя по chatID
func (s *UserService) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	user, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if user == nil {
		return nil, fmt.Errorf("%w: пользователь не найден", models.ErrNotFound)
	}

	return user, nil
}

// FindUser ищет пользователя по числовому ID или по @username
func (s *UserService) FindUser(ctx context.Context, ref string) (*models.User, error) {
	ref = strings.TrimSpace(ref)

	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return s.GetUser(ctx, uint(id))
	}

	username := strings.TrimPrefix(ref, "@")
	if username == "" {
		return nil, fmt.Errorf("%w: пустой идентификатор пользователя", models.ErrValidation)
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if user == nil {
		return nil, fmt.Errorf("%w: пользователь @%s не найден", models.ErrNotFound, username)
	}

	return user, nil
}

// LinkEmployee связывает пользователя с карточкой сотрудника
func (s *UserService) LinkEmployee(ctx context.Context, userID, employeeID uint) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: сотрудник с ID %d не найден", models.ErrNotFound, employeeID)
	}

	user.EmployeeID = &employee.ID
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("ошибка обновления пользователя: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"employee_id": employee.ID,
	}).Info("User linked to employee")

	return user, nil
}

// SetRole меняет роль пользователя. Права в разделах роль не меняет.
func (s *UserService) SetRole(ctx context.Context, userID uint, role models.Role) error {
	if !models.IsValidRole(role) {
		return fmt.Errorf("%w: неизвестная роль %q", models.ErrValidation, role)
	}

	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return fmt.Errorf("ошибка смены роли пользователя %d: %w", userID, err)
	}

	return nil
}

// ListUsers возвращает всех пользователей
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAll(ctx)
}

// ListDirectors возвращает всех директоров
func (s *UserService) ListDirectors(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetDirectors(ctx)
}

// DeleteUser удаляет пользователя вместе со всеми его правами
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}

	if err := s.permissions.RevokeAll(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("ошибка удаления пользователя: %w", err)
	}

	s.logger.WithField("user_id", id).Info("User deleted")
	return nil
}

// InitializeDirector создает директора из конфига (или повышает
// существующего пользователя) и выдает ему все права. Без chatID директор
// заводится по username, чат привяжется при первом /start.
func (s *UserService) InitializeDirector(ctx context.Context, chatID int64, username string) (*models.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if chatID == 0 && username == "" {
		return nil, nil // Директор не задан в конфиге
	}

	var (
		user *models.User
		err  error
	)

	if chatID != 0 {
		user, err = s.repo.GetByChatID(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			user, err = s.bindChat(ctx, chatID, username)
			if err != nil {
				return nil, err
			}
		}
	} else {
		user, err = s.repo.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
	}

	if user == nil {
		if username == "" {
			username = fmt.Sprintf("user%d", chatID)
		}

		user = &models.User{
			Username: username,
			Role:     models.RoleDirector,
		}
		if chatID != 0 {
			user.ChatID = &chatID
		}

		if err := s.repo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("ошибка создания директора: %w", err)
		}
	} else if !user.IsDirector() {
		if err := s.repo.UpdateRole(ctx, user.ID, models.RoleDirector); err != nil {
			return nil, err
		}
		user.Role = models.RoleDirector
	}

	if err := s.permissions.GrantAll(ctx, user.ID); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("Director initialized")
	return user, nil
}

// FormatUserInfo форматирует информацию о пользователе для вывода
func (s *UserService) FormatUserInfo(user *models.User) string {
	var lines []string

	lines = append(lines, "👤 Профиль пользователя:")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("🆔 ID: %d", user.ID))
	lines = append(lines, fmt.Sprintf("📛 Никнейм: @%s", user.Username))

	if user.EmployeeID != nil {
		lines = append(lines, fmt.Sprintf("🧑‍🍳 Сотрудник: %d", *user.EmployeeID))
	} else {
		lines = append(lines, "🧑‍🍳 Сотрудник: не привязан")
	}

	roleEmoji := "👤"
	if user.IsDirector() {
		roleEmoji = "👑"
	}
	lines = append(lines, fmt.Sprintf("%s Роль: %s", roleEmoji, string(user.Role)))

	return strings.Join(lines, "\n")
}

// FormatAllUsers форматирует список всех пользователей
func (s *UserService) FormatAllUsers(ctx context.Context) (string, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return "", err
	}

	if len(users) == 0 {
		return "📭 Список пользователей пуст.", nil
	}

	var lines []string
	lines = append(lines, "📋 Все пользователи:")
	lines = append(lines, "")

	directors := 0
	for i, user := range users {
		roleEmoji := "👤"
		if user.IsDirector() {
			roleEmoji = "👑"
			directors++
		}
		lines = append(lines, fmt.Sprintf("%d. %s @%s - ID: %d", i+1, roleEmoji, user.Username, user.ID))
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("📊 Всего пользователей: %d", len(users)))
	lines = append(lines, fmt.Sprintf("👑 Директоров: %d", directors))

	return strings.Join(lines, "\n"), nil
}
