package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cafe-schedule/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("неверный ID %q", s)
	}
	return uint(id), nil
}

// parseSwitch разбирает on/off
func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "1", "true", "да":
		return true, true
	case "off", "0", "false", "нет":
		return false, true
	}
	return false, false
}

// findTarget ищет пользователя по ID или @username и сообщает в чат,
// если не нашел
func (h *Handler) findTarget(ctx context.Context, chatID int64, ref string) (*models.User, bool) {
	target, err := h.userService.FindUser(ctx, ref)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return nil, false
	}
	return target, true
}

func (h *Handler) isBaseDirector(user *models.User) bool {
	return h.baseDirectorChatID != 0 && user.ChatID != nil && *user.ChatID == h.baseDirectorChatID
}

// showAllUsers показывает всех пользователей
func (h *Handler) showAllUsers(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user, ok := h.currentUser(ctx, message)
	if !ok {
		return
	}

	if !h.authorize(chatID, user, models.ModulePermissions, models.ActionView) {
		return
	}

	allUsers, err := h.userService.FormatAllUsers(ctx)
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения списка пользователей: "+err.Error())
		return
	}

	h.reply(chatID, allUsers)
}

// grantPermission меняет один флаг права: /grant ID раздел действие on|off
func (h *Handler) grantPermission(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	user, ok := h.currentUser(ctx, message)
	if !ok {
		return
	}

	if !h.authorize(chatID, user, models.ModulePermissions, models.ActionEdit) {
		return
	}

	parts := strings.Fields(args)
	if len(parts) != 4 {
		h.reply(chatID, "❌ Неверный формат.\nПример: /grant 3 orders create on")
		return
	}

	module, ok := models.ParseModule(strings.ToLower(parts[1]))
	if !ok {
		h.reply(chatID, "❌ Неизвестный раздел.\nДоступные разделы: "+moduleList())
		return
	}

	action, ok := models.ParseAction(strings.ToLower(parts[2]))
	if !ok {
		h.reply(chatID, "❌ Неизвестное действие.\nДоступные действия: view, create, edit, delete")
		return
	}

	value, ok := parseSwitch(parts[3])
	if !ok {
		h.reply(chatID, "❌ Укажите on или off.")
		return
	}

	target, ok := h.findTarget(ctx, chatID, parts[0])
	if !ok {
		return
	}

	p, err := h.permissionService.SetPermission(ctx, target.ID, module, action.Field(), value)
	if err != nil {
		h.reply(chatID, "❌ Ошибка изменения прав: "+err.Error())
		return
	}

	state := "запрещено"
	if p.Allows(action) {
		state = "разрешено"
	}
	h.reply(chatID, fmt.Sprintf("✅ Пользователю %d в разделе %s действие %s %s.", target.ID, module, action, state))
}

// setUserRole изменяет роль пользователя
func (h *Handler) setUserRole(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	user, ok := h.currentUser(ctx, message)
	if !ok {
		return
	}

	if !h.authorize(chatID, user, models.ModulePermissions, models.ActionEdit) {
		return
	}

	parts := strings.Fields(args)
	if len(parts) != 2 {
		h.reply(chatID, "❌ Неверный формат.\nПример: /setrole 3 director\nДоступные роли: director, employee")
		return
	}

	role := models.Role(strings.ToLower(parts[1]))
	if !models.IsValidRole(role) {
		h.reply(chatID, "❌ Неизвестная роль.\nДоступные роли: director, employee")
		return
	}

	target, ok := h.findTarget(ctx, chatID, parts[0])
	if !ok {
		return
	}

	// Не позволяем понизить директора, заданного в конфигурации
	if role != models.RoleDirector && h.isBaseDirector(target) {
		h.reply(chatID, "❌ Нельзя изменить роль директора, заданного в конфигурации!")
		return
	}

	if err := h.userService.SetRole(ctx, target.ID, role); err != nil {
		h.reply(chatID, "❌ Ошибка изменения роли: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Роль пользователя с ID %d изменена на '%s'!", target.ID, role))
}

// linkEmployee привязывает пользователя к карточке сотрудника
func (h *Handler) linkEmployee(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	user, ok := h.currentUser(ctx, message)
	if !ok {
		return
	}

	if !h.authorize(chatID, user, models.ModulePermissions, models.ActionEdit) {
		return
	}

	parts := strings.Fields(args)
	if len(parts) != 2 {
		h.reply(chatID, "❌ Неверный формат.\nПример: /link 3 7")
		return
	}

	employeeID, err := parseID(parts[1])
	if err != nil {
		h.reply(chatID, "❌ Неверный формат ID сотрудника.")
		return
	}

	target, ok := h.findTarget(ctx, chatID, parts[0])
	if !ok {
		return
	}

	if _, err := h.userService.LinkEmployee(ctx, target.ID, employeeID); err != nil {
		h.reply(chatID, "❌ Ошибка привязки: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Пользователь %d привязан к сотруднику %d.", target.ID, employeeID))
}

// showDirectors показывает список директоров
func (h *Handler) showDirectors(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user, ok := h.currentUser(ctx, message)
	if !ok {
		return
	}

	if !h.authorize(chatID, user, models.ModulePermissions, models.ActionView) {
		return
	}

	directors, err := h.userService.ListDirectors(ctx)
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения директоров: "+err.Error())
		return
	}

	if len(directors) == 0 {
		h.reply(chatID, "📭 Директоров нет.")
		return
	}

	var result strings.Builder
	result.WriteString("👑 Директора:\n\n")
	for i, d := range directors {
		result.WriteString(fmt.Sprintf("%d. @%s - ID: %d\n", i+1, d.Username, d.ID))
	}

	h.reply(chatID, result.String())
}

// deleteUser удаляет пользователя и все его права
func (h *Handler) deleteUser(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	user, ok := h.currentUser(ctx, message)
	if !ok {
		return
	}

	if !h.authorize(chatID, user, models.ModulePermissions, models.ActionDelete) {
		return
	}

	if strings.TrimSpace(args) == "" {
		h.reply(chatID, "❌ Неверный формат.\nПример: /deleteuser 3 или /deleteuser @anna")
		return
	}

	target, ok := h.findTarget(ctx, chatID, args)
	if !ok {
		return
	}

	if h.isBaseDirector(target) {
		h.reply(chatID, "❌ Нельзя удалить директора, заданного в конфигурации!")
		return
	}

	if target.ID == user.ID {
		h.reply(chatID, "❌ Нельзя удалить самого себя.")
		return
	}

	if err := h.userService.DeleteUser(ctx, target.ID); err != nil {
		h.reply(chatID, "❌ Ошибка удаления: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Пользователь @%s удален.", target.Username))
}

func moduleList() string {
	names := make([]string, 0, len(models.Modules))
	for _, m := range models.Modules {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
