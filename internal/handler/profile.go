package handler

import (
	"context"
	"fmt"
	"strings"

	"cafe-schedule/internal/models"
	"cafe-schedule/internal/service"
	"cafe-schedule/pkg/weekdays"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// showProfile показывает профиль пользователя
func (h *Handler) showProfile(ctx context.Context, message *tgbotapi.Message) {
	user, ok := h.currentUser(ctx, message)
	if !ok {
		return
	}

	h.reply(message.Chat.ID, h.userService.FormatUserInfo(user))
}

// showMyShifts показывает смены сотрудника, к которому привязан пользователь
func (h *Handler) showMyShifts(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	user, ok := h.currentUser(ctx, message)
	if !ok {
		return
	}

	if user.EmployeeID == nil {
		h.reply(chatID, "❌ Ваш профиль не привязан к сотруднику.\nПопросите директора выполнить /link "+fmt.Sprint(user.ID)+" ID_сотрудника")
		return
	}

	date, err := weekdays.ParseDate(args, h.now())
	if err != nil {
		h.reply(chatID, "❌ Неверный формат даты.\nПример: /myshifts 14.10.2026")
		return
	}

	employee, err := h.employeeService.GetEmployee(ctx, *user.EmployeeID)
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения сотрудника: "+err.Error())
		return
	}

	shifts, err := h.scheduleService.ListEmployeeWeek(ctx, employee.ID, date)
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения смен: "+err.Error())
		return
	}

	names := map[uint]string{employee.ID: employee.Name}
	h.replyMarkdown(chatID, service.FormatWeek(date, shifts, names))
}

// showPermissions показывает свои права, а с аргументом ID или @username - права
// другого пользователя (нужен просмотр раздела permissions)
func (h *Handler) showPermissions(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	user, ok := h.currentUser(ctx, message)
	if !ok {
		return
	}

	targetID := user.ID
	if args = strings.TrimSpace(args); args != "" {
		if !h.authorize(chatID, user, models.ModulePermissions, models.ActionView) {
			return
		}

		target, ok := h.findTarget(ctx, chatID, args)
		if !ok {
			return
		}
		targetID = target.ID
	}

	h.replyMarkdown(chatID, service.FormatPermissions(targetID, h.permissionService.UserMatrix(targetID)))
}
