package handler

import (
	"context"
	"fmt"
	"time"

	"cafe-schedule/internal/models"
	"cafe-schedule/internal/service"
	"cafe-schedule/pkg/weekdays"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	confirmPublishPrefix = "confirm_publish_"
	cancelPublish        = "cancel_publish"
)

// scheduleWeek проверяет право и разбирает дату из аргументов команды
func (h *Handler) scheduleWeek(ctx context.Context, message *tgbotapi.Message, args string, action models.Action) (time.Time, bool) {
	chatID := message.Chat.ID

	user, ok := h.currentUser(ctx, message)
	if !ok {
		return time.Time{}, false
	}

	if !h.authorize(chatID, user, models.ModuleSchedule, action) {
		return time.Time{}, false
	}

	date, err := weekdays.ParseDate(args, h.now())
	if err != nil {
		h.reply(chatID, "❌ Неверный формат даты.\nИспользуйте ДД.ММ.ГГГГ или ГГГГ-ММ-ДД")
		return time.Time{}, false
	}

	return date, true
}

// showWeek показывает все смены недели
func (h *Handler) showWeek(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	date, ok := h.scheduleWeek(ctx, message, args, models.ActionView)
	if !ok {
		return
	}

	shifts, err := h.scheduleService.ListWeek(ctx, date)
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения смен: "+err.Error())
		return
	}

	employees, err := h.employeeService.ListEmployees(ctx)
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения сотрудников: "+err.Error())
		return
	}

	names := make(map[uint]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}

	h.replyMarkdown(chatID, service.FormatWeek(date, shifts, names))
}

// showConflicts показывает конфликты расписания недели
func (h *Handler) showConflicts(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	date, ok := h.scheduleWeek(ctx, message, args, models.ActionView)
	if !ok {
		return
	}

	conflicts, err := h.scheduleService.WeekConflicts(ctx, date)
	if err != nil {
		h.reply(chatID, "❌ Ошибка проверки расписания: "+err.Error())
		return
	}

	h.replyMarkdown(chatID, service.FormatConflicts(conflicts))
}

// showHours показывает запланированные часы сотрудников
func (h *Handler) showHours(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	date, ok := h.scheduleWeek(ctx, message, args, models.ActionView)
	if !ok {
		return
	}

	report, err := h.scheduleService.WeekHours(ctx, date)
	if err != nil {
		h.reply(chatID, "❌ Ошибка расчета часов: "+err.Error())
		return
	}

	h.replyMarkdown(chatID, service.FormatHours(report))
}

// askPublish запрашивает подтверждение публикации черновиков недели
func (h *Handler) askPublish(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	date, ok := h.scheduleWeek(ctx, message, args, models.ActionEdit)
	if !ok {
		return
	}

	week := weekdays.WeekStart(date)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("📢 Опубликовать все черновики недели с %s?", week.Format("02.01.2006")))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да", confirmPublishPrefix+week.Format(models.DateLayout)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Нет", cancelPublish),
		),
	)
	h.send(msg)
}

// confirmPublish публикует неделю после нажатия кнопки. Право проверяется
// повторно: между вопросом и ответом его могли отозвать.
func (h *Handler) confirmPublish(ctx context.Context, chatID int64, rawWeek string) {
	user, err := h.userService.GetByChatID(ctx, chatID)
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения профиля: "+err.Error())
		return
	}

	if !h.authorize(chatID, user, models.ModuleSchedule, models.ActionEdit) {
		return
	}

	week, err := time.Parse(models.DateLayout, rawWeek)
	if err != nil {
		h.reply(chatID, "❌ Неверная неделя.")
		return
	}

	count, err := h.scheduleService.PublishWeek(ctx, week)
	if err != nil {
		h.reply(chatID, "❌ Ошибка публикации: "+err.Error())
		return
	}

	if count == 0 {
		h.reply(chatID, "📭 Черновиков на этой неделе нет.")
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Опубликовано смен: %d", count))
}
