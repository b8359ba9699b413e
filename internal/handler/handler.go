package handler

import (
	"context"
	"strings"
	"time"

	"cafe-schedule/internal/models"
	"cafe-schedule/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Sender - часть клиента Telegram, через которую бот отвечает в чат
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler struct {
	sender             Sender
	userService        *service.UserService
	employeeService    *service.EmployeeService
	scheduleService    *service.ScheduleService
	permissionService  *service.PermissionService
	baseDirectorChatID int64
	logger             *logrus.Logger
	now                func() time.Time
}

func NewHandler(
	sender Sender,
	userService *service.UserService,
	employeeService *service.EmployeeService,
	scheduleService *service.ScheduleService,
	permissionService *service.PermissionService,
	baseDirectorChatID int64,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		sender:             sender,
		userService:        userService,
		employeeService:    employeeService,
		scheduleService:    scheduleService,
		permissionService:  permissionService,
		baseDirectorChatID: baseDirectorChatID,
		logger:             logger,
		now:                time.Now,
	}
}

// HandleUpdates обрабатывает обновления до закрытия канала или отмены ctx
func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	// Обработка callback query (для inline кнопок)
	if update.CallbackQuery != nil {
		h.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	h.handleMessage(ctx, update.Message)
}

// handleCallbackQuery обрабатывает inline кнопки
func (h *Handler) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || callback.Message.Chat == nil {
		return
	}

	chatID := callback.Message.Chat.ID
	data := callback.Data

	// Удаляем клавиатуру
	editMsg := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
	h.request(editMsg)

	switch {
	case strings.HasPrefix(data, confirmPublishPrefix):
		h.confirmPublish(ctx, chatID, strings.TrimPrefix(data, confirmPublishPrefix))
	case data == cancelPublish:
		h.reply(chatID, "❌ Публикация отменена.")
	}

	// Отвечаем на callback (убираем "часики" у кнопки)
	h.request(tgbotapi.NewCallback(callback.ID, ""))
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	username := ""
	if message.From != nil {
		username = message.From.UserName
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":  message.Chat.ID,
		"username": username,
	}).Infof("Incoming message: %s", message.Text)

	if message.IsCommand() {
		h.handleCommand(ctx, message)
		return
	}

	h.reply(message.Chat.ID, "Я понимаю только команды. Используйте /help для списка команд.")
}

// currentUser возвращает пользователя чата, регистрируя его при первом обращении
func (h *Handler) currentUser(ctx context.Context, message *tgbotapi.Message) (*models.User, bool) {
	username := ""
	if message.From != nil {
		username = message.From.UserName
	}

	user, err := h.userService.RegisterUser(ctx, message.Chat.ID, username)
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", message.Chat.ID).Error("Failed to resolve chat user")
		h.reply(message.Chat.ID, "❌ Ошибка получения профиля: "+err.Error())
		return nil, false
	}

	return user, true
}

// authorize проверяет право пользователя и сообщает об отказе
func (h *Handler) authorize(chatID int64, user *models.User, module models.Module, action models.Action) bool {
	if h.permissionService.Can(user.ID, module, action) {
		return true
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"module":  module,
		"action":  action,
	}).Warn("Bot command denied")

	h.reply(chatID, "❌ Доступ запрещен. Недостаточно прав для этой команды.")
	return false
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	h.send(msg)
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.sender.Send(c); err != nil {
		h.logger.WithError(err).Warn("Failed to send telegram message")
	}
}

func (h *Handler) request(c tgbotapi.Chattable) {
	if _, err := h.sender.Request(c); err != nil {
		h.logger.WithError(err).Warn("Failed to send telegram request")
	}
}
