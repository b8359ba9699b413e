package handler

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	args := message.CommandArguments()

	switch command {
	case "start":
		h.sendStartMessage(ctx, message)
	case "help":
		h.sendHelpMessage(message)

	// Профиль (все пользователи)
	case "whoami", "myprofile":
		h.showProfile(ctx, message)
	case "myshifts":
		h.showMyShifts(ctx, message, args)
	case "perms":
		h.showPermissions(ctx, message, args)

	// Расписание (раздел schedule)
	case "week":
		h.showWeek(ctx, message, args)
	case "conflicts":
		h.showConflicts(ctx, message, args)
	case "hours":
		h.showHours(ctx, message, args)
	case "publish":
		h.askPublish(ctx, message, args)

	// Управление пользователями (раздел permissions)
	case "users", "allusers":
		h.showAllUsers(ctx, message)
	case "grant":
		h.grantPermission(ctx, message, args)
	case "setrole":
		h.setUserRole(ctx, message, args)
	case "link":
		h.linkEmployee(ctx, message, args)
	case "directors", "admins":
		h.showDirectors(ctx, message)
	case "deleteuser":
		h.deleteUser(ctx, message, args)

	default:
		h.sendUnknownCommand(message)
	}
}

func (h *Handler) sendUnknownCommand(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, "❌ Неизвестная команда. Используйте /help для списка команд.")
}

const helpText = `📋 Доступные команды:

👤 Профиль:
/whoami - Показать мой профиль
/myshifts [дата] - Мои смены на неделю
/perms - Мои права по разделам

📅 Расписание:
/week [дата] - Смены недели
/conflicts [дата] - Конфликты в расписании недели
/hours [дата] - Часы сотрудников за неделю
/publish [дата] - Опубликовать черновики недели
    Дата в формате ДД.ММ.ГГГГ или ГГГГ-ММ-ДД, по умолчанию текущая неделя

🔐 Управление:
/users - Все пользователи
/directors - Директора
/perms ID - Права пользователя
/grant ID раздел действие on|off - Изменить право
    Пример: /grant 3 orders create on
    Действия: view, create, edit, delete
/setrole ID director|employee - Изменить роль
/link ID сотрудник - Привязать пользователя к сотруднику
/deleteuser ID - Удалить пользователя и его права
    Вместо ID можно указать @username

🛠 Утилиты:
/start - Начать работу с ботом
/help - Показать это сообщение

💡 Команды расписания и управления доступны только при наличии прав в соответствующем разделе.`

func (h *Handler) sendStartMessage(ctx context.Context, message *tgbotapi.Message) {
	user, ok := h.currentUser(ctx, message)
	if !ok {
		return
	}

	h.reply(message.Chat.ID, "👋 Добро пожаловать, @"+user.Username+"!\n\n"+helpText)
}

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, helpText)
}
