package handler

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"cafe-schedule/internal/models"
	"cafe-schedule/internal/repository"
	"cafe-schedule/internal/service"
)

const (
	directorChat int64 = 100
	staffChat    int64 = 200
)

type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.messages)
	return f.messages[len(f.messages)-1]
}

type botFixture struct {
	handler   *Handler
	sender    *fakeSender
	employees *service.EmployeeService
	schedule  *service.ScheduleService
	users     *service.UserService
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	logger, _ := logtest.NewNullLogger()
	ctx := context.Background()

	employeeRepo, err := repository.NewGormEmployeeRepository(db, logger)
	require.NoError(t, err)
	shiftRepo, err := repository.NewGormShiftRepository(db, logger)
	require.NoError(t, err)
	permissionRepo, err := repository.NewGormPermissionRepository(db, logger)
	require.NoError(t, err)
	userRepo, err := repository.NewGormUserRepository(db, logger)
	require.NoError(t, err)

	permissions, err := service.NewPermissionService(ctx, permissionRepo, logger)
	require.NoError(t, err)
	users := service.NewUserService(userRepo, employeeRepo, permissions, logger)
	employees := service.NewEmployeeService(employeeRepo, logger)
	schedule := service.NewScheduleService(shiftRepo, employeeRepo, logger)

	_, err = users.InitializeDirector(ctx, directorChat, "director")
	require.NoError(t, err)

	sender := &fakeSender{}
	h := NewHandler(sender, users, employees, schedule, permissions, directorChat, logger)
	h.now = func() time.Time { return time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC) }

	return &botFixture{
		handler:   h,
		sender:    sender,
		employees: employees,
		schedule:  schedule,
		users:     users,
	}
}

func (f *botFixture) command(t *testing.T, chatID int64, username, text string) string {
	t.Helper()

	cmd := strings.Fields(text)[0]
	f.handler.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat:     &tgbotapi.Chat{ID: chatID},
			From:     &tgbotapi.User{UserName: username},
			Text:     text,
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
		},
	})

	return f.sender.last(t).Text
}

func (f *botFixture) staffID(t *testing.T) uint {
	t.Helper()

	user, err := f.users.GetByChatID(context.Background(), staffChat)
	require.NoError(t, err)
	return user.ID
}

func TestBot_StartRegistersUser(t *testing.T) {
	f := newBotFixture(t)

	text := f.command(t, staffChat, "anna", "/start")
	assert.Contains(t, text, "@anna")

	text = f.command(t, staffChat, "anna", "/whoami")
	assert.Contains(t, text, "Роль: employee")
	assert.Contains(t, text, "не привязан")

	text = f.command(t, staffChat, "anna", "/unknown")
	assert.Contains(t, text, "Неизвестная команда")
}

func TestBot_CommandsAreGatedByPermissions(t *testing.T) {
	f := newBotFixture(t)

	f.command(t, staffChat, "anna", "/start")
	staffID := f.staffID(t)

	assert.Contains(t, f.command(t, staffChat, "anna", "/week"), "Доступ запрещен")
	assert.Contains(t, f.command(t, staffChat, "anna", "/users"), "Доступ запрещен")
	assert.Contains(t, f.command(t, staffChat, "anna", "/grant 1 orders view on"), "Доступ запрещен")

	text := f.command(t, directorChat, "director", "/grant "+itoa(staffID)+" schedule view on")
	assert.Contains(t, text, "разрешено")

	assert.Contains(t, f.command(t, staffChat, "anna", "/week"), "Смен нет")
	assert.Contains(t, f.command(t, staffChat, "anna", "/publish"), "Доступ запрещен", "view does not imply edit")

	text = f.command(t, staffChat, "anna", "/perms")
	assert.Contains(t, text, "schedule: ✅ ▫️ ▫️ ▫️")

	assert.Contains(t, f.command(t, directorChat, "director", "/grant "+itoa(staffID)+" kitchen view on"), "Неизвестный раздел")
	assert.Contains(t, f.command(t, directorChat, "director", "/grant "+itoa(staffID)+" orders approve on"), "Неизвестное действие")
	assert.Contains(t, f.command(t, directorChat, "director", "/grant 999 orders view on"), "не найден")
}

func TestBot_PublishWithConfirmation(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	e, err := f.employees.CreateEmployee(ctx, service.EmployeeInput{Name: "Анна"})
	require.NoError(t, err)
	_, err = f.schedule.AddShift(ctx, service.ShiftInput{EmployeeID: e.ID, Date: "2026-10-13", StartTime: "09:00", EndTime: "17:00"})
	require.NoError(t, err)

	f.command(t, directorChat, "director", "/publish 14.10.2026")
	ask := f.sender.last(t)
	assert.Contains(t, ask.Text, "12.10.2026")

	markup, ok := ask.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	data := *markup.InlineKeyboard[0][0].CallbackData
	assert.Equal(t, confirmPublishPrefix+"2026-10-12", data)

	f.handler.HandleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: directorChat}},
	}})
	assert.Contains(t, f.sender.last(t).Text, "Опубликовано смен: 1")
	assert.Equal(t, 2, f.sender.requests)

	week, err := f.schedule.ListWeek(ctx, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, week, 1)
	assert.Equal(t, models.ShiftStatusPublished, week[0].Status)

	text := f.command(t, directorChat, "director", "/conflicts 12.10.2026")
	assert.Contains(t, text, "Конфликтов нет")
}

func TestBot_LinkAndMyShifts(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.command(t, staffChat, "anna", "/start")
	staffID := f.staffID(t)

	assert.Contains(t, f.command(t, staffChat, "anna", "/myshifts"), "не привязан")

	e, err := f.employees.CreateEmployee(ctx, service.EmployeeInput{Name: "Анна"})
	require.NoError(t, err)
	_, err = f.schedule.AddShift(ctx, service.ShiftInput{EmployeeID: e.ID, Date: "2026-10-15", StartTime: "08:00", EndTime: "12:30"})
	require.NoError(t, err)

	text := f.command(t, directorChat, "director", "/link "+itoa(staffID)+" "+itoa(e.ID))
	assert.Contains(t, text, "привязан к сотруднику")

	text = f.command(t, staffChat, "anna", "/myshifts")
	assert.Contains(t, text, "08:00–12:30")
	assert.Contains(t, text, "Анна")
}

func TestBot_BaseDirectorRoleIsProtected(t *testing.T) {
	f := newBotFixture(t)

	director, err := f.users.GetByChatID(context.Background(), directorChat)
	require.NoError(t, err)

	text := f.command(t, directorChat, "director", "/setrole "+itoa(director.ID)+" employee")
	assert.Contains(t, text, "Нельзя изменить роль")

	f.command(t, staffChat, "anna", "/start")
	text = f.command(t, directorChat, "director", "/setrole "+itoa(f.staffID(t))+" director")
	assert.Contains(t, text, "изменена на 'director'")

	text = f.command(t, directorChat, "director", "/setrole "+itoa(f.staffID(t))+" owner")
	assert.Contains(t, text, "Неизвестная роль")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestBot_UsernameTargetsAndDeleteUser(t *testing.T) {
	f := newBotFixture(t)

	f.command(t, staffChat, "anna", "/start")
	staffID := f.staffID(t)

	text := f.command(t, directorChat, "director", "/grant @anna schedule view on")
	assert.Contains(t, text, "разрешено")
	assert.Contains(t, f.command(t, directorChat, "director", "/perms @anna"), "schedule: ✅ ▫️ ▫️ ▫️")
	assert.Contains(t, f.command(t, directorChat, "director", "/grant @boris schedule view on"), "не найден")

	text = f.command(t, directorChat, "director", "/directors")
	assert.Contains(t, text, "@director")
	assert.NotContains(t, text, "@anna")

	assert.Contains(t, f.command(t, staffChat, "anna", "/deleteuser @director"), "Доступ запрещен")
	assert.Contains(t, f.command(t, directorChat, "director", "/deleteuser @director"), "Нельзя удалить")

	text = f.command(t, directorChat, "director", "/deleteuser "+itoa(staffID))
	assert.Contains(t, text, "@anna удален")

	_, err := f.users.GetUser(context.Background(), staffID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBot_PublishRequiresEdit(t *testing.T) {
	f := newBotFixture(t)

	f.command(t, staffChat, "anna", "/start")
	staffID := itoa(f.staffID(t))

	f.command(t, directorChat, "director", "/grant "+staffID+" schedule create on")
	assert.Contains(t, f.command(t, staffChat, "anna", "/publish"), "Доступ запрещен")

	assert.Contains(t, f.command(t, directorChat, "director", "/grant "+staffID+" schedule edit on"), "разрешено")

	f.command(t, staffChat, "anna", "/publish")
	markup, ok := f.sender.last(t).ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, confirmPublishPrefix+"2026-10-12", *markup.InlineKeyboard[0][0].CallbackData)
}
