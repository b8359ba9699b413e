package service

import (
	"fmt"
	"strings"
	"time"

	"cafe-schedule/internal/models"
	"cafe-schedule/pkg/weekdays"
)

var statusEmoji = map[string]string{
	models.ShiftStatusDraft:     "📝",
	models.ShiftStatusPublished: "📢",
	models.ShiftStatusConfirmed: "✅",
	models.ShiftStatusCompleted: "🏁",
	models.ShiftStatusCancelled: "❌",
}

var dayNames = []string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// FormatWeek форматирует смены недели по дням
func FormatWeek(week time.Time, shifts []models.Shift, names map[uint]string) string {
	start := weekdays.WeekStart(week)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("📅 **Неделя с %s**\n", start.Format("02.01.2006")))

	if len(shifts) == 0 {
		result.WriteString("\n📭 Смен нет")
		return result.String()
	}

	byDate := make(map[string][]models.Shift)
	for _, shift := range shifts {
		byDate[shift.DateKey()] = append(byDate[shift.DateKey()], shift)
	}

	for i, day := range weekdays.Days(week) {
		dayShifts := byDate[day.Format(models.DateLayout)]
		if len(dayShifts) == 0 {
			continue
		}

		result.WriteString(fmt.Sprintf("\n**%s %s**\n", dayNames[i], day.Format("02.01")))
		for _, shift := range dayShifts {
			name := names[shift.EmployeeID]
			if name == "" {
				name = fmt.Sprintf("сотрудник %d", shift.EmployeeID)
			}
			result.WriteString(fmt.Sprintf("%s %s %s (ID: %d)\n",
				statusEmoji[shift.Status], shift.Interval(), name, shift.ID))
		}
	}

	return result.String()
}

// FormatConflicts форматирует список конфликтов
func FormatConflicts(conflicts []models.Conflict) string {
	if len(conflicts) == 0 {
		return "✅ Конфликтов нет"
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("⚠️ **Найдено конфликтов: %d**\n\n", len(conflicts)))

	for i, c := range conflicts {
		icon := "🟡"
		if c.Severity == models.SeverityError {
			icon = "🔴"
		}
		result.WriteString(fmt.Sprintf("%d. %s %s\n", i+1, icon, c.Message))
	}

	return result.String()
}

// FormatHours форматирует отчет по часам за неделю
func FormatHours(report []EmployeeHours) string {
	if len(report) == 0 {
		return "📭 Сотрудников нет"
	}

	var result strings.Builder
	result.WriteString("⏰ **Часы за неделю:**\n\n")

	for _, row := range report {
		mark := ""
		if row.Overtime {
			mark = " ⚠️"
		}
		result.WriteString(fmt.Sprintf("%s: %s из %sч%s\n",
			row.Name, models.FormatMinutes(row.Minutes), row.MaxHours.String(), mark))
	}

	return result.String()
}

// FormatPermissions форматирует матрицу прав пользователя
func FormatPermissions(userID uint, matrix []models.Permission) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("🔐 **Права пользователя %d**\n", userID))
	result.WriteString("раздел: просмотр/создание/изменение/удаление\n\n")

	for _, p := range matrix {
		result.WriteString(fmt.Sprintf("%s: %s %s %s %s\n",
			p.Module, flag(p.CanView), flag(p.CanCreate), flag(p.CanEdit), flag(p.CanDelete)))
	}

	return result.String()
}

func flag(v bool) string {
	if v {
		return "✅"
	}
	return "▫️"
}
