// Package conflict ищет конфликты в расписании смен: пересечения смен одного
// сотрудника в течение дня и превышение недельной нормы часов.
//
// Detect не знает, что такое "неделя": вызывающий код сам ограничивает
// набор смен нужным периодом. Входные срезы не изменяются.
package conflict

import (
	"fmt"
	"slices"
	"sort"

	"cafe-schedule/internal/models"

	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// Detect возвращает конфликты в порядке обнаружения: сотрудники в порядке
// среза employees, внутри сотрудника - пересечения по возрастанию даты,
// затем переработка. Смены сотрудников, которых нет в employees,
// проверяются только на пересечения и идут последними.
func Detect(shifts []models.Shift, employees []models.Employee) []models.Conflict {
	byEmployee := make(map[uint][]models.Shift)
	var order []uint

	for _, shift := range shifts {
		if _, seen := byEmployee[shift.EmployeeID]; !seen {
			order = append(order, shift.EmployeeID)
		}
		byEmployee[shift.EmployeeID] = append(byEmployee[shift.EmployeeID], shift)
	}

	var conflicts []models.Conflict
	known := make(map[uint]bool, len(employees))

	for _, employee := range employees {
		if known[employee.ID] {
			continue
		}
		known[employee.ID] = true

		own := byEmployee[employee.ID]
		if len(own) == 0 {
			continue
		}

		conflicts = append(conflicts, overlaps(own)...)
		if c, ok := overtime(employee, own); ok {
			conflicts = append(conflicts, c)
		}
	}

	for _, employeeID := range order {
		if known[employeeID] {
			continue
		}
		conflicts = append(conflicts, overlaps(byEmployee[employeeID])...)
	}

	return conflicts
}

// overlaps сравнивает соседние по времени начала смены одного дня
func overlaps(shifts []models.Shift) []models.Conflict {
	byDate := make(map[string][]models.Shift)
	for _, shift := range shifts {
		key := shift.DateKey()
		byDate[key] = append(byDate[key], shift)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var conflicts []models.Conflict
	for _, date := range dates {
		day := slices.Clone(byDate[date])
		sort.SliceStable(day, func(i, j int) bool {
			return day[i].StartTime < day[j].StartTime
		})

		for i := 1; i < len(day); i++ {
			prev, cur := day[i-1], day[i]
			if prev.EndTime <= cur.StartTime {
				continue
			}

			conflicts = append(conflicts, models.Conflict{
				Type:       models.ConflictOverlap,
				Severity:   models.SeverityError,
				ShiftID:    cur.ID,
				EmployeeID: cur.EmployeeID,
				Message: fmt.Sprintf("Смена %s %s пересекается со сменой %s",
					date, cur.Interval(), prev.Interval()),
			})
		}
	}

	return conflicts
}

func overtime(employee models.Employee, shifts []models.Shift) (models.Conflict, bool) {
	total := TotalMinutes(shifts)
	hours := decimal.NewFromInt(int64(total)).Div(minutesPerHour)

	if !hours.GreaterThan(employee.MaxHours) {
		return models.Conflict{}, false
	}

	return models.Conflict{
		Type:       models.ConflictOvertime,
		Severity:   models.SeverityWarning,
		ShiftID:    shifts[0].ID,
		EmployeeID: employee.ID,
		Message: fmt.Sprintf("%s: запланировано %s при норме %sч",
			employee.Name, models.FormatMinutes(total), employee.MaxHours.String()),
	}, true
}

// TotalMinutes суммирует продолжительность смен
func TotalMinutes(shifts []models.Shift) int {
	total := 0
	for i := range shifts {
		total += shifts[i].DurationMinutes()
	}
	return total
}
