package weekdays

import (
	"fmt"
	"strings"
	"time"
)

// tokens - короткие имена дней недели, в которых хранится доступность сотрудника
var tokens = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

var order = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

var dateLayouts = []string{"2006-01-02", "02.01.2006", "02-01-2006"}

// ParseWeekday - парсит токен дня недели ("mon", "Monday", "tue" ...)
func ParseWeekday(token string) (time.Weekday, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if len(t) > 3 {
		t = t[:3]
	}

	day, ok := tokens[t]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", token)
	}
	return day, nil
}

// Token - возвращает короткое имя дня недели
func Token(day time.Weekday) string {
	return order[(int(day)+6)%7]
}

// Normalize - приводит набор токенов к каноническому виду без повторов,
// в порядке с понедельника по воскресенье
func Normalize(input []string) ([]string, error) {
	seen := make(map[time.Weekday]bool, len(input))
	for _, token := range input {
		day, err := ParseWeekday(token)
		if err != nil {
			return nil, err
		}
		seen[day] = true
	}

	out := make([]string, 0, len(seen))
	for _, token := range order {
		if seen[tokens[token]] {
			out = append(out, token)
		}
	}
	return out, nil
}

// WeekStart - понедельник недели, в которую попадает дата (00:00 UTC)
func WeekStart(date time.Time) time.Time {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekBounds - полуинтервал [понедельник, следующий понедельник)
func WeekBounds(date time.Time) (time.Time, time.Time) {
	start := WeekStart(date)
	return start, start.AddDate(0, 0, 7)
}

// Days - семь дат недели, начиная с понедельника
func Days(date time.Time) []time.Time {
	start := WeekStart(date)
	days := make([]time.Time, 0, 7)
	for i := range 7 {
		days = append(days, start.AddDate(0, 0, i))
	}
	return days
}

// ParseDate - парсит дату в одном из форматов 2006-01-02, 02.01.2006, 02-01-2006.
// Пустая строка означает сегодняшний день.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse date %q", s)
}
