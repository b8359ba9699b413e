package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

// TimeOfDay - время внутри суток в минутах от полуночи
type TimeOfDay int

// ParseTimeOfDay парсит время из строки "09:30" в минуты
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: неверный формат времени %q, используйте ЧЧ:ММ", ErrValidation, s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: неверное количество часов в %q, должно быть между 0 и 23", ErrValidation, s)
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: неверное количество минут в %q, должно быть между 00 и 59", ErrValidation, s)
	}

	return TimeOfDay(hours*60 + minutes), nil
}

func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hours() int   { return int(t) / 60 }
func (t TimeOfDay) Minutes() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hours(), t.Minutes())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: время должно быть строкой ЧЧ:ММ", ErrValidation)
	}

	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}

// FormatMinutes форматирует продолжительность как "8ч" или "7ч 30м"
func FormatMinutes(total int) string {
	hours := total / 60
	minutes := total % 60

	if minutes == 0 {
		return fmt.Sprintf("%dч", hours)
	}
	return fmt.Sprintf("%dч %dм", hours, minutes)
}
