package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Статусы смен
const (
	ShiftStatusDraft     = "draft"
	ShiftStatusPublished = "published"
	ShiftStatusConfirmed = "confirmed"
	ShiftStatusCompleted = "completed"
	ShiftStatusCancelled = "cancelled"
)

const DateLayout = "2006-01-02"

type Shift struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	EmployeeID uint      `gorm:"not null;index" json:"employeeId"`
	Date       time.Time `gorm:"not null;index" json:"-"`
	StartTime  TimeOfDay `gorm:"not null" json:"startTime"`
	EndTime    TimeOfDay `gorm:"not null" json:"endTime"`
	Position   string    `gorm:"type:varchar(50)" json:"position"`
	Status     string    `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Shift) TableName() string {
	return "shifts"
}

// shiftTransitions - допустимые переходы статусов смены
var shiftTransitions = map[string][]string{
	ShiftStatusDraft:     {ShiftStatusPublished, ShiftStatusCancelled},
	ShiftStatusPublished: {ShiftStatusDraft, ShiftStatusConfirmed, ShiftStatusCancelled},
	ShiftStatusConfirmed: {ShiftStatusCompleted, ShiftStatusCancelled},
	ShiftStatusCancelled: {ShiftStatusDraft},
	ShiftStatusCompleted: {},
}

func IsValidShiftStatus(status string) bool {
	_, ok := shiftTransitions[status]
	return ok
}

// CanTransition проверяет, можно ли перевести смену из статуса from в статус to
func CanTransition(from, to string) bool {
	for _, next := range shiftTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NormalizeDate оставляет только календарную дату в UTC
func NormalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey возвращает дату смены в формате 2006-01-02. Даты хранятся
// как полночь UTC, драйвер может вернуть их в локальной зоне.
func (s *Shift) DateKey() string {
	return s.Date.UTC().Format(DateLayout)
}

// DurationMinutes возвращает продолжительность смены в минутах
func (s *Shift) DurationMinutes() int {
	return int(s.EndTime) - int(s.StartTime)
}

// MarshalJSON отдает дату смены в формате 2006-01-02
func (s Shift) MarshalJSON() ([]byte, error) {
	type shiftAlias Shift
	return json.Marshal(struct {
		shiftAlias
		Date string `json:"date"`
	}{
		shiftAlias: shiftAlias(s),
		Date:       s.DateKey(),
	})
}

func (s *Shift) Interval() string {
	return fmt.Sprintf("%s–%s", s.StartTime, s.EndTime)
}

// IsValid проверяет валидность данных
func (s *Shift) IsValid() bool {
	if s.EmployeeID == 0 {
		return false
	}
	if s.Date.IsZero() {
		return false
	}
	if s.StartTime < 0 || s.EndTime > MinutesPerDay {
		return false
	}
	if s.EndTime <= s.StartTime {
		return false
	}
	return IsValidShiftStatus(s.Status)
}
