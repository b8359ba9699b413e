package models

// Типы конфликтов расписания
const (
	ConflictOverlap       = "overlap"
	ConflictOvertime      = "overtime"
	ConflictUnavailable   = "unavailable"    // объявлен, но не вычисляется
	ConflictSkillMismatch = "skill_mismatch" // объявлен, но не вычисляется
)

const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Conflict - вычисляемое нарушение расписания, в БД не хранится
type Conflict struct {
	Type       string `json:"type"`
	Severity   string `json:"severity"`
	ShiftID    uint   `json:"shiftId"`
	EmployeeID uint   `json:"employeeId"`
	Message    string `json:"message"`
}
