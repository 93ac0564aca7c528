package models

import (
	"fmt"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	Present AttendanceStatus = "present"
	Absent  AttendanceStatus = "absent"
	Tardy   AttendanceStatus = "tardy"
	Excused AttendanceStatus = "excused"
)

// AttendanceStatuses: порядок переключения статуса на клавиатуре.
var AttendanceStatuses = []AttendanceStatus{Present, Absent, Tardy, Excused}

func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	for _, st := range AttendanceStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown attendance status %q", s)
}

// Next: следующий статус по кругу.
func (s AttendanceStatus) Next() AttendanceStatus {
	for i, st := range AttendanceStatuses {
		if st == s {
			return AttendanceStatuses[(i+1)%len(AttendanceStatuses)]
		}
	}
	return Present
}

func (s AttendanceStatus) Label() string {
	switch s {
	case Present:
		return "✅ присутствует"
	case Absent:
		return "❌ отсутствует"
	case Tardy:
		return "⏰ опоздал"
	case Excused:
		return "📄 уваж. причина"
	default:
		return string(s)
	}
}

// AttendanceRecord создаётся на ученика и дату; изменяется только удалением и повторным созданием.
type AttendanceRecord struct {
	ID          uuid.UUID        `db:"id"`
	Date        string           `db:"record_date"` // YYYY-MM-DD
	Status      AttendanceStatus `db:"status"`
	CourseID    uuid.UUID        `db:"course_id"`
	StudentID   uuid.UUID        `db:"student_id"`
	StudentName string           `db:"student_name"`
}
