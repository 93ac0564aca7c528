package models

import (
	"time"

	"github.com/google/uuid"
)

// GradedItem: работа ученика по заданию. GradeValue: процент (0..100), nil если не оценено.
type GradedItem struct {
	ID           uuid.UUID `db:"id"`
	AssignmentID uuid.UUID `db:"assignment_id"`
	CourseID     uuid.UUID `db:"course_id"`
	Title        string    `db:"title"`
	Category     string    `db:"category"`
	DueDate      time.Time `db:"due_date"`
	GradeValue   *float64  `db:"grade_value"`
	StudentID    uuid.UUID `db:"student_id"`
	StudentName  string    `db:"student_name"`
	Submitted    bool      `db:"submitted"`
}

// LetterGrade переводит процент в буквенную оценку.
func LetterGrade(percent float64) string {
	switch {
	case percent >= 90:
		return "A"
	case percent >= 80:
		return "B"
	case percent >= 70:
		return "C"
	case percent >= 60:
		return "D"
	default:
		return "F"
	}
}
