package models

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	TeacherID int64     `db:"teacher_id"` // telegram id преподавателя
	CreatedAt time.Time `db:"created_at"`
}

type Student struct {
	ID       uuid.UUID `db:"id"`
	CourseID uuid.UUID `db:"course_id"`
	Name     string    `db:"name"`
	IsActive bool      `db:"is_active"`
}

type CourseModule struct {
	ID        uuid.UUID `db:"id"`
	CourseID  uuid.UUID `db:"course_id"`
	Title     string    `db:"title"`
	Position  int       `db:"position"`
	Published bool      `db:"published"`
}

type Lesson struct {
	ID          uuid.UUID   `db:"id"`
	CourseID    uuid.UUID   `db:"course_id"`
	ModuleID    *uuid.UUID  `db:"module_id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	Date        string      `db:"lesson_date"` // YYYY-MM-DD
	StandardIDs []uuid.UUID `db:"-"`
	CreatedAt   time.Time   `db:"created_at"`
}

type Assignment struct {
	ID          uuid.UUID  `db:"id"`
	CourseID    uuid.UUID  `db:"course_id"`
	ModuleID    *uuid.UUID `db:"module_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Category    string     `db:"category"`
	DueDate     string     `db:"due_date"` // YYYY-MM-DD
	MaxPoints   int        `db:"max_points"`
	CreatedAt   time.Time  `db:"created_at"`
}
