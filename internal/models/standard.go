package models

import "github.com/google/uuid"

// LearningStandard: справочник, только чтение.
type LearningStandard struct {
	ID          uuid.UUID `db:"id"`
	Subject     string    `db:"subject"`
	Category    string    `db:"category"`
	Code        string    `db:"code"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	GradeLevel  string    `db:"grade_level"`
}
