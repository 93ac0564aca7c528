package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/ctxutil"
	"github.com/Spok95/teacher-lms-bot/internal/models"
)

// CreateAssignment сохраняет задание и заготовки работ учеников одной транзакцией.
func CreateAssignment(ctx context.Context, database *sql.DB, a models.Assignment, items []models.GradedItem) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return withTx(ctx, database, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO assignments (id, course_id, module_id, title, description, category, due_date, max_points, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.ID, a.CourseID, a.ModuleID, a.Title, a.Description, a.Category, a.DueDate, a.MaxPoints, a.CreatedAt)
		if err != nil {
			return err
		}
		for _, it := range items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO graded_items (id, assignment_id, student_id, submitted, grade_value)
				VALUES ($1, $2, $3, $4, $5)`,
				it.ID, a.ID, it.StudentID, it.Submitted, it.GradeValue); err != nil {
				return err
			}
		}
		return nil
	})
}

const assignmentCols = `id, course_id, module_id, title, description, category, due_date::text, max_points, created_at`

func scanAssignment(row interface{ Scan(...any) error }) (models.Assignment, error) {
	var a models.Assignment
	var module uuid.NullUUID
	if err := row.Scan(&a.ID, &a.CourseID, &module, &a.Title, &a.Description, &a.Category, &a.DueDate, &a.MaxPoints, &a.CreatedAt); err != nil {
		return a, err
	}
	if module.Valid {
		a.ModuleID = &module.UUID
	}
	return a, nil
}

func ListAssignments(ctx context.Context, database *sql.DB, courseID uuid.UUID) ([]models.Assignment, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, `
		SELECT `+assignmentCols+`
		FROM assignments
		WHERE course_id = $1
		ORDER BY due_date, LOWER(title)`, courseID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func GetAssignment(ctx context.Context, database *sql.DB, id uuid.UUID) (*models.Assignment, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	a, err := scanAssignment(database.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AssignmentField: редактируемые поля задания.
type AssignmentField string

const (
	FieldTitle       AssignmentField = "title"
	FieldDescription AssignmentField = "description"
	FieldDueDate     AssignmentField = "due_date"
	FieldMaxPoints   AssignmentField = "max_points"
	FieldCategory    AssignmentField = "category"
)

// UpdateAssignment меняет одно поле; имя колонки берётся только из белого списка.
func UpdateAssignment(ctx context.Context, database *sql.DB, id uuid.UUID, field AssignmentField, value any) error {
	switch field {
	case FieldTitle, FieldDescription, FieldDueDate, FieldMaxPoints, FieldCategory:
	default:
		return fmt.Errorf("unknown assignment field %q", field)
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := database.ExecContext(ctx, `UPDATE assignments SET `+string(field)+` = $2 WHERE id = $1`, id, value)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func DeleteAssignment(ctx context.Context, database *sql.DB, id uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := database.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
