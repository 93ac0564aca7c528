package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/ctxutil"
	"github.com/Spok95/teacher-lms-bot/internal/models"
)

const gradedItemSelect = `
	SELECT gi.id, gi.assignment_id, a.course_id, a.title, a.category, a.due_date,
	       gi.grade_value, gi.student_id, s.name, gi.submitted
	FROM graded_items gi
	JOIN assignments a ON a.id = gi.assignment_id
	JOIN students s ON s.id = gi.student_id`

func scanGradedItems(rows *sql.Rows) ([]models.GradedItem, error) {
	defer func() { _ = rows.Close() }()
	var out []models.GradedItem
	for rows.Next() {
		var it models.GradedItem
		var grade sql.NullFloat64
		if err := rows.Scan(&it.ID, &it.AssignmentID, &it.CourseID, &it.Title, &it.Category, &it.DueDate,
			&grade, &it.StudentID, &it.StudentName, &it.Submitted); err != nil {
			return nil, err
		}
		if grade.Valid {
			g := grade.Float64
			it.GradeValue = &g
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListGradedItems: все работы курса, по сроку сдачи и ФИО.
func ListGradedItems(ctx context.Context, database *sql.DB, courseID uuid.UUID) ([]models.GradedItem, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, gradedItemSelect+`
		WHERE a.course_id = $1
		ORDER BY a.due_date, LOWER(a.title), LOWER(s.name)`, courseID)
	if err != nil {
		return nil, err
	}
	return scanGradedItems(rows)
}

func ListGradedItemsByAssignment(ctx context.Context, database *sql.DB, assignmentID uuid.UUID) ([]models.GradedItem, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, gradedItemSelect+`
		WHERE gi.assignment_id = $1
		ORDER BY LOWER(s.name)`, assignmentID)
	if err != nil {
		return nil, err
	}
	return scanGradedItems(rows)
}

func GetGradedItem(ctx context.Context, database *sql.DB, id uuid.UUID) (*models.GradedItem, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, gradedItemSelect+` WHERE gi.id = $1`, id)
	if err != nil {
		return nil, err
	}
	items, err := scanGradedItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

// SetGrade выставляет оценку; оценённая работа считается сданной.
func SetGrade(ctx context.Context, database *sql.DB, id uuid.UUID, percent float64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := database.ExecContext(ctx, `
		UPDATE graded_items SET grade_value = $2, submitted = TRUE, updated_at = now()
		WHERE id = $1`, id, percent)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func SetSubmitted(ctx context.Context, database *sql.DB, id uuid.UUID, submitted bool) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := database.ExecContext(ctx, `
		UPDATE graded_items SET submitted = $2, updated_at = now()
		WHERE id = $1`, id, submitted)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// ListSubmitters: ученики, сдавшие задание (участники взаимопроверки).
func ListSubmitters(ctx context.Context, database *sql.DB, assignmentID uuid.UUID) ([]uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, `
		SELECT gi.student_id
		FROM graded_items gi
		JOIN students s ON s.id = gi.student_id
		WHERE gi.assignment_id = $1 AND gi.submitted = TRUE AND s.is_active = TRUE
		ORDER BY gi.student_id`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
