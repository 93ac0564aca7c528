package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/ctxutil"
	"github.com/Spok95/teacher-lms-bot/internal/models"
)

func CreateCourse(ctx context.Context, database *sql.DB, c models.Course) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	_, err := database.ExecContext(ctx, `
		INSERT INTO courses (id, name, teacher_id, created_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.TeacherID, c.CreatedAt)
	return err
}

func ListCoursesByTeacher(ctx context.Context, database *sql.DB, teacherID int64) ([]models.Course, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, `
		SELECT id, name, teacher_id, created_at
		FROM courses
		WHERE teacher_id = $1
		ORDER BY LOWER(name)`, teacherID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.TeacherID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func GetCourse(ctx context.Context, database *sql.DB, id uuid.UUID) (*models.Course, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	var c models.Course
	err := database.QueryRowContext(ctx, `SELECT id, name, teacher_id, created_at FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.TeacherID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// HasCourses: является ли пользователь владельцем хотя бы одного курса.
func HasCourses(ctx context.Context, database *sql.DB, teacherID int64) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	var ok bool
	err := database.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE teacher_id = $1)`, teacherID).Scan(&ok)
	return ok, err
}

func AddStudents(ctx context.Context, database *sql.DB, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return withTx(ctx, database, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO students (id, course_id, name, is_active) VALUES ($1, $2, $3, $4)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()
		for _, s := range students {
			if _, err := stmt.ExecContext(ctx, s.ID, s.CourseID, s.Name, s.IsActive); err != nil {
				return err
			}
		}
		return nil
	})
}

func ListStudents(ctx context.Context, database *sql.DB, courseID uuid.UUID, includeInactive bool) ([]models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	q := `SELECT id, course_id, name, is_active FROM students WHERE course_id = $1`
	if !includeInactive {
		q += ` AND is_active = TRUE`
	}
	q += ` ORDER BY LOWER(name)`
	rows, err := database.QueryContext(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.CourseID, &s.Name, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func SetStudentActive(ctx context.Context, database *sql.DB, id uuid.UUID, active bool) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := database.ExecContext(ctx, `UPDATE students SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
