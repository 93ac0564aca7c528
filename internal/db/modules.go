package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/ctxutil"
	"github.com/Spok95/teacher-lms-bot/internal/models"
)

// CreateModule добавляет модуль в конец списка курса (position игнорируется).
func CreateModule(ctx context.Context, database *sql.DB, m models.CourseModule) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	_, err := database.ExecContext(ctx, `
		INSERT INTO course_modules (id, course_id, title, position, published)
		VALUES ($1, $2, $3, (SELECT COALESCE(MAX(position) + 1, 0) FROM course_modules WHERE course_id = $2), $4)`,
		m.ID, m.CourseID, m.Title, m.Published)
	return err
}

func ListModules(ctx context.Context, database *sql.DB, courseID uuid.UUID) ([]models.CourseModule, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, `
		SELECT id, course_id, title, position, published
		FROM course_modules
		WHERE course_id = $1
		ORDER BY position, title`, courseID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.CourseModule
	for rows.Next() {
		var m models.CourseModule
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Position, &m.Published); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func RenameModule(ctx context.Context, database *sql.DB, id uuid.UUID, title string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := database.ExecContext(ctx, `UPDATE course_modules SET title = $2 WHERE id = $1`, id, title)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func SetModulePublished(ctx context.Context, database *sql.DB, id uuid.UUID, published bool) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := database.ExecContext(ctx, `UPDATE course_modules SET published = $2 WHERE id = $1`, id, published)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// MoveModule меняет модуль местами с соседом (delta = -1 вверх, +1 вниз).
// На краю списка ничего не делает.
func MoveModule(ctx context.Context, database *sql.DB, id uuid.UUID, delta int) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return withTx(ctx, database, func(tx *sql.Tx) error {
		var courseID uuid.UUID
		var pos int
		err := tx.QueryRowContext(ctx, `SELECT course_id, position FROM course_modules WHERE id = $1 FOR UPDATE`, id).Scan(&courseID, &pos)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var otherID uuid.UUID
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM course_modules WHERE course_id = $1 AND position = $2 FOR UPDATE`,
			courseID, pos+delta).Scan(&otherID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE course_modules SET position = $2 WHERE id = $1`, otherID, pos); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE course_modules SET position = $2 WHERE id = $1`, id, pos+delta)
		return err
	})
}

// DeleteModule удаляет модуль и уплотняет позиции оставшихся (0..n-1).
func DeleteModule(ctx context.Context, database *sql.DB, id uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return withTx(ctx, database, func(tx *sql.Tx) error {
		var courseID uuid.UUID
		err := tx.QueryRowContext(ctx, `DELETE FROM course_modules WHERE id = $1 RETURNING course_id`, id).Scan(&courseID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE course_modules m SET position = r.rn - 1
			FROM (
				SELECT id, ROW_NUMBER() OVER (ORDER BY position, title) AS rn
				FROM course_modules WHERE course_id = $1
			) r
			WHERE m.id = r.id`, courseID)
		return err
	})
}
