package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/ctxutil"
	"github.com/Spok95/teacher-lms-bot/internal/models"
)

// CreateLesson сохраняет урок вместе с привязанными стандартами.
func CreateLesson(ctx context.Context, database *sql.DB, l models.Lesson) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return withTx(ctx, database, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lessons (id, course_id, module_id, title, description, lesson_date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, l.CourseID, l.ModuleID, l.Title, l.Description, l.Date, l.CreatedAt)
		if err != nil {
			return err
		}
		for _, sid := range l.StandardIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO lesson_standards (lesson_id, standard_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, l.ID, sid); err != nil {
				return err
			}
		}
		return nil
	})
}

func ListLessons(ctx context.Context, database *sql.DB, courseID uuid.UUID) ([]models.Lesson, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, `
		SELECT l.id, l.course_id, l.module_id, l.title, l.description, l.lesson_date::text, l.created_at,
		       COALESCE(array_to_string(array_agg(ls.standard_id) FILTER (WHERE ls.standard_id IS NOT NULL), ','), '')
		FROM lessons l
		LEFT JOIN lesson_standards ls ON ls.lesson_id = l.id
		WHERE l.course_id = $1
		GROUP BY l.id
		ORDER BY l.lesson_date, l.created_at`, courseID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Lesson
	for rows.Next() {
		var l models.Lesson
		var module uuid.NullUUID
		var stds string
		if err := rows.Scan(&l.ID, &l.CourseID, &module, &l.Title, &l.Description, &l.Date, &l.CreatedAt, &stds); err != nil {
			return nil, err
		}
		if module.Valid {
			l.ModuleID = &module.UUID
		}
		l.StandardIDs = parseUUIDList(stds)
		out = append(out, l)
	}
	return out, rows.Err()
}

func parseUUIDList(csv string) []uuid.UUID {
	if csv == "" {
		return nil
	}
	var out []uuid.UUID
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			if id, err := uuid.Parse(csv[start:i]); err == nil {
				out = append(out, id)
			}
			start = i + 1
		}
	}
	return out
}
