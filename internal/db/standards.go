package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/teacher-lms-bot/internal/ctxutil"
	"github.com/Spok95/teacher-lms-bot/internal/models"
)

func ListSubjects(ctx context.Context, database *sql.DB) ([]string, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, `SELECT DISTINCT subject FROM learning_standards ORDER BY subject`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListStandards: стандарты предмета; пустой subject: все.
func ListStandards(ctx context.Context, database *sql.DB, subject string) ([]models.LearningStandard, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, `
		SELECT id, subject, category, code, title, description, grade_level
		FROM learning_standards
		WHERE $1 = '' OR subject = $1
		ORDER BY subject, grade_level, code`, subject)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []models.LearningStandard
	for rows.Next() {
		var s models.LearningStandard
		if err := rows.Scan(&s.ID, &s.Subject, &s.Category, &s.Code, &s.Title, &s.Description, &s.GradeLevel); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
