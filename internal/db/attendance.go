package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/ctxutil"
	"github.com/Spok95/teacher-lms-bot/internal/models"
)

// ReplaceAttendance заменяет отметки курса за дату: удаление и создание в одной транзакции.
func ReplaceAttendance(ctx context.Context, database *sql.DB, courseID uuid.UUID, date string, recs []models.AttendanceRecord) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return withTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE course_id = $1 AND record_date = $2`, courseID, date); err != nil {
			return err
		}
		for _, r := range recs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO attendance_records (id, course_id, student_id, record_date, status)
				VALUES ($1, $2, $3, $4, $5)`,
				r.ID, courseID, r.StudentID, date, string(r.Status)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListAttendance: отметки курса в диапазоне дат (YYYY-MM-DD, включительно).
func ListAttendance(ctx context.Context, database *sql.DB, courseID uuid.UUID, from, to string) ([]models.AttendanceRecord, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, `
		SELECT r.id, r.record_date::text, r.status, r.course_id, r.student_id, s.name
		FROM attendance_records r
		JOIN students s ON s.id = r.student_id
		WHERE r.course_id = $1 AND r.record_date BETWEEN $2 AND $3
		ORDER BY r.record_date, LOWER(s.name)`, courseID, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []models.AttendanceRecord
	for rows.Next() {
		var r models.AttendanceRecord
		var status string
		if err := rows.Scan(&r.ID, &r.Date, &status, &r.CourseID, &r.StudentID, &r.StudentName); err != nil {
			return nil, err
		}
		r.Status = models.AttendanceStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

func DeleteAttendance(ctx context.Context, database *sql.DB, id uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := database.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
