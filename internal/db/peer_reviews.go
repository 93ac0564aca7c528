package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/ctxutil"
	"github.com/Spok95/teacher-lms-bot/internal/models"
)

// ReplacePeerReviews атомарно заменяет набор назначений задания: старый удаляется, новый создаётся.
func ReplacePeerReviews(ctx context.Context, database *sql.DB, assignmentID uuid.UUID, reviews []models.PeerReviewAssignment) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return withTx(ctx, database, func(tx *sql.Tx) error {
		// блокируем задание, чтобы параллельные замены шли по очереди
		var id uuid.UUID
		err := tx.QueryRowContext(ctx, `SELECT id FROM assignments WHERE id = $1 FOR UPDATE`, assignmentID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM peer_reviews WHERE assignment_id = $1`, assignmentID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO peer_reviews (id, assignment_id, reviewer_id, submission_owner_id, status, score)
			VALUES ($1, $2, $3, $4, $5, $6)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()
		for _, r := range reviews {
			if _, err := stmt.ExecContext(ctx, r.ID, assignmentID, r.ReviewerID, r.SubmissionOwnerID, string(r.Status), r.Score); err != nil {
				return err
			}
		}
		return nil
	})
}

func ListPeerReviews(ctx context.Context, database *sql.DB, assignmentID uuid.UUID) ([]models.PeerReviewAssignment, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, `
		SELECT pr.id, pr.assignment_id, pr.reviewer_id, pr.submission_owner_id, pr.status, pr.score,
		       rv.name, ow.name
		FROM peer_reviews pr
		JOIN students rv ON rv.id = pr.reviewer_id
		JOIN students ow ON ow.id = pr.submission_owner_id
		WHERE pr.assignment_id = $1
		ORDER BY LOWER(rv.name), LOWER(ow.name)`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []models.PeerReviewAssignment
	for rows.Next() {
		var r models.PeerReviewAssignment
		var status string
		var score sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.AssignmentID, &r.ReviewerID, &r.SubmissionOwnerID, &status, &score,
			&r.ReviewerName, &r.OwnerName); err != nil {
			return nil, err
		}
		r.Status = models.ReviewStatus(status)
		if score.Valid {
			s := score.Float64
			r.Score = &s
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AdvanceReview переводит назначение задания в следующий статус; откат назад запрещён.
// Назначение другого задания считается ненайденным.
func AdvanceReview(ctx context.Context, database *sql.DB, assignmentID, id uuid.UUID, next models.ReviewStatus, score *float64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return withTx(ctx, database, func(tx *sql.Tx) error {
		var cur string
		err := tx.QueryRowContext(ctx, `SELECT status FROM peer_reviews WHERE id = $1 AND assignment_id = $2 FOR UPDATE`,
			id, assignmentID).Scan(&cur)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := models.ReviewStatus(cur).CanAdvanceTo(next); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE peer_reviews SET status = $2, score = COALESCE($3, score), updated_at = now()
			WHERE id = $1`, id, string(next), score)
		return err
	})
}

type ReviewedAssignment struct {
	ID         uuid.UUID
	Title      string
	CourseName string
}

// ListReviewedAssignments: задания, по которым есть назначения взаимопроверки.
func ListReviewedAssignments(ctx context.Context, database *sql.DB) ([]ReviewedAssignment, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	rows, err := database.QueryContext(ctx, `
		SELECT a.id, a.title, c.name
		FROM assignments a
		JOIN courses c ON c.id = a.course_id
		WHERE EXISTS (SELECT 1 FROM peer_reviews pr WHERE pr.assignment_id = a.id)
		ORDER BY c.name, a.title`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []ReviewedAssignment
	for rows.Next() {
		var r ReviewedAssignment
		if err := rows.Scan(&r.ID, &r.Title, &r.CourseName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
