package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type ReviewStatus string

const (
	ReviewAssigned   ReviewStatus = "assigned"
	ReviewInProgress ReviewStatus = "in_progress"
	ReviewCompleted  ReviewStatus = "completed"
)

var ErrStatusTransition = errors.New("review status cannot move backwards")

func (s ReviewStatus) rank() int {
	switch s {
	case ReviewAssigned:
		return 0
	case ReviewInProgress:
		return 1
	case ReviewCompleted:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo: статус двигается только вперёд assigned → in_progress → completed.
func (s ReviewStatus) CanAdvanceTo(next ReviewStatus) error {
	from, to := s.rank(), next.rank()
	if from < 0 || to < 0 {
		return fmt.Errorf("unknown review status %q -> %q", s, next)
	}
	if to <= from {
		return fmt.Errorf("%s -> %s: %w", s, next, ErrStatusTransition)
	}
	return nil
}

// Following: статусы, в которые можно перейти из текущего, по порядку.
func (s ReviewStatus) Following() []ReviewStatus {
	var out []ReviewStatus
	for _, next := range []ReviewStatus{ReviewAssigned, ReviewInProgress, ReviewCompleted} {
		if s.CanAdvanceTo(next) == nil {
			out = append(out, next)
		}
	}
	return out
}

type PeerReviewAssignment struct {
	ID                uuid.UUID    `db:"id"`
	AssignmentID      uuid.UUID    `db:"assignment_id"`
	ReviewerID        uuid.UUID    `db:"reviewer_id"`
	SubmissionOwnerID uuid.UUID    `db:"submission_owner_id"`
	Status            ReviewStatus `db:"status"`
	Score             *float64     `db:"score"`

	// заполняются при выборке с JOIN
	ReviewerName string `db:"reviewer_name"`
	OwnerName    string `db:"owner_name"`
}
