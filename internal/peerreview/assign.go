// Package peerreview распределяет проверяющих и считает прогресс взаимопроверки.
package peerreview

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/models"
)

// Pair: кто (Reviewer) проверяет чью работу (Owner).
type Pair struct {
	Reviewer uuid.UUID
	Owner    uuid.UUID
}

// Pairs раздаёт каждой работе k проверяющих по кругу после перемешивания.
// Каждый ученик проверяет ровно k работ, своих среди них нет.
// k > n-1 урезается до n-1; при n < 2 или k < 1 результат пустой.
func Pairs(students []uuid.UUID, k int, rng *rand.Rand) []Pair {
	order := dedup(students)
	n := len(order)
	if n < 2 || k < 1 {
		return nil
	}
	if k > n-1 {
		k = n - 1
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	out := make([]Pair, 0, n*k)
	for i, owner := range order {
		for j := 1; j <= k; j++ {
			out = append(out, Pair{Reviewer: order[(i+j)%n], Owner: owner})
		}
	}
	return out
}

// Assign строит новый набор назначений для задания. Старый набор вызывающий заменяет целиком.
func Assign(assignmentID uuid.UUID, students []uuid.UUID, k int, rng *rand.Rand) []models.PeerReviewAssignment {
	pairs := Pairs(students, k, rng)
	out := make([]models.PeerReviewAssignment, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, models.PeerReviewAssignment{
			ID:                uuid.New(),
			AssignmentID:      assignmentID,
			ReviewerID:        p.Reviewer,
			SubmissionOwnerID: p.Owner,
			Status:            models.ReviewAssigned,
		})
	}
	return out
}

func dedup(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
