package peerreview

import "github.com/Spok95/teacher-lms-bot/internal/models"

type Stats struct {
	Total      int
	Completed  int
	InProgress int
	Assigned   int
}

// Tally считает назначения по статусам.
func Tally(reviews []models.PeerReviewAssignment) Stats {
	s := Stats{Total: len(reviews)}
	for _, r := range reviews {
		switch r.Status {
		case models.ReviewCompleted:
			s.Completed++
		case models.ReviewInProgress:
			s.InProgress++
		case models.ReviewAssigned:
			s.Assigned++
		}
	}
	return s
}

// CompletionRate: completed/total, 0 при пустом наборе.
func (s Stats) CompletionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}
