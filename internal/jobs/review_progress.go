package jobs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Spok95/teacher-lms-bot/internal/db"
	"github.com/Spok95/teacher-lms-bot/internal/metrics"
	"github.com/Spok95/teacher-lms-bot/internal/peerreview"
)

// ReviewProgress публикует долю завершённых взаимопроверок по каждому заданию.
func ReviewProgress(database *sql.DB) Job {
	return publishRates(func(ctx context.Context) (map[string]float64, error) {
		return reviewRates(ctx, database)
	})
}

// publishRates обновляет gauge только после успешного сбора всех значений,
// при ошибке остаются прошлые показания.
func publishRates(collect func(context.Context) (map[string]float64, error)) Job {
	return func(ctx context.Context) error {
		rates, err := collect(ctx)
		if err != nil {
			return err
		}
		metrics.ReviewCompletion.Reset()
		for id, rate := range rates {
			metrics.ReviewCompletion.WithLabelValues(id).Set(rate)
		}
		return nil
	}
}

func reviewRates(ctx context.Context, database *sql.DB) (map[string]float64, error) {
	list, err := db.ListReviewedAssignments(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("list reviewed assignments: %w", err)
	}
	rates := make(map[string]float64, len(list))
	for _, a := range list {
		reviews, err := db.ListPeerReviews(ctx, database, a.ID)
		if err != nil {
			return nil, fmt.Errorf("list peer reviews %s: %w", a.ID, err)
		}
		rates[a.ID.String()] = peerreview.Tally(reviews).CompletionRate()
	}
	return rates, nil
}
