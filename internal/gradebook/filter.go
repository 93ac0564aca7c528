// Package gradebook: чистые функции над оценками: фильтр, доля сдачи, группировка.
package gradebook

import (
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/models"
)

// DateRange: включительный диапазон по дате сдачи. Нулевая граница означает "без ограничения".
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if t.IsZero() {
		return r.From.IsZero() && r.To.IsZero()
	}
	d := dateOnly(t)
	if !r.From.IsZero() && d.Before(dateOnly(r.From)) {
		return false
	}
	if !r.To.IsZero() && d.After(dateOnly(r.To)) {
		return false
	}
	return true
}

// LastDays: диапазон "последние n дней", включая сегодня.
func LastDays(now time.Time, n int) DateRange {
	return DateRange{From: now.AddDate(0, 0, -(n - 1)), To: now}
}

// Filter возвращает работы курса, попавшие в диапазон (если задан), сохраняя порядок.
// Никогда не возвращает nil.
func Filter(items []models.GradedItem, courseID uuid.UUID, r *DateRange) []models.GradedItem {
	out := make([]models.GradedItem, 0, len(items))
	for _, it := range items {
		if it.CourseID != courseID {
			continue
		}
		if r != nil && !r.Contains(it.DueDate) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
