package gradebook

import (
	"sort"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/models"
)

// CompletionRatio: доля сданных работ; 0 для пустого набора.
func CompletionRatio(items []models.GradedItem) float64 {
	if len(items) == 0 {
		return 0
	}
	n := 0
	for _, it := range items {
		if it.Submitted {
			n++
		}
	}
	return float64(n) / float64(len(items))
}

type CategoryGroup struct {
	Category string
	Items    []models.GradedItem
}

// GroupByCategory группирует по категории; группы в порядке первого появления.
func GroupByCategory(items []models.GradedItem) []CategoryGroup {
	idx := map[string]int{}
	var out []CategoryGroup
	for _, it := range items {
		cat := it.Category
		if cat == "" {
			cat = "Без категории"
		}
		i, ok := idx[cat]
		if !ok {
			i = len(out)
			idx[cat] = i
			out = append(out, CategoryGroup{Category: cat})
		}
		out[i].Items = append(out[i].Items, it)
	}
	return out
}

type Summary struct {
	Total      int
	Submitted  int
	Graded     int
	Average    float64 // средний процент по оценённым
	Completion float64
}

func Summarize(items []models.GradedItem) Summary {
	s := Summary{Total: len(items), Completion: CompletionRatio(items)}
	var sum float64
	for _, it := range items {
		if it.Submitted {
			s.Submitted++
		}
		if it.GradeValue != nil {
			s.Graded++
			sum += *it.GradeValue
		}
	}
	if s.Graded > 0 {
		s.Average = sum / float64(s.Graded)
	}
	return s
}

type StudentAverage struct {
	StudentID   uuid.UUID
	StudentName string
	Average     float64
	Graded      int
}

// StudentAverages: средний процент по каждому ученику, по убыванию.
// Ученики различаются по ID, тёзки считаются отдельно.
func StudentAverages(items []models.GradedItem) []StudentAverage {
	type acc struct {
		name string
		sum  float64
		n    int
	}
	m := map[uuid.UUID]*acc{}
	for _, it := range items {
		if it.GradeValue == nil {
			continue
		}
		a, ok := m[it.StudentID]
		if !ok {
			a = &acc{name: it.StudentName}
			m[it.StudentID] = a
		}
		a.sum += *it.GradeValue
		a.n++
	}
	out := make([]StudentAverage, 0, len(m))
	for id, a := range m {
		out = append(out, StudentAverage{StudentID: id, StudentName: a.name, Average: a.sum / float64(a.n), Graded: a.n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		if out[i].StudentName != out[j].StudentName {
			return out[i].StudentName < out[j].StudentName
		}
		return out[i].StudentID.String() < out[j].StudentID.String()
	})
	return out
}
