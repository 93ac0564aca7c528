package gradebook

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/models"
)

func ptr(v float64) *float64 { return &v }

func sampleItems(course uuid.UUID, base time.Time) []models.GradedItem {
	grades := []float64{90, 72, 81, 95, 60}
	var out []models.GradedItem
	for i, g := range grades {
		out = append(out, models.GradedItem{
			ID:          uuid.New(),
			CourseID:    course,
			Title:       "Работа",
			Category:    []string{"Домашние", "Контрольные"}[i%2],
			DueDate:     base.AddDate(0, 0, i),
			GradeValue:  ptr(g),
			StudentID:   uuid.New(),
			StudentName: []string{"Иванов", "Петров", "Сидоров", "Орлова", "Ким"}[i],
			Submitted:   true,
		})
	}
	return out
}

func TestFilter_ByCourse(t *testing.T) {
	x, y := uuid.New(), uuid.New()
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	items := append(sampleItems(x, base), sampleItems(y, base)...)

	got := Filter(items, x, nil)
	if len(got) != 5 {
		t.Fatalf("ожидали 5 работ курса X, получили %d", len(got))
	}
	for i, it := range got {
		if it.ID != items[i].ID {
			t.Fatalf("порядок нарушен на позиции %d", i)
		}
	}

	missing := Filter(items, uuid.New(), nil)
	if missing == nil || len(missing) != 0 {
		t.Fatalf("ожидали пустой (не nil) результат, получили %#v", missing)
	}
}

func TestFilter_DateRange(t *testing.T) {
	x := uuid.New()
	base := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	items := sampleItems(x, base)

	r := DateRange{From: base.AddDate(0, 0, 1), To: base.AddDate(0, 0, 3)}
	got := Filter(items, x, &r)
	if len(got) != 3 {
		t.Fatalf("ожидали 3 работы в диапазоне, получили %d", len(got))
	}

	open := DateRange{From: base.AddDate(0, 0, 4)}
	if n := len(Filter(items, x, &open)); n != 1 {
		t.Fatalf("ожидали 1 работу, получили %d", n)
	}

	noDue := models.GradedItem{CourseID: x}
	if len(Filter([]models.GradedItem{noDue}, x, &r)) != 0 {
		t.Fatal("работа без срока не должна попадать в ограниченный диапазон")
	}
	if len(Filter([]models.GradedItem{noDue}, x, &DateRange{})) != 1 {
		t.Fatal("пустой диапазон пропускает всё")
	}
}

func TestLastDays(t *testing.T) {
	now := time.Date(2025, 10, 10, 15, 0, 0, 0, time.UTC)
	r := LastDays(now, 7)
	if !r.Contains(time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("4 октября входит в последние 7 дней")
	}
	if r.Contains(time.Date(2025, 10, 3, 23, 0, 0, 0, time.UTC)) {
		t.Fatal("3 октября не входит в последние 7 дней")
	}
}

func TestSummaries(t *testing.T) {
	x := uuid.New()
	items := sampleItems(x, time.Now())
	items[4].Submitted = false
	items[4].GradeValue = nil

	if r := CompletionRatio(items); r != 0.8 {
		t.Fatalf("ожидали 0.8, получили %v", r)
	}
	if CompletionRatio(nil) != 0 {
		t.Fatal("пустой набор — 0")
	}

	s := Summarize(items)
	if s.Graded != 4 || s.Submitted != 4 || s.Average != (90+72+81+95)/4.0 {
		t.Fatalf("неожиданная сводка %+v", s)
	}

	groups := GroupByCategory(items)
	if len(groups) != 2 || groups[0].Category != "Домашние" || len(groups[0].Items) != 3 {
		t.Fatalf("неожиданные группы %+v", groups)
	}

	avg := StudentAverages(items)
	if len(avg) != 4 || avg[0].StudentName != "Орлова" {
		t.Fatalf("ожидали Орлову первой, получили %+v", avg)
	}
}

func TestStudentAverages_SameName(t *testing.T) {
	course := uuid.New()
	first, second := uuid.New(), uuid.New()
	items := []models.GradedItem{
		{CourseID: course, StudentID: first, StudentName: "Иванов Иван", GradeValue: ptr(100)},
		{CourseID: course, StudentID: second, StudentName: "Иванов Иван", GradeValue: ptr(0)},
		{CourseID: course, StudentID: first, StudentName: "Иванов Иван", GradeValue: ptr(80)},
	}
	avg := StudentAverages(items)
	if len(avg) != 2 {
		t.Fatalf("ожидали двух разных учеников, получили %+v", avg)
	}
	if avg[0].StudentID != first || avg[0].Average != 90 || avg[0].Graded != 2 {
		t.Fatalf("неожиданная первая строка %+v", avg[0])
	}
	if avg[1].StudentID != second || avg[1].Average != 0 {
		t.Fatalf("неожиданная вторая строка %+v", avg[1])
	}
}
