package records

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/models"
)

var now = time.Date(2025, 10, 15, 13, 30, 0, 0, time.UTC)

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"01.09.2025": "2025-09-01",
		"2025-09-01": "2025-09-01",
		"1.9.2025":   "2025-09-01",
		"03.11":      "2025-11-03",
		"Сегодня":    "2025-10-15",
		"завтра":     "2025-10-16",
		"вчера":      "2025-10-14",
	}
	for in, want := range cases {
		got, err := NormalizeDate(in, now)
		if err != nil {
			t.Fatalf("%q: не ожидали ошибку: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: ожидали %s, получили %s", in, want, got)
		}
	}
	for _, bad := range []string{"", "32.13.2025", "когда-нибудь"} {
		if _, err := NormalizeDate(bad, now); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q: ожидали ErrValidation, получили %v", bad, err)
		}
	}
}

func TestParseRange(t *testing.T) {
	from, to, err := ParseRange("01.09.2025-30.09.2025", now)
	if err != nil {
		t.Fatal(err)
	}
	if from.Format(DateLayout) != "2025-09-01" || to.Format(DateLayout) != "2025-09-30" {
		t.Fatalf("неожиданный диапазон %v..%v", from, to)
	}
	if _, _, err := ParseRange("2025-09-01 2025-09-30", now); err != nil {
		t.Fatalf("ISO через пробел: %v", err)
	}
	if _, _, err := ParseRange("30.09.2025-01.09.2025", now); !errors.Is(err, ErrValidation) {
		t.Fatalf("конец раньше начала: ожидали ErrValidation, получили %v", err)
	}
}

func TestNewAttendanceRecord(t *testing.T) {
	course, student := uuid.New(), uuid.New()
	rec, err := NewAttendanceRecord(AttendanceInput{CourseID: course, StudentID: student, Date: "15.10.2025", Status: "tardy"}, now)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID == uuid.Nil || rec.Date != "2025-10-15" || rec.Status != models.Tardy {
		t.Fatalf("неожиданная запись %+v", rec)
	}

	_, err = NewAttendanceRecord(AttendanceInput{CourseID: course, StudentID: student, Date: "сегодня", Status: "late"}, now)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ожидали ErrValidation для статуса late, получили %v", err)
	}
	_, err = NewAttendanceRecord(AttendanceInput{StudentID: student, Date: "сегодня", Status: "present"}, now)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ожидали ErrValidation без курса, получили %v", err)
	}
}

func TestNewAssignmentAndItems(t *testing.T) {
	course := uuid.New()
	a, err := NewAssignment(AssignmentInput{CourseID: course, Title: "  Эссе  ", DueDate: "20.10.2025", MaxPoints: 10}, now)
	if err != nil {
		t.Fatal(err)
	}
	if a.Title != "Эссе" || a.DueDate != "2025-10-20" {
		t.Fatalf("неожиданное задание %+v", a)
	}
	if _, err := NewAssignment(AssignmentInput{CourseID: course, Title: " ", DueDate: "сегодня", MaxPoints: 10}, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("пустое название должно блокироваться, получили %v", err)
	}

	students := []models.Student{
		{ID: uuid.New(), Name: "А", IsActive: true},
		{ID: uuid.New(), Name: "Б", IsActive: false},
		{ID: uuid.New(), Name: "В", IsActive: true},
	}
	items, err := NewGradedItems(a, students)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Submitted || items[0].GradeValue != nil || items[0].DueDate.Day() != 20 {
		t.Fatalf("неожиданные работы %+v", items)
	}
}

func TestNewLesson(t *testing.T) {
	std := uuid.New()
	l, err := NewLesson(LessonInput{CourseID: uuid.New(), Title: "Дроби", Date: "завтра", StandardIDs: []uuid.UUID{std}}, now)
	if err != nil {
		t.Fatal(err)
	}
	if l.Date != "2025-10-16" || len(l.StandardIDs) != 1 {
		t.Fatalf("неожиданный урок %+v", l)
	}
}

func TestParseGrade(t *testing.T) {
	for in, want := range map[string]float64{"85": 85, "85,5": 85.5, "100%": 100, " 0 ": 0} {
		got, err := ParseGrade(in)
		if err != nil || got != want {
			t.Fatalf("%q: ожидали %v, получили %v (%v)", in, want, got, err)
		}
	}
	for _, bad := range []string{"101", "-1", "abc", "85abc"} {
		if _, err := ParseGrade(bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q: ожидали ErrValidation, получили %v", bad, err)
		}
	}
}
