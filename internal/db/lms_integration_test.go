//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/db"
	"github.com/Spok95/teacher-lms-bot/internal/gradebook"
	"github.com/Spok95/teacher-lms-bot/internal/models"
	"github.com/Spok95/teacher-lms-bot/internal/peerreview"
	"github.com/Spok95/teacher-lms-bot/internal/records"
	"github.com/Spok95/teacher-lms-bot/internal/testutil/testdb"
)

var h *testdb.DBHandle

func TestMain(m *testing.M) {
	var err error
	h, err = testdb.Start(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "testdb:", err)
		os.Exit(1)
	}
	code := m.Run()
	h.Close()
	os.Exit(code)
}

var now = time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)

func fresh(t *testing.T) *sql.DB {
	t.Helper()
	if err := h.Truncate(context.Background()); err != nil {
		t.Fatal(err)
	}
	return h.DB
}

func mustCourse(t *testing.T, database *sql.DB, teacherID int64, students ...string) (models.Course, []models.Student) {
	t.Helper()
	ctx := context.Background()
	c, err := records.NewCourse(records.CourseInput{Name: "Алгебра 7А", TeacherID: teacherID}, now)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.CreateCourse(ctx, database, c); err != nil {
		t.Fatal(err)
	}
	var list []models.Student
	for _, name := range students {
		s, err := records.NewStudent(records.StudentInput{CourseID: c.ID, Name: name})
		if err != nil {
			t.Fatal(err)
		}
		list = append(list, s)
	}
	if len(list) > 0 {
		if err := db.AddStudents(ctx, database, list); err != nil {
			t.Fatal(err)
		}
	}
	return c, list
}

func mustAssignment(t *testing.T, database *sql.DB, c models.Course, students []models.Student, title, due string) models.Assignment {
	t.Helper()
	a, err := records.NewAssignment(records.AssignmentInput{CourseID: c.ID, Title: title, DueDate: due, MaxPoints: 100}, now)
	if err != nil {
		t.Fatal(err)
	}
	items, err := records.NewGradedItems(a, students)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.CreateAssignment(context.Background(), database, a, items); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestCourses_AccessAndStudents(t *testing.T) {
	database := fresh(t)
	ctx := context.Background()
	c, students := mustCourse(t, database, 100, "Иванов Иван", "Петрова Анна")

	ok, err := db.HasCourses(ctx, database, 100)
	if err != nil || !ok {
		t.Fatalf("HasCourses(100) = %v, %v", ok, err)
	}
	if ok, _ := db.HasCourses(ctx, database, 200); ok {
		t.Fatal("у 200 курсов нет")
	}

	if err := db.SetStudentActive(ctx, database, students[0].ID, false); err != nil {
		t.Fatal(err)
	}
	active, _ := db.ListStudents(ctx, database, c.ID, false)
	all, _ := db.ListStudents(ctx, database, c.ID, true)
	if len(active) != 1 || len(all) != 2 {
		t.Fatalf("активных %d, всего %d", len(active), len(all))
	}

	if _, err := db.GetCourse(ctx, database, uuid.New()); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestModules_MoveAndDeleteKeepDensePositions(t *testing.T) {
	database := fresh(t)
	ctx := context.Background()
	c, _ := mustCourse(t, database, 1)

	for _, title := range []string{"Дроби", "Уравнения", "Функции"} {
		m, err := records.NewModule(records.ModuleInput{CourseID: c.ID, Title: title})
		if err != nil {
			t.Fatal(err)
		}
		if err := db.CreateModule(ctx, database, m); err != nil {
			t.Fatal(err)
		}
	}
	mods, _ := db.ListModules(ctx, database, c.ID)
	if len(mods) != 3 || mods[2].Position != 2 {
		t.Fatalf("модули: %+v", mods)
	}

	if err := db.MoveModule(ctx, database, mods[2].ID, -1); err != nil {
		t.Fatal(err)
	}
	// край списка: без изменений
	if err := db.MoveModule(ctx, database, mods[0].ID, -1); err != nil {
		t.Fatal(err)
	}
	mods, _ = db.ListModules(ctx, database, c.ID)
	if mods[1].Title != "Функции" || mods[2].Title != "Уравнения" {
		t.Fatalf("после перемещения: %s, %s", mods[1].Title, mods[2].Title)
	}

	if err := db.DeleteModule(ctx, database, mods[0].ID); err != nil {
		t.Fatal(err)
	}
	mods, _ = db.ListModules(ctx, database, c.ID)
	for i, m := range mods {
		if m.Position != i {
			t.Fatalf("позиции должны быть 0..n-1, у %q позиция %d", m.Title, m.Position)
		}
	}
	if err := db.SetModulePublished(ctx, database, mods[0].ID, true); err != nil {
		t.Fatal(err)
	}
	if err := db.RenameModule(ctx, database, uuid.New(), "x"); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestLessons_WithStandards(t *testing.T) {
	database := fresh(t)
	ctx := context.Background()
	c, _ := mustCourse(t, database, 1)

	subjects, err := db.ListSubjects(ctx, database)
	if err != nil || len(subjects) == 0 {
		t.Fatalf("справочник стандартов пуст: %v", err)
	}
	stds, err := db.ListStandards(ctx, database, subjects[0])
	if err != nil || len(stds) == 0 {
		t.Fatalf("нет стандартов по %q: %v", subjects[0], err)
	}

	l, err := records.NewLesson(records.LessonInput{
		CourseID: c.ID, Title: "Линейные уравнения", Date: "16.10.2025", StandardIDs: []uuid.UUID{stds[0].ID},
	}, now)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.CreateLesson(ctx, database, l); err != nil {
		t.Fatal(err)
	}
	list, err := db.ListLessons(ctx, database, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Date != "2025-10-16" || len(list[0].StandardIDs) != 1 || list[0].StandardIDs[0] != stds[0].ID {
		t.Fatalf("урок: %+v", list)
	}
}

func TestGradedItems_GradeAndFilter(t *testing.T) {
	database := fresh(t)
	ctx := context.Background()
	c, students := mustCourse(t, database, 1, "Иванов", "Петрова")
	old := mustAssignment(t, database, c, students, "Сентябрьский тест", "2025-09-01")
	recent := mustAssignment(t, database, c, students, "Эссе", "2025-10-14")

	items, err := db.ListGradedItemsByAssignment(ctx, database, recent.ID)
	if err != nil || len(items) != 2 {
		t.Fatalf("работ по заданию: %d, %v", len(items), err)
	}
	if err := db.SetGrade(ctx, database, items[0].ID, 93.5); err != nil {
		t.Fatal(err)
	}
	if err := db.SetSubmitted(ctx, database, items[1].ID, true); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetGradedItem(ctx, database, items[0].ID)
	if err != nil || got.GradeValue == nil || *got.GradeValue != 93.5 || !got.Submitted {
		t.Fatalf("оценка не сохранилась: %+v %v", got, err)
	}

	all, err := db.ListGradedItems(ctx, database, c.ID)
	if err != nil || len(all) != 4 {
		t.Fatalf("работ курса: %d, %v", len(all), err)
	}
	week := gradebook.LastDays(now, 7)
	filtered := gradebook.Filter(all, c.ID, &week)
	if len(filtered) != 2 {
		t.Fatalf("за неделю ожидали 2 работы, получили %d", len(filtered))
	}
	for _, it := range filtered {
		if it.AssignmentID == old.ID {
			t.Fatal("старое задание не должно попасть в фильтр")
		}
	}

	if err := db.UpdateAssignment(ctx, database, recent.ID, db.FieldDueDate, "2025-10-20"); err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateAssignment(ctx, database, recent.ID, db.AssignmentField("id"), "x"); err == nil {
		t.Fatal("поле вне белого списка должно отклоняться")
	}
	a, _ := db.GetAssignment(ctx, database, recent.ID)
	if a.DueDate != "2025-10-20" {
		t.Fatalf("срок: %s", a.DueDate)
	}

	if err := db.DeleteAssignment(ctx, database, old.ID); err != nil {
		t.Fatal(err)
	}
	all, _ = db.ListGradedItems(ctx, database, c.ID)
	if len(all) != 2 {
		t.Fatalf("после удаления задания осталось %d работ", len(all))
	}
}

func TestAttendance_ReplaceByDate(t *testing.T) {
	database := fresh(t)
	ctx := context.Background()
	c, students := mustCourse(t, database, 1, "Иванов", "Петрова")

	mark := func(status ...models.AttendanceStatus) []models.AttendanceRecord {
		var out []models.AttendanceRecord
		for i, s := range students {
			r, err := records.NewAttendanceRecord(records.AttendanceInput{
				CourseID: c.ID, StudentID: s.ID, Date: "2025-10-15", Status: string(status[i]),
			}, now)
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, r)
		}
		return out
	}

	if err := db.ReplaceAttendance(ctx, database, c.ID, "2025-10-15", mark(models.Present, models.Absent)); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceAttendance(ctx, database, c.ID, "2025-10-15", mark(models.Tardy, models.Present)); err != nil {
		t.Fatal(err)
	}
	recs, err := db.ListAttendance(ctx, database, c.ID, "2025-10-01", "2025-10-31")
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("после повторного сохранения ожидали 2 отметки, получили %d", len(recs))
	}
	byName := map[string]models.AttendanceStatus{}
	for _, r := range recs {
		byName[r.StudentName] = r.Status
	}
	if byName["Иванов"] != models.Tardy || byName["Петрова"] != models.Present {
		t.Fatalf("отметки: %v", byName)
	}

	if err := db.DeleteAttendance(ctx, database, recs[0].ID); err != nil {
		t.Fatal(err)
	}
	if none, _ := db.ListAttendance(ctx, database, c.ID, "2025-11-01", "2025-11-30"); len(none) != 0 {
		t.Fatal("вне диапазона отметок быть не должно")
	}
}

func TestPeerReviews_ReplaceAndAdvance(t *testing.T) {
	database := fresh(t)
	ctx := context.Background()
	c, students := mustCourse(t, database, 1, "А", "Б", "В", "Г")
	a := mustAssignment(t, database, c, students, "Эссе", "2025-10-10")

	items, _ := db.ListGradedItemsByAssignment(ctx, database, a.ID)
	for _, it := range items[:3] {
		if err := db.SetSubmitted(ctx, database, it.ID, true); err != nil {
			t.Fatal(err)
		}
	}
	submitters, err := db.ListSubmitters(ctx, database, a.ID)
	if err != nil || len(submitters) != 3 {
		t.Fatalf("сдавших: %d, %v", len(submitters), err)
	}

	rng := rand.New(rand.NewPCG(1, 2))
	first := peerreview.Assign(a.ID, submitters, 2, rng)
	if err := db.ReplacePeerReviews(ctx, database, a.ID, first); err != nil {
		t.Fatal(err)
	}
	second := peerreview.Assign(a.ID, submitters, 1, rng)
	if err := db.ReplacePeerReviews(ctx, database, a.ID, second); err != nil {
		t.Fatal(err)
	}
	reviews, err := db.ListPeerReviews(ctx, database, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(reviews) != 3 {
		t.Fatalf("старый набор должен быть заменён: %d назначений", len(reviews))
	}
	for _, r := range reviews {
		if r.ReviewerID == r.SubmissionOwnerID {
			t.Fatal("проверяющий совпадает с автором")
		}
		if r.ReviewerName == "" || r.OwnerName == "" {
			t.Fatal("имена должны подтягиваться")
		}
	}

	id := reviews[0].ID
	if err := db.AdvanceReview(ctx, database, a.ID, id, models.ReviewInProgress, nil); err != nil {
		t.Fatal(err)
	}
	score := 80.0
	if err := db.AdvanceReview(ctx, database, a.ID, id, models.ReviewCompleted, &score); err != nil {
		t.Fatal(err)
	}
	if err := db.AdvanceReview(ctx, database, a.ID, id, models.ReviewAssigned, nil); !errors.Is(err, models.ErrStatusTransition) {
		t.Fatalf("откат статуса должен отклоняться, получили %v", err)
	}
	other := reviews[1].ID
	if err := db.AdvanceReview(ctx, database, uuid.New(), other, models.ReviewInProgress, nil); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("назначение чужого задания должно быть не найдено, получили %v", err)
	}

	reviews, _ = db.ListPeerReviews(ctx, database, a.ID)
	stats := peerreview.Tally(reviews)
	if stats.Completed != 1 || stats.Total != 3 {
		t.Fatalf("статистика: %+v", stats)
	}

	list, err := db.ListReviewedAssignments(ctx, database)
	if err != nil || len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("задания с взаимопроверкой: %+v %v", list, err)
	}
}

func TestPeerReviews_ParallelReplace(t *testing.T) {
	database := fresh(t)
	ctx := context.Background()
	c, students := mustCourse(t, database, 1, "А", "Б", "В", "Г", "Д")
	a := mustAssignment(t, database, c, students, "Проект", "2025-10-10")
	ids := make([]uuid.UUID, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			set := peerreview.Assign(a.ID, ids, 2, rand.New(rand.NewPCG(seed, seed)))
			if err := db.ReplacePeerReviews(ctx, database, a.ID, set); err != nil {
				t.Error(err)
			}
		}(uint64(i))
	}
	wg.Wait()

	reviews, _ := db.ListPeerReviews(ctx, database, a.ID)
	if len(reviews) != len(ids)*2 {
		t.Fatalf("после параллельных замен должен остаться ровно один набор, получили %d", len(reviews))
	}
}
