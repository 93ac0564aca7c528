//go:build testutil
// +build testutil

package handlers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/db"
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

type courseFixture struct {
	course     models.Course
	assignment models.Assignment
	reviews    []models.PeerReviewAssignment
}

// seedCourse: курс преподавателя с тремя сдавшими учениками и распределённой взаимопроверкой.
func seedCourse(t *testing.T, teacherID int64, name string) courseFixture {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)

	c, err := records.NewCourse(records.CourseInput{Name: name, TeacherID: teacherID}, now)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.CreateCourse(ctx, h.DB, c); err != nil {
		t.Fatal(err)
	}
	var students []models.Student
	var ids []uuid.UUID
	for _, n := range []string{"Иванов", "Петрова", "Сидоров"} {
		s, err := records.NewStudent(records.StudentInput{CourseID: c.ID, Name: n})
		if err != nil {
			t.Fatal(err)
		}
		students = append(students, s)
		ids = append(ids, s.ID)
	}
	if err := db.AddStudents(ctx, h.DB, students); err != nil {
		t.Fatal(err)
	}
	a, err := records.NewAssignment(records.AssignmentInput{CourseID: c.ID, Title: "Эссе", DueDate: "2025-10-20", MaxPoints: 100}, now)
	if err != nil {
		t.Fatal(err)
	}
	items, err := records.NewGradedItems(a, students)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.CreateAssignment(ctx, h.DB, a, items); err != nil {
		t.Fatal(err)
	}
	reviews := peerreview.Assign(a.ID, ids, 1, rand.New(rand.NewPCG(1, 2)))
	if err := db.ReplacePeerReviews(ctx, h.DB, a.ID, reviews); err != nil {
		t.Fatal(err)
	}
	return courseFixture{course: c, assignment: a, reviews: reviews}
}

func TestCallbacks_ForeignIDsRejected(t *testing.T) {
	if err := h.Truncate(context.Background()); err != nil {
		t.Fatal(err)
	}
	const mine, theirs = int64(501), int64(502)
	own := seedCourse(t, mine, "Алгебра 7А")
	foreign := seedCourse(t, theirs, "Алгебра 7Б")

	bot := &fakeBot{}
	d := testDeps(bot)
	d.DB = h.DB
	ctx := context.Background()
	defer ResetAll(mine)

	t.Run("задание другого курса в оценках", func(t *testing.T) {
		gradeStates.Set(mine, &GradeFSMState{CourseID: own.course.ID})
		HandleGradeCallback(ctx, d, callback(mine, gradeAsgPref+foreign.assignment.ID.String()))
		if st := GetGradeState(mine); st.AssignmentID != uuid.Nil {
			t.Fatalf("чужое задание не должно открываться: %+v", st)
		}
		HandleGradeCallback(ctx, d, callback(mine, gradeAsgPref+own.assignment.ID.String()))
		if st := GetGradeState(mine); st.AssignmentID != own.assignment.ID {
			t.Fatalf("своё задание должно открываться: %+v", st)
		}
	})

	t.Run("проверка другого задания", func(t *testing.T) {
		peerReviewStates.Set(mine, &PeerReviewFSMState{CourseID: own.course.ID, AssignmentID: own.assignment.ID})
		HandlePeerReviewCallback(ctx, d, callback(mine, prOpenPref+foreign.reviews[0].ID.String()))
		if st := GetPeerReviewState(mine); st.ReviewID != uuid.Nil {
			t.Fatalf("чужая проверка не должна открываться: %+v", st)
		}
		if !strings.Contains(bot.lastText(t), "не найдена") {
			t.Fatalf("ожидали «не найдена», получили %q", bot.lastText(t))
		}

		HandlePeerReviewCallback(ctx, d, callback(mine, prOpenPref+own.reviews[0].ID.String()))
		st := GetPeerReviewState(mine)
		if st.ReviewID != own.reviews[0].ID || st.ReviewStatus != models.ReviewAssigned {
			t.Fatalf("своя проверка должна открываться: %+v", st)
		}
	})

	reviews, err := db.ListPeerReviews(ctx, h.DB, foreign.assignment.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range reviews {
		if r.Status != models.ReviewAssigned {
			t.Fatalf("статусы чужого курса не должны меняться: %+v", r)
		}
	}
}
