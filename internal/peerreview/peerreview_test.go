package peerreview

import (
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/models"
)

func students(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func TestPairs_NoSelfReviewAndBalanced(t *testing.T) {
	for n := 2; n <= 9; n++ {
		for k := 1; k <= n-1; k++ {
			st := students(n)
			pairs := Pairs(st, k, rand.New(rand.NewPCG(uint64(n), uint64(k))))
			if len(pairs) != n*k {
				t.Fatalf("n=%d k=%d: ожидали %d пар, получили %d", n, k, n*k, len(pairs))
			}
			asReviewer := map[uuid.UUID]int{}
			asOwner := map[uuid.UUID]int{}
			seen := map[Pair]bool{}
			for _, p := range pairs {
				if p.Reviewer == p.Owner {
					t.Fatalf("n=%d k=%d: ученик проверяет сам себя", n, k)
				}
				if seen[p] {
					t.Fatalf("n=%d k=%d: повтор пары", n, k)
				}
				seen[p] = true
				asReviewer[p.Reviewer]++
				asOwner[p.Owner]++
			}
			for _, s := range st {
				if asReviewer[s] != k || asOwner[s] != k {
					t.Fatalf("n=%d k=%d: дисбаланс %d/%d", n, k, asReviewer[s], asOwner[s])
				}
			}
		}
	}
}

func TestPairs_TwoStudents(t *testing.T) {
	st := students(2)
	pairs := Pairs(st, 1, nil)
	if len(pairs) != 2 {
		t.Fatalf("ожидали ровно 2 пары, получили %d", len(pairs))
	}
}

func TestPairs_Degenerate(t *testing.T) {
	if p := Pairs(students(1), 1, nil); len(p) != 0 {
		t.Fatal("один ученик — пустой результат")
	}
	if p := Pairs(nil, 1, nil); len(p) != 0 {
		t.Fatal("нет учеников — пустой результат")
	}
	if p := Pairs(students(4), 0, nil); len(p) != 0 {
		t.Fatal("k=0 — пустой результат")
	}
	if p := Pairs(students(3), 5, nil); len(p) != 6 {
		t.Fatalf("k урезается до n-1: ожидали 6 пар, получили %d", len(p))
	}
	a := uuid.New()
	if p := Pairs([]uuid.UUID{a, a}, 1, nil); len(p) != 0 {
		t.Fatal("дубликаты схлопываются до одного ученика")
	}
}

func TestPairs_Deterministic(t *testing.T) {
	st := students(6)
	p1 := Pairs(st, 2, rand.New(rand.NewPCG(1, 2)))
	p2 := Pairs(st, 2, rand.New(rand.NewPCG(1, 2)))
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatal("одинаковый seed должен давать одинаковое распределение")
		}
	}
}

func TestAssign(t *testing.T) {
	aid := uuid.New()
	got := Assign(aid, students(4), 2, nil)
	if len(got) != 8 {
		t.Fatalf("ожидали 8 назначений, получили %d", len(got))
	}
	for _, r := range got {
		if r.AssignmentID != aid || r.Status != models.ReviewAssigned || r.ID == uuid.Nil {
			t.Fatalf("неожиданное назначение %+v", r)
		}
	}
}

func TestTally(t *testing.T) {
	reviews := []models.PeerReviewAssignment{
		{Status: models.ReviewCompleted},
		{Status: models.ReviewCompleted},
		{Status: models.ReviewInProgress},
		{Status: models.ReviewAssigned},
	}
	s := Tally(reviews)
	if s.Total != 4 || s.Completed != 2 || s.InProgress != 1 || s.Assigned != 1 {
		t.Fatalf("неожиданный подсчёт %+v", s)
	}
	if r := s.CompletionRate(); r != 0.5 {
		t.Fatalf("ожидали 0.5, получили %v", r)
	}
	if r := Tally(nil).CompletionRate(); r != 0 {
		t.Fatalf("пустой набор — 0, получили %v", r)
	}
}
