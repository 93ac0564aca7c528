package fsmutil

import (
	"sync"
	"testing"
)

func TestStore(t *testing.T) {
	type st struct{ Step int }
	s := NewStore[st]()
	if s.Get(1) != nil {
		t.Fatal("пустое хранилище")
	}
	s.Set(1, &st{Step: 2})
	if got := s.Get(1); got == nil || got.Step != 2 {
		t.Fatalf("неожиданное состояние %+v", got)
	}
	s.Delete(1)
	if s.Get(1) != nil {
		t.Fatal("состояние должно быть удалено")
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Set(id, &st{Step: int(id)})
			_ = s.Get(id)
		}(int64(i))
	}
	wg.Wait()
}

func TestPending(t *testing.T) {
	if !SetPending(10, "export") {
		t.Fatal("первый SetPending должен пройти")
	}
	if SetPending(10, "peer_review") {
		t.Fatal("второй SetPending должен быть отклонён")
	}
	ClearPending(10, "peer_review")
	if SetPending(10, "x") {
		t.Fatal("чужой ключ не снимает флаг")
	}
	ClearPending(10, "export")
	if !SetPending(10, "x") {
		t.Fatal("после снятия флага SetPending проходит")
	}
	ClearPending(10, "x")
}

func TestIsCancelText(t *testing.T) {
	for _, s := range []string{"Отмена", " /cancel ", "CANCEL"} {
		if !IsCancelText(s) {
			t.Fatalf("%q — отмена", s)
		}
	}
	if IsCancelText("отменить урок") {
		t.Fatal("не отмена")
	}
}
