package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Spok95/teacher-lms-bot/internal/config"
)

func TestS3Storage_Share(t *testing.T) {
	var (
		mu      sync.Mutex
		gotPath string
		gotBody string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "unexpected", http.StatusMethodNotAllowed)
			return
		}
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath, gotBody = r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st, err := NewS3Storage(config.S3Config{
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		Bucket:    "exports",
		AccessKey: "key",
		SecretKey: "secret",
		LinkTTL:   time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "grades.csv")
	if err := os.WriteFile(path, []byte("a,b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	url, err := st.Share(context.Background(), "course/grades.csv", path)
	if err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/exports/course/grades.csv" || gotBody != "a,b\n" {
		t.Fatalf("неожиданная загрузка %q %q", gotPath, gotBody)
	}
	if !strings.Contains(url, "/exports/course/grades.csv") || !strings.Contains(url, "X-Amz-Signature") {
		t.Fatalf("ожидали presigned-ссылку, получили %q", url)
	}
}

func TestNop(t *testing.T) {
	url, err := Nop{}.Share(context.Background(), "k", "/nonexistent")
	if err != nil || url != "" {
		t.Fatalf("Nop не должен ничего делать, получили %q %v", url, err)
	}
}
