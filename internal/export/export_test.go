package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/teacher-lms-bot/internal/gradebook"
	"github.com/Spok95/teacher-lms-bot/internal/models"
)

func ptr(v float64) *float64 { return &v }

func items(course uuid.UUID) []models.GradedItem {
	return []models.GradedItem{
		{CourseID: course, StudentID: uuid.New(), StudentName: "Иванов, Иван", Title: `Эссе "Осень"`, GradeValue: ptr(90), Submitted: true, Category: "Домашние"},
		{CourseID: course, StudentID: uuid.New(), StudentName: "Петров Пётр", Title: "Контрольная\n№1", GradeValue: ptr(72.5), Submitted: true, Category: "Контрольные"},
		{CourseID: course, StudentID: uuid.New(), StudentName: "Сидорова Анна", Title: "Эссе", Submitted: false, Category: "Домашние"},
		{CourseID: uuid.New(), StudentID: uuid.New(), StudentName: "Чужой", Title: "Другое", GradeValue: ptr(50)},
	}
}

func TestWriteGradesCSV_RoundTrip(t *testing.T) {
	course := uuid.New()
	filtered := gradebook.Filter(items(course), course, nil)

	var buf bytes.Buffer
	if err := WriteGradesCSV(&buf, filtered); err != nil {
		t.Fatal(err)
	}
	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs)-1 != len(filtered) {
		t.Fatalf("ожидали %d строк данных, получили %d", len(filtered), len(recs)-1)
	}
	if recs[1][0] != "Иванов, Иван" || recs[1][1] != `Эссе "Осень"` || recs[1][2] != "90" || recs[1][3] != "A" {
		t.Fatalf("неожиданная строка %q", recs[1])
	}
	if recs[2][1] != "Контрольная\n№1" || recs[2][2] != "72.5" || recs[2][3] != "C" {
		t.Fatalf("неожиданная строка %q", recs[2])
	}
	if recs[3][2] != "" || recs[3][3] != "" {
		t.Fatalf("неоценённая работа должна иметь пустые оценки, получили %q", recs[3])
	}
}

func TestWriteGradesCSV_NoData(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGradesCSV(&buf, nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("ожидали ErrNoData, получили %v", err)
	}
	if _, err := SaveGradesCSV(t.TempDir(), "x.csv", nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("ожидали ErrNoData, получили %v", err)
	}
}

func TestSaveGradesCSV(t *testing.T) {
	course := uuid.New()
	path, err := SaveGradesCSV(t.TempDir(), "grades.csv", gradebook.Filter(items(course), course, nil))
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := strings.TrimPrefix(string(data), "\ufeff")
	recs, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 || recs[0][0] != "Ученик" {
		t.Fatalf("неожиданный файл %q", recs)
	}
}

func TestSaveGradesXLSX(t *testing.T) {
	course := uuid.New()
	path, err := SaveGradesXLSX(t.TempDir(), "grades.xlsx", gradebook.Filter(items(course), course, nil))
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(GradesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("ожидали 4 строки на листе оценок, получили %d", len(rows))
	}
	if v, _ := f.GetCellValue(GradesSheet, "D2"); v != "A" {
		t.Fatalf("ожидали D2=A, получили %q", v)
	}
	if v, _ := f.GetCellValue(SummarySheet, "A2"); v != "Иванов, Иван" {
		t.Fatalf("ожидали лучшего ученика в A2, получили %q", v)
	}
}

func TestAttendanceWorkbook(t *testing.T) {
	petrov, andreeva := uuid.New(), uuid.New()
	recs := []models.AttendanceRecord{
		{Date: "2025-10-02", Status: models.Absent, StudentID: petrov, StudentName: "Петров"},
		{Date: "2025-10-01", Status: models.Present, StudentID: petrov, StudentName: "Петров"},
		{Date: "2025-10-01", Status: models.Tardy, StudentID: andreeva, StudentName: "Андреева"},
	}
	f, err := AttendanceWorkbook(recs)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	checks := map[string]string{
		"A2": "Андреева", "B1": "2025-10-01", "C1": "2025-10-02",
		"B2": "оп", "C2": "", "B3": "+", "C3": "н",
		"D3": "1", "E3": "1",
	}
	for c, want := range checks {
		if got, _ := f.GetCellValue(AttendanceSheet, c); got != want {
			t.Fatalf("%s: ожидали %q, получили %q", c, want, got)
		}
	}
	if _, err := AttendanceWorkbook(nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("ожидали ErrNoData, получили %v", err)
	}
}

func TestAttendanceWorkbook_SameNameStudents(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	recs := []models.AttendanceRecord{
		{Date: "2025-10-01", Status: models.Present, StudentID: first, StudentName: "Иванов Иван"},
		{Date: "2025-10-01", Status: models.Absent, StudentID: second, StudentName: "Иванов Иван"},
	}
	f, err := AttendanceWorkbook(recs)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(AttendanceSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("тёзки должны быть разными строками: ожидали 3 строки, получили %d", len(rows))
	}
	marks := []string{rows[1][1], rows[2][1]}
	if !(marks[0] == "+" && marks[1] == "н") && !(marks[0] == "н" && marks[1] == "+") {
		t.Fatalf("отметки тёзок перепутаны: %v", marks)
	}
}

func TestSaveGradesXLSX_SameNameStudents(t *testing.T) {
	course := uuid.New()
	list := []models.GradedItem{
		{CourseID: course, StudentID: uuid.New(), StudentName: "Иванов Иван", Title: "Эссе", GradeValue: ptr(100), Submitted: true},
		{CourseID: course, StudentID: uuid.New(), StudentName: "Иванов Иван", Title: "Эссе", GradeValue: ptr(0), Submitted: true},
	}
	path, err := SaveGradesXLSX(t.TempDir(), "grades.xlsx", list)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	b2, _ := f.GetCellValue(SummarySheet, "B2")
	b3, _ := f.GetCellValue(SummarySheet, "B3")
	hi, err1 := strconv.ParseFloat(b2, 64)
	lo, err2 := strconv.ParseFloat(b3, 64)
	if err1 != nil || err2 != nil || hi != 100 || lo != 0 {
		t.Fatalf("средние тёзок не должны смешиваться: B2=%q B3=%q", b2, b3)
	}
}

func TestFilenames(t *testing.T) {
	got := BuildGradesFilename(" 7А / Алгебра ", "01.09.2025–30.09.2025", "csv")
	if strings.ContainsAny(got, `/\:*?"<>|`) {
		t.Fatalf("недопустимые символы в %q", got)
	}
	if !strings.HasSuffix(got, ".csv") || !strings.HasPrefix(got, "Оценки — 7А _ Алгебра") {
		t.Fatalf("неожиданное имя %q", got)
	}
	if n := BuildAttendanceFilename("", time.Now().Format("02.01.2006")); !strings.Contains(n, "— — ") {
		t.Fatalf("пустое имя курса заменяется на тире, получили %q", n)
	}
}
