package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/teacher-lms-bot/internal/models"
)

const AttendanceSheet = "Посещаемость"

var attendanceMark = map[models.AttendanceStatus]string{
	models.Present: "+",
	models.Absent:  "н",
	models.Tardy:   "оп",
	models.Excused: "ув",
}

// AttendanceWorkbook: матрица ученики × даты, в конце итоги по статусам.
func AttendanceWorkbook(records []models.AttendanceRecord) (*excelize.File, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	type studentRow struct {
		id    uuid.UUID
		name  string
		marks map[string]models.AttendanceStatus
	}
	dateSet := map[string]struct{}{}
	byStudent := map[uuid.UUID]*studentRow{}
	for _, r := range records {
		dateSet[r.Date] = struct{}{}
		s, ok := byStudent[r.StudentID]
		if !ok {
			s = &studentRow{id: r.StudentID, name: r.StudentName, marks: map[string]models.AttendanceStatus{}}
			byStudent[r.StudentID] = s
		}
		s.marks[r.Date] = r.Status
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	students := make([]*studentRow, 0, len(byStudent))
	for _, s := range byStudent {
		students = append(students, s)
	}
	// тёзки остаются разными строками: порядок по имени, затем по ID
	sort.Slice(students, func(i, j int) bool {
		if students[i].name != students[j].name {
			return students[i].name < students[j].name
		}
		return students[i].id.String() < students[j].id.String()
	})

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", AttendanceSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	_ = f.SetCellStr(AttendanceSheet, "A1", "Ученик")
	for i, d := range dates {
		_ = f.SetCellStr(AttendanceSheet, cell(i+2, 1), d)
	}
	totalsCol := len(dates) + 2
	for i, st := range models.AttendanceStatuses {
		_ = f.SetCellStr(AttendanceSheet, cell(totalsCol+i, 1), st.Label())
	}

	for r, s := range students {
		row := r + 2
		_ = f.SetCellStr(AttendanceSheet, cell(1, row), s.name)
		counts := map[models.AttendanceStatus]int{}
		for i, d := range dates {
			st, ok := s.marks[d]
			if !ok {
				continue
			}
			counts[st]++
			_ = f.SetCellStr(AttendanceSheet, cell(i+2, row), attendanceMark[st])
		}
		for i, st := range models.AttendanceStatuses {
			_ = f.SetCellValue(AttendanceSheet, cell(totalsCol+i, row), counts[st])
		}
	}
	if err := ApplyDefaultExcelFormatting(f, AttendanceSheet); err != nil {
		return nil, err
	}
	return f, nil
}

func SaveAttendanceXLSX(dir, name string, records []models.AttendanceRecord) (string, error) {
	f, err := AttendanceWorkbook(records)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	return path, f.SaveAs(path)
}
