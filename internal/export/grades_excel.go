package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/teacher-lms-bot/internal/gradebook"
	"github.com/Spok95/teacher-lms-bot/internal/models"
)

const (
	GradesSheet  = "Оценки"
	SummarySheet = "Сводка"
)

// GradesWorkbook: лист с теми же колонками, что и CSV, плюс лист сводки по ученикам и категориям.
func GradesWorkbook(items []models.GradedItem) (*excelize.File, error) {
	if len(items) == 0 {
		return nil, ErrNoData
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", GradesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for c, h := range GradesHeader {
		_ = f.SetCellStr(GradesSheet, cell(c+1, 1), h)
	}
	for r, it := range items {
		row := GradeRow(it)
		_ = f.SetCellStr(GradesSheet, cell(1, r+2), row[0])
		_ = f.SetCellStr(GradesSheet, cell(2, r+2), row[1])
		if it.GradeValue != nil {
			_ = f.SetCellFloat(GradesSheet, cell(3, r+2), *it.GradeValue, -1, 64)
		}
		_ = f.SetCellStr(GradesSheet, cell(4, r+2), row[3])
	}
	if err := ApplyDefaultExcelFormatting(f, GradesSheet); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	_ = f.SetCellStr(SummarySheet, "A1", "Ученик")
	_ = f.SetCellStr(SummarySheet, "B1", "Средний %")
	_ = f.SetCellStr(SummarySheet, "C1", "Оценено работ")
	r := 2
	for _, sa := range gradebook.StudentAverages(items) {
		_ = f.SetCellStr(SummarySheet, cell(1, r), sa.StudentName)
		_ = f.SetCellFloat(SummarySheet, cell(2, r), sa.Average, 1, 64)
		_ = f.SetCellValue(SummarySheet, cell(3, r), sa.Graded)
		r++
	}

	// под таблицей учеников: доля сдачи по категориям
	r++
	_ = f.SetCellStr(SummarySheet, cell(1, r), "Категория")
	_ = f.SetCellStr(SummarySheet, cell(2, r), "Сдано, %")
	_ = f.SetCellStr(SummarySheet, cell(3, r), "Работ")
	for _, g := range gradebook.GroupByCategory(items) {
		r++
		_ = f.SetCellStr(SummarySheet, cell(1, r), g.Category)
		_ = f.SetCellFloat(SummarySheet, cell(2, r), gradebook.CompletionRatio(g.Items)*100, 1, 64)
		_ = f.SetCellValue(SummarySheet, cell(3, r), len(g.Items))
	}
	if err := ApplyDefaultExcelFormatting(f, SummarySheet); err != nil {
		return nil, err
	}
	return f, nil
}

func SaveGradesXLSX(dir, name string, items []models.GradedItem) (string, error) {
	f, err := GradesWorkbook(items)
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
