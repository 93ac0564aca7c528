package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Spok95/teacher-lms-bot/internal/models"
)

// ErrNoData: после фильтра выгружать нечего.
var ErrNoData = errors.New("no data to export")

var GradesHeader = []string{"Ученик", "Задание", "Оценка, %", "Буква"}

// GradeRow: строка выгрузки: ФИО, задание, процент и буквенная оценка (пусто, если не оценено).
func GradeRow(it models.GradedItem) []string {
	if it.GradeValue == nil {
		return []string{it.StudentName, it.Title, "", ""}
	}
	p := *it.GradeValue
	return []string{it.StudentName, it.Title, strconv.FormatFloat(p, 'f', -1, 64), models.LetterGrade(p)}
}

// WriteGradesCSV пишет заголовок и по строке на каждую работу.
func WriteGradesCSV(w io.Writer, items []models.GradedItem) error {
	if len(items) == 0 {
		return ErrNoData
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(GradesHeader); err != nil {
		return err
	}
	for _, it := range items {
		if err := cw.Write(GradeRow(it)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveGradesCSV сохраняет выгрузку в dir и возвращает путь к файлу.
func SaveGradesCSV(dir, name string, items []models.GradedItem) (string, error) {
	if len(items) == 0 {
		return "", ErrNoData
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	// BOM, чтобы Excel открыл кириллицу в UTF-8
	if _, err := f.WriteString("\ufeff"); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := WriteGradesCSV(f, items); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
