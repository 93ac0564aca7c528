// Package records собирает неизменяемые записи из ввода пользователя:
// проверяет поля, выдаёт UUID и нормализует даты.
package records

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/models"
)

// ErrValidation: действие заблокировано из-за некорректного ввода.
var ErrValidation = errors.New("validation failed")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func v() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

func check(in any) error {
	if err := v().Struct(in); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fe.Field()+":"+fe.Tag())
			}
			return fmt.Errorf("%s: %w", strings.Join(fields, ", "), ErrValidation)
		}
		return fmt.Errorf("%v: %w", err, ErrValidation)
	}
	return nil
}

type CourseInput struct {
	Name      string `validate:"required,max=120"`
	TeacherID int64  `validate:"required"`
}

func NewCourse(in CourseInput, now time.Time) (models.Course, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := check(in); err != nil {
		return models.Course{}, err
	}
	return models.Course{ID: uuid.New(), Name: in.Name, TeacherID: in.TeacherID, CreatedAt: now}, nil
}

type StudentInput struct {
	CourseID uuid.UUID `validate:"required"`
	Name     string    `validate:"required,max=200"`
}

func NewStudent(in StudentInput) (models.Student, error) {
	in.Name = strings.Join(strings.Fields(in.Name), " ")
	if err := check(in); err != nil {
		return models.Student{}, err
	}
	return models.Student{ID: uuid.New(), CourseID: in.CourseID, Name: in.Name, IsActive: true}, nil
}

type ModuleInput struct {
	CourseID uuid.UUID `validate:"required"`
	Title    string    `validate:"required,max=200"`
	Position int       `validate:"gte=0"`
}

func NewModule(in ModuleInput) (models.CourseModule, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := check(in); err != nil {
		return models.CourseModule{}, err
	}
	return models.CourseModule{ID: uuid.New(), CourseID: in.CourseID, Title: in.Title, Position: in.Position}, nil
}

type LessonInput struct {
	CourseID    uuid.UUID `validate:"required"`
	ModuleID    *uuid.UUID
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=4000"`
	Date        string `validate:"required"`
	StandardIDs []uuid.UUID
}

func NewLesson(in LessonInput, now time.Time) (models.Lesson, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := check(in); err != nil {
		return models.Lesson{}, err
	}
	date, err := NormalizeDate(in.Date, now)
	if err != nil {
		return models.Lesson{}, err
	}
	return models.Lesson{
		ID:          uuid.New(),
		CourseID:    in.CourseID,
		ModuleID:    in.ModuleID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Date:        date,
		StandardIDs: append([]uuid.UUID(nil), in.StandardIDs...),
		CreatedAt:   now,
	}, nil
}

type AssignmentInput struct {
	CourseID    uuid.UUID `validate:"required"`
	ModuleID    *uuid.UUID
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=4000"`
	Category    string `validate:"max=60"`
	DueDate     string `validate:"required"`
	MaxPoints   int    `validate:"gte=1,lte=1000"`
}

func NewAssignment(in AssignmentInput, now time.Time) (models.Assignment, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if err := check(in); err != nil {
		return models.Assignment{}, err
	}
	due, err := NormalizeDate(in.DueDate, now)
	if err != nil {
		return models.Assignment{}, err
	}
	return models.Assignment{
		ID:          uuid.New(),
		CourseID:    in.CourseID,
		ModuleID:    in.ModuleID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		DueDate:     due,
		MaxPoints:   in.MaxPoints,
		CreatedAt:   now,
	}, nil
}

// NewGradedItems: по одной несданной работе на каждого ученика курса.
func NewGradedItems(a models.Assignment, students []models.Student) ([]models.GradedItem, error) {
	due, err := time.Parse(DateLayout, a.DueDate)
	if err != nil {
		return nil, fmt.Errorf("assignment due date %q: %w", a.DueDate, ErrValidation)
	}
	out := make([]models.GradedItem, 0, len(students))
	for _, s := range students {
		if !s.IsActive {
			continue
		}
		out = append(out, models.GradedItem{
			ID:           uuid.New(),
			AssignmentID: a.ID,
			CourseID:     a.CourseID,
			Title:        a.Title,
			Category:     a.Category,
			DueDate:      due,
			StudentID:    s.ID,
			StudentName:  s.Name,
		})
	}
	return out, nil
}

type AttendanceInput struct {
	CourseID  uuid.UUID `validate:"required"`
	StudentID uuid.UUID `validate:"required"`
	Date      string    `validate:"required"`
	Status    string    `validate:"required,oneof=present absent tardy excused"`
}

func NewAttendanceRecord(in AttendanceInput, now time.Time) (models.AttendanceRecord, error) {
	if err := check(in); err != nil {
		return models.AttendanceRecord{}, err
	}
	date, err := NormalizeDate(in.Date, now)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	return models.AttendanceRecord{
		ID:        uuid.New(),
		Date:      date,
		Status:    models.AttendanceStatus(in.Status),
		CourseID:  in.CourseID,
		StudentID: in.StudentID,
	}, nil
}

type GradeInput struct {
	Percent float64 `validate:"gte=0,lte=100"`
}

// ParseGrade принимает "85", "85.5", "85,5" или "85%".
func ParseGrade(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.ReplaceAll(s, ",", ".")
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad grade %q: %w", s, ErrValidation)
	}
	if err := check(GradeInput{Percent: p}); err != nil {
		return 0, err
	}
	return p, nil
}
