package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/teacher-lms-bot/internal/bot/menu"
	"github.com/Spok95/teacher-lms-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/teacher-lms-bot/internal/db"
	"github.com/Spok95/teacher-lms-bot/internal/logging"
	"github.com/Spok95/teacher-lms-bot/internal/models"
	"github.com/Spok95/teacher-lms-bot/internal/records"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

type CourseFSMState struct {
	Step     int
	CourseID uuid.UUID
}

const (
	courseStepName = iota + 1
	courseStepStudents

	courseNew      = "course_new"
	courseOpenPref = "course_open_"
	courseAddPref  = "course_add_"
	courseListPref = "course_list_"
)

var courseStates = fsmutil.NewStore[CourseFSMState]()

func GetCourseState(chatID int64) *CourseFSMState { return courseStates.Get(chatID) }

// StartCoursesFSM: список курсов преподавателя и кнопка создания.
func StartCoursesFSM(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	courseStates.Set(chatID, &CourseFSMState{})

	courses, err := db.ListCoursesByTeacher(ctx, d.DB, chatID)
	if err != nil {
		fail(ctx, d, chatID, "загрузить курсы", err)
		return
	}
	text := "📚 Ваши курсы:"
	if len(courses) == 0 {
		text = "📚 Курсов пока нет."
	}
	buttons := make([]menu.Button, 0, len(courses))
	for _, c := range courses {
		buttons = append(buttons, menu.Button{Text: c.Name, Data: courseOpenPref + c.ID.String()})
	}
	newRow := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Новый курс", courseNew))
	tg.WithMarkup(d.Bot, chatID, text, menu.ChipsMarkup(buttons, newRow, cancelRow()))
}

func HandleCourseCallback(ctx context.Context, d *Deps, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	st := courseStates.Get(chatID)
	if st == nil {
		expired(d, cq)
		return
	}
	tg.Answer(d.Bot, cq, "")
	data := cq.Data

	switch {
	case data == courseNew:
		st.Step = courseStepName
		tg.Text(d.Bot, chatID, "✏️ Введите название курса (например «Алгебра 7А»):")
	case strings.HasPrefix(data, courseOpenPref):
		id, ok := idFrom(data, courseOpenPref)
		if !ok {
			return
		}
		c, ok := ownedCourse(ctx, d, chatID, id)
		if !ok {
			return
		}
		st.CourseID = c.ID
		showCourseCard(ctx, d, chatID, c)
	case strings.HasPrefix(data, courseAddPref):
		id, ok := idFrom(data, courseAddPref)
		if !ok {
			return
		}
		if _, ok := ownedCourse(ctx, d, chatID, id); !ok {
			return
		}
		st.CourseID = id
		st.Step = courseStepStudents
		tg.Text(d.Bot, chatID, "👥 Отправьте список учеников: по одному ФИО на строке.")
	case strings.HasPrefix(data, courseListPref):
		id, ok := idFrom(data, courseListPref)
		if !ok {
			return
		}
		if _, ok := ownedCourse(ctx, d, chatID, id); !ok {
			return
		}
		students, err := db.ListStudents(ctx, d.DB, id, false)
		if err != nil {
			fail(ctx, d, chatID, "загрузить учеников", err)
			return
		}
		tg.Text(d.Bot, chatID, studentList(students))
	}
}

func showCourseCard(ctx context.Context, d *Deps, chatID int64, c *models.Course) {
	students, err := db.ListStudents(ctx, d.DB, c.ID, false)
	if err != nil {
		fail(ctx, d, chatID, "загрузить учеников", err)
		return
	}
	text := fmt.Sprintf("📘 %s\nУчеников: %d", c.Name, len(students))
	mk := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Добавить учеников", courseAddPref+c.ID.String()),
			tgbotapi.NewInlineKeyboardButtonData("📋 Список", courseListPref+c.ID.String()),
		),
		cancelRow(),
	)
	tg.WithMarkup(d.Bot, chatID, text, mk)
}

func HandleCourseText(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	st := courseStates.Get(chatID)
	if st == nil {
		return
	}
	switch st.Step {
	case courseStepName:
		c, err := records.NewCourse(records.CourseInput{Name: msg.Text, TeacherID: chatID}, d.now())
		if err != nil {
			tg.Text(d.Bot, chatID, "⚠️ Название не должно быть пустым и длиннее 120 символов.")
			return
		}
		if err := db.CreateCourse(ctx, d.DB, c); err != nil {
			fail(ctx, d, chatID, "создать курс", err)
			return
		}
		logging.From(ctx).Info("course created", zap.String("course_id", c.ID.String()))
		st.Step = 0
		st.CourseID = c.ID
		mk := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Добавить учеников", courseAddPref+c.ID.String()),
		))
		tg.WithMarkup(d.Bot, chatID, "✅ Курс «"+c.Name+"» создан.", mk)
	case courseStepStudents:
		students, skipped := parseStudentLines(st.CourseID, msg.Text)
		if len(students) == 0 {
			tg.Text(d.Bot, chatID, "⚠️ Не нашёл ни одного имени. Отправьте ФИО по одному на строке.")
			return
		}
		if err := db.AddStudents(ctx, d.DB, students); err != nil {
			fail(ctx, d, chatID, "добавить учеников", err)
			return
		}
		courseStates.Delete(chatID)
		text := fmt.Sprintf("✅ Добавлено учеников: %d", len(students))
		if skipped > 0 {
			text += fmt.Sprintf("\n⚠️ Пропущено строк: %d", skipped)
		}
		tg.Text(d.Bot, chatID, text)
	}
}

// parseStudentLines: по ученику на строку; пустые строки игнорируются, невалидные считаются.
func parseStudentLines(courseID uuid.UUID, text string) ([]models.Student, int) {
	var out []models.Student
	skipped := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		s, err := records.NewStudent(records.StudentInput{CourseID: courseID, Name: line})
		if err != nil {
			skipped++
			continue
		}
		out = append(out, s)
	}
	return out, skipped
}

func studentList(students []models.Student) string {
	if len(students) == 0 {
		return "👥 В курсе пока нет учеников."
	}
	var b strings.Builder
	b.WriteString("👥 Ученики:\n")
	for i, s := range students {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Name)
	}
	return b.String()
}
