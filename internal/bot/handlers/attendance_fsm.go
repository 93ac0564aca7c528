package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/teacher-lms-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/teacher-lms-bot/internal/db"
	"github.com/Spok95/teacher-lms-bot/internal/logging"
	"github.com/Spok95/teacher-lms-bot/internal/metrics"
	"github.com/Spok95/teacher-lms-bot/internal/models"
	"github.com/Spok95/teacher-lms-bot/internal/records"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

type AttendanceFSMState struct {
	Step      int
	MessageID int
	CourseID  uuid.UUID
	Date      string
	Students  []models.Student
	Marks     []models.AttendanceStatus // по индексу ученика
}

const (
	attStepDate = iota + 1
	attStepMarks

	attCoursePref = "att_course_"
	attDatePref   = "att_date_"
	attTogglePref = "att_t_"
	attAllPresent = "att_all"
	attSave       = "att_save"
)

var attendanceStates = fsmutil.NewStore[AttendanceFSMState]()

func GetAttendanceState(chatID int64) *AttendanceFSMState { return attendanceStates.Get(chatID) }

func StartAttendanceFSM(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	attendanceStates.Set(chatID, &AttendanceFSMState{})
	if !chooseCourse(ctx, d, chatID, attCoursePref, "✅ Посещаемость. Выберите курс:") {
		attendanceStates.Delete(chatID)
	}
}

func HandleAttendanceCallback(ctx context.Context, d *Deps, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	st := attendanceStates.Get(chatID)
	if st == nil {
		expired(d, cq)
		return
	}
	data := cq.Data

	switch {
	case strings.HasPrefix(data, attCoursePref):
		tg.Answer(d.Bot, cq, "")
		id, ok := idFrom(data, attCoursePref)
		if !ok {
			return
		}
		if _, ok := ownedCourse(ctx, d, chatID, id); !ok {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.CourseID = id
		st.Step = attStepDate
		mk := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Сегодня", attDatePref+"сегодня"),
				tgbotapi.NewInlineKeyboardButtonData("Вчера", attDatePref+"вчера"),
			),
			cancelRow(),
		)
		tg.WithMarkup(d.Bot, chatID, "📅 Дата занятия (кнопка или дд.мм.гггг):", mk)

	case strings.HasPrefix(data, attDatePref):
		tg.Answer(d.Bot, cq, "")
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		setAttendanceDate(ctx, d, chatID, st, strings.TrimPrefix(data, attDatePref))

	case strings.HasPrefix(data, attTogglePref):
		i, err := strconv.Atoi(strings.TrimPrefix(data, attTogglePref))
		if err != nil || i < 0 || i >= len(st.Marks) {
			tg.Answer(d.Bot, cq, "")
			return
		}
		st.Marks[i] = st.Marks[i].Next()
		tg.Answer(d.Bot, cq, st.Students[i].Name+": "+st.Marks[i].Label())
		editMarkup(d, chatID, cq.Message.MessageID, attendanceMarkup(st))

	case data == attAllPresent:
		tg.Answer(d.Bot, cq, "Все присутствуют")
		for i := range st.Marks {
			st.Marks[i] = models.Present
		}
		editMarkup(d, chatID, cq.Message.MessageID, attendanceMarkup(st))

	case data == attSave:
		tg.Answer(d.Bot, cq, "")
		saveAttendance(ctx, d, chatID, cq.Message.MessageID, st)
	}
}

func HandleAttendanceText(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	st := attendanceStates.Get(chatID)
	if st == nil || st.Step != attStepDate {
		return
	}
	setAttendanceDate(ctx, d, chatID, st, msg.Text)
}

// setAttendanceDate загружает учеников и уже сохранённые отметки на дату; по умолчанию все присутствуют.
func setAttendanceDate(ctx context.Context, d *Deps, chatID int64, st *AttendanceFSMState, input string) {
	date, err := records.NormalizeDate(input, d.now())
	if err != nil {
		tg.Text(d.Bot, chatID, "⚠️ Не понял дату. Пример: 15.09.2025")
		return
	}
	students, err := db.ListStudents(ctx, d.DB, st.CourseID, false)
	if err != nil {
		fail(ctx, d, chatID, "загрузить учеников", err)
		return
	}
	if len(students) == 0 {
		tg.Text(d.Bot, chatID, "👥 В курсе нет учеников. Добавьте их: /courses")
		attendanceStates.Delete(chatID)
		return
	}
	saved, err := db.ListAttendance(ctx, d.DB, st.CourseID, date, date)
	if err != nil {
		fail(ctx, d, chatID, "загрузить отметки", err)
		return
	}
	st.Date = date
	st.Students = students
	st.Marks = initialMarks(students, saved)
	st.Step = attStepMarks

	out := tgbotapi.NewMessage(chatID, fmt.Sprintf("🗓 %s. Нажимайте на ученика, чтобы сменить статус:", humanDate(date)))
	out.ReplyMarkup = attendanceMarkup(st)
	sent, _ := tg.Send(d.Bot, out)
	st.MessageID = sent.MessageID
}

func initialMarks(students []models.Student, saved []models.AttendanceRecord) []models.AttendanceStatus {
	prev := make(map[uuid.UUID]models.AttendanceStatus, len(saved))
	for _, r := range saved {
		prev[r.StudentID] = r.Status
	}
	marks := make([]models.AttendanceStatus, len(students))
	for i, s := range students {
		if m, ok := prev[s.ID]; ok {
			marks[i] = m
		} else {
			marks[i] = models.Present
		}
	}
	return marks
}

// attendanceMarkup: по ученику в ряд; индекс в callback, чтобы уложиться в 64 байта.
func attendanceMarkup(st *AttendanceFSMState) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(st.Students)+2)
	for i, s := range st.Students {
		label := s.Name + " — " + st.Marks[i].Label()
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, attTogglePref+strconv.Itoa(i))))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Все присутствуют", attAllPresent),
			tgbotapi.NewInlineKeyboardButtonData("💾 Сохранить", attSave),
		),
		cancelRow(),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func saveAttendance(ctx context.Context, d *Deps, chatID int64, messageID int, st *AttendanceFSMState) {
	now := d.now()
	recs := make([]models.AttendanceRecord, 0, len(st.Students))
	for i, s := range st.Students {
		r, err := records.NewAttendanceRecord(records.AttendanceInput{
			CourseID:  st.CourseID,
			StudentID: s.ID,
			Date:      st.Date,
			Status:    string(st.Marks[i]),
		}, now)
		if err != nil {
			fail(ctx, d, chatID, "сохранить посещаемость", err)
			return
		}
		recs = append(recs, r)
	}
	if err := db.ReplaceAttendance(ctx, d.DB, st.CourseID, st.Date, recs); err != nil {
		fail(ctx, d, chatID, "сохранить посещаемость", err)
		return
	}
	for _, r := range recs {
		metrics.AttendanceRecords.WithLabelValues(string(r.Status)).Inc()
	}
	fsmutil.DisableMarkup(d.Bot, chatID, messageID)
	attendanceStates.Delete(chatID)
	logging.From(ctx).Info("attendance saved",
		zap.String("course_id", st.CourseID.String()), zap.String("date", st.Date), zap.Int("records", len(recs)))
	tg.Text(d.Bot, chatID, "✅ Посещаемость сохранена.\n"+attendanceSummary(st.Marks))
}

// attendanceSummary: количество по каждому статусу в порядке клавиатуры.
func attendanceSummary(marks []models.AttendanceStatus) string {
	counts := map[models.AttendanceStatus]int{}
	for _, m := range marks {
		counts[m]++
	}
	var b strings.Builder
	for _, s := range models.AttendanceStatuses {
		if counts[s] == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: %d\n", s.Label(), counts[s])
	}
	return strings.TrimRight(b.String(), "\n")
}
