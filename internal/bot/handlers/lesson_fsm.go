package handlers

import (
	"context"
	"fmt"
	"slices"
	"strconv"
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

type LessonFSMState struct {
	Step      int
	MessageID int
	CourseID  uuid.UUID
	ModuleID  *uuid.UUID
	Modules   []uuid.UUID
	Title     string
	Date      string
	Subjects  []string
	Standards []models.LearningStandard
	Selected  map[uuid.UUID]bool
}

const (
	lessonStepModule = iota + 1
	lessonStepTitle
	lessonStepDate
	lessonStepStandards

	lessonCoursePref = "lesson_course_"
	lessonModulePref = "lesson_module_"
	lessonNoModule   = "lesson_module_none"
	lessonSubjPref   = "lesson_subj_"
	lessonStdPref    = "lesson_std_"
	lessonSave       = "lesson_save"
)

var lessonStates = fsmutil.NewStore[LessonFSMState]()

func GetLessonState(chatID int64) *LessonFSMState { return lessonStates.Get(chatID) }

// StartLessonFSM: курс → модуль → название → дата → стандарты → сохранение.
func StartLessonFSM(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	lessonStates.Set(chatID, &LessonFSMState{Selected: map[uuid.UUID]bool{}})
	if !chooseCourse(ctx, d, chatID, lessonCoursePref, "📝 Новый урок. Выберите курс:") {
		lessonStates.Delete(chatID)
	}
}

func HandleLessonCallback(ctx context.Context, d *Deps, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	st := lessonStates.Get(chatID)
	if st == nil {
		expired(d, cq)
		return
	}
	tg.Answer(d.Bot, cq, "")
	data := cq.Data

	switch {
	case strings.HasPrefix(data, lessonCoursePref):
		id, ok := idFrom(data, lessonCoursePref)
		if !ok {
			return
		}
		if _, ok := ownedCourse(ctx, d, chatID, id); !ok {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.CourseID = id
		askLessonModule(ctx, d, chatID, st)

	case data == lessonNoModule:
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.ModuleID = nil
		st.Step = lessonStepTitle
		tg.Text(d.Bot, chatID, "✏️ Введите тему урока:")

	case strings.HasPrefix(data, lessonModulePref):
		id, ok := idFrom(data, lessonModulePref)
		if !ok || !slices.Contains(st.Modules, id) {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.ModuleID = &id
		st.Step = lessonStepTitle
		tg.Text(d.Bot, chatID, "✏️ Введите тему урока:")

	case strings.HasPrefix(data, lessonSubjPref):
		i, err := strconv.Atoi(strings.TrimPrefix(data, lessonSubjPref))
		if err != nil || i < 0 || i >= len(st.Subjects) {
			return
		}
		std, err := db.ListStandards(ctx, d.DB, st.Subjects[i])
		if err != nil {
			fail(ctx, d, chatID, "загрузить стандарты", err)
			return
		}
		st.Standards = std
		editMarkup(d, chatID, cq.Message.MessageID, lessonStandardsMarkup(st))

	case strings.HasPrefix(data, lessonStdPref):
		id, ok := idFrom(data, lessonStdPref)
		if !ok {
			return
		}
		if st.Selected[id] {
			delete(st.Selected, id)
		} else {
			st.Selected[id] = true
		}
		editMarkup(d, chatID, cq.Message.MessageID, lessonStandardsMarkup(st))

	case data == lessonSave:
		saveLesson(ctx, d, chatID, cq.Message.MessageID, st)
	}
}

func askLessonModule(ctx context.Context, d *Deps, chatID int64, st *LessonFSMState) {
	mods, err := db.ListModules(ctx, d.DB, st.CourseID)
	if err != nil {
		fail(ctx, d, chatID, "загрузить модули", err)
		return
	}
	if len(mods) == 0 {
		st.Step = lessonStepTitle
		tg.Text(d.Bot, chatID, "✏️ Введите тему урока:")
		return
	}
	st.Step = lessonStepModule
	st.Modules = st.Modules[:0]
	buttons := make([]menu.Button, 0, len(mods))
	for _, m := range mods {
		st.Modules = append(st.Modules, m.ID)
		buttons = append(buttons, menu.Button{Text: m.Title, Data: lessonModulePref + m.ID.String()})
	}
	none := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Без модуля", lessonNoModule))
	tg.WithMarkup(d.Bot, chatID, "🗂 В какой модуль добавить урок?", menu.ChipsMarkup(buttons, none, cancelRow()))
}

func HandleLessonText(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	st := lessonStates.Get(chatID)
	if st == nil {
		return
	}
	switch st.Step {
	case lessonStepTitle:
		title := strings.TrimSpace(msg.Text)
		if title == "" {
			tg.Text(d.Bot, chatID, "⚠️ Тема не может быть пустой.")
			return
		}
		st.Title = title
		st.Step = lessonStepDate
		tg.Text(d.Bot, chatID, "📅 Дата урока (дд.мм.гггг, дд.мм или «сегодня»/«завтра»):")
	case lessonStepDate:
		date, err := records.NormalizeDate(msg.Text, d.now())
		if err != nil {
			tg.Text(d.Bot, chatID, "⚠️ Не понял дату. Пример: 15.09.2025")
			return
		}
		st.Date = date
		subjects, err := db.ListSubjects(ctx, d.DB)
		if err != nil {
			fail(ctx, d, chatID, "загрузить стандарты", err)
			return
		}
		st.Subjects = subjects
		st.Step = lessonStepStandards
		out := tgbotapi.NewMessage(chatID, "🎯 Отметьте стандарты (предмет → стандарты), затем «Сохранить»:")
		out.ReplyMarkup = lessonStandardsMarkup(st)
		sent, _ := tg.Send(d.Bot, out)
		st.MessageID = sent.MessageID
	}
}

// lessonStandardsMarkup: предметы, стандарты выбранного предмета с отметками, сохранение.
func lessonStandardsMarkup(st *LessonFSMState) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	subj := make([]menu.Button, 0, len(st.Subjects))
	for i, s := range st.Subjects {
		subj = append(subj, menu.Button{Text: "📚 " + s, Data: lessonSubjPref + strconv.Itoa(i)})
	}
	rows = append(rows, menu.Chips(subj, menu.DefaultRowWidth)...)

	std := make([]menu.Button, 0, len(st.Standards))
	for _, s := range st.Standards {
		label := s.Code
		if st.Selected[s.ID] {
			label = "✅ " + label
		}
		std = append(std, menu.Button{Text: label, Data: lessonStdPref + s.ID.String()})
	}
	rows = append(rows, menu.Chips(std, menu.DefaultRowWidth)...)
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("💾 Сохранить (%d)", len(st.Selected)), lessonSave)),
		cancelRow(),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func saveLesson(ctx context.Context, d *Deps, chatID int64, messageID int, st *LessonFSMState) {
	ids := make([]uuid.UUID, 0, len(st.Selected))
	for id := range st.Selected {
		ids = append(ids, id)
	}
	l, err := records.NewLesson(records.LessonInput{
		CourseID:    st.CourseID,
		ModuleID:    st.ModuleID,
		Title:       st.Title,
		Date:        st.Date,
		StandardIDs: ids,
	}, d.now())
	if err != nil {
		fail(ctx, d, chatID, "создать урок", err)
		return
	}
	if err := db.CreateLesson(ctx, d.DB, l); err != nil {
		fail(ctx, d, chatID, "сохранить урок", err)
		return
	}
	fsmutil.DisableMarkup(d.Bot, chatID, messageID)
	lessonStates.Delete(chatID)
	logging.From(ctx).Info("lesson created",
		zap.String("course_id", l.CourseID.String()), zap.Int("standards", len(ids)))
	tg.Text(d.Bot, chatID, fmt.Sprintf("✅ Урок «%s» на %s сохранён. Стандартов: %d", l.Title, humanDate(l.Date), len(ids)))
}

func editMarkup(d *Deps, chatID int64, messageID int, mk tgbotapi.InlineKeyboardMarkup) {
	_, _ = tg.Request(d.Bot, tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, mk))
}
