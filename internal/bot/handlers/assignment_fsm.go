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
	"github.com/Spok95/teacher-lms-bot/internal/models"
	"github.com/Spok95/teacher-lms-bot/internal/records"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

type AssignmentFSMState struct {
	Step         int
	CourseID     uuid.UUID
	AssignmentID uuid.UUID
	Field        db.AssignmentField
	Draft        records.AssignmentInput
}

const (
	asgStepTitle = iota + 1
	asgStepDue
	asgStepPoints
	asgStepCategory
	asgStepEdit

	asgCoursePref = "asg_course_"
	asgOpenPref   = "asg_open_"
	asgNew        = "asg_new"
	asgEditPref   = "asg_edit_"
	asgDelete     = "asg_del"
	asgDeleteYes  = "asg_del_yes"
	asgBack       = "asg_back"
)

var assignmentStates = fsmutil.NewStore[AssignmentFSMState]()

func GetAssignmentState(chatID int64) *AssignmentFSMState { return assignmentStates.Get(chatID) }

func StartAssignmentsFSM(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	assignmentStates.Set(chatID, &AssignmentFSMState{})
	if !chooseCourse(ctx, d, chatID, asgCoursePref, "🧾 Задания. Выберите курс:") {
		assignmentStates.Delete(chatID)
	}
}

func HandleAssignmentCallback(ctx context.Context, d *Deps, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	st := assignmentStates.Get(chatID)
	if st == nil {
		expired(d, cq)
		return
	}
	tg.Answer(d.Bot, cq, "")
	data := cq.Data

	switch {
	case strings.HasPrefix(data, asgCoursePref):
		id, ok := idFrom(data, asgCoursePref)
		if !ok {
			return
		}
		if _, ok := ownedCourse(ctx, d, chatID, id); !ok {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.CourseID = id
		showAssignmentList(ctx, d, chatID, st)

	case data == asgBack:
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		showAssignmentList(ctx, d, chatID, st)

	case data == asgNew:
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.Draft = records.AssignmentInput{CourseID: st.CourseID, MaxPoints: 100}
		st.Step = asgStepTitle
		tg.Text(d.Bot, chatID, "✏️ Название задания:")

	case strings.HasPrefix(data, asgOpenPref):
		id, ok := idFrom(data, asgOpenPref)
		if !ok {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.AssignmentID = id
		showAssignmentCard(ctx, d, chatID, st)

	case strings.HasPrefix(data, asgEditPref):
		field := db.AssignmentField(strings.TrimPrefix(data, asgEditPref))
		prompt, ok := editPrompts[field]
		if !ok {
			return
		}
		st.Field = field
		st.Step = asgStepEdit
		tg.Text(d.Bot, chatID, prompt)

	case data == asgDelete:
		mk := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Да, удалить", asgDeleteYes),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", asgBack),
		))
		tg.WithMarkup(d.Bot, chatID, "Удалить задание вместе со всеми оценками?", mk)

	case data == asgDeleteYes:
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		if err := db.DeleteAssignment(ctx, d.DB, st.AssignmentID); err != nil {
			fail(ctx, d, chatID, "удалить задание", err)
			return
		}
		tg.Text(d.Bot, chatID, "🗑 Задание удалено.")
		showAssignmentList(ctx, d, chatID, st)
	}
}

var editPrompts = map[db.AssignmentField]string{
	db.FieldTitle:       "✏️ Новое название:",
	db.FieldDescription: "✏️ Новое описание:",
	db.FieldDueDate:     "📅 Новый срок сдачи (дд.мм.гггг):",
	db.FieldMaxPoints:   "🔢 Максимум баллов (1–1000):",
	db.FieldCategory:    "🏷 Категория (например «Контрольная»), «-» — без категории:",
}

func showAssignmentList(ctx context.Context, d *Deps, chatID int64, st *AssignmentFSMState) {
	st.Step = 0
	newRow := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Новое задание", asgNew))
	chooseAssignment(ctx, d, chatID, st.CourseID, asgOpenPref, "🧾 Задания курса:", newRow)
}

func showAssignmentCard(ctx context.Context, d *Deps, chatID int64, st *AssignmentFSMState) {
	a, err := db.GetAssignment(ctx, d.DB, st.AssignmentID)
	if err != nil {
		fail(ctx, d, chatID, "загрузить задание", err)
		return
	}
	if a.CourseID != st.CourseID {
		return
	}
	items, err := db.ListGradedItemsByAssignment(ctx, d.DB, a.ID)
	if err != nil {
		fail(ctx, d, chatID, "загрузить работы", err)
		return
	}
	mk := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Название", asgEditPref+string(db.FieldTitle)),
			tgbotapi.NewInlineKeyboardButtonData("📅 Срок", asgEditPref+string(db.FieldDueDate)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔢 Баллы", asgEditPref+string(db.FieldMaxPoints)),
			tgbotapi.NewInlineKeyboardButtonData("🏷 Категория", asgEditPref+string(db.FieldCategory)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 Описание", asgEditPref+string(db.FieldDescription)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", asgDelete),
		),
		fsmutil.BackCancelRow(asgBack, CancelData),
	)
	tg.WithMarkup(d.Bot, chatID, assignmentCard(a, items), mk)
}

func assignmentCard(a *models.Assignment, items []models.GradedItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 %s\n📅 Срок: %s\n🔢 Макс. баллов: %d\n", a.Title, humanDate(a.DueDate), a.MaxPoints)
	if a.Category != "" {
		fmt.Fprintf(&b, "🏷 %s\n", a.Category)
	}
	if a.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", a.Description)
	}
	submitted := 0
	for _, it := range items {
		if it.Submitted {
			submitted++
		}
	}
	fmt.Fprintf(&b, "\nСдано: %d из %d", submitted, len(items))
	return b.String()
}

func HandleAssignmentText(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	st := assignmentStates.Get(chatID)
	if st == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)

	switch st.Step {
	case asgStepTitle:
		if text == "" {
			tg.Text(d.Bot, chatID, "⚠️ Название не может быть пустым.")
			return
		}
		st.Draft.Title = text
		st.Step = asgStepDue
		tg.Text(d.Bot, chatID, "📅 Срок сдачи (дд.мм.гггг, дд.мм или «завтра»):")
	case asgStepDue:
		due, err := records.NormalizeDate(text, d.now())
		if err != nil {
			tg.Text(d.Bot, chatID, "⚠️ Не понял дату. Пример: 01.10.2025")
			return
		}
		st.Draft.DueDate = due
		st.Step = asgStepPoints
		tg.Text(d.Bot, chatID, "🔢 Максимум баллов (по умолчанию 100, «-» — оставить):")
	case asgStepPoints:
		if text != "-" {
			n, err := parsePoints(text)
			if err != nil {
				tg.Text(d.Bot, chatID, "⚠️ Нужно целое число от 1 до 1000.")
				return
			}
			st.Draft.MaxPoints = n
		}
		st.Step = asgStepCategory
		tg.Text(d.Bot, chatID, editPrompts[db.FieldCategory])
	case asgStepCategory:
		if text != "-" {
			st.Draft.Category = text
		}
		createAssignment(ctx, d, chatID, st)
	case asgStepEdit:
		value, err := editValue(st.Field, text, d)
		if err != nil {
			tg.Text(d.Bot, chatID, "⚠️ Некорректное значение, попробуйте ещё раз.")
			return
		}
		if err := db.UpdateAssignment(ctx, d.DB, st.AssignmentID, st.Field, value); err != nil {
			fail(ctx, d, chatID, "обновить задание", err)
			return
		}
		tg.Text(d.Bot, chatID, "✅ Сохранено.")
		st.Step = 0
		showAssignmentCard(ctx, d, chatID, st)
	}
}

func createAssignment(ctx context.Context, d *Deps, chatID int64, st *AssignmentFSMState) {
	a, err := records.NewAssignment(st.Draft, d.now())
	if err != nil {
		fail(ctx, d, chatID, "создать задание", err)
		return
	}
	students, err := db.ListStudents(ctx, d.DB, st.CourseID, false)
	if err != nil {
		fail(ctx, d, chatID, "загрузить учеников", err)
		return
	}
	items, err := records.NewGradedItems(a, students)
	if err != nil {
		fail(ctx, d, chatID, "создать задание", err)
		return
	}
	if err := db.CreateAssignment(ctx, d.DB, a, items); err != nil {
		fail(ctx, d, chatID, "сохранить задание", err)
		return
	}
	logging.From(ctx).Info("assignment created",
		zap.String("assignment_id", a.ID.String()), zap.Int("items", len(items)))
	tg.Text(d.Bot, chatID, fmt.Sprintf("✅ Задание «%s» создано, работ к сдаче: %d", a.Title, len(items)))
	st.AssignmentID = a.ID
	showAssignmentList(ctx, d, chatID, st)
}

func parsePoints(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 1000 {
		return 0, fmt.Errorf("bad max points %q: %w", s, records.ErrValidation)
	}
	return n, nil
}

// editValue приводит введённый текст к значению колонки.
func editValue(field db.AssignmentField, text string, d *Deps) (any, error) {
	switch field {
	case db.FieldTitle:
		if text == "" || len([]rune(text)) > 200 {
			return nil, records.ErrValidation
		}
		return text, nil
	case db.FieldDescription:
		return text, nil
	case db.FieldCategory:
		if text == "-" {
			return "", nil
		}
		return text, nil
	case db.FieldDueDate:
		return records.NormalizeDate(text, d.now())
	case db.FieldMaxPoints:
		return parsePoints(text)
	}
	return nil, records.ErrValidation
}
