package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/Spok95/teacher-lms-bot/internal/bot/menu"
	"github.com/Spok95/teacher-lms-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/teacher-lms-bot/internal/db"
	"github.com/Spok95/teacher-lms-bot/internal/gradebook"
	"github.com/Spok95/teacher-lms-bot/internal/models"
	"github.com/Spok95/teacher-lms-bot/internal/records"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

type GradeFSMState struct {
	Step         int
	CourseID     uuid.UUID
	AssignmentID uuid.UUID
	ItemID       uuid.UUID
}

const (
	gradeStepValue = 1

	gradeCoursePref = "grade_course_"
	gradeAsgPref    = "grade_asg_"
	gradeItemPref   = "grade_item_"
	gradeDone       = "grade_done"
)

var gradeStates = fsmutil.NewStore[GradeFSMState]()

func GetGradeState(chatID int64) *GradeFSMState { return gradeStates.Get(chatID) }

func StartGradeFSM(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	gradeStates.Set(chatID, &GradeFSMState{})
	if !chooseCourse(ctx, d, chatID, gradeCoursePref, "✍️ Оценки. Выберите курс:") {
		gradeStates.Delete(chatID)
	}
}

func HandleGradeCallback(ctx context.Context, d *Deps, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	st := gradeStates.Get(chatID)
	if st == nil {
		expired(d, cq)
		return
	}
	tg.Answer(d.Bot, cq, "")
	data := cq.Data

	switch {
	case strings.HasPrefix(data, gradeCoursePref):
		id, ok := idFrom(data, gradeCoursePref)
		if !ok {
			return
		}
		if _, ok := ownedCourse(ctx, d, chatID, id); !ok {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.CourseID = id
		if !chooseAssignment(ctx, d, chatID, id, gradeAsgPref, "🧾 Выберите задание:") {
			gradeStates.Delete(chatID)
		}
	case strings.HasPrefix(data, gradeAsgPref):
		id, ok := idFrom(data, gradeAsgPref)
		if !ok {
			return
		}
		a, err := db.GetAssignment(ctx, d.DB, id)
		if err != nil {
			fail(ctx, d, chatID, "загрузить задание", err)
			return
		}
		if a.CourseID != st.CourseID {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.AssignmentID = id
		showGradeItems(ctx, d, chatID, st)
	case strings.HasPrefix(data, gradeItemPref):
		id, ok := idFrom(data, gradeItemPref)
		if !ok {
			return
		}
		it, err := db.GetGradedItem(ctx, d.DB, id)
		if err != nil {
			fail(ctx, d, chatID, "загрузить работу", err)
			return
		}
		if it.CourseID != st.CourseID {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.ItemID = id
		st.Step = gradeStepValue
		tg.Text(d.Bot, chatID, fmt.Sprintf("👤 %s — %s\nВведите процент (0–100) или «сдано» / «не сдано»:",
			it.StudentName, itemStatus(*it)))
	case data == gradeDone:
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		gradeStates.Delete(chatID)
		showCourseSummary(ctx, d, chatID, st.CourseID)
	}
}

func showGradeItems(ctx context.Context, d *Deps, chatID int64, st *GradeFSMState) {
	st.Step = 0
	items, err := db.ListGradedItemsByAssignment(ctx, d.DB, st.AssignmentID)
	if err != nil {
		fail(ctx, d, chatID, "загрузить работы", err)
		return
	}
	if len(items) == 0 {
		tg.Text(d.Bot, chatID, "👥 По заданию нет работ: в курсе не было учеников на момент создания.")
		gradeStates.Delete(chatID)
		return
	}
	buttons := make([]menu.Button, 0, len(items))
	for _, it := range items {
		buttons = append(buttons, menu.Button{Text: it.StudentName + " · " + itemStatus(it), Data: gradeItemPref + it.ID.String()})
	}
	done := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Готово", gradeDone))
	s := gradebook.Summarize(items)
	text := fmt.Sprintf("👥 Выберите ученика.\nСдано %d из %d, оценено %d.", s.Submitted, s.Total, s.Graded)
	tg.WithMarkup(d.Bot, chatID, text, menu.ChipsMarkup(buttons, done, cancelRow()))
}

// itemStatus: короткий статус работы для кнопки: "92% A", "сдано", ":".
func itemStatus(it models.GradedItem) string {
	switch {
	case it.GradeValue != nil:
		return fmt.Sprintf("%.0f%% %s", *it.GradeValue, models.LetterGrade(*it.GradeValue))
	case it.Submitted:
		return "сдано"
	default:
		return "—"
	}
}

type gradeInput struct {
	percent   *float64
	submitted *bool
}

// parseGradeInput: число: оценка; «сдано»/«не сдано»: переключение сдачи.
func parseGradeInput(s string) (gradeInput, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "сдано", "+":
		v := true
		return gradeInput{submitted: &v}, nil
	case "не сдано", "-":
		v := false
		return gradeInput{submitted: &v}, nil
	}
	p, err := records.ParseGrade(s)
	if err != nil {
		return gradeInput{}, err
	}
	return gradeInput{percent: &p}, nil
}

func HandleGradeText(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	st := gradeStates.Get(chatID)
	if st == nil || st.Step != gradeStepValue {
		return
	}
	in, err := parseGradeInput(msg.Text)
	if err != nil {
		tg.Text(d.Bot, chatID, "⚠️ Введите число от 0 до 100 или «сдано» / «не сдано».")
		return
	}
	switch {
	case in.percent != nil:
		err = db.SetGrade(ctx, d.DB, st.ItemID, *in.percent)
	case in.submitted != nil:
		err = db.SetSubmitted(ctx, d.DB, st.ItemID, *in.submitted)
	}
	if err != nil {
		fail(ctx, d, chatID, "сохранить оценку", err)
		return
	}
	tg.Text(d.Bot, chatID, "✅ Сохранено.")
	showGradeItems(ctx, d, chatID, st)
}

// showCourseSummary: итог по курсу: доля сданных, средний процент, разбивка по категориям.
func showCourseSummary(ctx context.Context, d *Deps, chatID int64, courseID uuid.UUID) {
	items, err := db.ListGradedItems(ctx, d.DB, courseID)
	if err != nil {
		fail(ctx, d, chatID, "посчитать итоги", err)
		return
	}
	tg.Text(d.Bot, chatID, courseSummaryText(items))
}

func courseSummaryText(items []models.GradedItem) string {
	s := gradebook.Summarize(items)
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Сдано работ: %s (%d из %d)\n", percent(s.Completion), s.Submitted, s.Total)
	if s.Graded > 0 {
		fmt.Fprintf(&b, "Средний процент: %.1f (%s)\n", s.Average, models.LetterGrade(s.Average))
	}
	groups := gradebook.GroupByCategory(items)
	if len(groups) > 1 {
		b.WriteString("\nПо категориям:\n")
		for _, g := range groups {
			fmt.Fprintf(&b, "• %s — %s\n", g.Category, percent(gradebook.CompletionRatio(g.Items)))
		}
	}
	return b.String()
}
