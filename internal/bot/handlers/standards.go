package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/teacher-lms-bot/internal/bot/menu"
	"github.com/Spok95/teacher-lms-bot/internal/db"
	"github.com/Spok95/teacher-lms-bot/internal/models"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

// индекс предмета в отсортированном списке, название может не влезть в 64 байта
const stdSubjPref = "std_subj_"

// StandardsHandler: список предметов справочника.
func StandardsHandler(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	subjects, err := db.ListSubjects(ctx, d.DB)
	if err != nil {
		fail(ctx, d, chatID, "загрузить стандарты", err)
		return
	}
	if len(subjects) == 0 {
		tg.Text(d.Bot, chatID, "📐 Справочник стандартов пуст.")
		return
	}
	buttons := make([]menu.Button, 0, len(subjects))
	for i, s := range subjects {
		buttons = append(buttons, menu.Button{Text: s, Data: stdSubjPref + strconv.Itoa(i)})
	}
	tg.WithMarkup(d.Bot, chatID, "📐 Выберите предмет:", menu.ChipsMarkup(buttons))
}

func HandleStandardsCallback(ctx context.Context, d *Deps, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	tg.Answer(d.Bot, cq, "")
	i, err := strconv.Atoi(strings.TrimPrefix(cq.Data, stdSubjPref))
	if err != nil {
		return
	}
	subjects, err := db.ListSubjects(ctx, d.DB)
	if err != nil {
		fail(ctx, d, chatID, "загрузить стандарты", err)
		return
	}
	if i < 0 || i >= len(subjects) {
		return
	}
	list, err := db.ListStandards(ctx, d.DB, subjects[i])
	if err != nil {
		fail(ctx, d, chatID, "загрузить стандарты", err)
		return
	}
	tg.Text(d.Bot, chatID, standardsText(subjects[i], list))
}

func standardsText(subject string, list []models.LearningStandard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📐 %s\n", subject)
	cat := ""
	for _, s := range list {
		if s.Category != cat {
			cat = s.Category
			fmt.Fprintf(&b, "\n%s\n", cat)
		}
		fmt.Fprintf(&b, "• %s — %s", s.Code, s.Title)
		if s.GradeLevel != "" {
			fmt.Fprintf(&b, " (%s кл.)", s.GradeLevel)
		}
		b.WriteString("\n")
	}
	return b.String()
}
