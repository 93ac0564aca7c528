package handlers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/teacher-lms-bot/internal/bot/menu"
	"github.com/Spok95/teacher-lms-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/teacher-lms-bot/internal/db"
	"github.com/Spok95/teacher-lms-bot/internal/logging"
	"github.com/Spok95/teacher-lms-bot/internal/metrics"
	"github.com/Spok95/teacher-lms-bot/internal/models"
	"github.com/Spok95/teacher-lms-bot/internal/peerreview"
	"github.com/Spok95/teacher-lms-bot/internal/records"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

type PeerReviewFSMState struct {
	Step         int
	CourseID     uuid.UUID
	AssignmentID uuid.UUID
	Submitters   []uuid.UUID
	K            int
	ReviewID     uuid.UUID
	ReviewStatus models.ReviewStatus
}

const (
	prStepScore = iota + 1

	prCoursePref = "pr_course_"
	prAsgPref    = "pr_asg_"
	prNew        = "pr_new"
	prKPref      = "pr_k_"
	prGo         = "pr_go"
	prList       = "pr_list"
	prOpenPref   = "pr_open_"
	prStatusPref = "pr_st_"
	prBack       = "pr_back"

	// больше 5 проверяющих на работу на практике не нужно
	prMaxK = 5

	prPendingKey = "peer_review"
)

var peerReviewStates = fsmutil.NewStore[PeerReviewFSMState]()

func GetPeerReviewState(chatID int64) *PeerReviewFSMState { return peerReviewStates.Get(chatID) }

// NewRand: источник случайности для распределения; подменяется в тестах.
var NewRand = func() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func StartPeerReviewFSM(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	peerReviewStates.Set(chatID, &PeerReviewFSMState{})
	if !chooseCourse(ctx, d, chatID, prCoursePref, "🔁 Взаимопроверка. Выберите курс:") {
		peerReviewStates.Delete(chatID)
	}
}

func HandlePeerReviewCallback(ctx context.Context, d *Deps, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	st := peerReviewStates.Get(chatID)
	if st == nil {
		expired(d, cq)
		return
	}
	tg.Answer(d.Bot, cq, "")
	data := cq.Data

	switch {
	case strings.HasPrefix(data, prCoursePref):
		id, ok := idFrom(data, prCoursePref)
		if !ok {
			return
		}
		if _, ok := ownedCourse(ctx, d, chatID, id); !ok {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.CourseID = id
		if !chooseAssignment(ctx, d, chatID, id, prAsgPref, "🧾 Для какого задания?") {
			peerReviewStates.Delete(chatID)
		}

	case strings.HasPrefix(data, prAsgPref):
		id, ok := idFrom(data, prAsgPref)
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
		showPeerReviewStatus(ctx, d, chatID, st)

	case data == prBack:
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		showPeerReviewStatus(ctx, d, chatID, st)

	case data == prNew:
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		askReviewersCount(ctx, d, chatID, st)

	case strings.HasPrefix(data, prKPref):
		k, err := strconv.Atoi(strings.TrimPrefix(data, prKPref))
		if err != nil || k < 1 || k > len(st.Submitters)-1 {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.K = k
		mk := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎲 Распределить", prGo)),
			fsmutil.BackCancelRow(prBack, CancelData),
		)
		text := fmt.Sprintf("Сдавших работ: %d, проверяющих на работу: %d.\nБудет назначено проверок: %d.\n"+
			"⚠️ Текущее распределение по заданию будет заменено.", len(st.Submitters), k, len(st.Submitters)*k)
		tg.WithMarkup(d.Bot, chatID, text, mk)

	case data == prGo:
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		distributeReviews(ctx, d, chatID, st)

	case data == prList:
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		showReviewList(ctx, d, chatID, st)

	case strings.HasPrefix(data, prOpenPref):
		id, ok := idFrom(data, prOpenPref)
		if !ok {
			return
		}
		reviews, err := db.ListPeerReviews(ctx, d.DB, st.AssignmentID)
		if err != nil {
			fail(ctx, d, chatID, "загрузить взаимопроверку", err)
			return
		}
		r, ok := findReview(reviews, id)
		if !ok {
			fail(ctx, d, chatID, "открыть проверку", db.ErrNotFound)
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.ReviewID = r.ID
		st.ReviewStatus = r.Status
		if len(r.Status.Following()) == 0 {
			tg.WithMarkup(d.Bot, chatID, "✅ Проверка уже завершена.",
				tgbotapi.NewInlineKeyboardMarkup(fsmutil.BackCancelRow(prBack, CancelData)))
			return
		}
		tg.WithMarkup(d.Bot, chatID, "Новый статус проверки:", reviewStatusMarkup(r.Status))

	case strings.HasPrefix(data, prStatusPref):
		next := models.ReviewStatus(strings.TrimPrefix(data, prStatusPref))
		if _, known := reviewStatusButtons[next]; !known || st.ReviewID == uuid.Nil {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		if err := st.ReviewStatus.CanAdvanceTo(next); err != nil {
			fail(ctx, d, chatID, "обновить статус проверки", err)
			return
		}
		if next == models.ReviewCompleted {
			st.Step = prStepScore
			tg.Text(d.Bot, chatID, "🔢 Оценка проверяющего в процентах (0–100) или «-» без оценки:")
			return
		}
		advanceReview(ctx, d, chatID, st, next, nil)
	}
}

func findReview(reviews []models.PeerReviewAssignment, id uuid.UUID) (models.PeerReviewAssignment, bool) {
	for _, r := range reviews {
		if r.ID == id {
			return r, true
		}
	}
	return models.PeerReviewAssignment{}, false
}

var reviewStatusButtons = map[models.ReviewStatus]string{
	models.ReviewAssigned:   "⏸ Назначено",
	models.ReviewInProgress: "▶️ В работе",
	models.ReviewCompleted:  "✅ Проверено",
}

// reviewStatusMarkup: только статусы после текущего.
func reviewStatusMarkup(cur models.ReviewStatus) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, next := range cur.Following() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(reviewStatusButtons[next], prStatusPref+string(next)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row, fsmutil.BackCancelRow(prBack, CancelData))
}

func HandlePeerReviewText(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	st := peerReviewStates.Get(chatID)
	if st == nil || st.Step != prStepScore {
		return
	}
	var score *float64
	if text := strings.TrimSpace(msg.Text); text != "-" {
		v, err := records.ParseGrade(text)
		if err != nil {
			tg.Text(d.Bot, chatID, "⚠️ Введите число от 0 до 100 или «-».")
			return
		}
		score = &v
	}
	st.Step = 0
	advanceReview(ctx, d, chatID, st, models.ReviewCompleted, score)
}

func advanceReview(ctx context.Context, d *Deps, chatID int64, st *PeerReviewFSMState, next models.ReviewStatus, score *float64) {
	if err := db.AdvanceReview(ctx, d.DB, st.AssignmentID, st.ReviewID, next, score); err != nil {
		fail(ctx, d, chatID, "обновить статус проверки", err)
		return
	}
	st.ReviewID = uuid.Nil
	st.ReviewStatus = ""
	tg.Text(d.Bot, chatID, "✅ Статус обновлён.")
	showPeerReviewStatus(ctx, d, chatID, st)
}

func showPeerReviewStatus(ctx context.Context, d *Deps, chatID int64, st *PeerReviewFSMState) {
	st.Step = 0
	reviews, err := db.ListPeerReviews(ctx, d.DB, st.AssignmentID)
	if err != nil {
		fail(ctx, d, chatID, "загрузить взаимопроверку", err)
		return
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎲 Распределить заново", prNew)),
	}
	if len(reviews) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📋 Проверки", prList)))
	}
	rows = append(rows, cancelRow())
	tg.WithMarkup(d.Bot, chatID, reviewStatsText(peerreview.Tally(reviews)), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func reviewStatsText(s peerreview.Stats) string {
	if s.Total == 0 {
		return "🔁 Взаимопроверка по заданию ещё не распределена."
	}
	return fmt.Sprintf("🔁 Проверок: %d\n✅ Завершено: %d\n▶️ В работе: %d\n⏸ Назначено: %d\nГотовность: %s",
		s.Total, s.Completed, s.InProgress, s.Assigned, percent(s.CompletionRate()))
}

// askReviewersCount предлагает K от 1 до N-1 (не больше prMaxK), N: число сдавших.
func askReviewersCount(ctx context.Context, d *Deps, chatID int64, st *PeerReviewFSMState) {
	ids, err := db.ListSubmitters(ctx, d.DB, st.AssignmentID)
	if err != nil {
		fail(ctx, d, chatID, "загрузить сдавших", err)
		return
	}
	st.Submitters = ids
	if len(ids) < 2 {
		tg.Text(d.Bot, chatID, "⚠️ Для взаимопроверки нужно минимум 2 сданные работы.")
		return
	}
	buttons := make([]menu.Button, 0, prMaxK)
	for k := 1; k <= min(len(ids)-1, prMaxK); k++ {
		buttons = append(buttons, menu.Button{Text: strconv.Itoa(k), Data: prKPref + strconv.Itoa(k)})
	}
	tg.WithMarkup(d.Bot, chatID, "👥 Сколько проверяющих на каждую работу?",
		menu.ChipsMarkup(buttons, fsmutil.BackCancelRow(prBack, CancelData)))
}

func distributeReviews(ctx context.Context, d *Deps, chatID int64, st *PeerReviewFSMState) {
	if !fsmutil.SetPending(chatID, prPendingKey) {
		tg.Text(d.Bot, chatID, "⏳ Распределение уже выполняется.")
		return
	}
	defer fsmutil.ClearPending(chatID, prPendingKey)

	reviews := peerreview.Assign(st.AssignmentID, st.Submitters, st.K, NewRand())
	if len(reviews) == 0 {
		tg.Text(d.Bot, chatID, "⚠️ Недостаточно сданных работ для распределения.")
		return
	}
	if err := db.ReplacePeerReviews(ctx, d.DB, st.AssignmentID, reviews); err != nil {
		fail(ctx, d, chatID, "распределить проверяющих", err)
		return
	}
	metrics.PeerReviewBatches.Inc()
	logging.From(ctx).Info("peer reviews assigned",
		zap.String("assignment_id", st.AssignmentID.String()), zap.Int("k", st.K), zap.Int("pairs", len(reviews)))
	tg.Text(d.Bot, chatID, fmt.Sprintf("✅ Назначено проверок: %d.", len(reviews)))
	showPeerReviewStatus(ctx, d, chatID, st)
}

func showReviewList(ctx context.Context, d *Deps, chatID int64, st *PeerReviewFSMState) {
	reviews, err := db.ListPeerReviews(ctx, d.DB, st.AssignmentID)
	if err != nil {
		fail(ctx, d, chatID, "загрузить взаимопроверку", err)
		return
	}
	buttons := make([]menu.Button, 0, len(reviews))
	for _, r := range reviews {
		buttons = append(buttons, menu.Button{Text: reviewLabel(r), Data: prOpenPref + r.ID.String()})
	}
	tg.WithMarkup(d.Bot, chatID, "📋 Проверяющий → автор работы:",
		menu.ChipsMarkup(buttons, fsmutil.BackCancelRow(prBack, CancelData)))
}

func reviewLabel(r models.PeerReviewAssignment) string {
	mark := "⏸"
	switch r.Status {
	case models.ReviewInProgress:
		mark = "▶️"
	case models.ReviewCompleted:
		mark = "✅"
	}
	label := fmt.Sprintf("%s %s → %s", mark, r.ReviewerName, r.OwnerName)
	if r.Score != nil {
		label += fmt.Sprintf(" (%.0f%%)", *r.Score)
	}
	return label
}
