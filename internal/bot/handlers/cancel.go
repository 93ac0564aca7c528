package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/teacher-lms-bot/internal/bot/menu"
	"github.com/Spok95/teacher-lms-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

// ResetAll сбрасывает все сценарии чата.
func ResetAll(chatID int64) {
	courseStates.Delete(chatID)
	lessonStates.Delete(chatID)
	assignmentStates.Delete(chatID)
	gradeStates.Delete(chatID)
	exportStates.Delete(chatID)
	modulesStates.Delete(chatID)
	attendanceStates.Delete(chatID)
	peerReviewStates.Delete(chatID)
}

// HandleCancelCallback: кнопка "Отмена" в любом сценарии.
func HandleCancelCallback(d *Deps, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	tg.Answer(d.Bot, cq, "Отменено")
	fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
	ResetAll(chatID)
	tg.WithMarkup(d.Bot, chatID, "🚫 Отменено.", menu.TeacherMenu())
}

// HandleCancelText: "/cancel" или "Отмена" текстом.
func HandleCancelText(d *Deps, msg *tgbotapi.Message) {
	ResetAll(msg.Chat.ID)
	tg.WithMarkup(d.Bot, msg.Chat.ID, "🚫 Отменено.", menu.TeacherMenu())
}

// HandleActiveText передаёт текст сценарию, который его ждёт. false: активного сценария нет.
func HandleActiveText(ctx context.Context, d *Deps, msg *tgbotapi.Message) bool {
	chatID := msg.Chat.ID
	switch {
	case courseStates.Get(chatID) != nil && courseStates.Get(chatID).Step != 0:
		HandleCourseText(ctx, d, msg)
	case lessonStates.Get(chatID) != nil:
		HandleLessonText(ctx, d, msg)
	case assignmentStates.Get(chatID) != nil && assignmentStates.Get(chatID).Step != 0:
		HandleAssignmentText(ctx, d, msg)
	case gradeStates.Get(chatID) != nil:
		HandleGradeText(ctx, d, msg)
	case exportStates.Get(chatID) != nil:
		HandleExportText(ctx, d, msg)
	case modulesStates.Get(chatID) != nil && modulesStates.Get(chatID).Step != 0:
		HandleModulesText(ctx, d, msg)
	case attendanceStates.Get(chatID) != nil:
		HandleAttendanceText(ctx, d, msg)
	case peerReviewStates.Get(chatID) != nil:
		HandlePeerReviewText(ctx, d, msg)
	default:
		return false
	}
	return true
}
