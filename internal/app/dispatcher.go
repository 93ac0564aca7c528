package app

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/teacher-lms-bot/internal/bot/handlers"
	"github.com/Spok95/teacher-lms-bot/internal/bot/menu"
	"github.com/Spok95/teacher-lms-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/teacher-lms-bot/internal/ctxutil"
	"github.com/Spok95/teacher-lms-bot/internal/db"
	"github.com/Spok95/teacher-lms-bot/internal/logging"
	"github.com/Spok95/teacher-lms-bot/internal/metrics"
	"github.com/Spok95/teacher-lms-bot/internal/observability"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

type (
	messageHandler  func(ctx context.Context, d *handlers.Deps, msg *tgbotapi.Message)
	callbackHandler func(ctx context.Context, d *handlers.Deps, cq *tgbotapi.CallbackQuery)
)

// команды и кнопки меню -> старт сценария
var commands = map[string]messageHandler{
	"/start":       handlers.StartHandler,
	"/help":        handlers.HelpHandler,
	"/courses":     handlers.StartCoursesFSM,
	"/lesson":      handlers.StartLessonFSM,
	"/assignments": handlers.StartAssignmentsFSM,
	"/grade":       handlers.StartGradeFSM,
	"/export":      handlers.StartExportFSM,
	"/modules":     handlers.StartModulesFSM,
	"/attendance":  handlers.StartAttendanceFSM,
	"/peer_review": handlers.StartPeerReviewFSM,
	"/standards":   handlers.StandardsHandler,
	"/ar":          handlers.ARHandler,

	menu.BtnCourses:     handlers.StartCoursesFSM,
	menu.BtnLesson:      handlers.StartLessonFSM,
	menu.BtnAssignments: handlers.StartAssignmentsFSM,
	menu.BtnGrade:       handlers.StartGradeFSM,
	menu.BtnExport:      handlers.StartExportFSM,
	menu.BtnModules:     handlers.StartModulesFSM,
	menu.BtnAttendance:  handlers.StartAttendanceFSM,
	menu.BtnPeerReview:  handlers.StartPeerReviewFSM,
	menu.BtnStandards:   handlers.StandardsHandler,
	menu.BtnAR:          handlers.ARHandler,
}

// префикс callback data -> сценарий
var callbacks = []struct {
	prefix string
	handle callbackHandler
}{
	{"course_", handlers.HandleCourseCallback},
	{"lesson_", handlers.HandleLessonCallback},
	{"asg_", handlers.HandleAssignmentCallback},
	{"grade_", handlers.HandleGradeCallback},
	{"exp_", handlers.HandleExportCallback},
	{"mod_", handlers.HandleModulesCallback},
	{"att_", handlers.HandleAttendanceCallback},
	{"pr_", handlers.HandlePeerReviewCallback},
	{"std_", handlers.HandleStandardsCallback},
}

// AccessFunc решает, пускать ли пользователя в бот.
type AccessFunc func(ctx context.Context, userID int64) (bool, error)

// TeacherAccess: пользователь из TEACHER_IDS или владелец хотя бы одного курса.
func TeacherAccess(isTeacher func(int64) bool, deps *handlers.Deps) AccessFunc {
	return func(ctx context.Context, userID int64) (bool, error) {
		if isTeacher(userID) {
			return true, nil
		}
		return db.HasCourses(ctx, deps.DB, userID)
	}
}

type Dispatcher struct {
	deps    *handlers.Deps
	access  AccessFunc
	limiter *ChatLimiter
}

func NewDispatcher(deps *handlers.Deps, access AccessFunc) *Dispatcher {
	return &Dispatcher{deps: deps, access: access, limiter: NewChatLimiter()}
}

// Dispatch обрабатывает апдейт в отдельной горутине; апдейты одного чата идут по очереди.
func (d *Dispatcher) Dispatch(ctx context.Context, upd tgbotapi.Update) {
	metrics.BotUpdates.Inc()
	chatID, userID, ok := updateIDs(upd)
	if !ok {
		return
	}
	go d.limiter.Do(chatID, func() {
		defer observability.Recover("dispatcher")
		ctx := ctxutil.WithChatID(ctx, chatID)
		d.handle(ctx, upd, chatID, userID)
	})
}

func (d *Dispatcher) handle(ctx context.Context, upd tgbotapi.Update, chatID, userID int64) {
	allowed, err := d.access(ctx, userID)
	if err != nil {
		metrics.HandlerErrors.Inc()
		observability.CaptureErr(err)
		logging.From(ctx).Error("access check", zap.Error(err))
		tg.Text(d.deps.Bot, chatID, "❌ Сервис временно недоступен. Попробуйте позже.")
		return
	}
	if !allowed {
		if upd.CallbackQuery != nil {
			tg.Answer(d.deps.Bot, upd.CallbackQuery, "Доступ закрыт")
		}
		tg.Text(d.deps.Bot, chatID, "🚫 Бот доступен только преподавателям.")
		return
	}

	if cq := upd.CallbackQuery; cq != nil {
		d.handleCallback(ctx, cq)
		return
	}
	d.handleMessage(ctx, upd.Message)
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if fsmutil.IsCancelText(text) {
		handlers.HandleCancelText(d.deps, msg)
		return
	}
	if h, ok := commands[commandKey(text)]; ok {
		handlers.ResetAll(chatID)
		ctx = ctxutil.WithOp(ctx, commandKey(text))
		logging.From(ctx).Debug("command")
		h(ctx, d.deps, msg)
		return
	}
	if handlers.HandleActiveText(ctx, d.deps, msg) {
		return
	}
	tg.WithMarkup(d.deps.Bot, chatID, "⚠️ Неизвестная команда. Выберите действие в меню или /help", menu.TeacherMenu())
}

func (d *Dispatcher) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Data == handlers.CancelData {
		handlers.HandleCancelCallback(d.deps, cq)
		return
	}
	for _, c := range callbacks {
		if strings.HasPrefix(cq.Data, c.prefix) {
			ctx = ctxutil.WithOp(ctx, strings.TrimSuffix(c.prefix, "_"))
			c.handle(ctx, d.deps, cq)
			return
		}
	}
	tg.Answer(d.deps.Bot, cq, "Неизвестная кнопка")
}

// commandKey: "/grade@my_bot arg" -> "/grade"; текст кнопки возвращается как есть.
func commandKey(text string) string {
	if !strings.HasPrefix(text, "/") {
		return text
	}
	cmd := strings.Fields(text)[0]
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

// updateIDs: только личные чаты: chatID там совпадает с id преподавателя.
func updateIDs(upd tgbotapi.Update) (chatID, userID int64, ok bool) {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.From != nil:
		chat := upd.CallbackQuery.Message.Chat
		return chat.ID, upd.CallbackQuery.From.ID, chat.IsPrivate()
	case upd.Message != nil && upd.Message.From != nil:
		return upd.Message.Chat.ID, upd.Message.From.ID, upd.Message.Chat.IsPrivate()
	}
	return 0, 0, false
}
