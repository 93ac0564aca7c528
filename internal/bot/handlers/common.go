package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/teacher-lms-bot/internal/bot/menu"
	"github.com/Spok95/teacher-lms-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/teacher-lms-bot/internal/db"
	"github.com/Spok95/teacher-lms-bot/internal/export"
	"github.com/Spok95/teacher-lms-bot/internal/logging"
	"github.com/Spok95/teacher-lms-bot/internal/metrics"
	"github.com/Spok95/teacher-lms-bot/internal/models"
	"github.com/Spok95/teacher-lms-bot/internal/observability"
	"github.com/Spok95/teacher-lms-bot/internal/records"
	"github.com/Spok95/teacher-lms-bot/internal/storage"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

// Deps: общие зависимости сценариев.
type Deps struct {
	Bot       tg.Bot
	DB        *sql.DB
	Loc       *time.Location
	ExportDir string
	Share     storage.Sharer
	Clock     func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock().In(d.loc())
	}
	return time.Now().In(d.loc())
}

func (d *Deps) loc() *time.Location {
	if d.Loc == nil {
		return time.Local
	}
	return d.Loc
}

// fail сообщает пользователю результат ошибки: валидация блокирует действие,
// "нет данных": отдельное сообщение, всё остальное: общая ошибка + метрики и sentry.
func fail(ctx context.Context, d *Deps, chatID int64, what string, err error) {
	switch {
	case errors.Is(err, records.ErrValidation):
		tg.Text(d.Bot, chatID, "⚠️ Проверьте ввод и попробуйте ещё раз.")
		return
	case errors.Is(err, export.ErrNoData):
		tg.Text(d.Bot, chatID, "ℹ️ Нет данных для экспорта за выбранный период.")
		return
	case errors.Is(err, models.ErrStatusTransition):
		tg.Text(d.Bot, chatID, "⚠️ Статус проверки можно только продвигать вперёд.")
		return
	case errors.Is(err, db.ErrNotFound):
		tg.Text(d.Bot, chatID, "⚠️ Запись не найдена — возможно, её уже удалили.")
		return
	}
	metrics.HandlerErrors.Inc()
	observability.CaptureErr(err)
	logging.From(ctx).Error("operation failed", zap.String("what", what), zap.Error(err))
	tg.Text(d.Bot, chatID, "❌ Не удалось "+what+". Попробуйте позже.")
}

// idFrom вынимает UUID из callback data вида "<prefix><uuid>".
func idFrom(data, prefix string) (uuid.UUID, bool) {
	if !strings.HasPrefix(data, prefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(data, prefix))
	return id, err == nil
}

// chooseCourse показывает курсы преподавателя чипами с callback "<prefix><courseID>".
func chooseCourse(ctx context.Context, d *Deps, chatID int64, prefix, title string) bool {
	courses, err := db.ListCoursesByTeacher(ctx, d.DB, chatID)
	if err != nil {
		fail(ctx, d, chatID, "загрузить курсы", err)
		return false
	}
	if len(courses) == 0 {
		tg.Text(d.Bot, chatID, "📚 У вас пока нет курсов. Создайте курс: /courses")
		return false
	}
	buttons := make([]menu.Button, 0, len(courses))
	for _, c := range courses {
		buttons = append(buttons, menu.Button{Text: c.Name, Data: prefix + c.ID.String()})
	}
	tg.WithMarkup(d.Bot, chatID, title, menu.ChipsMarkup(buttons, cancelRow()))
	return true
}

// ownedCourse загружает курс и проверяет, что он принадлежит этому преподавателю.
func ownedCourse(ctx context.Context, d *Deps, chatID int64, id uuid.UUID) (*models.Course, bool) {
	c, err := db.GetCourse(ctx, d.DB, id)
	if err != nil {
		fail(ctx, d, chatID, "загрузить курс", err)
		return nil, false
	}
	if c.TeacherID != chatID {
		tg.Text(d.Bot, chatID, "🚫 Это не ваш курс.")
		return nil, false
	}
	return c, true
}

// chooseAssignment: задания курса чипами с callback "<prefix><assignmentID>".
func chooseAssignment(ctx context.Context, d *Deps, chatID int64, courseID uuid.UUID, prefix, title string, extra ...[]tgbotapi.InlineKeyboardButton) bool {
	list, err := db.ListAssignments(ctx, d.DB, courseID)
	if err != nil {
		fail(ctx, d, chatID, "загрузить задания", err)
		return false
	}
	if len(list) == 0 && len(extra) == 0 {
		tg.Text(d.Bot, chatID, "🧾 В курсе пока нет заданий. Добавьте: /assignments")
		return false
	}
	buttons := make([]menu.Button, 0, len(list))
	for _, a := range list {
		buttons = append(buttons, menu.Button{Text: a.Title + " · " + shortDate(a.DueDate), Data: prefix + a.ID.String()})
	}
	extra = append(extra, cancelRow())
	tg.WithMarkup(d.Bot, chatID, title, menu.ChipsMarkup(buttons, extra...))
	return true
}

// CancelData: общий callback отмены для всех сценариев.
const CancelData = "flow_cancel"

func cancelRow() []tgbotapi.InlineKeyboardButton {
	return fsmutil.CancelRow(CancelData)
}

// expired: колбэк пришёл к сценарию, которого уже нет (перезапуск, отмена).
func expired(d *Deps, cq *tgbotapi.CallbackQuery) {
	tg.Answer(d.Bot, cq, "Сессия устарела, начните заново")
	fsmutil.DisableMarkup(d.Bot, cq.Message.Chat.ID, cq.Message.MessageID)
}

// shortDate: "2025-10-01" -> "01.10".
func shortDate(iso string) string {
	t, err := time.Parse(records.DateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format("02.01")
}

func humanDate(iso string) string {
	t, err := time.Parse(records.DateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format("02.01.2006")
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}
