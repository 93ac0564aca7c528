package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/teacher-lms-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/teacher-lms-bot/internal/ctxutil"
	"github.com/Spok95/teacher-lms-bot/internal/db"
	"github.com/Spok95/teacher-lms-bot/internal/export"
	"github.com/Spok95/teacher-lms-bot/internal/gradebook"
	"github.com/Spok95/teacher-lms-bot/internal/logging"
	"github.com/Spok95/teacher-lms-bot/internal/metrics"
	"github.com/Spok95/teacher-lms-bot/internal/models"
	"github.com/Spok95/teacher-lms-bot/internal/observability"
	"github.com/Spok95/teacher-lms-bot/internal/records"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

type ExportFSMState struct {
	Step       int
	CourseID   uuid.UUID
	CourseName string
	Kind       string
	Range      *gradebook.DateRange
	RangeTitle string
}

const (
	exportStepRange = iota + 1
	exportStepCustom
	exportStepFormat

	exportKindGrades     = "grades"
	exportKindAttendance = "attendance"

	exportFormatCSV  = "csv"
	exportFormatXLSX = "xlsx"

	expCoursePref = "exp_course_"
	expKindPref   = "exp_kind_"
	expRangePref  = "exp_range_"
	expFmtPref    = "exp_fmt_"

	exportPendingKey = "export"
)

var exportStates = fsmutil.NewStore[ExportFSMState]()

func GetExportState(chatID int64) *ExportFSMState { return exportStates.Get(chatID) }

func StartExportFSM(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	exportStates.Set(chatID, &ExportFSMState{})
	if !chooseCourse(ctx, d, chatID, expCoursePref, "📤 Экспорт. Выберите курс:") {
		exportStates.Delete(chatID)
	}
}

func HandleExportCallback(ctx context.Context, d *Deps, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	st := exportStates.Get(chatID)
	if st == nil {
		expired(d, cq)
		return
	}
	tg.Answer(d.Bot, cq, "")
	data := cq.Data

	switch {
	case strings.HasPrefix(data, expCoursePref):
		id, ok := idFrom(data, expCoursePref)
		if !ok {
			return
		}
		c, ok := ownedCourse(ctx, d, chatID, id)
		if !ok {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.CourseID, st.CourseName = c.ID, c.Name
		mk := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📊 Оценки", expKindPref+exportKindGrades),
				tgbotapi.NewInlineKeyboardButtonData("✅ Посещаемость", expKindPref+exportKindAttendance),
			),
			cancelRow(),
		)
		tg.WithMarkup(d.Bot, chatID, "Что выгрузить?", mk)

	case strings.HasPrefix(data, expKindPref):
		kind := strings.TrimPrefix(data, expKindPref)
		if kind != exportKindGrades && kind != exportKindAttendance {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.Kind = kind
		st.Step = exportStepRange
		tg.WithMarkup(d.Bot, chatID, "📆 За какой период?", exportRangeMarkup())

	case strings.HasPrefix(data, expRangePref):
		opt := strings.TrimPrefix(data, expRangePref)
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		if opt == "custom" {
			st.Step = exportStepCustom
			tg.Text(d.Bot, chatID, "Введите период: дд.мм.гггг-дд.мм.гггг")
			return
		}
		r, title, ok := rangeOption(opt, d.now())
		if !ok {
			return
		}
		st.Range, st.RangeTitle = r, title
		askExportFormat(ctx, d, chatID, st)

	case strings.HasPrefix(data, expFmtPref):
		format := strings.TrimPrefix(data, expFmtPref)
		if format != exportFormatCSV && format != exportFormatXLSX {
			return
		}
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		runExport(ctx, d, chatID, *st, format)
	}
}

func exportRangeMarkup() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Всё время", expRangePref+"all"),
			tgbotapi.NewInlineKeyboardButtonData("7 дней", expRangePref+"7"),
			tgbotapi.NewInlineKeyboardButtonData("30 дней", expRangePref+"30"),
		),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📅 Свой период", expRangePref+"custom")),
		cancelRow(),
	)
}

// rangeOption переводит кнопку периода в диапазон; nil: без ограничения.
func rangeOption(opt string, now time.Time) (*gradebook.DateRange, string, bool) {
	switch opt {
	case "all":
		return nil, "всё время", true
	case "7":
		r := gradebook.LastDays(now, 7)
		return &r, "7 дней", true
	case "30":
		r := gradebook.LastDays(now, 30)
		return &r, "30 дней", true
	}
	return nil, "", false
}

func HandleExportText(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	st := exportStates.Get(chatID)
	if st == nil || st.Step != exportStepCustom {
		return
	}
	from, to, err := records.ParseRange(msg.Text, d.now())
	if err != nil {
		tg.Text(d.Bot, chatID, "⚠️ Не понял период. Пример: 01.09.2025-31.10.2025")
		return
	}
	st.Range = &gradebook.DateRange{From: from, To: to}
	st.RangeTitle = from.Format("02.01.2006") + "–" + to.Format("02.01.2006")
	askExportFormat(ctx, d, chatID, st)
}

func askExportFormat(ctx context.Context, d *Deps, chatID int64, st *ExportFSMState) {
	if st.Kind == exportKindAttendance {
		runExport(ctx, d, chatID, *st, exportFormatXLSX)
		return
	}
	st.Step = exportStepFormat
	mk := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("CSV", expFmtPref+exportFormatCSV),
			tgbotapi.NewInlineKeyboardButtonData("Excel", expFmtPref+exportFormatXLSX),
		),
		cancelRow(),
	)
	tg.WithMarkup(d.Bot, chatID, "📄 Формат файла:", mk)
}

// runExport формирует файл в фоне; один экспорт на чат за раз.
func runExport(ctx context.Context, d *Deps, chatID int64, st ExportFSMState, format string) {
	exportStates.Delete(chatID)
	if !fsmutil.SetPending(chatID, exportPendingKey) {
		tg.Text(d.Bot, chatID, "⏳ Предыдущий экспорт ещё формируется.")
		return
	}
	tg.Text(d.Bot, chatID, "⏳ Формирую файл...")

	go func() {
		defer fsmutil.ClearPending(chatID, exportPendingKey)
		defer observability.Recover("export")

		ectx, cancel := ctxutil.WithTimeout(context.WithoutCancel(ctx), ctxutil.DefaultExportTimeout)
		defer cancel()

		dir, err := exportWorkDir(d.ExportDir)
		if err != nil {
			fail(ectx, d, chatID, "сформировать выгрузку", err)
			return
		}
		defer func() { _ = os.RemoveAll(dir) }()

		path, err := buildExport(ectx, d, dir, st, format)
		if err != nil {
			fail(ectx, d, chatID, "сформировать выгрузку", err)
			return
		}
		metrics.Exports.WithLabelValues(st.Kind, format).Inc()
		sendExport(ectx, d, chatID, path)
	}()
}

// exportWorkDir: отдельный каталог на каждую выгрузку внутри EXPORT_DIR,
// чтобы одинаковые имена файлов у разных преподавателей не пересекались.
func exportWorkDir(base string) (string, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", base, err)
	}
	dir, err := os.MkdirTemp(base, "export-*")
	if err != nil {
		return "", fmt.Errorf("mkdir temp in %s: %w", base, err)
	}
	return dir, nil
}

func buildExport(ctx context.Context, d *Deps, dir string, st ExportFSMState, format string) (string, error) {
	switch st.Kind {
	case exportKindAttendance:
		from, to := attendanceBounds(st.Range)
		recs, err := db.ListAttendance(ctx, d.DB, st.CourseID, from, to)
		if err != nil {
			return "", fmt.Errorf("list attendance: %w", err)
		}
		if len(recs) == 0 {
			return "", export.ErrNoData
		}
		return export.SaveAttendanceXLSX(dir, export.BuildAttendanceFilename(st.CourseName, st.RangeTitle), recs)
	default:
		items, err := db.ListGradedItems(ctx, d.DB, st.CourseID)
		if err != nil {
			return "", fmt.Errorf("list graded items: %w", err)
		}
		return saveGrades(dir, st, items, format)
	}
}

// saveGrades фильтрует работы курса по периоду и пишет файл нужного формата.
func saveGrades(dir string, st ExportFSMState, items []models.GradedItem, format string) (string, error) {
	filtered := gradebook.Filter(items, st.CourseID, st.Range)
	if len(filtered) == 0 {
		return "", export.ErrNoData
	}
	name := export.BuildGradesFilename(st.CourseName, st.RangeTitle, format)
	if format == exportFormatCSV {
		return export.SaveGradesCSV(dir, name, filtered)
	}
	return export.SaveGradesXLSX(dir, name, filtered)
}

func attendanceBounds(r *gradebook.DateRange) (string, string) {
	from, to := "0001-01-01", "9999-12-31"
	if r == nil {
		return from, to
	}
	if !r.From.IsZero() {
		from = r.From.Format(records.DateLayout)
	}
	if !r.To.IsZero() {
		to = r.To.Format(records.DateLayout)
	}
	return from, to
}

func sendExport(ctx context.Context, d *Deps, chatID int64, path string) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = "📎 " + filepath.Base(path)
	if _, err := tg.Send(d.Bot, doc); err != nil {
		logging.From(ctx).Warn("send export document", zap.Error(err))
	}

	if d.Share == nil {
		return
	}
	key := fmt.Sprintf("exports/%d/%s/%s", chatID, uuid.NewString(), filepath.Base(path))
	url, err := d.Share.Share(ctx, key, path)
	if err != nil {
		fail(ctx, d, chatID, "загрузить файл в хранилище", err)
		return
	}
	if url != "" {
		tg.Text(d.Bot, chatID, "🔗 Ссылка для коллег (временная):\n"+url)
	}
}
