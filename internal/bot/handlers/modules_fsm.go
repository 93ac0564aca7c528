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
	"github.com/Spok95/teacher-lms-bot/internal/models"
	"github.com/Spok95/teacher-lms-bot/internal/records"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

type ModulesFSMState struct {
	Step     int
	CourseID uuid.UUID
	ModuleID uuid.UUID
	Modules  []models.CourseModule
}

const (
	modStepNew = iota + 1
	modStepRename

	modCoursePref = "mod_course_"
	modOpenPref   = "mod_open_"
	modNew        = "mod_new"
	modRename     = "mod_rename"
	modPublish    = "mod_pub"
	modUp         = "mod_up"
	modDown       = "mod_down"
	modDelete     = "mod_del"
	modBack       = "mod_back"
)

var modulesStates = fsmutil.NewStore[ModulesFSMState]()

func GetModulesState(chatID int64) *ModulesFSMState { return modulesStates.Get(chatID) }

func StartModulesFSM(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	modulesStates.Set(chatID, &ModulesFSMState{})
	if !chooseCourse(ctx, d, chatID, modCoursePref, "🗂 Модули. Выберите курс:") {
		modulesStates.Delete(chatID)
	}
}

func HandleModulesCallback(ctx context.Context, d *Deps, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	st := modulesStates.Get(chatID)
	if st == nil {
		expired(d, cq)
		return
	}
	tg.Answer(d.Bot, cq, "")
	data := cq.Data
	var err error

	switch {
	case strings.HasPrefix(data, modCoursePref):
		id, ok := idFrom(data, modCoursePref)
		if !ok {
			return
		}
		if _, ok := ownedCourse(ctx, d, chatID, id); !ok {
			return
		}
		st.CourseID = id
	case data == modBack:
	case data == modNew:
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.Step = modStepNew
		tg.Text(d.Bot, chatID, "✏️ Название нового модуля:")
		return
	case strings.HasPrefix(data, modOpenPref):
		id, ok := idFrom(data, modOpenPref)
		if !ok {
			return
		}
		m := findModule(st.Modules, id)
		if m == nil {
			return
		}
		st.ModuleID = id
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		showModuleCard(d, chatID, m)
		return
	case data == modRename:
		fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
		st.Step = modStepRename
		tg.Text(d.Bot, chatID, "✏️ Новое название модуля:")
		return
	case data == modPublish:
		m := findModule(st.Modules, st.ModuleID)
		if m == nil {
			return
		}
		err = db.SetModulePublished(ctx, d.DB, m.ID, !m.Published)
	case data == modUp:
		err = db.MoveModule(ctx, d.DB, st.ModuleID, -1)
	case data == modDown:
		err = db.MoveModule(ctx, d.DB, st.ModuleID, 1)
	case data == modDelete:
		err = db.DeleteModule(ctx, d.DB, st.ModuleID)
	default:
		return
	}
	if err != nil {
		fail(ctx, d, chatID, "изменить модуль", err)
		return
	}
	fsmutil.DisableMarkup(d.Bot, chatID, cq.Message.MessageID)
	showModuleList(ctx, d, chatID, st)
}

func findModule(mods []models.CourseModule, id uuid.UUID) *models.CourseModule {
	for i := range mods {
		if mods[i].ID == id {
			return &mods[i]
		}
	}
	return nil
}

func showModuleList(ctx context.Context, d *Deps, chatID int64, st *ModulesFSMState) {
	st.Step = 0
	mods, err := db.ListModules(ctx, d.DB, st.CourseID)
	if err != nil {
		fail(ctx, d, chatID, "загрузить модули", err)
		return
	}
	st.Modules = mods
	buttons := make([]menu.Button, 0, len(mods))
	for _, m := range mods {
		buttons = append(buttons, menu.Button{Text: moduleLabel(m), Data: modOpenPref + m.ID.String()})
	}
	text := "🗂 Модули курса:"
	if len(mods) == 0 {
		text = "🗂 В курсе пока нет модулей."
	}
	add := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Добавить модуль", modNew))
	tg.WithMarkup(d.Bot, chatID, text, menu.ChipsMarkup(buttons, add, cancelRow()))
}

func moduleLabel(m models.CourseModule) string {
	mark := "🔒"
	if m.Published {
		mark = "👁"
	}
	return fmt.Sprintf("%d. %s %s", m.Position+1, m.Title, mark)
}

func showModuleCard(d *Deps, chatID int64, m *models.CourseModule) {
	pub := "👁 Опубликовать"
	if m.Published {
		pub = "🔒 Скрыть"
	}
	mk := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬆️", modUp),
			tgbotapi.NewInlineKeyboardButtonData("⬇️", modDown),
			tgbotapi.NewInlineKeyboardButtonData(pub, modPublish),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Переименовать", modRename),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", modDelete),
		),
		fsmutil.BackCancelRow(modBack, CancelData),
	)
	tg.WithMarkup(d.Bot, chatID, "🗂 "+moduleLabel(*m), mk)
}

func HandleModulesText(ctx context.Context, d *Deps, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	st := modulesStates.Get(chatID)
	if st == nil {
		return
	}
	switch st.Step {
	case modStepNew:
		m, err := records.NewModule(records.ModuleInput{CourseID: st.CourseID, Title: msg.Text})
		if err != nil {
			tg.Text(d.Bot, chatID, "⚠️ Название не может быть пустым.")
			return
		}
		if err := db.CreateModule(ctx, d.DB, m); err != nil {
			fail(ctx, d, chatID, "создать модуль", err)
			return
		}
	case modStepRename:
		title := strings.TrimSpace(msg.Text)
		if title == "" {
			tg.Text(d.Bot, chatID, "⚠️ Название не может быть пустым.")
			return
		}
		if err := db.RenameModule(ctx, d.DB, st.ModuleID, title); err != nil {
			fail(ctx, d, chatID, "переименовать модуль", err)
			return
		}
	default:
		return
	}
	tg.Text(d.Bot, chatID, "✅ Сохранено.")
	showModuleList(ctx, d, chatID, st)
}
