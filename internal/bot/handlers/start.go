package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/teacher-lms-bot/internal/bot/menu"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

const helpText = `📋 Команды:
/courses — курсы и ученики
/lesson — новый урок
/assignments — задания
/grade — выставить оценки
/export — выгрузка оценок и посещаемости
/modules — модули курса
/attendance — отметить посещаемость
/peer_review — взаимопроверка
/standards — справочник стандартов
/ar — AR-просмотр
/cancel — отменить текущее действие`

func StartHandler(_ context.Context, d *Deps, msg *tgbotapi.Message) {
	name := msg.From.FirstName
	if name == "" {
		name = "коллега"
	}
	tg.WithMarkup(d.Bot, msg.Chat.ID, "👋 Здравствуйте, "+name+"! Это рабочее место преподавателя.\n\n"+helpText, menu.TeacherMenu())
}

func HelpHandler(_ context.Context, d *Deps, msg *tgbotapi.Message) {
	tg.WithMarkup(d.Bot, msg.Chat.ID, helpText, menu.TeacherMenu())
}

// ARHandler: заглушка AR-просмотра.
func ARHandler(_ context.Context, d *Deps, msg *tgbotapi.Message) {
	tg.Text(d.Bot, msg.Chat.ID, "🕶 AR-просмотр пока в разработке.")
}
