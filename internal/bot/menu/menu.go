package menu

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Тексты кнопок главного меню (они же команды в диспетчере).
const (
	BtnCourses     = "📚 Курсы"
	BtnLesson      = "📝 Новый урок"
	BtnAssignments = "🧾 Задания"
	BtnGrade       = "🎯 Оценки"
	BtnExport      = "📤 Экспорт оценок"
	BtnModules     = "🗂 Модули"
	BtnAttendance  = "✅ Посещаемость"
	BtnPeerReview  = "🔁 Взаимопроверка"
	BtnStandards   = "📐 Стандарты"
	BtnAR          = "🕶 AR"
)

// TeacherMenu: главное меню преподавателя.
func TeacherMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnCourses),
			tgbotapi.NewKeyboardButton(BtnModules),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnLesson),
			tgbotapi.NewKeyboardButton(BtnAssignments),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnGrade),
			tgbotapi.NewKeyboardButton(BtnExport),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnAttendance),
			tgbotapi.NewKeyboardButton(BtnPeerReview),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnStandards),
			tgbotapi.NewKeyboardButton(BtnAR),
		),
	)
}
