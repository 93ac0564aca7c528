package menu

import (
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/teacher-lms-bot/internal/flowlayout"
)

const (
	// примерная ширина inline-клавиатуры на телефоне, в символах
	DefaultRowWidth = 32
	// у Telegram не больше 8 кнопок в ряду
	maxPerRow = 8
	// поля кнопки по бокам
	buttonPadding = 4
)

type Button struct {
	Text string
	Data string
}

// Chips раскладывает кнопки по рядам, как теги: короткие: по несколько в ряд, длинные: по одной.
func Chips(buttons []Button, rowWidth int) [][]tgbotapi.InlineKeyboardButton {
	if len(buttons) == 0 {
		return nil
	}
	sizes := make([]flowlayout.Size, len(buttons))
	for i, b := range buttons {
		sizes[i] = flowlayout.Size{Width: float64(utf8.RuneCountInString(b.Text) + buttonPadding), Height: 1}
	}
	res := flowlayout.Layout(sizes, float64(rowWidth))

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, line := range res.Lines {
		for start := 0; start < len(line); start += maxPerRow {
			end := min(start+maxPerRow, len(line))
			row := make([]tgbotapi.InlineKeyboardButton, 0, end-start)
			for _, idx := range line[start:end] {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(buttons[idx].Text, buttons[idx].Data))
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// ChipsMarkup: Chips плюс служебные ряды снизу (Назад/Отмена и т.п.).
func ChipsMarkup(buttons []Button, extra ...[]tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	rows := Chips(buttons, DefaultRowWidth)
	rows = append(rows, extra...)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
