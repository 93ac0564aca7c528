package tg

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/teacher-lms-bot/internal/metrics"
	"github.com/Spok95/teacher-lms-bot/internal/observability"
)

// Bot: то, что нужно хендлерам от *tgbotapi.BotAPI.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Считаем системными: 5xx, 429, timeout. 400-ки и типичные телеграм-валидации в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	if strings.Contains(s, "Bad Request") ||
		strings.Contains(s, "message is not modified") ||
		strings.Contains(s, "chat not found") ||
		strings.Contains(s, "can't parse entities") {
		return false
	}
	return strings.Contains(s, "429") || strings.Contains(s, "502") || strings.Contains(s, "503") || strings.Contains(s, "timeout")
}

func Send(bot Bot, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := bot.Send(msg)
	if err != nil {
		metrics.HandlerErrors.Inc()
	}
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return m, err
}

func Request(bot Bot, req tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	r, err := bot.Request(req)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return r, err
}

// Text: короткая отправка текста, ошибка уже учтена в метриках.
func Text(bot Bot, chatID int64, text string) {
	_, _ = Send(bot, tgbotapi.NewMessage(chatID, text))
}

// WithMarkup: текст с клавиатурой (inline или reply).
func WithMarkup(bot Bot, chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	_, _ = Send(bot, msg)
}

// Answer гасит "часики" на inline-кнопке.
func Answer(bot Bot, cq *tgbotapi.CallbackQuery, text string) {
	_, _ = Request(bot, tgbotapi.NewCallback(cq.ID, text))
}
