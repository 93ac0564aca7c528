package fsmutil

import (
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/teacher-lms-bot/internal/metrics"
	"github.com/Spok95/teacher-lms-bot/internal/tg"
)

// Store: состояния одного сценария по chatID.
type Store[T any] struct {
	mu sync.Mutex
	m  map[int64]*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{m: make(map[int64]*T)}
}

func (s *Store[T]) Get(chatID int64) *T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[chatID]
}

func (s *Store[T]) Set(chatID int64, st *T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[chatID] = st
}

func (s *Store[T]) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
}

// pending: простая защита от повторной обработки "тяжёлых" действий.
// Ключ: chatID; значение: произвольный ключ контекста (например "export" или "peer_review").
var pending = struct {
	mu sync.Mutex
	m  map[int64]string
}{
	m: make(map[int64]string),
}

// SetPending помечает чат как "в обработке" для ключа key.
// Возвращает false, если уже что-то обрабатывается.
func SetPending(chatID int64, key string) bool {
	pending.mu.Lock()
	defer pending.mu.Unlock()

	if _, ok := pending.m[chatID]; ok {
		return false
	}
	pending.m[chatID] = key
	return true
}

// ClearPending снимает флаг "в обработке", если ключ совпал.
func ClearPending(chatID int64, key string) {
	pending.mu.Lock()
	defer pending.mu.Unlock()

	if cur, ok := pending.m[chatID]; ok && cur == key {
		delete(pending.m, chatID)
	}
}

// DisableMarkup "гасит" inline‑клавиатуру у сообщения (one‑shot клавиатура).
func DisableMarkup(bot tg.Bot, chatID int64, messageID int) {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: make([][]tgbotapi.InlineKeyboardButton, 0)}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)
	if _, err := bot.Send(edit); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

// BackCancelRow: готовая строка с кнопками "Назад" и "Отмена".
func BackCancelRow(backData, cancelData string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", backData),
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cancelData),
	)
}

func CancelRow(cancelData string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cancelData))
}

// IsCancelText: проверка "текстовой" отмены на шагах, где пользователь вводит текст.
// Поддерживаем: "Отмена", "/cancel", "cancel" (регистр/пробелы игнорим).
func IsCancelText(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "отмена" || s == "/cancel" || s == "cancel"
}
