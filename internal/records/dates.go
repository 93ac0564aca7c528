package records

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout: формат даты для хранения.
const DateLayout = "2006-01-02"

// ParseDate понимает "02.01.2006", "2006-01-02", "02.01" (текущий год) и слова сегодня/завтра/вчера.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch s {
	case "":
		return time.Time{}, fmt.Errorf("empty date: %w", ErrValidation)
	case "сегодня", "today":
		return today, nil
	case "завтра", "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "вчера", "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	for _, layout := range []string{"02.01.2006", DateLayout, "2.1.2006"} {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation("02.01", s, now.Location()); err == nil {
		return time.Date(y, t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	return time.Time{}, fmt.Errorf("bad date %q: %w", s, ErrValidation)
}

// NormalizeDate приводит ввод к YYYY-MM-DD.
func NormalizeDate(s string, now time.Time) (string, error) {
	t, err := ParseDate(s, now)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// ParseRange: "dd.mm.yyyy-dd.mm.yyyy" (или через пробел/тире).
func ParseRange(s string, now time.Time) (time.Time, time.Time, error) {
	s = strings.NewReplacer("—", "-", "–", "-").Replace(strings.TrimSpace(s))
	var parts []string
	if strings.Count(s, "-") == 1 {
		parts = strings.SplitN(s, "-", 2)
	} else {
		parts = strings.Fields(s)
	}
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("bad range %q: %w", s, ErrValidation)
	}
	from, err := ParseDate(parts[0], now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := ParseDate(parts[1], now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("range end before start: %w", ErrValidation)
	}
	return from, to, nil
}
