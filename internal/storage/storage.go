// Package storage публикует файлы выгрузок для внешнего доступа.
package storage

import "context"

// Sharer загружает локальный файл и возвращает ссылку на него.
type Sharer interface {
	Share(ctx context.Context, key, path string) (string, error)
}

// Nop: публикация отключена.
type Nop struct{}

func (Nop) Share(context.Context, string, string) (string, error) { return "", nil }
