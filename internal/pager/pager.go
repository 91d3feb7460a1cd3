// Package pager реализует постраничную выдачу коллекций.
package pager

import "github.com/mmeshcher/proxypanel/internal/validation"

// Значения по умолчанию для постраничной выдачи.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// PageSizes перечисляет размеры страниц, предлагаемые интерфейсом.
var PageSizes = []int{10, 15, 20, 50, 100}

// Page — одна страница коллекции. Total — размер всей коллекции
// и не зависит от номера страницы.
type Page[T any] struct {
	Items    []T `json:"list"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// TotalPages возвращает число страниц, не меньше одной.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total-1)/p.PageSize + 1
}

// Paginate возвращает страницу page (нумерация с единицы) размера pageSize.
// Страница за пределами коллекции пуста.
func Paginate[T any](items []T, page, pageSize int) (Page[T], error) {
	if page < 1 {
		return Page[T]{}, validation.Errorf("page", "must be at least 1, got %d", page)
	}
	if pageSize < 1 {
		return Page[T]{}, validation.Errorf("pageSize", "must be at least 1, got %d", pageSize)
	}

	p := Page[T]{Items: []T{}, Total: len(items), Page: page, PageSize: pageSize}

	start := (page - 1) * pageSize
	// Защита от переполнения при огромных номерах страниц.
	if start < 0 || start >= len(items) || start/pageSize != page-1 {
		return p, nil
	}

	end := start + min(pageSize, len(items)-start)
	p.Items = items[start:end:end]

	return p, nil
}
