// Package query фильтрует типизированные коллекции записей по критериям выборки.
package query

import (
	"maps"
	"slices"
	"strings"

	"github.com/mmeshcher/proxypanel/internal/validation"
)

// Record — запись, пригодная для фильтрации.
//
// SearchFields возвращает поля для поиска по ключевому слову, Timestamp —
// сортируемую строку времени вида "YYYY-MM-DD[ HH:mm]" или пустую строку,
// если время отсутствует. Field возвращает значение поля по имени и false,
// если такого поля у записи нет.
type Record interface {
	SearchFields() []string
	Timestamp() string
	Field(name string) (string, bool)
}

// Criteria описывает условия выборки. Пустые значения не ограничивают выборку.
type Criteria struct {
	Keyword  string
	DateFrom string
	DateTo   string
	// Equals задаёт точное совпадение поля.
	Equals map[string]string
	// Contains задаёт вхождение подстроки в поле без учёта регистра.
	Contains map[string]string
}

// IsZero сообщает, что критерии не содержат ни одного условия.
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Keyword) == "" &&
		strings.TrimSpace(c.DateFrom) == "" &&
		strings.TrimSpace(c.DateTo) == "" &&
		!hasValues(c.Equals) &&
		!hasValues(c.Contains)
}

func hasValues(m map[string]string) bool {
	for _, v := range m {
		if v != "" {
			return true
		}
	}
	return false
}

type matcher struct {
	keyword  string
	from     string
	to       string
	equals   map[string]string
	contains map[string]string
}

func compile(c Criteria) (matcher, error) {
	m := matcher{
		keyword:  strings.ToLower(strings.TrimSpace(c.Keyword)),
		equals:   make(map[string]string, len(c.Equals)),
		contains: make(map[string]string, len(c.Contains)),
	}

	if s := strings.TrimSpace(c.DateFrom); s != "" {
		t, layout, err := validation.ParseDate("dateFrom", s)
		if err != nil {
			return matcher{}, err
		}
		m.from = t.Format(layout)
	}

	if s := strings.TrimSpace(c.DateTo); s != "" {
		t, layout, err := validation.ParseDate("dateTo", s)
		if err != nil {
			return matcher{}, err
		}
		m.to = t.Format(layout)
		// Дата без времени включает весь день.
		if layout == validation.DateLayout {
			m.to += " 23:59:59"
		}
	}

	for field, v := range c.Equals {
		if v != "" {
			m.equals[field] = v
		}
	}
	for field, v := range c.Contains {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			m.contains[field] = v
		}
	}

	return m, nil
}

// checkFields проверяет, что все поля условий известны записям вида r.
// Поля проверяются в алфавитном порядке.
func (m matcher) checkFields(r Record) error {
	for _, names := range []map[string]string{m.equals, m.contains} {
		for _, field := range slices.Sorted(maps.Keys(names)) {
			if _, ok := r.Field(field); !ok {
				return validation.Errorf(field, "unknown filter field")
			}
		}
	}
	return nil
}

func (m matcher) match(r Record) bool {
	for field, want := range m.equals {
		if got, _ := r.Field(field); got != want {
			return false
		}
	}
	for field, want := range m.contains {
		if got, _ := r.Field(field); !strings.Contains(strings.ToLower(got), want) {
			return false
		}
	}

	if m.keyword != "" && !containsKeyword(r.SearchFields(), m.keyword) {
		return false
	}

	if m.from != "" || m.to != "" {
		ts := r.Timestamp()
		// Запись без времени не проходит ни одну границу диапазона.
		if ts == "" {
			return false
		}
		if m.from != "" && ts < m.from {
			return false
		}
		if m.to != "" && ts > m.to {
			return false
		}
	}

	return true
}

func containsKeyword(fields []string, keyword string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), keyword) {
			return true
		}
	}
	return false
}

// Filter возвращает записи items, удовлетворяющие всем criteria, в исходном порядке.
//
// Несколько критериев объединяются по И, поэтому последовательная фильтрация
// равна фильтрации по объединённым критериям. Без условий возвращается сам items.
// Неразборчивая дата или неизвестное поле приводят к *validation.Error.
func Filter[T Record](items []T, criteria ...Criteria) ([]T, error) {
	var zero T
	matchers := make([]matcher, 0, len(criteria))
	for _, c := range criteria {
		if c.IsZero() {
			continue
		}
		m, err := compile(c)
		if err != nil {
			return nil, err
		}
		// Набор полей не зависит от значения записи, поэтому достаточно нулевой.
		if err := m.checkFields(zero); err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}

	if len(matchers) == 0 {
		return items, nil
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		keep := true
		for _, m := range matchers {
			if !m.match(item) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, item)
		}
	}

	return out, nil
}
