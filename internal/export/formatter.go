package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mmeshcher/proxypanel/internal/model"
)

// ErrUnsupportedEntity возвращается для сущности, у которой нет табличной выгрузки.
var ErrUnsupportedEntity = errors.New("entity has no export layout")

const (
	noPayTime      = "--"
	noServerConfig = "/"
)

// Cell — значение одного столбца строки.
type Cell struct {
	Label string
	Value any
}

// Row — упорядоченная строка выгрузки.
type Row []Cell

// Value возвращает значение столбца по подписи.
func (r Row) Value(label string) (any, bool) {
	for _, c := range r {
		if c.Label == label {
			return c.Value, true
		}
	}
	return nil, false
}

// Sheet — готовая к записи таблица.
type Sheet struct {
	Name     string
	FileName string
	Columns  []Column
	Rows     []Row
}

// Writer записывает таблицу в файловый формат.
type Writer interface {
	Write(w io.Writer, s Sheet) error
}

// Formatter превращает записи в строки выгрузки. Не выполняет ввода-вывода
// и не читает часы: текущий день передаётся в Today.
type Formatter struct {
	Labels Labels
	Today  time.Time
}

// NewFormatter создаёт форматтер с подписями labels и текущим днём today.
func NewFormatter(labels Labels, today time.Time) *Formatter {
	return &Formatter{Labels: labels, Today: today}
}

// Orders форматирует заказы. Строк столько же, сколько заказов.
func (f *Formatter) Orders(orders []model.Order) []Row {
	rows := make([]Row, 0, len(orders))
	for _, o := range orders {
		payTime := noPayTime
		if ts := o.Timestamp(); ts != "" {
			payTime = ts
		}
		serverConfig := o.ServerConfig
		if serverConfig == "" {
			serverConfig = noServerConfig
		}
		rows = append(rows, Row{
			{orderColumns[0].Label, o.Username},
			{orderColumns[1].Label, o.Email},
			{orderColumns[2].Label, o.OrderNo},
			{orderColumns[3].Label, lookup(f.Labels.ProductTypes, o.ProductType)},
			{orderColumns[4].Label, serverConfig},
			{orderColumns[5].Label, o.Resource},
			{orderColumns[6].Label, o.OrderAmount},
			{orderColumns[7].Label, o.PaidAmount},
			{orderColumns[8].Label, lookup(f.Labels.OrderStatuses, o.Status)},
			{orderColumns[9].Label, payTime},
			{orderColumns[10].Label, lookup(f.Labels.OrderSources, o.Source)},
		})
	}
	return rows
}

// Members форматирует участников.
func (f *Formatter) Members(members []model.Member) []Row {
	rows := make([]Row, 0, len(members))
	for _, m := range members {
		rows = append(rows, Row{
			{memberColumns[0].Label, m.Username},
			{memberColumns[1].Label, m.Email},
			{memberColumns[2].Label, model.ResourceLabel(model.ProductResidential, m.ResidentialBalance)},
			{memberColumns[3].Label, model.ResourceLabel(model.ProductUnlimited, m.UnlimitedBalance)},
			{memberColumns[4].Label, m.TotalSpent},
			{memberColumns[5].Label, m.Timestamp()},
			{memberColumns[6].Label, lookup(f.Labels.AccountStatuses, m.Status)},
		})
	}
	return rows
}

// DailyStats форматирует дневную статистику. К дате текущего дня
// добавляется пометка из Labels.TodaySuffix.
func (f *Formatter) DailyStats(stats []model.DailyStat) []Row {
	today := f.Today.Format(model.DateLayout)
	rows := make([]Row, 0, len(stats))
	for _, d := range stats {
		date := d.Timestamp()
		if date == today {
			date += f.Labels.TodaySuffix
		}
		rows = append(rows, Row{
			{dailyColumns[0].Label, date},
			{dailyColumns[1].Label, d.TotalOrders},
			{dailyColumns[2].Label, d.TotalSales},
			{dailyColumns[3].Label, d.NewUsers},
			{dailyColumns[4].Label, d.ResidentialOrders},
			{dailyColumns[5].Label, d.ResidentialSales},
			{dailyColumns[6].Label, d.UnlimitedOrders},
			{dailyColumns[7].Label, d.UnlimitedSales},
		})
	}
	return rows
}

// Format выбирает раскладку по виду сущности. records должен быть срезом
// соответствующего типа.
func (f *Formatter) Format(entity model.EntityType, records any) ([]Row, error) {
	switch entity {
	case model.EntityOrder:
		if v, ok := records.([]model.Order); ok {
			return f.Orders(v), nil
		}
	case model.EntityMember:
		if v, ok := records.([]model.Member); ok {
			return f.Members(v), nil
		}
	case model.EntityDailyStat:
		if v, ok := records.([]model.DailyStat); ok {
			return f.DailyStats(v), nil
		}
	default:
		return nil, fmt.Errorf("%s: %w", entity, ErrUnsupportedEntity)
	}
	return nil, fmt.Errorf("format %s: unexpected records type %T", entity, records)
}

// Sheet собирает таблицу: имя листа, имя файла вида "{Тип}_{YYYY-MM-DD}.xlsx",
// столбцы и строки.
func (f *Formatter) Sheet(entity model.EntityType, rows []Row) (Sheet, error) {
	cols, ok := Columns(entity)
	if !ok {
		return Sheet{}, fmt.Errorf("%s: %w", entity, ErrUnsupportedEntity)
	}
	name := lookup(f.Labels.TypeNames, entity)
	return Sheet{
		Name:     name,
		FileName: FileName(name, f.Today),
		Columns:  cols,
		Rows:     rows,
	}, nil
}

// FileName возвращает имя файла выгрузки.
func FileName(typeLabel string, day time.Time) string {
	return typeLabel + "_" + day.Format(model.DateLayout) + ".xlsx"
}
