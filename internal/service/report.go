package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/proxypanel/internal/export"
	"github.com/mmeshcher/proxypanel/internal/model"
	"github.com/mmeshcher/proxypanel/internal/query"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExportRecords возвращает отфильтрованную коллекцию целиком, без разбиения на страницы.
func (s *Service) ExportRecords(ctx context.Context, entity model.EntityType, criteria query.Criteria) (any, error) {
	switch entity {
	case model.EntityOrder:
		orders, err := s.source.Orders(ctx)
		if err != nil {
			return nil, fmt.Errorf("load orders: %w", err)
		}
		return query.Filter(orders, criteria)
	case model.EntityMember:
		members, err := s.source.Members(ctx)
		if err != nil {
			return nil, fmt.Errorf("load members: %w", err)
		}
		return query.Filter(members, criteria)
	case model.EntityDailyStat:
		stats, err := s.source.DailyStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("load daily stats: %w", err)
		}
		return query.Filter(stats, criteria)
	}
	return nil, fmt.Errorf("%s: %w", entity, export.ErrUnsupportedEntity)
}

// Export готовит таблицу выгрузки по отфильтрованной коллекции.
func (s *Service) Export(ctx context.Context, entity model.EntityType, criteria query.Criteria) (export.Sheet, error) {
	records, err := s.ExportRecords(ctx, entity, criteria)
	if err != nil {
		return export.Sheet{}, err
	}
	f := export.NewFormatter(s.labels, s.now())
	rows, err := f.Format(entity, records)
	if err != nil {
		return export.Sheet{}, err
	}
	return f.Sheet(entity, rows)
}

// Summary — итоги дневной статистики за период.
type Summary struct {
	From              string          `json:"from,omitempty"`
	To                string          `json:"to,omitempty"`
	Days              int             `json:"days"`
	TotalOrders       int             `json:"totalOrders"`
	TotalSales        decimal.Decimal `json:"totalSales"`
	NewUsers          int             `json:"newUsers"`
	ResidentialOrders int             `json:"residentialOrders"`
	ResidentialSales  decimal.Decimal `json:"residentialSales"`
	UnlimitedOrders   int             `json:"unlimitedOrders"`
	UnlimitedSales    decimal.Decimal `json:"unlimitedSales"`
}

// Summary суммирует дневную статистику за период [from, to].
// Пустые границы не ограничивают период.
func (s *Service) Summary(ctx context.Context, from, to string) (Summary, error) {
	stats, err := s.source.DailyStats(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load daily stats: %w", err)
	}
	stats, err = query.Filter(stats, query.Criteria{DateFrom: from, DateTo: to})
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{From: from, To: to, Days: len(stats)}
	for _, d := range stats {
		sum.TotalOrders += d.TotalOrders
		sum.TotalSales = sum.TotalSales.Add(d.TotalSales)
		sum.NewUsers += d.NewUsers
		sum.ResidentialOrders += d.ResidentialOrders
		sum.ResidentialSales = sum.ResidentialSales.Add(d.ResidentialSales)
		sum.UnlimitedOrders += d.UnlimitedOrders
		sum.UnlimitedSales = sum.UnlimitedSales.Add(d.UnlimitedSales)
	}
	return sum, nil
}

// DailyIssue — нарушение согласованности дневной статистики.
type DailyIssue struct {
	Date string `json:"date"`
	Err  error  `json:"-"`
}

// CheckDailyStats проверяет всю дневную статистику и возвращает нарушения.
func (s *Service) CheckDailyStats(ctx context.Context) ([]DailyIssue, error) {
	stats, err := s.source.DailyStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load daily stats: %w", err)
	}
	var issues []DailyIssue
	for _, d := range stats {
		if err := d.Check(); err != nil {
			issues = append(issues, DailyIssue{Date: d.Timestamp(), Err: err})
		}
	}
	return issues, nil
}

// WatchDailyStats периодически проверяет дневную статистику и логирует нарушения.
// Блокируется до отмены ctx.
func (s *Service) WatchDailyStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.reportDailyIssues(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) reportDailyIssues(ctx context.Context) {
	issues, err := s.CheckDailyStats(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("daily stats check failed", zap.Error(err))
		}
		return
	}
	for _, issue := range issues {
		s.logger.Warn("inconsistent daily stat", zap.String("date", issue.Date), zap.Error(issue.Err))
	}
}
