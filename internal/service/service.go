// Package service реализует сценарии панели администратора: выборки, выгрузки,
// поиск ресурсов участника и сводку по дневной статистике.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mmeshcher/proxypanel/internal/datasource"
	"github.com/mmeshcher/proxypanel/internal/export"
	"github.com/mmeshcher/proxypanel/internal/model"
	"github.com/mmeshcher/proxypanel/internal/pager"
	"github.com/mmeshcher/proxypanel/internal/query"
	"go.uber.org/zap"
)

// Source описывает контракт источника данных, используемый сервисом.
type Source interface {
	datasource.Lister
	datasource.Authenticator
	Close() error
}

// Service содержит логику чтения данных панели.
type Service struct {
	source Source
	labels export.Labels
	now    func() time.Time
	logger *zap.Logger
}

// Option настраивает Service.
type Option func(*Service)

// WithLabels задаёт подписи для выгрузок.
func WithLabels(labels export.Labels) Option {
	return func(s *Service) { s.labels = labels }
}

// WithClock задаёт источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService создаёт сервис поверх источника данных.
func NewService(source Source, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		source: source,
		labels: export.DefaultLabels(),
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close закрывает источник данных.
func (s *Service) Close() error {
	if s.source != nil {
		return s.source.Close()
	}
	return nil
}

// ListRequest описывает запрос страницы списка.
type ListRequest struct {
	Criteria query.Criteria
	Page     int
	PageSize int
}

func paginate[T query.Record](items []T, req ListRequest) (pager.Page[T], error) {
	filtered, err := query.Filter(items, req.Criteria)
	if err != nil {
		return pager.Page[T]{}, err
	}
	return pager.Paginate(filtered, req.Page, req.PageSize)
}

// Orders возвращает страницу заказов.
func (s *Service) Orders(ctx context.Context, req ListRequest) (pager.Page[model.Order], error) {
	orders, err := s.source.Orders(ctx)
	if err != nil {
		return pager.Page[model.Order]{}, fmt.Errorf("load orders: %w", err)
	}
	return paginate(orders, req)
}

// Members возвращает страницу участников.
func (s *Service) Members(ctx context.Context, req ListRequest) (pager.Page[model.Member], error) {
	members, err := s.source.Members(ctx)
	if err != nil {
		return pager.Page[model.Member]{}, fmt.Errorf("load members: %w", err)
	}
	return paginate(members, req)
}

// DailyStats возвращает страницу дневной статистики. Несогласованные
// записи выдаются как есть и логируются.
func (s *Service) DailyStats(ctx context.Context, req ListRequest) (pager.Page[model.DailyStat], error) {
	stats, err := s.source.DailyStats(ctx)
	if err != nil {
		return pager.Page[model.DailyStat]{}, fmt.Errorf("load daily stats: %w", err)
	}
	page, err := paginate(stats, req)
	if err != nil {
		return page, err
	}
	for _, d := range page.Items {
		if err := d.Check(); err != nil {
			s.logger.Warn("inconsistent daily stat", zap.String("date", d.Timestamp()), zap.Error(err))
		}
	}
	return page, nil
}

// ResidentialPackages возвращает резидентные пакеты, отфильтрованные по criteria.
func (s *Service) ResidentialPackages(ctx context.Context, criteria query.Criteria) ([]model.ResidentialPackage, error) {
	packages, err := s.source.ResidentialPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("load residential packages: %w", err)
	}
	return query.Filter(packages, criteria)
}

// UnlimitedPackages возвращает безлимитные пакеты, отфильтрованные по criteria.
func (s *Service) UnlimitedPackages(ctx context.Context, criteria query.Criteria) ([]model.UnlimitedPackage, error) {
	packages, err := s.source.UnlimitedPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("load unlimited packages: %w", err)
	}
	return query.Filter(packages, criteria)
}

// Admins возвращает администраторов, помечает текущего и ставит его первым.
// Порядок остальных сохраняется.
func (s *Service) Admins(ctx context.Context, current string, criteria query.Criteria) ([]model.AdminAccount, error) {
	admins, err := s.source.Admins(ctx)
	if err != nil {
		return nil, fmt.Errorf("load admins: %w", err)
	}
	for i := range admins {
		admins[i].IsCurrent = current != "" && strings.EqualFold(admins[i].Username, current)
	}
	slices.SortStableFunc(admins, func(a, b model.AdminAccount) int {
		switch {
		case a.IsCurrent == b.IsCurrent:
			return 0
		case a.IsCurrent:
			return -1
		}
		return 1
	})
	return query.Filter(admins, criteria)
}

// Admin возвращает учётную запись администратора по ID.
func (s *Service) Admin(ctx context.Context, id int64) (model.AdminAccount, error) {
	admins, err := s.source.Admins(ctx)
	if err != nil {
		return model.AdminAccount{}, fmt.Errorf("load admins: %w", err)
	}
	for _, a := range admins {
		if a.ID == id {
			return a, nil
		}
	}
	return model.AdminAccount{}, fmt.Errorf("admin %d: %w", id, datasource.ErrNotFound)
}

// MemberOrders возвращает историю заказов участника.
func (s *Service) MemberOrders(ctx context.Context, username string) ([]model.Order, error) {
	orders, err := s.source.Orders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return query.Filter(orders, query.Criteria{Equals: map[string]string{"username": username}})
}

// LookupMember находит участника по имени пользователя или e-mail без учёта регистра.
func (s *Service) LookupMember(ctx context.Context, account string) (model.Member, error) {
	key := model.NormalizeAccount(account)
	if key == "" {
		return model.Member{}, fmt.Errorf("empty account: %w", datasource.ErrNotFound)
	}
	members, err := s.source.Members(ctx)
	if err != nil {
		return model.Member{}, fmt.Errorf("load members: %w", err)
	}
	for _, m := range members {
		if strings.ToLower(m.Username) == key || strings.ToLower(m.Email) == key {
			return m, nil
		}
	}
	return model.Member{}, fmt.Errorf("member %q: %w", account, datasource.ErrNotFound)
}

// Authenticate проверяет учётные данные администратора.
func (s *Service) Authenticate(ctx context.Context, username, password string) (model.AdminAccount, error) {
	a, err := s.source.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, datasource.ErrInvalidCredentials) {
			return model.AdminAccount{}, datasource.ErrInvalidCredentials
		}
		return model.AdminAccount{}, fmt.Errorf("authenticate: %w", err)
	}
	return a, nil
}
