// Package memory реализует источник данных панели в памяти процесса.
// Используется для демонстрации и в тестах.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmeshcher/proxypanel/internal/datasource"
	"github.com/mmeshcher/proxypanel/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type member struct {
	model.Member
	passwordHash []byte
}

type admin struct {
	model.AdminAccount
	passwordHash []byte
}

// Store хранит записи в памяти. Чтение отдаёт копии, поэтому конкурентные
// запросы не видят частично применённых изменений.
type Store struct {
	mu          sync.RWMutex
	orders      []model.Order
	members     []member
	daily       []model.DailyStat
	residential []model.ResidentialPackage
	unlimited   []model.UnlimitedPackage
	admins      []admin
	lastID      map[model.EntityType]int64

	now      func() time.Time
	hashCost int
}

var _ datasource.Source = (*Store)(nil)

// Option настраивает Store.
type Option func(*Store)

// WithClock задаёт источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithHashCost задаёт стоимость bcrypt для хранимых паролей.
func WithHashCost(cost int) Option {
	return func(s *Store) { s.hashCost = cost }
}

// NewEmpty создаёт пустое хранилище.
func NewEmpty(opts ...Option) *Store {
	s := &Store{
		lastID:   make(map[model.EntityType]int64),
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New создаёт хранилище, заполненное демонстрационными данными.
func New(opts ...Option) (*Store, error) {
	s := NewEmpty(opts...)
	f := demoFixtures()

	s.orders = f.orders
	s.daily = f.daily
	s.residential = f.residential
	s.unlimited = f.unlimited

	for _, m := range f.members {
		hash, err := s.hash(f.passwords[m.Username])
		if err != nil {
			return nil, err
		}
		s.members = append(s.members, member{Member: m, passwordHash: hash})
	}
	for _, a := range f.admins {
		hash, err := s.hash(f.adminPass[a.Username])
		if err != nil {
			return nil, err
		}
		s.admins = append(s.admins, admin{AdminAccount: a, passwordHash: hash})
	}

	for _, o := range s.orders {
		s.lastID[model.EntityOrder] = max(s.lastID[model.EntityOrder], o.ID)
	}
	for _, p := range s.residential {
		s.lastID[model.EntityResidentialPackage] = max(s.lastID[model.EntityResidentialPackage], p.ID)
	}
	for _, p := range s.unlimited {
		s.lastID[model.EntityUnlimitedPackage] = max(s.lastID[model.EntityUnlimitedPackage], p.ID)
	}
	for _, a := range s.admins {
		s.lastID[model.EntityAdmin] = max(s.lastID[model.EntityAdmin], a.ID)
	}

	return s, nil
}

func (s *Store) hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (s *Store) nextID(entity model.EntityType) int64 {
	s.lastID[entity]++
	return s.lastID[entity]
}

// Orders возвращает копию списка заказов.
func (s *Store) Orders(ctx context.Context) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.orders), ctx.Err()
}

// Members возвращает копию списка участников.
func (s *Store) Members(ctx context.Context) ([]model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m.Member)
	}
	return out, ctx.Err()
}

// DailyStats возвращает копию дневной статистики.
func (s *Store) DailyStats(ctx context.Context) ([]model.DailyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.daily), ctx.Err()
}

// ResidentialPackages возвращает копию резидентных пакетов.
func (s *Store) ResidentialPackages(ctx context.Context) ([]model.ResidentialPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.residential), ctx.Err()
}

// UnlimitedPackages возвращает копию безлимитных пакетов.
func (s *Store) UnlimitedPackages(ctx context.Context) ([]model.UnlimitedPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.unlimited), ctx.Err()
}

// Admins возвращает копию списка администраторов.
func (s *Store) Admins(ctx context.Context) ([]model.AdminAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AdminAccount, 0, len(s.admins))
	for _, a := range s.admins {
		out = append(out, a.AdminAccount)
	}
	return out, ctx.Err()
}

// Authenticate проверяет пароль активного администратора.
func (s *Store) Authenticate(ctx context.Context, username, password string) (model.AdminAccount, error) {
	if err := ctx.Err(); err != nil {
		return model.AdminAccount{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.admins {
		if !strings.EqualFold(a.Username, username) {
			continue
		}
		if a.Status != model.StatusActive {
			return model.AdminAccount{}, datasource.ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
			return model.AdminAccount{}, datasource.ErrInvalidCredentials
		}
		return a.AdminAccount, nil
	}
	return model.AdminAccount{}, datasource.ErrInvalidCredentials
}

// Close ничего не освобождает.
func (s *Store) Close() error { return nil }

// Mutate применяет операцию к хранилищу под эксклюзивной блокировкой.
func (s *Store) Mutate(ctx context.Context, m datasource.Mutation) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Хеширование выполняется до блокировки.
	var hash []byte
	switch p := m.Payload.(type) {
	case model.PasswordChange:
		h, err := s.hash(p.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	case model.AdminInput:
		h, err := s.hash(p.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	case model.AdminUpdate:
		if p.Password != "" {
			h, err := s.hash(p.Password)
			if err != nil {
				return nil, err
			}
			hash = h
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch m.Target.Entity {
	case model.EntityOrder:
		if m.Action == model.ActionCreate {
			return s.createOrder(m)
		}
	case model.EntityMember:
		return s.mutateMember(m, hash)
	case model.EntityResidentialPackage:
		return s.mutateResidential(m)
	case model.EntityUnlimitedPackage:
		return s.mutateUnlimited(m)
	case model.EntityAdmin:
		return s.mutateAdmin(m, hash)
	}
	return nil, fmt.Errorf("%s: %w", m, datasource.ErrUnsupported)
}

func (s *Store) findMember(key string) int {
	key = model.NormalizeAccount(key)
	return slices.IndexFunc(s.members, func(m member) bool {
		return strings.ToLower(m.Username) == key || strings.ToLower(m.Email) == key
	})
}

func (s *Store) createOrder(m datasource.Mutation) (any, error) {
	in, err := datasource.PayloadAs[model.OrderInput](m)
	if err != nil {
		return nil, err
	}
	i := s.findMember(in.Account)
	if i < 0 {
		return nil, fmt.Errorf("member %q: %w", in.Account, datasource.ErrNotFound)
	}
	mem := &s.members[i]
	now := s.now()

	id := s.nextID(model.EntityOrder)
	o := model.Order{
		ID:           id,
		Username:     mem.Username,
		Email:        mem.Email,
		OrderNo:      fmt.Sprintf("ORD%s%03d", now.Format("20060102"), id),
		ProductType:  in.ProductType,
		ServerConfig: in.ServerConfig,
		Resource:     in.ResourceLabel(),
		OrderAmount:  in.Amount,
		PaidAmount:   decimal.Zero,
		Status:       model.OrderStatusUnpaid,
		Source:       model.OrderSourceBackoffice,
	}
	if in.Paid {
		o.PaidAmount = in.Amount
		o.Status = model.OrderStatusPaid
		o.PayTime = &now
		mem.TotalSpent = mem.TotalSpent.Add(in.Amount)
		credit(&mem.Member, in)
	}

	s.orders = append([]model.Order{o}, s.orders...)
	return o, nil
}

// credit зачисляет оплаченный ресурс на баланс участника.
func credit(m *model.Member, in model.OrderInput) {
	switch in.ProductType {
	case model.ProductResidential:
		m.ResidentialBalance = m.ResidentialBalance.Add(in.Quantity)
	case model.ProductUnlimited:
		m.UnlimitedBalance = m.UnlimitedBalance.Add(in.Quantity)
		if in.ServerConfig != "" {
			m.UnlimitedConfig = in.ServerConfig
		}
	}
}

func (s *Store) mutateMember(m datasource.Mutation, hash []byte) (any, error) {
	i := slices.IndexFunc(s.members, func(mem member) bool { return mem.Username == m.Target.Key })
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", m.Target, datasource.ErrNotFound)
	}
	mem := &s.members[i]

	switch m.Action {
	case model.ActionToggleStatus:
		in, err := datasource.PayloadAs[model.StatusChange](m)
		if err != nil {
			return nil, err
		}
		mem.Status = in.Status
	case model.ActionChangePassword:
		if _, err := datasource.PayloadAs[model.PasswordChange](m); err != nil {
			return nil, err
		}
		mem.passwordHash = hash
	case model.ActionDeduct:
		in, err := datasource.PayloadAs[model.Deduction](m)
		if err != nil {
			return nil, err
		}
		if err := deduct(&mem.Member, in); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s: %w", m, datasource.ErrUnsupported)
	}
	return mem.Member, nil
}

func deduct(m *model.Member, in model.Deduction) error {
	balance := &m.ResidentialBalance
	if in.Type == model.ProductUnlimited {
		balance = &m.UnlimitedBalance
	}
	if balance.LessThan(in.Amount) {
		return fmt.Errorf("deduct %s from %s: %w", in.Amount, balance.String(), datasource.ErrInsufficientBalance)
	}
	*balance = balance.Sub(in.Amount)
	return nil
}

func (s *Store) mutateResidential(m datasource.Mutation) (any, error) {
	if m.Action == model.ActionCreate {
		in, err := datasource.PayloadAs[model.ResidentialPackageInput](m)
		if err != nil {
			return nil, err
		}
		p := model.ResidentialPackage{
			ID:        s.nextID(model.EntityResidentialPackage),
			Status:    model.StatusActive,
			CreatedAt: s.now(),
		}
		applyResidential(&p, in)
		s.residential = append(s.residential, p)
		return p, nil
	}

	id, err := datasource.ParseID(m.Target)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(s.residential, func(p model.ResidentialPackage) bool { return p.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", m.Target, datasource.ErrNotFound)
	}

	switch m.Action {
	case model.ActionUpdate:
		in, err := datasource.PayloadAs[model.ResidentialPackageInput](m)
		if err != nil {
			return nil, err
		}
		applyResidential(&s.residential[i], in)
	case model.ActionDelete:
		s.residential = slices.Delete(s.residential, i, i+1)
		return nil, nil
	case model.ActionToggleStatus:
		in, err := datasource.PayloadAs[model.StatusChange](m)
		if err != nil {
			return nil, err
		}
		s.residential[i].Status = in.Status
	default:
		return nil, fmt.Errorf("%s: %w", m, datasource.ErrUnsupported)
	}
	return s.residential[i], nil
}

func applyResidential(p *model.ResidentialPackage, in model.ResidentialPackageInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.GB = in.GB
	p.UnitPrice = in.UnitPrice
	p.ValidityDays = in.ValidityDays
	p.TotalPrice = model.PackagePrice(in.GB, in.UnitPrice)
}

func (s *Store) mutateUnlimited(m datasource.Mutation) (any, error) {
	if m.Action == model.ActionCreate {
		in, err := datasource.PayloadAs[model.UnlimitedPackageInput](m)
		if err != nil {
			return nil, err
		}
		p := model.UnlimitedPackage{
			ID:                    s.nextID(model.EntityUnlimitedPackage),
			Name:                  strings.TrimSpace(in.Name),
			DurationDays:          in.DurationDays,
			BasePrice:             in.BasePrice,
			BaseBandwidth:         in.BaseBandwidth,
			BaseCPUTier:           in.BaseCPUTier,
			CPUUpgradePrice:       in.CPUUpgradePrice,
			BandwidthUpgradePrice: in.BandwidthUpgradePrice,
			Status:                model.StatusActive,
			UpdatedAt:             s.now(),
		}
		s.unlimited = append(s.unlimited, p)
		return p, nil
	}

	id, err := datasource.ParseID(m.Target)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(s.unlimited, func(p model.UnlimitedPackage) bool { return p.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", m.Target, datasource.ErrNotFound)
	}
	p := &s.unlimited[i]

	switch m.Action {
	case model.ActionUpdate:
		in, err := datasource.PayloadAs[model.UnlimitedPackageUpdate](m)
		if err != nil {
			return nil, err
		}
		p.Name = strings.TrimSpace(in.Name)
		p.BasePrice = in.BasePrice
		p.CPUUpgradePrice = in.CPUUpgradePrice
		p.BandwidthUpgradePrice = in.BandwidthUpgradePrice
	case model.ActionDelete:
		s.unlimited = slices.Delete(s.unlimited, i, i+1)
		return nil, nil
	case model.ActionToggleStatus:
		in, err := datasource.PayloadAs[model.StatusChange](m)
		if err != nil {
			return nil, err
		}
		p.Status = in.Status
	default:
		return nil, fmt.Errorf("%s: %w", m, datasource.ErrUnsupported)
	}
	p.UpdatedAt = s.now()
	return *p, nil
}

func (s *Store) mutateAdmin(m datasource.Mutation, hash []byte) (any, error) {
	if m.Action == model.ActionCreate {
		in, err := datasource.PayloadAs[model.AdminInput](m)
		if err != nil {
			return nil, err
		}
		if slices.ContainsFunc(s.admins, func(a admin) bool { return strings.EqualFold(a.Username, in.Username) }) {
			return nil, fmt.Errorf("admin %q: %w", in.Username, datasource.ErrConflict)
		}
		a := admin{
			AdminAccount: model.AdminAccount{
				ID:        s.nextID(model.EntityAdmin),
				Username:  strings.TrimSpace(in.Username),
				Email:     in.Email,
				Role:      in.Role,
				Status:    model.StatusActive,
				CreatedAt: s.now(),
			},
			passwordHash: hash,
		}
		s.admins = append(s.admins, a)
		return a.AdminAccount, nil
	}

	id, err := datasource.ParseID(m.Target)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(s.admins, func(a admin) bool { return a.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", m.Target, datasource.ErrNotFound)
	}
	a := &s.admins[i]

	switch m.Action {
	case model.ActionUpdate:
		in, err := datasource.PayloadAs[model.AdminUpdate](m)
		if err != nil {
			return nil, err
		}
		a.Email = in.Email
		a.Role = in.Role
		if hash != nil {
			a.passwordHash = hash
		}
	case model.ActionDelete:
		s.admins = slices.Delete(s.admins, i, i+1)
		return nil, nil
	case model.ActionToggleStatus:
		in, err := datasource.PayloadAs[model.StatusChange](m)
		if err != nil {
			return nil, err
		}
		a.Status = in.Status
	default:
		return nil, fmt.Errorf("%s: %w", m, datasource.ErrUnsupported)
	}
	return a.AdminAccount, nil
}
