// Package datasource описывает источник записей панели и общие для адаптеров ошибки.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mmeshcher/proxypanel/internal/model"
)

var (
	// ErrNotFound возвращается, если адресуемая запись отсутствует.
	ErrNotFound = errors.New("record not found")
	// ErrConflict возвращается при нарушении уникальности (имя администратора, номер заказа).
	ErrConflict = errors.New("record conflicts with existing data")
	// ErrInsufficientBalance возвращается при списании ресурса сверх остатка.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidCredentials возвращается при неверной паре логин/пароль или отключённой учётной записи.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnsupported возвращается адаптером для операции, которую он не выполняет.
	ErrUnsupported = errors.New("unsupported mutation")
)

// Mutation — одна операция записи.
type Mutation struct {
	Action         model.Action
	Target         model.Target
	Payload        model.Payload
	IdempotencyKey string
}

func (m Mutation) String() string {
	return string(m.Action) + " " + m.Target.String()
}

// Lister отдаёт полные коллекции записей. Каждый вызов возвращает
// собственную копию, которую вызывающий может свободно изменять.
type Lister interface {
	Orders(ctx context.Context) ([]model.Order, error)
	Members(ctx context.Context) ([]model.Member, error)
	DailyStats(ctx context.Context) ([]model.DailyStat, error)
	ResidentialPackages(ctx context.Context) ([]model.ResidentialPackage, error)
	UnlimitedPackages(ctx context.Context) ([]model.UnlimitedPackage, error)
	Admins(ctx context.Context) ([]model.AdminAccount, error)
}

// Mutator выполняет операцию записи и возвращает изменённую сущность
// (или nil для удаления).
type Mutator interface {
	Mutate(ctx context.Context, m Mutation) (any, error)
}

// Authenticator проверяет учётные данные администратора.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (model.AdminAccount, error)
}

// Source — источник данных панели: фикстуры в памяти, внешний HTTP API или PostgreSQL.
type Source interface {
	Lister
	Mutator
	Authenticator
	Close() error
}

// ParseID разбирает числовой ключ цели. Нечисловой ключ не может адресовать
// существующую запись, поэтому приводит к ErrNotFound.
func ParseID(t model.Target) (int64, error) {
	id, err := strconv.ParseInt(t.Key, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: %w", t, ErrNotFound)
	}
	return id, nil
}

// PayloadAs приводит полезную нагрузку мутации к ожидаемому типу.
func PayloadAs[T model.Payload](m Mutation) (T, error) {
	v, ok := m.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: payload %T: %w", m, m.Payload, ErrUnsupported)
	}
	return v, nil
}
