package model

import (
	"strings"

	"github.com/mmeshcher/proxypanel/internal/validation"
	"github.com/shopspring/decimal"
)

// MinPasswordLength — минимальная длина пароля участника или администратора.
const MinPasswordLength = 6

// Payload — полезная нагрузка мутации. Validate проверяет её локально,
// до обращения к источнику данных.
type Payload interface {
	Validate() error
}

// OrderInput описывает заказ, созданный из панели администратора.
// Account — имя пользователя или e-mail участника, Quantity — ГБ или дни.
type OrderInput struct {
	Account      string          `json:"account"`
	ProductType  ProductType     `json:"type"`
	ServerConfig string          `json:"serverConfig,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Amount       decimal.Decimal `json:"amount"`
	Paid         bool            `json:"paid"`
}

func (in OrderInput) Validate() error {
	return validation.First(
		validation.Required("account", in.Account),
		validation.OneOf("type", in.ProductType, ProductResidential, ProductUnlimited),
		validation.Positive("quantity", in.Quantity),
		validation.Positive("amount", in.Amount),
	)
}

// ResourceLabel возвращает объём ресурса в виде, принятом в заказах: "500 GB", "30 天".
func (in OrderInput) ResourceLabel() string {
	return ResourceLabel(in.ProductType, in.Quantity)
}

// ResourceLabel форматирует количество ресурса для типа продукта.
func ResourceLabel(t ProductType, qty decimal.Decimal) string {
	if t == ProductUnlimited {
		return qty.String() + " 天"
	}
	return qty.String() + " GB"
}

// ResidentialPackageInput описывает создание или изменение резидентного пакета.
// Итоговая стоимость не передаётся и вычисляется как GB × UnitPrice.
type ResidentialPackageInput struct {
	Name         string          `json:"name"`
	GB           decimal.Decimal `json:"gb"`
	UnitPrice    decimal.Decimal `json:"price"`
	ValidityDays int             `json:"days"`
}

func (in ResidentialPackageInput) Validate() error {
	return validation.First(
		validation.Required("name", in.Name),
		validation.Positive("gb", in.GB),
		validation.Positive("price", in.UnitPrice),
		validation.PositiveInt("days", in.ValidityDays),
	)
}

// UnlimitedPackageInput описывает создание безлимитного пакета.
type UnlimitedPackageInput struct {
	Name                  string          `json:"name"`
	DurationDays          int             `json:"days"`
	BasePrice             decimal.Decimal `json:"basePrice"`
	BaseBandwidth         int             `json:"baseBandwidth"`
	BaseCPUTier           CPUTier         `json:"baseCpu"`
	CPUUpgradePrice       decimal.Decimal `json:"cpuUpgrade"`
	BandwidthUpgradePrice decimal.Decimal `json:"bandwidthUpgrade"`
}

func (in UnlimitedPackageInput) Validate() error {
	return validation.First(
		validation.Required("name", in.Name),
		validation.PositiveInt("days", in.DurationDays),
		validation.Positive("basePrice", in.BasePrice),
		validation.PositiveInt("baseBandwidth", in.BaseBandwidth),
		validation.OneOf("baseCpu", in.BaseCPUTier, CPUTier1, CPUTier2, CPUTier3, CPUTier4),
		validation.NonNegative("cpuUpgrade", in.CPUUpgradePrice),
		validation.NonNegative("bandwidthUpgrade", in.BandwidthUpgradePrice),
	)
}

// UnlimitedPackageUpdate описывает изменение безлимитного пакета.
// Длительность, базовая полоса и CPU после создания не меняются.
type UnlimitedPackageUpdate struct {
	Name                  string          `json:"name"`
	BasePrice             decimal.Decimal `json:"basePrice"`
	CPUUpgradePrice       decimal.Decimal `json:"cpuUpgrade"`
	BandwidthUpgradePrice decimal.Decimal `json:"bandwidthUpgrade"`
}

func (in UnlimitedPackageUpdate) Validate() error {
	return validation.First(
		validation.Required("name", in.Name),
		validation.Positive("basePrice", in.BasePrice),
		validation.NonNegative("cpuUpgrade", in.CPUUpgradePrice),
		validation.NonNegative("bandwidthUpgrade", in.BandwidthUpgradePrice),
	)
}

// AdminInput описывает создание администратора.
type AdminInput struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     AdminRole `json:"role"`
}

func (in AdminInput) Validate() error {
	return validation.First(
		validation.Required("username", in.Username),
		validation.Email("email", in.Email),
		validation.MinLength("password", in.Password, MinPasswordLength),
		validation.OneOf("role", in.Role, RoleSuper, RoleNormal),
	)
}

// AdminUpdate описывает изменение администратора. Пустой пароль оставляет прежний.
type AdminUpdate struct {
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Role     AdminRole `json:"role"`
}

func (in AdminUpdate) Validate() error {
	var passwordErr error
	if in.Password != "" {
		passwordErr = validation.MinLength("password", in.Password, MinPasswordLength)
	}
	return validation.First(
		validation.Email("email", in.Email),
		passwordErr,
		validation.OneOf("role", in.Role, RoleSuper, RoleNormal),
	)
}

// StatusChange переводит участника, пакет или администратора в указанное состояние.
type StatusChange struct {
	Status Status `json:"status"`
}

func (in StatusChange) Validate() error {
	return validation.OneOf("status", in.Status, StatusActive, StatusDisabled)
}

// PasswordChange задаёт новый пароль участника.
type PasswordChange struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

func (in PasswordChange) Validate() error {
	if err := validation.MinLength("password", in.Password, MinPasswordLength); err != nil {
		return err
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		return validation.Errorf("confirmPassword", "does not match password")
	}
	return nil
}

// Deduction списывает ресурс с баланса участника: ГБ или дни.
type Deduction struct {
	Type   ProductType     `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

func (in Deduction) Validate() error {
	return validation.First(
		validation.OneOf("type", in.Type, ProductResidential, ProductUnlimited),
		validation.Positive("amount", in.Amount),
	)
}

// NormalizeAccount приводит имя пользователя или e-mail к виду для сравнения.
func NormalizeAccount(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
