// Package model содержит доменные сущности панели администратора прокси-сервиса.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Форматы отображения времени, используемые при фильтрации и выгрузке.
const (
	TimeLayout = "2006-01-02 15:04"
	DateLayout = "2006-01-02"
)

// ProductType описывает тип прокси-продукта.
type ProductType string

const (
	ProductResidential ProductType = "residential"
	ProductUnlimited   ProductType = "unlimited"
)

// OrderStatus описывает статус оплаты заказа.
type OrderStatus string

const (
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusUnpaid   OrderStatus = "unpaid"
	OrderStatusRefunded OrderStatus = "refunded"
)

// OrderSource описывает канал, через который создан заказ.
type OrderSource string

const (
	OrderSourceWebsite    OrderSource = "website"
	OrderSourceBackoffice OrderSource = "backoffice"
)

// Status описывает состояние учётной записи или пакета.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// AdminRole описывает уровень прав администратора.
type AdminRole string

const (
	RoleSuper  AdminRole = "super"
	RoleNormal AdminRole = "normal"
)

// CPUTier — уровень процессорной конфигурации безлимитного пакета.
type CPUTier string

const (
	CPUTier1 CPUTier = "1"
	CPUTier2 CPUTier = "2"
	CPUTier3 CPUTier = "3"
	CPUTier4 CPUTier = "4"
)

// CPUTiers перечисляет уровни CPU с их описанием.
var CPUTiers = map[CPUTier]string{
	CPUTier1: "8 vCPU / 16 GiB",
	CPUTier2: "16 vCPU / 32 GiB",
	CPUTier3: "32 vCPU / 64 GiB",
	CPUTier4: "64 vCPU / 128 GiB",
}

// Order описывает заказ участника.
type Order struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	OrderNo      string          `json:"orderNo"`
	ProductType  ProductType     `json:"type"`
	ServerConfig string          `json:"serverConfig"`
	Resource     string          `json:"resource"`
	OrderAmount  decimal.Decimal `json:"orderAmount"`
	PaidAmount   decimal.Decimal `json:"payAmount"`
	Status       OrderStatus     `json:"status"`
	PayTime      *time.Time      `json:"payTime,omitempty"`
	Source       OrderSource     `json:"source"`
}

// Member описывает зарегистрированного участника и его остатки ресурсов.
type Member struct {
	Username           string          `json:"username"`
	Email              string          `json:"email"`
	ResidentialBalance decimal.Decimal `json:"residentialBalance"`
	UnlimitedBalance   decimal.Decimal `json:"unlimitedBalance"`
	UnlimitedConfig    string          `json:"unlimitedConfig"`
	TotalSpent         decimal.Decimal `json:"totalSpent"`
	RegisterTime       time.Time       `json:"registerTime"`
	Status             Status          `json:"status"`
}

// DailyStat содержит агрегированные показатели за один день.
type DailyStat struct {
	Date              time.Time       `json:"date"`
	TotalOrders       int             `json:"totalOrders"`
	TotalSales        decimal.Decimal `json:"totalSales"`
	NewUsers          int             `json:"newUsers"`
	ResidentialOrders int             `json:"residentialOrders"`
	ResidentialSales  decimal.Decimal `json:"residentialSales"`
	UnlimitedOrders   int             `json:"unlimitedOrders"`
	UnlimitedSales    decimal.Decimal `json:"unlimitedSales"`
}

// ResidentialPackage — тарифный пакет динамических резидентных прокси.
type ResidentialPackage struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	GB           decimal.Decimal `json:"gb"`
	UnitPrice    decimal.Decimal `json:"price"`
	TotalPrice   decimal.Decimal `json:"total"`
	ValidityDays int             `json:"days"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// UnlimitedPackage — тарифный пакет безлимитных прокси.
type UnlimitedPackage struct {
	ID                    int64           `json:"id"`
	Name                  string          `json:"name"`
	DurationDays          int             `json:"days"`
	BasePrice             decimal.Decimal `json:"basePrice"`
	BaseBandwidth         int             `json:"baseBandwidth"`
	BaseCPUTier           CPUTier         `json:"baseCpu"`
	CPUUpgradePrice       decimal.Decimal `json:"cpuUpgrade"`
	BandwidthUpgradePrice decimal.Decimal `json:"bandwidthUpgrade"`
	Status                Status          `json:"status"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// AdminAccount описывает учётную запись администратора.
// IsCurrent вычисляется для текущего запроса и не хранится.
type AdminAccount struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      AdminRole `json:"role"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	IsCurrent bool      `json:"isCurrent"`
}

// PackagePrice вычисляет итоговую стоимость резидентного пакета.
func PackagePrice(gb, unitPrice decimal.Decimal) decimal.Decimal {
	return gb.Mul(unitPrice).Round(2)
}
