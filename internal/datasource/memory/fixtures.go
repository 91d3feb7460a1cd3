package memory

import (
	"time"

	"github.com/mmeshcher/proxypanel/internal/model"
	"github.com/shopspring/decimal"
)

func at(s string) time.Time {
	t, err := time.ParseInLocation(model.TimeLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func day(s string) time.Time {
	t, err := time.ParseInLocation(model.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixtures struct {
	orders      []model.Order
	members     []model.Member
	passwords   map[string]string
	daily       []model.DailyStat
	residential []model.ResidentialPackage
	unlimited   []model.UnlimitedPackage
	admins      []model.AdminAccount
	adminPass   map[string]string
}

func demoFixtures() fixtures {
	f := fixtures{
		orders: []model.Order{
			{ID: 1, Username: "Proxy_001", Email: "user001@example.com", OrderNo: "ORD20241220001", ProductType: model.ProductResidential, Resource: "500 GB", OrderAmount: amount("1234.56"), PaidAmount: amount("1234.56"), Status: model.OrderStatusPaid, PayTime: ptr(at("2024-12-20 14:30")), Source: model.OrderSourceWebsite},
			{ID: 2, Username: "Proxy_002", Email: "alice@email.com", OrderNo: "ORD20241220002", ProductType: model.ProductUnlimited, ServerConfig: "400MB + 8核16GB", Resource: "30 天", OrderAmount: amount("2000.00"), PaidAmount: decimal.Zero, Status: model.OrderStatusUnpaid, Source: model.OrderSourceBackoffice},
			{ID: 3, Username: "Proxy_003", Email: "bob2024@mail.com", OrderNo: "ORD20241219003", ProductType: model.ProductResidential, Resource: "200 GB", OrderAmount: amount("500.00"), PaidAmount: amount("500.00"), Status: model.OrderStatusPaid, PayTime: ptr(at("2024-12-19 10:15")), Source: model.OrderSourceWebsite},
			{ID: 4, Username: "Proxy_004", Email: "charlie@test.com", OrderNo: "ORD20241218004", ProductType: model.ProductUnlimited, ServerConfig: "800MB + 16核32GB", Resource: "60 天", OrderAmount: amount("5500.00"), PaidAmount: amount("5500.00"), Status: model.OrderStatusPaid, PayTime: ptr(at("2024-12-18 16:45")), Source: model.OrderSourceWebsite},
		},
		members: []model.Member{
			{Username: "Proxy_001", Email: "user001@example.com", ResidentialBalance: amount("500"), UnlimitedBalance: decimal.Zero, TotalSpent: amount("1234.56"), RegisterTime: at("2024-12-01 10:00"), Status: model.StatusActive},
			{Username: "Proxy_002", Email: "alice@email.com", ResidentialBalance: decimal.Zero, UnlimitedBalance: amount("30"), UnlimitedConfig: "400MB + 8核16GB", TotalSpent: amount("2000.00"), RegisterTime: at("2024-12-05 14:20"), Status: model.StatusDisabled},
			{Username: "Proxy_003", Email: "bob2024@mail.com", ResidentialBalance: amount("200"), UnlimitedBalance: amount("15"), UnlimitedConfig: "600MB + 16核32GB", TotalSpent: amount("3500.00"), RegisterTime: at("2024-11-20 09:30"), Status: model.StatusActive},
			{Username: "Proxy_004", Email: "charlie@test.com", ResidentialBalance: amount("1000"), UnlimitedBalance: decimal.Zero, TotalSpent: amount("5500.00"), RegisterTime: at("2024-10-15 16:45"), Status: model.StatusActive},
		},
		passwords: map[string]string{
			"Proxy_001": "Abc123456",
			"Proxy_002": "Pass789xyz",
			"Proxy_003": "Qwerty2024",
			"Proxy_004": "Zl@888888",
		},
		residential: []model.ResidentialPackage{
			residential(1, "10GB套餐", "10", "1.40"),
			residential(2, "50GB套餐", "50", "1.20"),
			residential(3, "100GB套餐", "100", "1.00"),
			residential(4, "300GB套餐", "300", "0.90"),
			residential(5, "500GB套餐", "500", "0.80"),
			residential(6, "1000GB套餐", "1000", "0.70"),
		},
		unlimited: []model.UnlimitedPackage{
			unlimited(1, "7 Days", 7, "810", "2024-12-20 14:30"),
			unlimited(2, "30 Days", 30, "2250", "2024-12-18 10:15"),
			unlimited(3, "60 Days", 60, "4050", "2024-12-15 09:00"),
		},
		admins: []model.AdminAccount{
			{ID: 1, Username: "Admin", Email: "admin@proxyadmin.com", Role: model.RoleSuper, Status: model.StatusActive, CreatedAt: at("2024-01-01 00:00")},
			{ID: 2, Username: "Support_01", Email: "support01@proxyadmin.com", Role: model.RoleNormal, Status: model.StatusActive, CreatedAt: at("2024-06-15 10:30")},
			{ID: 3, Username: "Support_02", Email: "support02@proxyadmin.com", Role: model.RoleNormal, Status: model.StatusDisabled, CreatedAt: at("2024-08-20 14:00")},
		},
		adminPass: map[string]string{
			"Admin":      "Admin@2024",
			"Support_01": "Sup01@2024",
			"Support_02": "Sup02@2024",
		},
	}

	for _, row := range []struct {
		date                   string
		total                  int
		sales                  string
		users                  int
		resOrders, unlimOrders int
		resSales, unlimSales   string
	}{
		{"2024-12-20", 125, "12345.67", 38, 75, 50, "7890.00", "4455.67"},
		{"2024-12-19", 110, "10123.00", 30, 60, 50, "6000.00", "4123.00"},
		{"2024-12-18", 98, "9800.00", 25, 58, 40, "5800.00", "4000.00"},
		{"2024-12-17", 105, "10500.00", 28, 65, 40, "6500.00", "4000.00"},
		{"2024-12-16", 115, "11500.00", 35, 65, 50, "6500.00", "5000.00"},
		{"2024-12-15", 88, "8500.00", 18, 55, 33, "5500.00", "3000.00"},
		{"2024-12-14", 102, "10200.00", 28, 62, 40, "6200.00", "4000.00"},
		{"2024-12-13", 95, "9200.00", 25, 58, 37, "5800.00", "3400.00"},
		{"2024-12-12", 78, "7800.00", 20, 48, 30, "4800.00", "3000.00"},
		{"2024-12-11", 115, "11500.00", 32, 70, 45, "7000.00", "4500.00"},
		{"2024-12-10", 92, "9100.00", 24, 56, 36, "5600.00", "3500.00"},
		{"2024-12-09", 68, "6800.00", 15, 40, 28, "4000.00", "2800.00"},
		{"2024-12-08", 85, "8500.00", 22, 52, 33, "5200.00", "3300.00"},
	} {
		f.daily = append(f.daily, model.DailyStat{
			Date:              day(row.date),
			TotalOrders:       row.total,
			TotalSales:        amount(row.sales),
			NewUsers:          row.users,
			ResidentialOrders: row.resOrders,
			ResidentialSales:  amount(row.resSales),
			UnlimitedOrders:   row.unlimOrders,
			UnlimitedSales:    amount(row.unlimSales),
		})
	}

	return f
}

func residential(id int64, name, gb, price string) model.ResidentialPackage {
	p := model.ResidentialPackage{
		ID:           id,
		Name:         name,
		GB:           amount(gb),
		UnitPrice:    amount(price),
		ValidityDays: 30,
		Status:       model.StatusActive,
		CreatedAt:    at("2024-12-20 14:30"),
	}
	p.TotalPrice = model.PackagePrice(p.GB, p.UnitPrice)
	return p
}

func unlimited(id int64, name string, days int, price, updated string) model.UnlimitedPackage {
	return model.UnlimitedPackage{
		ID:                    id,
		Name:                  name,
		DurationDays:          days,
		BasePrice:             amount(price),
		BaseBandwidth:         200,
		BaseCPUTier:           model.CPUTier1,
		CPUUpgradePrice:       amount("200"),
		BandwidthUpgradePrice: amount("500"),
		Status:                model.StatusActive,
		UpdatedAt:             at(updated),
	}
}
