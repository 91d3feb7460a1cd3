// Package export готовит табличные выгрузки заказов, участников и дневной статистики.
package export

import "github.com/mmeshcher/proxypanel/internal/model"

// Labels переводит коды перечислений в подписи для выгрузки.
// Код без подписи выводится как есть.
type Labels struct {
	TypeNames       map[model.EntityType]string
	ProductTypes    map[model.ProductType]string
	OrderStatuses   map[model.OrderStatus]string
	OrderSources    map[model.OrderSource]string
	AccountStatuses map[model.Status]string
	TodaySuffix     string
}

// DefaultLabels возвращает подписи, принятые в панели по умолчанию.
func DefaultLabels() Labels {
	return Labels{
		TypeNames: map[model.EntityType]string{
			model.EntityOrder:     "订单总表",
			model.EntityMember:    "会员管理",
			model.EntityDailyStat: "每日数据概览",
		},
		ProductTypes: map[model.ProductType]string{
			model.ProductResidential: "动态住宅代理",
			model.ProductUnlimited:   "无限量代理",
		},
		OrderStatuses: map[model.OrderStatus]string{
			model.OrderStatusPaid:     "已支付",
			model.OrderStatusUnpaid:   "未支付",
			model.OrderStatusRefunded: "已退款",
		},
		OrderSources: map[model.OrderSource]string{
			model.OrderSourceWebsite:    "官网",
			model.OrderSourceBackoffice: "后台",
		},
		AccountStatuses: map[model.Status]string{
			model.StatusActive:   "正常",
			model.StatusDisabled: "禁用",
		},
		TodaySuffix: " (今日)",
	}
}

func lookup[K ~string](m map[K]string, code K) string {
	if label, ok := m[code]; ok {
		return label
	}
	return string(code)
}

// Column — столбец выгрузки: подпись и рекомендуемая ширина в символах.
type Column struct {
	Label string
	Width int
}

var (
	orderColumns = []Column{
		{"用户名", 15}, {"邮箱", 25}, {"订单号", 20}, {"套餐类型", 15}, {"服务器配置", 20}, {"资源量", 12},
		{"订单金额", 12}, {"支付金额", 12}, {"状态", 10}, {"支付时间", 18}, {"订单来源", 10},
	}
	memberColumns = []Column{
		{"用户名", 15}, {"邮箱", 25}, {"住宅代理余额", 15}, {"无限量余额", 12}, {"总花费", 15}, {"注册时间", 18}, {"状态", 10},
	}
	dailyColumns = []Column{
		{"日期", 12}, {"总订单量", 12}, {"总销售额", 15}, {"注册人数", 12},
		{"动态住宅订单", 15}, {"动态住宅销售额", 18}, {"无限量订单", 12}, {"无限量销售额", 15},
	}
)

// Columns возвращает таблицу столбцов для вида сущности.
func Columns(entity model.EntityType) ([]Column, bool) {
	var cols []Column
	switch entity {
	case model.EntityOrder:
		cols = orderColumns
	case model.EntityMember:
		cols = memberColumns
	case model.EntityDailyStat:
		cols = dailyColumns
	default:
		return nil, false
	}
	out := make([]Column, len(cols))
	copy(out, cols)
	return out, true
}
