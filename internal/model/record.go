package model

import "time"

// EntityType обозначает вид сущности, над которой выполняется операция.
type EntityType string

const (
	EntityOrder              EntityType = "orders"
	EntityMember             EntityType = "members"
	EntityDailyStat          EntityType = "daily"
	EntityResidentialPackage EntityType = "residential_packages"
	EntityUnlimitedPackage   EntityType = "unlimited_packages"
	EntityAdmin              EntityType = "admins"
)

// Action обозначает вид мутации.
type Action string

const (
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionToggleStatus   Action = "toggle_status"
	ActionChangePassword Action = "change_password"
	ActionDeduct         Action = "deduct"
)

// Target адресует сущность мутации: вид и ключ (ID, имя пользователя).
// Для создания ключ пуст.
type Target struct {
	Entity EntityType
	Key    string
}

func (t Target) String() string {
	if t.Key == "" {
		return string(t.Entity)
	}
	return string(t.Entity) + "/" + t.Key
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

// SearchFields возвращает поля для поиска по ключевому слову.
func (o Order) SearchFields() []string { return []string{o.Username, o.Email, o.OrderNo} }

// Timestamp возвращает время оплаты или пустую строку для неоплаченного заказа.
func (o Order) Timestamp() string {
	if o.PayTime == nil {
		return ""
	}
	return formatTime(*o.PayTime, TimeLayout)
}

// Field возвращает значение поля для точного сравнения.
func (o Order) Field(name string) (string, bool) {
	switch name {
	case "username":
		return o.Username, true
	case "email":
		return o.Email, true
	case "orderNo":
		return o.OrderNo, true
	case "type":
		return string(o.ProductType), true
	case "status":
		return string(o.Status), true
	case "source":
		return string(o.Source), true
	}
	return "", false
}

func (m Member) SearchFields() []string { return []string{m.Username, m.Email} }

func (m Member) Timestamp() string { return formatTime(m.RegisterTime, TimeLayout) }

func (m Member) Field(name string) (string, bool) {
	switch name {
	case "username":
		return m.Username, true
	case "email":
		return m.Email, true
	case "status":
		return string(m.Status), true
	}
	return "", false
}

func (d DailyStat) SearchFields() []string { return []string{d.Timestamp()} }

func (d DailyStat) Timestamp() string { return formatTime(d.Date, DateLayout) }

func (d DailyStat) Field(name string) (string, bool) {
	if name == "date" {
		return d.Timestamp(), true
	}
	return "", false
}

func (p ResidentialPackage) SearchFields() []string { return []string{p.Name} }

func (p ResidentialPackage) Timestamp() string { return formatTime(p.CreatedAt, TimeLayout) }

func (p ResidentialPackage) Field(name string) (string, bool) {
	switch name {
	case "name":
		return p.Name, true
	case "status":
		return string(p.Status), true
	}
	return "", false
}

func (p UnlimitedPackage) SearchFields() []string { return []string{p.Name} }

func (p UnlimitedPackage) Timestamp() string { return formatTime(p.UpdatedAt, TimeLayout) }

func (p UnlimitedPackage) Field(name string) (string, bool) {
	switch name {
	case "name":
		return p.Name, true
	case "status":
		return string(p.Status), true
	case "baseCpu":
		return string(p.BaseCPUTier), true
	}
	return "", false
}

func (a AdminAccount) SearchFields() []string { return []string{a.Username, a.Email} }

func (a AdminAccount) Timestamp() string { return formatTime(a.CreatedAt, TimeLayout) }

func (a AdminAccount) Field(name string) (string, bool) {
	switch name {
	case "username":
		return a.Username, true
	case "email":
		return a.Email, true
	case "role":
		return string(a.Role), true
	case "status":
		return string(a.Status), true
	}
	return "", false
}
