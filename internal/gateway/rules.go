package gateway

import "github.com/mmeshcher/proxypanel/internal/model"

type route struct {
	action model.Action
	entity model.EntityType
}

type rule struct {
	// keyed — операция адресует существующую запись и требует ключ.
	keyed   bool
	accepts func(model.Payload) bool
}

func payload[T model.Payload]() func(model.Payload) bool {
	return func(p model.Payload) bool {
		_, ok := p.(T)
		return ok
	}
}

func noPayload(p model.Payload) bool { return p == nil }

var rules = map[route]rule{
	{model.ActionCreate, model.EntityOrder}:              {accepts: payload[model.OrderInput]()},
	{model.ActionCreate, model.EntityResidentialPackage}: {accepts: payload[model.ResidentialPackageInput]()},
	{model.ActionCreate, model.EntityUnlimitedPackage}:   {accepts: payload[model.UnlimitedPackageInput]()},
	{model.ActionCreate, model.EntityAdmin}:              {accepts: payload[model.AdminInput]()},

	{model.ActionUpdate, model.EntityResidentialPackage}: {keyed: true, accepts: payload[model.ResidentialPackageInput]()},
	{model.ActionUpdate, model.EntityUnlimitedPackage}:   {keyed: true, accepts: payload[model.UnlimitedPackageUpdate]()},
	{model.ActionUpdate, model.EntityAdmin}:              {keyed: true, accepts: payload[model.AdminUpdate]()},

	{model.ActionDelete, model.EntityResidentialPackage}: {keyed: true, accepts: noPayload},
	{model.ActionDelete, model.EntityUnlimitedPackage}:   {keyed: true, accepts: noPayload},
	{model.ActionDelete, model.EntityAdmin}:              {keyed: true, accepts: noPayload},

	{model.ActionToggleStatus, model.EntityResidentialPackage}: {keyed: true, accepts: payload[model.StatusChange]()},
	{model.ActionToggleStatus, model.EntityUnlimitedPackage}:   {keyed: true, accepts: payload[model.StatusChange]()},
	{model.ActionToggleStatus, model.EntityMember}:             {keyed: true, accepts: payload[model.StatusChange]()},
	{model.ActionToggleStatus, model.EntityAdmin}:              {keyed: true, accepts: payload[model.StatusChange]()},

	{model.ActionChangePassword, model.EntityMember}: {keyed: true, accepts: payload[model.PasswordChange]()},
	{model.ActionDeduct, model.EntityMember}:         {keyed: true, accepts: payload[model.Deduction]()},
}

// Supports сообщает, поддерживает ли шлюз действие над сущностью.
func Supports(action model.Action, entity model.EntityType) bool {
	_, ok := rules[route{action, entity}]
	return ok
}
