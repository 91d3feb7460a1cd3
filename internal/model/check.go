package model

import (
	"errors"

	"github.com/mmeshcher/proxypanel/internal/validation"
	"github.com/shopspring/decimal"
)

// Check проверяет согласованность заказа: ненулевая оплата возможна только
// у оплаченного заказа, суммы не отрицательны.
func (o Order) Check() error {
	if err := validation.First(
		validation.NonNegative("orderAmount", o.OrderAmount),
		validation.NonNegative("payAmount", o.PaidAmount),
	); err != nil {
		return err
	}
	if o.PaidAmount.IsPositive() && o.Status != OrderStatusPaid {
		return validation.Errorf("status", "order %s has a payment but status %q", o.OrderNo, o.Status)
	}
	return nil
}

// Check проверяет, что показатели дня не отрицательны и что суммы по типам
// продуктов сходятся с итогами. Возвращает все найденные нарушения
// в постоянном порядке.
func (d DailyStat) Check() error {
	var errs []error
	for _, c := range []struct {
		field string
		value int
	}{
		{"totalOrders", d.TotalOrders},
		{"newUsers", d.NewUsers},
		{"residentialOrders", d.ResidentialOrders},
		{"unlimitedOrders", d.UnlimitedOrders},
	} {
		if c.value < 0 {
			errs = append(errs, validation.Errorf(c.field, "must not be negative"))
		}
	}
	for _, c := range []struct {
		field string
		value decimal.Decimal
	}{
		{"totalSales", d.TotalSales},
		{"residentialSales", d.ResidentialSales},
		{"unlimitedSales", d.UnlimitedSales},
	} {
		if err := validation.NonNegative(c.field, c.value); err != nil {
			errs = append(errs, err)
		}
	}
	if d.ResidentialOrders+d.UnlimitedOrders != d.TotalOrders {
		errs = append(errs, validation.Errorf("totalOrders",
			"%d != %d residential + %d unlimited", d.TotalOrders, d.ResidentialOrders, d.UnlimitedOrders))
	}
	if !d.ResidentialSales.Add(d.UnlimitedSales).Equal(d.TotalSales) {
		errs = append(errs, validation.Errorf("totalSales",
			"%s != %s residential + %s unlimited", d.TotalSales, d.ResidentialSales, d.UnlimitedSales))
	}
	return errors.Join(errs...)
}
