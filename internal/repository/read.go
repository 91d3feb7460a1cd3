package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/proxypanel/internal/model"
)

const (
	orderColumns = `id, username, email, order_no, product_type, server_config, resource,
		order_amount, paid_amount, status, pay_time, source`
	memberColumns = `username, email, residential_balance, unlimited_balance, unlimited_config,
		total_spent, registered_at, status`
	dailyColumns = `date, total_orders, total_sales, new_users, residential_orders, residential_sales,
		unlimited_orders, unlimited_sales`
	residentialColumns = `id, name, gb, unit_price, total_price, validity_days, status, created_at`
	unlimitedColumns   = `id, name, duration_days, base_price, base_bandwidth, base_cpu_tier,
		cpu_upgrade_price, bandwidth_upgrade_price, status, updated_at`
	adminColumns = `id, username, email, role, status, created_at`
)

func scanOrder(row pgx.Row) (model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.Username, &o.Email, &o.OrderNo, &o.ProductType, &o.ServerConfig, &o.Resource,
		&o.OrderAmount, &o.PaidAmount, &o.Status, &o.PayTime, &o.Source)
	return o, err
}

func scanMember(row pgx.Row) (model.Member, error) {
	var m model.Member
	err := row.Scan(&m.Username, &m.Email, &m.ResidentialBalance, &m.UnlimitedBalance, &m.UnlimitedConfig,
		&m.TotalSpent, &m.RegisterTime, &m.Status)
	return m, err
}

func scanDaily(row pgx.Row) (model.DailyStat, error) {
	var d model.DailyStat
	err := row.Scan(&d.Date, &d.TotalOrders, &d.TotalSales, &d.NewUsers, &d.ResidentialOrders, &d.ResidentialSales,
		&d.UnlimitedOrders, &d.UnlimitedSales)
	return d, err
}

func scanResidential(row pgx.Row) (model.ResidentialPackage, error) {
	var p model.ResidentialPackage
	err := row.Scan(&p.ID, &p.Name, &p.GB, &p.UnitPrice, &p.TotalPrice, &p.ValidityDays, &p.Status, &p.CreatedAt)
	return p, err
}

func scanUnlimited(row pgx.Row) (model.UnlimitedPackage, error) {
	var p model.UnlimitedPackage
	err := row.Scan(&p.ID, &p.Name, &p.DurationDays, &p.BasePrice, &p.BaseBandwidth, &p.BaseCPUTier,
		&p.CPUUpgradePrice, &p.BandwidthUpgradePrice, &p.Status, &p.UpdatedAt)
	return p, err
}

func scanAdmin(row pgx.Row) (model.AdminAccount, error) {
	var a model.AdminAccount
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Role, &a.Status, &a.CreatedAt)
	return a, err
}

// list выполняет запрос и сканирует все строки; временные сбои повторяются.
func list[T any](ctx context.Context, r *PostgresRepository, what, sql string, scan func(pgx.Row) (T, error)) ([]T, error) {
	var res []T
	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx, sql)
		if err != nil {
			return err
		}
		defer rows.Close()

		res = make([]T, 0)
		for rows.Next() {
			item, err := scan(rows)
			if err != nil {
				return fmt.Errorf("scan %s: %w", what, err)
			}
			res = append(res, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", what, err)
	}
	return res, nil
}

// Orders возвращает заказы, новые первыми.
func (r *PostgresRepository) Orders(ctx context.Context) ([]model.Order, error) {
	return list(ctx, r, "orders", `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`, scanOrder)
}

// Members возвращает участников.
func (r *PostgresRepository) Members(ctx context.Context) ([]model.Member, error) {
	return list(ctx, r, "members", `SELECT `+memberColumns+` FROM members ORDER BY registered_at DESC`, scanMember)
}

// DailyStats возвращает дневную статистику, последние дни первыми.
func (r *PostgresRepository) DailyStats(ctx context.Context) ([]model.DailyStat, error) {
	return list(ctx, r, "daily stats", `SELECT `+dailyColumns+` FROM daily_stats ORDER BY date DESC`, scanDaily)
}

// ResidentialPackages возвращает резидентные пакеты.
func (r *PostgresRepository) ResidentialPackages(ctx context.Context) ([]model.ResidentialPackage, error) {
	return list(ctx, r, "residential packages", `SELECT `+residentialColumns+` FROM residential_packages ORDER BY id`, scanResidential)
}

// UnlimitedPackages возвращает безлимитные пакеты.
func (r *PostgresRepository) UnlimitedPackages(ctx context.Context) ([]model.UnlimitedPackage, error) {
	return list(ctx, r, "unlimited packages", `SELECT `+unlimitedColumns+` FROM unlimited_packages ORDER BY id`, scanUnlimited)
}

// Admins возвращает администраторов.
func (r *PostgresRepository) Admins(ctx context.Context) ([]model.AdminAccount, error) {
	return list(ctx, r, "admins", `SELECT `+adminColumns+` FROM admins ORDER BY id`, scanAdmin)
}
