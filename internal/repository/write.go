package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/proxypanel/internal/datasource"
	"github.com/mmeshcher/proxypanel/internal/model"
)

// orderNumber формирует номер заказа: ORD, дата и порядковый номер.
func orderNumber(day time.Time, id int64) string {
	return fmt.Sprintf("ORD%s%03d", day.Format("20060102"), id)
}

// balanceColumn возвращает столбец баланса для типа продукта.
func balanceColumn(t model.ProductType) (string, error) {
	switch t {
	case model.ProductResidential:
		return "residential_balance", nil
	case model.ProductUnlimited:
		return "unlimited_balance", nil
	}
	return "", fmt.Errorf("product type %q: %w", t, datasource.ErrUnsupported)
}

func (r *PostgresRepository) hash(password string) ([]byte, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), r.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

// Mutate применяет операцию одним запросом или одной транзакцией.
// Повторов нет: решение о повторе остаётся за вызывающим.
func (r *PostgresRepository) Mutate(ctx context.Context, m datasource.Mutation) (any, error) {
	switch m.Target.Entity {
	case model.EntityOrder:
		if m.Action == model.ActionCreate {
			return r.createOrder(ctx, m)
		}
	case model.EntityMember:
		return r.mutateMember(ctx, m)
	case model.EntityResidentialPackage:
		return r.mutateResidential(ctx, m)
	case model.EntityUnlimitedPackage:
		return r.mutateUnlimited(ctx, m)
	case model.EntityAdmin:
		return r.mutateAdmin(ctx, m)
	}
	return nil, fmt.Errorf("%s: %w", m, datasource.ErrUnsupported)
}

func (r *PostgresRepository) createOrder(ctx context.Context, m datasource.Mutation) (any, error) {
	in, err := datasource.PayloadAs[model.OrderInput](m)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var username, email string
	err = tx.QueryRow(ctx,
		`SELECT username, email FROM members
		 WHERE lower(username) = $1 OR lower(email) = $1
		 FOR UPDATE`,
		model.NormalizeAccount(in.Account),
	).Scan(&username, &email)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("member %q", in.Account))
	}

	var (
		id  int64
		now time.Time
	)
	err = tx.QueryRow(ctx, `SELECT nextval(pg_get_serial_sequence('orders', 'id')), now()`).Scan(&id, &now)
	if err != nil {
		return nil, fmt.Errorf("next order id: %w", err)
	}

	o := model.Order{
		ID:           id,
		Username:     username,
		Email:        email,
		OrderNo:      orderNumber(now, id),
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
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (id, username, email, order_no, product_type, server_config, resource,
		                     order_amount, paid_amount, status, pay_time, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, o.Username, o.Email, o.OrderNo, string(o.ProductType), o.ServerConfig, o.Resource,
		o.OrderAmount, o.PaidAmount, string(o.Status), o.PayTime, string(o.Source), now,
	)
	if err != nil {
		return nil, mapError(err, "insert order")
	}

	if in.Paid {
		column, err := balanceColumn(in.ProductType)
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(ctx,
			`UPDATE members
			 SET total_spent = total_spent + $2,
			     `+column+` = `+column+` + $3,
			     unlimited_config = CASE WHEN $4 = '' OR $5 <> 'unlimited' THEN unlimited_config ELSE $4 END
			 WHERE username = $1`,
			username, in.Amount, in.Quantity, in.ServerConfig, string(in.ProductType),
		)
		if err != nil {
			return nil, fmt.Errorf("credit member: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) mutateMember(ctx context.Context, m datasource.Mutation) (any, error) {
	returning := ` RETURNING ` + memberColumns

	switch m.Action {
	case model.ActionToggleStatus:
		in, err := datasource.PayloadAs[model.StatusChange](m)
		if err != nil {
			return nil, err
		}
		mem, err := scanMember(r.pool.QueryRow(ctx,
			`UPDATE members SET status = $2 WHERE username = $1`+returning,
			m.Target.Key, string(in.Status),
		))
		if err != nil {
			return nil, mapError(err, m.Target.String())
		}
		return mem, nil

	case model.ActionChangePassword:
		in, err := datasource.PayloadAs[model.PasswordChange](m)
		if err != nil {
			return nil, err
		}
		hash, err := r.hash(in.Password)
		if err != nil {
			return nil, err
		}
		mem, err := scanMember(r.pool.QueryRow(ctx,
			`UPDATE members SET password_hash = $2 WHERE username = $1`+returning,
			m.Target.Key, hash,
		))
		if err != nil {
			return nil, mapError(err, m.Target.String())
		}
		return mem, nil

	case model.ActionDeduct:
		in, err := datasource.PayloadAs[model.Deduction](m)
		if err != nil {
			return nil, err
		}
		return r.deduct(ctx, m.Target, in)
	}
	return nil, fmt.Errorf("%s: %w", m, datasource.ErrUnsupported)
}

// deduct списывает ресурс условным UPDATE: баланс не уходит в минус
// и при параллельных списаниях.
func (r *PostgresRepository) deduct(ctx context.Context, target model.Target, in model.Deduction) (any, error) {
	column, err := balanceColumn(in.Type)
	if err != nil {
		return nil, err
	}

	mem, err := scanMember(r.pool.QueryRow(ctx,
		`UPDATE members SET `+column+` = `+column+` - $2
		 WHERE username = $1 AND `+column+` >= $2
		 RETURNING `+memberColumns,
		target.Key, in.Amount,
	))
	if err == nil {
		return mem, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("deduct %s: %w", target, err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE username = $1)`, target.Key).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check member: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", target, datasource.ErrNotFound)
	}
	return nil, fmt.Errorf("deduct %s %s from %s: %w", in.Amount, in.Type, target.Key, datasource.ErrInsufficientBalance)
}

// deleteByID удаляет строку таблицы table по числовому ключу цели.
func (r *PostgresRepository) deleteByID(ctx context.Context, table string, target model.Target) (any, error) {
	id, err := datasource.ParseID(target)
	if err != nil {
		return nil, err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", target, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%s: %w", target, datasource.ErrNotFound)
	}
	return nil, nil
}

func (r *PostgresRepository) mutateResidential(ctx context.Context, m datasource.Mutation) (any, error) {
	returning := ` RETURNING ` + residentialColumns

	if m.Action == model.ActionCreate {
		in, err := datasource.PayloadAs[model.ResidentialPackageInput](m)
		if err != nil {
			return nil, err
		}
		p, err := scanResidential(r.pool.QueryRow(ctx,
			`INSERT INTO residential_packages (name, gb, unit_price, total_price, validity_days)
			 VALUES ($1, $2, $3, $4, $5)`+returning,
			strings.TrimSpace(in.Name), in.GB, in.UnitPrice, model.PackagePrice(in.GB, in.UnitPrice), in.ValidityDays,
		))
		if err != nil {
			return nil, mapError(err, "insert residential package")
		}
		return p, nil
	}

	if m.Action == model.ActionDelete {
		return r.deleteByID(ctx, "residential_packages", m.Target)
	}

	id, err := datasource.ParseID(m.Target)
	if err != nil {
		return nil, err
	}

	var row pgx.Row
	switch m.Action {
	case model.ActionUpdate:
		in, err := datasource.PayloadAs[model.ResidentialPackageInput](m)
		if err != nil {
			return nil, err
		}
		row = r.pool.QueryRow(ctx,
			`UPDATE residential_packages
			 SET name = $2, gb = $3, unit_price = $4, total_price = $5, validity_days = $6
			 WHERE id = $1`+returning,
			id, strings.TrimSpace(in.Name), in.GB, in.UnitPrice, model.PackagePrice(in.GB, in.UnitPrice), in.ValidityDays,
		)
	case model.ActionToggleStatus:
		in, err := datasource.PayloadAs[model.StatusChange](m)
		if err != nil {
			return nil, err
		}
		row = r.pool.QueryRow(ctx, `UPDATE residential_packages SET status = $2 WHERE id = $1`+returning, id, string(in.Status))
	default:
		return nil, fmt.Errorf("%s: %w", m, datasource.ErrUnsupported)
	}

	p, err := scanResidential(row)
	if err != nil {
		return nil, mapError(err, m.Target.String())
	}
	return p, nil
}

func (r *PostgresRepository) mutateUnlimited(ctx context.Context, m datasource.Mutation) (any, error) {
	returning := ` RETURNING ` + unlimitedColumns

	if m.Action == model.ActionCreate {
		in, err := datasource.PayloadAs[model.UnlimitedPackageInput](m)
		if err != nil {
			return nil, err
		}
		p, err := scanUnlimited(r.pool.QueryRow(ctx,
			`INSERT INTO unlimited_packages (name, duration_days, base_price, base_bandwidth, base_cpu_tier,
			                                 cpu_upgrade_price, bandwidth_upgrade_price)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`+returning,
			strings.TrimSpace(in.Name), in.DurationDays, in.BasePrice, in.BaseBandwidth, string(in.BaseCPUTier),
			in.CPUUpgradePrice, in.BandwidthUpgradePrice,
		))
		if err != nil {
			return nil, mapError(err, "insert unlimited package")
		}
		return p, nil
	}

	if m.Action == model.ActionDelete {
		return r.deleteByID(ctx, "unlimited_packages", m.Target)
	}

	id, err := datasource.ParseID(m.Target)
	if err != nil {
		return nil, err
	}

	var row pgx.Row
	switch m.Action {
	case model.ActionUpdate:
		in, err := datasource.PayloadAs[model.UnlimitedPackageUpdate](m)
		if err != nil {
			return nil, err
		}
		row = r.pool.QueryRow(ctx,
			`UPDATE unlimited_packages
			 SET name = $2, base_price = $3, cpu_upgrade_price = $4, bandwidth_upgrade_price = $5, updated_at = now()
			 WHERE id = $1`+returning,
			id, strings.TrimSpace(in.Name), in.BasePrice, in.CPUUpgradePrice, in.BandwidthUpgradePrice,
		)
	case model.ActionToggleStatus:
		in, err := datasource.PayloadAs[model.StatusChange](m)
		if err != nil {
			return nil, err
		}
		row = r.pool.QueryRow(ctx,
			`UPDATE unlimited_packages SET status = $2, updated_at = now() WHERE id = $1`+returning,
			id, string(in.Status),
		)
	default:
		return nil, fmt.Errorf("%s: %w", m, datasource.ErrUnsupported)
	}

	p, err := scanUnlimited(row)
	if err != nil {
		return nil, mapError(err, m.Target.String())
	}
	return p, nil
}

func (r *PostgresRepository) mutateAdmin(ctx context.Context, m datasource.Mutation) (any, error) {
	returning := ` RETURNING ` + adminColumns

	if m.Action == model.ActionCreate {
		in, err := datasource.PayloadAs[model.AdminInput](m)
		if err != nil {
			return nil, err
		}
		hash, err := r.hash(in.Password)
		if err != nil {
			return nil, err
		}
		a, err := scanAdmin(r.pool.QueryRow(ctx,
			`INSERT INTO admins (username, email, password_hash, role) VALUES ($1, $2, $3, $4)`+returning,
			strings.TrimSpace(in.Username), in.Email, hash, string(in.Role),
		))
		if err != nil {
			return nil, mapError(err, fmt.Sprintf("admin %q", in.Username))
		}
		return a, nil
	}

	if m.Action == model.ActionDelete {
		return r.deleteByID(ctx, "admins", m.Target)
	}

	id, err := datasource.ParseID(m.Target)
	if err != nil {
		return nil, err
	}

	var row pgx.Row
	switch m.Action {
	case model.ActionUpdate:
		in, err := datasource.PayloadAs[model.AdminUpdate](m)
		if err != nil {
			return nil, err
		}
		var hash []byte
		if in.Password != "" {
			if hash, err = r.hash(in.Password); err != nil {
				return nil, err
			}
		}
		row = r.pool.QueryRow(ctx,
			`UPDATE admins
			 SET email = $2, role = $3, password_hash = COALESCE($4, password_hash)
			 WHERE id = $1`+returning,
			id, in.Email, string(in.Role), hash,
		)
	case model.ActionToggleStatus:
		in, err := datasource.PayloadAs[model.StatusChange](m)
		if err != nil {
			return nil, err
		}
		row = r.pool.QueryRow(ctx, `UPDATE admins SET status = $2 WHERE id = $1`+returning, id, string(in.Status))
	default:
		return nil, fmt.Errorf("%s: %w", m, datasource.ErrUnsupported)
	}

	a, err := scanAdmin(row)
	if err != nil {
		return nil, mapError(err, m.Target.String())
	}
	return a, nil
}
