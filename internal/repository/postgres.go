// Package repository содержит реализацию источника данных панели в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/proxypanel/internal/datasource"
	"github.com/mmeshcher/proxypanel/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var defaultRetryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// PostgresRepository предоставляет доступ к данным панели в PostgreSQL.
type PostgresRepository struct {
	pool        *pgxpool.Pool
	hashCost    int
	retryDelays []time.Duration
}

var _ datasource.Source = (*PostgresRepository)(nil)

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{
		pool:        pool,
		hashCost:    bcrypt.DefaultCost,
		retryDelays: defaultRetryDelays,
	}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет чтение при временных сбоях. Мутации не повторяются.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(r.retryDelays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(r.retryDelays) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.retryDelays[i]):
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// mapError переводит ошибки PostgreSQL в ошибки источника данных.
func mapError(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, datasource.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", what, datasource.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Authenticate проверяет пароль активного администратора. Имя сравнивается без учёта регистра.
func (r *PostgresRepository) Authenticate(ctx context.Context, username, password string) (model.AdminAccount, error) {
	var (
		a    model.AdminAccount
		hash []byte
	)
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT `+adminColumns+`, password_hash FROM admins WHERE lower(username) = lower($1)`,
			username,
		).Scan(&a.ID, &a.Username, &a.Email, &a.Role, &a.Status, &a.CreatedAt, &hash)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AdminAccount{}, datasource.ErrInvalidCredentials
		}
		return model.AdminAccount{}, fmt.Errorf("get admin: %w", err)
	}

	if a.Status != model.StatusActive {
		return model.AdminAccount{}, datasource.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return model.AdminAccount{}, datasource.ErrInvalidCredentials
	}
	return a, nil
}

// EnsureAdmin создаёт суперадминистратора, если в базе нет ни одного администратора.
func (r *PostgresRepository) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	hash, err := r.hash(password)
	if err != nil {
		return false, err
	}

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO admins (username, email, password_hash, role)
		 SELECT $1, '', $2, $3
		 WHERE NOT EXISTS (SELECT 1 FROM admins)`,
		username, hash, string(model.RoleSuper),
	)
	if err != nil {
		return false, mapError(err, "ensure admin")
	}
	return tag.RowsAffected() == 1, nil
}
