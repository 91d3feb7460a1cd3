// Package backend выбирает источник данных панели по конфигурации.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/proxypanel/internal/config"
	"github.com/mmeshcher/proxypanel/internal/datasource"
	"github.com/mmeshcher/proxypanel/internal/datasource/httpapi"
	"github.com/mmeshcher/proxypanel/internal/datasource/memory"
	"github.com/mmeshcher/proxypanel/internal/repository"
)

// Open открывает источник данных в режиме cfg.Mode().
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (datasource.Source, error) {
	switch mode := cfg.Mode(); mode {
	case config.ModePostgres:
		repo, err := repository.NewPostgresRepository(ctx, cfg.DatabaseURI)
		if err != nil {
			return nil, fmt.Errorf("database initialization: %w", err)
		}
		if cfg.AdminPassword != "" {
			created, err := repo.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
			if err != nil {
				repo.Close()
				return nil, err
			}
			if created {
				logger.Info("initial admin created", zap.String("username", cfg.AdminUsername))
			}
		}
		return repo, nil

	case config.ModeHTTP:
		logger.Info("using upstream admin API", zap.String("address", cfg.UpstreamAPIAddress))
		return httpapi.NewClient(cfg.UpstreamAPIAddress,
			httpapi.StaticToken(cfg.UpstreamAPIToken),
			httpapi.WithTimeout(cfg.RequestTimeout),
		), nil

	default:
		logger.Warn("no data source configured, serving demo data from memory")
		store, err := memory.New()
		if err != nil {
			return nil, fmt.Errorf("demo data: %w", err)
		}
		return store, nil
	}
}
