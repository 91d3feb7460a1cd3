// Package main — консольная утилита панели: выгрузки и проверка данных
// без запуска HTTP-сервера.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/proxypanel/internal/backend"
	"github.com/mmeshcher/proxypanel/internal/config"
	"github.com/mmeshcher/proxypanel/internal/service"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	databaseURI string
	upstream    string
	token       string
	verbose     bool
	out         io.Writer
}

// openService открывает источник данных по окружению и флагам.
func (o *rootOptions) openService(ctx context.Context) (*service.Service, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if o.databaseURI != "" {
		cfg.DatabaseURI = o.databaseURI
	}
	if o.upstream != "" {
		cfg.UpstreamAPIAddress = o.upstream
	}
	if o.token != "" {
		cfg.UpstreamAPIToken = o.token
	}

	logger := zap.NewNop()
	if o.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, err
		}
	}

	source, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return service.NewService(source, logger), nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}

	root := &cobra.Command{
		Use:           "panelctl",
		Short:         "Proxy panel command line tool",
		Long:          "panelctl exports panel data and checks daily statistics using the same data source as the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&opts.databaseURI, "database-uri", "d", "", "database URI (overrides DATABASE_URI)")
	root.PersistentFlags().StringVarP(&opts.upstream, "upstream", "u", "", "upstream admin API address (overrides UPSTREAM_API_ADDRESS)")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "upstream admin API token (overrides UPSTREAM_API_TOKEN)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log data source activity")

	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newCheckDailyCmd(opts))
	root.AddCommand(newSummaryCmd(opts))

	return root
}
