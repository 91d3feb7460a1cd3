package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/proxypanel/internal/export"
	"github.com/mmeshcher/proxypanel/internal/model"
	"github.com/mmeshcher/proxypanel/internal/query"
)

var exportEntities = map[string]model.EntityType{
	"orders":  model.EntityOrder,
	"members": model.EntityMember,
	"daily":   model.EntityDailyStat,
}

type exportOptions struct {
	keyword string
	from    string
	to      string
	status  string
	format  string
	output  string
}

func (o exportOptions) criteria() query.Criteria {
	c := query.Criteria{Keyword: o.keyword, DateFrom: o.from, DateTo: o.to}
	if o.status != "" {
		c.Equals = map[string]string{"status": o.status}
	}
	return c
}

// panelctl export orders|members|daily
func newExportCmd(root *rootOptions) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:       "export {orders|members|daily}",
		Short:     "Export a filtered collection to XLSX or JSON",
		ValidArgs: []string{"orders", "members", "daily"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity := exportEntities[args[0]]

			svc, err := root.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			switch opts.format {
			case "json":
				records, err := svc.ExportRecords(cmd.Context(), entity, opts.criteria())
				if err != nil {
					return err
				}
				return writeOutput(root.out, opts.output, func(w io.Writer) error {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(records)
				})

			case "xlsx":
				sheet, err := svc.Export(cmd.Context(), entity, opts.criteria())
				if err != nil {
					return err
				}
				path := opts.output
				if path == "" {
					path = sheet.FileName
				}
				if err := writeOutput(root.out, path, func(w io.Writer) error {
					return export.XLSXWriter{}.Write(w, sheet)
				}); err != nil {
					return err
				}
				// stdout может быть занят самой книгой.
				fmt.Fprintf(cmd.ErrOrStderr(), "%d rows written to %s\n", len(sheet.Rows), path)
				return nil
			}
			return fmt.Errorf("unknown format %q, want xlsx or json", opts.format)
		},
	}

	cmd.Flags().StringVarP(&opts.keyword, "keyword", "k", "", "case-insensitive keyword")
	cmd.Flags().StringVar(&opts.from, "from", "", "start of date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "end of date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.status, "status", "", "status code to match exactly")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "xlsx", "output format: xlsx or json")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "output file (default: generated name for xlsx, stdout for json)")

	return cmd
}

// writeOutput пишет в файл path, а при пустом path в stdout.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
