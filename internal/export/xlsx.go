package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXWriter записывает таблицу в формате Office Open XML.
type XLSXWriter struct{}

// ContentType — MIME-тип результата XLSXWriter.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Write записывает заголовок, ширины столбцов и строки таблицы s в w.
func (XLSXWriter) Write(w io.Writer, s Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	name := s.Name
	if name == "" {
		name = defaultSheet
	}
	if name != defaultSheet {
		idx, err := f.NewSheet(name)
		if err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		f.SetActiveSheet(idx)
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("delete default sheet: %w", err)
		}
	}

	header := make([]any, len(s.Columns))
	for i, c := range s.Columns {
		header[i] = c.Label
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(name, col, col, float64(c.Width)); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range s.Rows {
		values := make([]any, len(s.Columns))
		for j, c := range s.Columns {
			v, _ := row.Value(c.Label)
			values[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}
