// Package xlsx serializes report workbooks into the Office Open XML format.
package xlsx

import (
	"fmt"

	"github.com/segyhp/dialoger-export/internal/report"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// numFmtTwoDecimals is the built-in "0.00" format
const numFmtTwoDecimals = 2

// Renderer writes workbooks with excelize
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render returns the xlsx bytes of wb
func (r *Renderer) Render(wb *report.Workbook) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles := newStyleCache(f)

	for i, sheet := range wb.Sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return nil, fmt.Errorf("rename first sheet to %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", sheet.Name, err)
		}

		if err := writeSheet(f, styles, sheet); err != nil {
			return nil, fmt.Errorf("write sheet %q: %w", sheet.Name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, styles *styleCache, sheet *report.Sheet) error {
	name := sheet.Name

	// Column styles go first so that cells written afterwards inherit them.
	header := make([]any, 0, len(sheet.Columns))
	for i, col := range sheet.Columns {
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, colName, colName, col.Width); err != nil {
			return err
		}
		if style, ok, err := styles.column(col); err != nil {
			return err
		} else if ok {
			if err := f.SetColStyle(name, colName, style); err != nil {
				return err
			}
		}
		header = append(header, col.Header)
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := cellValues(row.Values())
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return err
		}
	}

	for _, format := range sheet.Formats {
		opts := make([]excelize.ConditionalFormatOptions, 0, len(format.Rules))
		for _, rule := range format.Rules {
			style, err := styles.conditional(rule.Color)
			if err != nil {
				return err
			}
			opts = append(opts, excelize.ConditionalFormatOptions{
				Type:     "formula",
				Criteria: rule.Formula,
				Format:   &style,
			})
		}
		if err := f.SetConditionalFormat(name, format.Range, opts); err != nil {
			return fmt.Errorf("conditional format %s: %w", format.Range, err)
		}
	}

	for _, cell := range sheet.Cells {
		value, numeric := cellValue(cell.Value)
		if err := f.SetCellValue(name, cell.Ref, value); err != nil {
			return err
		}
		if cell.Fill == "" {
			continue
		}
		style, err := styles.fill(cell.Fill, numeric)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, cell.Ref, cell.Ref, style); err != nil {
			return err
		}
	}

	return nil
}

func cellValues(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i], _ = cellValue(v)
	}
	return out
}

// cellValue converts decimals to numbers the spreadsheet understands
func cellValue(v any) (any, bool) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.InexactFloat64(), true
	case float64, int, int64:
		return d, true
	default:
		return v, false
	}
}

// styleCache creates each distinct style once per file
type styleCache struct {
	f           *excelize.File
	fills      map[string]int
	condStyles map[string]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{
		f:          f,
		fills:      make(map[string]int),
		condStyles: make(map[string]int),
	}
}

func (c *styleCache) column(col report.Column) (int, bool, error) {
	switch col.Key {
	case "amount", "dialoger_share":
	default:
		if !col.WrapText {
			return 0, false, nil
		}
	}

	style := &excelize.Style{}
	if col.WrapText {
		style.Alignment = &excelize.Alignment{WrapText: true}
	}
	if col.Key == "amount" || col.Key == "dialoger_share" {
		style.NumFmt = numFmtTwoDecimals
	}

	id, err := c.f.NewStyle(style)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (c *styleCache) fill(color string, numeric bool) (int, error) {
	key := fmt.Sprintf("%s/%t", color, numeric)
	if id, ok := c.fills[key]; ok {
		return id, nil
	}

	style := &excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#" + color}, Pattern: 1},
	}
	if numeric {
		style.NumFmt = numFmtTwoDecimals
	}

	id, err := c.f.NewStyle(style)
	if err != nil {
		return 0, err
	}
	c.fills[key] = id
	return id, nil
}

func (c *styleCache) conditional(color string) (int, error) {
	if id, ok := c.condStyles[color]; ok {
		return id, nil
	}

	id, err := c.f.NewConditionalStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#" + color}, Pattern: 1},
	})
	if err != nil {
		return 0, err
	}
	c.condStyles[color] = id
	return id, nil
}
