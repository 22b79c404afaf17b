package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// columnsSheet is a hidden sheet carrying column names and types so that a
	// downloaded workbook can be uploaded again without losing the image column.
	// Its C1 cell holds the row count, since trailing empty rows are not
	// stored in the data sheet.
	columnsSheet   = "_columns"
	rowCountCell   = "C1"
	maxSheetName   = 31
	imageColWidth  = 40
	textColWidth   = 24
	headerFillHex  = "E3F2FD"
	fallbackSheetN = "Worksheet"
)

// WriteXLSX writes the worksheet as a workbook: one visible sheet with the
// header row and data rows, and a hidden sheet describing the columns.
func WriteXLSX(ws Worksheet, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	name := sheetName(ws.Name)
	f.SetSheetName("Sheet1", name)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFillHex}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for r, row := range ws.Rows {
		values := make([]interface{}, len(row))
		for c, cell := range row {
			values[c] = cell.Value
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, r+1)
		if err := f.SetSheetRow(name, cellRef, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	if len(ws.Rows) > 0 && len(ws.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(ws.Columns), 1)
		if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header row: %w", err)
		}
	}
	for c, col := range ws.Columns {
		colName, _ := excelize.ColumnNumberToName(c + 1)
		width := float64(textColWidth)
		if col.Type == TypeImage {
			width = imageColWidth
		}
		if err := f.SetColWidth(name, colName, colName, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	f.NewSheet(columnsSheet)
	for c, col := range ws.Columns {
		cellRef, _ := excelize.CoordinatesToCellName(1, c+1)
		values := []interface{}{col.Name, string(col.Type)}
		if err := f.SetSheetRow(columnsSheet, cellRef, &values); err != nil {
			return fmt.Errorf("failed to write column metadata: %w", err)
		}
	}
	if len(ws.Columns) > 0 {
		if err := f.SetCellInt(columnsSheet, rowCountCell, len(ws.Rows)); err != nil {
			return fmt.Errorf("failed to write row count: %w", err)
		}
	}
	if err := f.SetSheetVisible(columnsSheet, false); err != nil {
		return fmt.Errorf("failed to hide column metadata: %w", err)
	}

	return f.Write(w)
}

// ReadXLSX reads the first visible sheet of a workbook into a normalized
// worksheet. Without column metadata every column is treated as text, which
// makes normalization prepend a fresh image column.
func ReadXLSX(r io.Reader) (Worksheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Worksheet{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var dataSheet string
	hasColumns := false
	for _, s := range f.GetSheetList() {
		if s == columnsSheet {
			hasColumns = true
			continue
		}
		if dataSheet == "" {
			dataSheet = s
		}
	}
	if dataSheet == "" {
		return Worksheet{}, fmt.Errorf("workbook has no data sheet")
	}

	values, err := f.GetRows(dataSheet)
	if err != nil {
		return Worksheet{}, fmt.Errorf("failed to read sheet %q: %w", dataSheet, err)
	}

	var columns []Column
	rowCount := 0
	if hasColumns {
		meta, err := f.GetRows(columnsSheet)
		if err != nil {
			return Worksheet{}, fmt.Errorf("failed to read column metadata: %w", err)
		}
		if len(meta) > 0 && len(meta[0]) > 2 {
			if n, err := strconv.Atoi(meta[0][2]); err == nil && n > 0 && n <= excelize.TotalRows {
				rowCount = n
			}
		}
		for _, m := range meta {
			col := Column{Type: TypeText}
			if len(m) > 0 {
				col.Name = m[0]
			}
			if len(m) > 1 && ColumnType(m[1]) == TypeImage {
				col.Type = TypeImage
			}
			columns = append(columns, col)
		}
	} else {
		widest := 0
		for _, v := range values {
			if len(v) > widest {
				widest = len(v)
			}
		}
		for i := 0; i < widest; i++ {
			columns = append(columns, Column{Type: TypeText})
		}
	}

	rows := make([]Row, len(values))
	for i, v := range values {
		row := make(Row, len(v))
		for j, s := range v {
			row[j] = Cell{Value: s}
		}
		rows[i] = row
	}
	for len(rows) < rowCount {
		rows = append(rows, nil)
	}

	ws := Worksheet{Name: dataSheet, Columns: columns, Rows: rows}
	ws.Normalize()
	return ws, nil
}

func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if name == "" || name == columnsSheet {
		return fallbackSheetN
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}
