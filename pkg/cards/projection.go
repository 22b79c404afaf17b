// Package cards turns worksheet rows into styled cards.
//
// Rendering happens in two steps. Decide computes a renderer-agnostic Layout
// from projections and a style configuration; BuildTree and BuildMarkup each
// walk that Layout, one producing a node tree for the live preview and the
// other an inert HTML fragment for export.
package cards

import (
	"fmt"
	"strings"

	"github.com/locvowork/pawsheets/pkg/sheet"
)

// Field is one labelled value on a card.
type Field struct {
	Header string `json:"header"`
	Value  string `json:"value"`
}

// Projection is the logical content of one card.
type Projection struct {
	ImageField Field   `json:"imageField"`
	Fields     []Field `json:"fields"`
}

// IsValidRow reports whether at least one cell holds non-blank text.
func IsValidRow(row sheet.Row) bool {
	for _, c := range row {
		if strings.TrimSpace(c.Value) != "" {
			return true
		}
	}
	return false
}

// HeaderLabel returns the label for column i, "Field {i}" when the header cell is blank.
func HeaderLabel(header sheet.Row, i int) string {
	if i < len(header) && header[i].Value != "" {
		return header[i].Value
	}
	return fmt.Sprintf("Field %d", i)
}

// Project maps one data row onto a card. Column 0 becomes the image field,
// the remaining columns become fields in column order. Invalid rows yield nil.
func Project(header, row sheet.Row, columns []sheet.Column) *Projection {
	if !IsValidRow(row) {
		return nil
	}
	n := len(columns)
	if n == 0 {
		n = len(row)
	}

	p := &Projection{Fields: make([]Field, 0, n)}
	for i := 0; i < n; i++ {
		f := Field{Header: HeaderLabel(header, i)}
		if i < len(row) {
			f.Value = row[i].Value
		}
		if i == 0 {
			p.ImageField = f
			continue
		}
		p.Fields = append(p.Fields, f)
	}
	return p
}

// ProjectAll projects every data row (rows[1:]) against the header rows[0],
// dropping invalid rows. An empty result means there is nothing to show.
func ProjectAll(rows []sheet.Row, columns []sheet.Column) []Projection {
	if len(rows) < 2 {
		return nil
	}
	header := rows[0]
	var out []Projection
	for _, row := range rows[1:] {
		if p := Project(header, row, columns); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// ProjectWorksheet is ProjectAll over a worksheet's own rows and columns.
func ProjectWorksheet(ws sheet.Worksheet) []Projection {
	return ProjectAll(ws.Rows, ws.Columns)
}
