package sheet

// Normalize returns columns and rows reshaped so that:
//   - column 0 is an image column (synthesized and prepended when missing,
//     together with an empty image cell at the front of every row);
//   - there is at least one row (DefaultRowCount empty rows are synthesized);
//   - every row has exactly one cell per column.
//
// Short rows are padded with empty cells of the column's type. Cells are never
// dropped: a row longer than the column list causes unnamed text columns to be
// appended. The inputs are not modified.
func Normalize(columns []Column, rows []Row) ([]Column, []Row) {
	cols := make([]Column, len(columns))
	for i, c := range columns {
		cols[i] = Column{Name: c.Name, Type: normalizeType(c.Type)}
	}
	rs := make([]Row, len(rows))
	for i, r := range rows {
		rs[i] = append(Row(nil), r...)
	}

	if len(cols) == 0 || cols[0].Type != TypeImage {
		cols = append([]Column{{Name: ImageColumnName, Type: TypeImage}}, cols...)
		for i := range rs {
			rs[i] = append(Row{EmptyCell(TypeImage)}, rs[i]...)
		}
	}

	if len(rs) == 0 {
		rs = make([]Row, DefaultRowCount)
	}

	widest := 0
	for _, r := range rs {
		if len(r) > widest {
			widest = len(r)
		}
	}
	for len(cols) < widest {
		cols = append(cols, Column{Name: "", Type: TypeText})
	}

	for i, r := range rs {
		for j := range r {
			r[j].Type = cellType(r[j].Type, cols[j].Type)
		}
		for len(r) < len(cols) {
			r = append(r, EmptyCell(cols[len(r)].Type))
		}
		rs[i] = r
	}
	return cols, rs
}

// Normalize reshapes the worksheet in place. See Normalize.
func (w *Worksheet) Normalize() {
	w.Columns, w.Rows = Normalize(w.Columns, w.Rows)
}

func normalizeType(t ColumnType) ColumnType {
	if t == TypeImage {
		return TypeImage
	}
	return TypeText
}

func cellType(have, column ColumnType) ColumnType {
	if have == TypeImage || have == TypeText {
		return have
	}
	return column
}
