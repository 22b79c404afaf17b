package sheet

// AddRow appends one row of empty, type-matching cells.
func (w *Worksheet) AddRow() {
	w.Rows = append(w.Rows, EmptyRow(w.Columns))
}

// AddColumn appends a text column and an empty text cell to every row.
func (w *Worksheet) AddColumn() {
	w.Columns = append(w.Columns, Column{Name: "", Type: TypeText})
	for i := range w.Rows {
		w.Rows[i] = append(w.Rows[i], EmptyCell(TypeText))
	}
}

// DeleteRow removes the row at index. The header row is protected.
func (w *Worksheet) DeleteRow(index int) error {
	if index == 0 {
		return refuse("delete row", "The first row is used for field names and cannot be deleted.")
	}
	if index < 0 || index >= len(w.Rows) {
		return outOfRange("row", index, len(w.Rows))
	}
	rows := make([]Row, 0, len(w.Rows)-1)
	rows = append(rows, w.Rows[:index]...)
	w.Rows = append(rows, w.Rows[index+1:]...)
	return nil
}

// DeleteColumn removes the column at index and its cell from every row.
// The image column is protected.
func (w *Worksheet) DeleteColumn(index int) error {
	if index == 0 {
		return refuse("delete column", "Column A is reserved for images and cannot be deleted.")
	}
	if index < 0 || index >= len(w.Columns) {
		return outOfRange("column", index, len(w.Columns))
	}
	for _, r := range w.Rows {
		if index >= len(r) {
			return outOfRange("cell", index, len(r))
		}
	}

	cols := make([]Column, 0, len(w.Columns)-1)
	cols = append(cols, w.Columns[:index]...)
	w.Columns = append(cols, w.Columns[index+1:]...)
	for i, r := range w.Rows {
		row := make(Row, 0, len(r)-1)
		row = append(row, r[:index]...)
		w.Rows[i] = append(row, r[index+1:]...)
	}
	return nil
}

// SetCell replaces the value of one cell, keeping its type.
func (w *Worksheet) SetCell(row, col int, value string) error {
	if row < 0 || row >= len(w.Rows) {
		return outOfRange("row", row, len(w.Rows))
	}
	if col < 0 || col >= len(w.Rows[row]) {
		return outOfRange("column", col, len(w.Rows[row]))
	}
	w.Rows[row][col].Value = value
	return nil
}

// Rename sets the worksheet name, falling back to the default name when blank.
func (w *Worksheet) Rename(name string) {
	if name == "" {
		name = DefaultName
	}
	w.Name = name
}
