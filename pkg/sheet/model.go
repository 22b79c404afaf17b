package sheet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/locvowork/pawsheets/pkg/cardstyle"
)

// ColumnType is the declared content kind of a column.
type ColumnType string

const (
	TypeImage ColumnType = "image"
	TypeText  ColumnType = "text"
)

const (
	ImageColumnName = "Images"
	DefaultRowCount = 5
	// DefaultTextColumns is the number of text columns in a fresh worksheet.
	DefaultTextColumns = 4
	DefaultName        = "My Worksheet"
)

// Column is one ordered column of a worksheet. Order defines field order on cards.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Cell holds free text or an image URL. The empty string means unset.
type Cell struct {
	Value string     `json:"value"`
	Type  ColumnType `json:"type"`
}

// UnmarshalJSON accepts non-string scalar values (numbers, booleans) that
// older records stored for typed-in cells.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value json.RawMessage `json:"value"`
		Type  ColumnType      `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Type = raw.Type
	c.Value = ""
	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Value, &s); err == nil {
		c.Value = s
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw.Value, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		c.Value = strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		c.Value = strconv.FormatBool(val)
	default:
		return fmt.Errorf("unsupported cell value %s", string(raw.Value))
	}
	return nil
}

// Row is index-aligned with the worksheet columns.
type Row []Cell

// Worksheet is the editable table plus the style applied to its cards.
// Rows[0] is the header row holding field labels; it never becomes a card.
type Worksheet struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Name      string           `json:"name"`
	Columns   []Column         `json:"columns"`
	Rows      []Row            `json:"rows"`
	Styles    cardstyle.Config `json:"styles"`
	CreatedAt time.Time        `json:"created_at"`
}

func EmptyCell(t ColumnType) Cell {
	return Cell{Value: "", Type: t}
}

// EmptyRow returns one empty, type-matching cell per column.
func EmptyRow(columns []Column) Row {
	row := make(Row, len(columns))
	for i, col := range columns {
		row[i] = EmptyCell(col.Type)
	}
	return row
}

// NewDefault builds the 5x5 skeleton handed to a user on first access:
// one image column, four text columns, five empty rows.
func NewDefault(name string) Worksheet {
	if name == "" {
		name = DefaultName
	}
	columns := []Column{{Name: ImageColumnName, Type: TypeImage}}
	for i := 0; i < DefaultTextColumns; i++ {
		columns = append(columns, Column{Name: "", Type: TypeText})
	}
	rows := make([]Row, DefaultRowCount)
	for i := range rows {
		rows[i] = EmptyRow(columns)
	}
	return Worksheet{
		Name:    name,
		Columns: columns,
		Rows:    rows,
		Styles:  cardstyle.Default(),
	}
}

// Clone returns a deep copy that shares no slices with w.
func (w Worksheet) Clone() Worksheet {
	out := w
	out.Columns = append([]Column(nil), w.Columns...)
	out.Rows = make([]Row, len(w.Rows))
	for i, r := range w.Rows {
		out.Rows[i] = append(Row(nil), r...)
	}
	return out
}

// HeaderRow returns the field-label row, or nil for a worksheet without rows.
func (w Worksheet) HeaderRow() Row {
	if len(w.Rows) == 0 {
		return nil
	}
	return w.Rows[0]
}

// ColumnLetter converts a zero-based column index to its spreadsheet label (A, B, ... AA).
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	letter := ""
	for n := index; n >= 0; n = n/26 - 1 {
		letter = string(rune('A'+n%26)) + letter
	}
	return letter
}
