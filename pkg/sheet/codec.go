package sheet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/locvowork/pawsheets/pkg/cardstyle"
)

// Record is the stored shape of a worksheet: columns, rows and styles are
// JSON documents. Stores may hand them back either as native JSON arrays or
// objects, or as JSON-encoded strings of the same.
type Record struct {
	ID        string
	UserID    string
	Name      string
	Columns   []byte
	Rows      []byte
	Styles    []byte
	CreatedAt time.Time
}

// DecodeColumns parses a stored column list.
func DecodeColumns(raw []byte) ([]Column, error) {
	var cols []Column
	if err := decodeLenient(raw, &cols); err != nil {
		return nil, fmt.Errorf("%w: columns: %v", ErrMalformed, err)
	}
	return cols, nil
}

// DecodeRows parses a stored row matrix.
func DecodeRows(raw []byte) ([]Row, error) {
	var rows []Row
	if err := decodeLenient(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrMalformed, err)
	}
	return rows, nil
}

func decodeLenient(raw []byte, v interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return err
		}
		return decodeLenient([]byte(inner), v)
	}
	return json.Unmarshal(trimmed, v)
}

// Decode turns a stored record into a normalized worksheet. Parts that fail
// to parse are replaced by defaults: columns by the lone image column, rows
// by an empty set (which normalization turns into blank rows), styles by the
// default configuration. The returned worksheet is always usable; a non-nil
// error reports what had to be substituted and wraps ErrMalformed.
func Decode(rec Record) (Worksheet, error) {
	var errs []error

	cols, err := DecodeColumns(rec.Columns)
	if err != nil {
		errs = append(errs, err)
		cols = []Column{{Name: ImageColumnName, Type: TypeImage}}
	}
	rows, err := DecodeRows(rec.Rows)
	if err != nil {
		errs = append(errs, err)
		rows = nil
	}
	styles, err := cardstyle.FromJSON(rec.Styles)
	if err != nil {
		errs = append(errs, fmt.Errorf("%w: styles: %v", ErrMalformed, err))
	}

	ws := Worksheet{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Name:      rec.Name,
		Columns:   cols,
		Rows:      rows,
		Styles:    styles,
		CreatedAt: rec.CreatedAt,
	}
	ws.Normalize()
	return ws, errors.Join(errs...)
}

// Encode produces the stored record for a worksheet.
func Encode(ws Worksheet) (Record, error) {
	cols, err := json.Marshal(nonNilColumns(ws.Columns))
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode columns: %w", err)
	}
	rows, err := json.Marshal(nonNilRows(ws.Rows))
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode rows: %w", err)
	}
	return Record{
		ID:        ws.ID,
		UserID:    ws.UserID,
		Name:      ws.Name,
		Columns:   cols,
		Rows:      rows,
		Styles:    ws.Styles.JSON(),
		CreatedAt: ws.CreatedAt,
	}, nil
}

func nonNilColumns(c []Column) []Column {
	if c == nil {
		return []Column{}
	}
	return c
}

func nonNilRows(r []Row) []Row {
	out := make([]Row, len(r))
	for i, row := range r {
		if row == nil {
			row = Row{}
		}
		out[i] = row
	}
	return out
}
