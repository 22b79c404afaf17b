package cards

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Decl is a single CSS declaration.
type Decl struct {
	Property string
	Value    string
}

// Style is an ordered list of declarations. Order is kept so that both
// renderers emit declarations identically.
type Style []Decl

func px(n int) string {
	return strconv.Itoa(n) + "px"
}

// Get returns the value of property, or "" when absent.
func (s Style) Get(property string) string {
	for _, d := range s {
		if d.Property == property {
			return d.Value
		}
	}
	return ""
}

// String renders the style as an inline style attribute value.
func (s Style) String() string {
	var b strings.Builder
	for i, d := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d.Property)
		b.WriteByte(':')
		b.WriteString(d.Value)
		b.WriteByte(';')
	}
	return b.String()
}

// MarshalJSON encodes the style as an object whose keys keep declaration order.
func (s Style) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(d.Property)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(d.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
