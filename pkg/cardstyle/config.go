package cardstyle

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Layout positions the image relative to the field list inside a card.
type Layout string

const (
	LayoutTopImage   Layout = "top-image"
	LayoutLeftImage  Layout = "left-image"
	LayoutRightImage Layout = "right-image"
)

// Arrangement controls how cards are laid out relative to each other.
type Arrangement string

const (
	ArrangementColumn Arrangement = "column"
	ArrangementRow    Arrangement = "row"
	ArrangementGrid   Arrangement = "grid"
)

const (
	DefaultBorderColor = "#cccccc"
	// ShadowValue is the fixed drop shadow toggled by CardShadow.
	ShadowValue = "0 6px 18px rgba(0,0,0,0.08)"
)

// ErrMalformedStyles is returned when a stored style document cannot be decoded at all.
var ErrMalformedStyles = errors.New("malformed style configuration")

// Config is the flat set of presentation options applied to every card of a worksheet.
type Config struct {
	Layout            Layout      `json:"layout"`
	CardArrangement   Arrangement `json:"cardArrangement"`
	CardWidth         int         `json:"cardWidth"`
	CardHeight        int         `json:"cardHeight"`
	ImageWidth        int         `json:"imageWidth"`
	ImageHeight       int         `json:"imageHeight"`
	ImageObjectFit    string      `json:"imageObjectFit"`
	BackgroundColor   string      `json:"backgroundColor"`
	TextColor         string      `json:"textColor"`
	BorderColor       string      `json:"borderColor"`
	BorderWidth       int         `json:"borderWidth"`
	BorderRadius      int         `json:"borderRadius"`
	FontFamily        string      `json:"fontFamily"`
	FontSizePrimary   int         `json:"fontSizePrimary"`
	FontSizeSecondary int         `json:"fontSizeSecondary"`
	TextAlign         string      `json:"textAlign"`
	Padding           int         `json:"padding"`
	Gap               int         `json:"gap"`
	CardShadow        bool        `json:"cardShadow"`
	CardButtonText    string      `json:"cardButtonText"`
	CardButtonURL     string      `json:"cardButtonURL"`
	SizePreset        string      `json:"sizePreset,omitempty"`
}

var defaultConfig = Config{
	Layout:            LayoutTopImage,
	CardArrangement:   ArrangementGrid,
	CardWidth:         320,
	CardHeight:        400,
	ImageWidth:        120,
	ImageHeight:       120,
	ImageObjectFit:    "cover",
	BackgroundColor:   "#ffffff",
	TextColor:         "#333333",
	BorderColor:       DefaultBorderColor,
	BorderWidth:       1,
	BorderRadius:      8,
	FontFamily:        "Arial, sans-serif",
	FontSizePrimary:   14,
	FontSizeSecondary: 12,
	TextAlign:         "left",
	Padding:           12,
	Gap:               8,
	CardShadow:        true,
	SizePreset:        "medium",
}

var (
	validObjectFits = map[string]bool{"cover": true, "contain": true, "fill": true, "none": true, "scale-down": true}
	validTextAligns = map[string]bool{"left": true, "center": true, "right": true, "justify": true}
)

// Default returns a copy of the default configuration.
func Default() Config {
	return defaultConfig
}

// FromJSON builds a complete configuration from a stored or submitted style
// document. Keys that are missing, unknown or carry a value of the wrong type
// keep their default. The document may also arrive as a JSON-encoded string.
//
// On a document that is not an object at all, the defaults are returned
// together with an error wrapping ErrMalformedStyles.
func FromJSON(raw []byte) (Config, error) {
	cfg := Default()
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return cfg, nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrMalformedStyles, err)
		}
		return FromJSON([]byte(inner))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrMalformedStyles, err)
	}

	for key, value := range fields {
		applyField(&cfg, key, value)
	}
	return Sanitize(cfg), nil
}

// FromMap is FromJSON for an already decoded key/value mapping.
func FromMap(m map[string]interface{}) (Config, error) {
	if m == nil {
		return Default(), nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return Default(), fmt.Errorf("%w: %v", ErrMalformedStyles, err)
	}
	return FromJSON(raw)
}

// applyField decodes a single key into cfg, skipping it on type mismatch.
// Numeric options submitted as strings ("320") are accepted.
func applyField(cfg *Config, key string, value json.RawMessage) {
	if try(cfg, key, value) {
		return
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		try(cfg, key, json.RawMessage(strconv.Itoa(int(n))))
	}
}

func try(cfg *Config, key string, value json.RawMessage) bool {
	single, err := json.Marshal(map[string]json.RawMessage{key: value})
	if err != nil {
		return false
	}
	next := *cfg
	if err := json.Unmarshal(single, &next); err != nil {
		return false
	}
	*cfg = next
	return true
}

// Sanitize coerces out-of-range values back to usable ones. A border colour
// that resolves to fully transparent becomes DefaultBorderColor.
func Sanitize(c Config) Config {
	switch c.Layout {
	case LayoutTopImage, LayoutLeftImage, LayoutRightImage:
	default:
		c.Layout = defaultConfig.Layout
	}
	switch c.CardArrangement {
	case ArrangementColumn, ArrangementRow, ArrangementGrid:
	default:
		c.CardArrangement = defaultConfig.CardArrangement
	}
	if !validObjectFits[c.ImageObjectFit] {
		c.ImageObjectFit = defaultConfig.ImageObjectFit
	}
	if !validTextAligns[c.TextAlign] {
		c.TextAlign = defaultConfig.TextAlign
	}
	for _, v := range []*string{&c.FontFamily, &c.BackgroundColor, &c.TextColor, &c.BorderColor} {
		*v = cssValue(*v)
	}
	if IsTransparent(c.BorderColor) {
		c.BorderColor = DefaultBorderColor
	}
	for _, n := range []*int{
		&c.CardWidth, &c.CardHeight, &c.ImageWidth, &c.ImageHeight,
		&c.BorderWidth, &c.BorderRadius, &c.FontSizePrimary, &c.FontSizeSecondary,
		&c.Padding, &c.Gap,
	} {
		if *n < 0 {
			*n = 0
		}
	}
	return c
}

// cssValue strips characters that would end the declaration a value is
// written into and start another one.
func cssValue(v string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '\\', '\n', '\r':
			return -1
		}
		return r
	}, v))
}

// JSON encodes the configuration for storage.
func (c Config) JSON() []byte {
	raw, _ := json.Marshal(c)
	return raw
}

// HasButton reports whether cards carry a call-to-action.
func (c Config) HasButton() bool {
	return strings.TrimSpace(c.CardButtonText) != ""
}

// ButtonHref is the call-to-action target. Only http, https, mailto and
// relative URLs are kept; anything else, or an unset URL, becomes "#".
func (c Config) ButtonHref() string {
	raw := strings.TrimSpace(c.CardButtonURL)
	if raw == "" {
		return "#"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "#"
	}
	switch u.Scheme {
	case "", "http", "https", "mailto":
		return raw
	}
	return "#"
}
