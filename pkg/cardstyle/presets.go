package cardstyle

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v2"
)

//go:embed presets.yaml
var builtinPresets []byte

// ErrUnknownPreset is returned when a size or theme name is not defined.
var ErrUnknownPreset = errors.New("unknown preset")

// SizePreset bundles the five sizing options that always change together.
type SizePreset struct {
	CardWidth   int `yaml:"card_width" json:"cardWidth"`
	CardHeight  int `yaml:"card_height" json:"cardHeight"`
	ImageWidth  int `yaml:"image_width" json:"imageWidth"`
	ImageHeight int `yaml:"image_height" json:"imageHeight"`
	Gap         int `yaml:"gap" json:"gap"`
}

// ThemePreset bundles the colour and typography options of a theme.
type ThemePreset struct {
	BackgroundColor string `yaml:"background_color" json:"backgroundColor"`
	TextColor       string `yaml:"text_color" json:"textColor"`
	BorderColor     string `yaml:"border_color" json:"borderColor"`
	FontFamily      string `yaml:"font_family" json:"fontFamily"`
}

// Presets is the set of named size and theme bundles.
type Presets struct {
	Sizes  map[string]SizePreset  `yaml:"sizes" json:"sizes"`
	Themes map[string]ThemePreset `yaml:"themes" json:"themes"`
}

var (
	defaultPresets     *Presets
	defaultPresetsOnce sync.Once
)

// DefaultPresets returns the presets compiled into the binary.
func DefaultPresets() *Presets {
	defaultPresetsOnce.Do(func() {
		p, err := LoadPresets(builtinPresets)
		if err != nil {
			panic(fmt.Sprintf("cardstyle: builtin presets: %v", err))
		}
		defaultPresets = p
	})
	return defaultPresets
}

// LoadPresets parses a YAML preset document.
func LoadPresets(data []byte) (*Presets, error) {
	var p Presets
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	for name, s := range p.Sizes {
		if s.CardWidth <= 0 || s.CardHeight <= 0 || s.ImageWidth <= 0 || s.ImageHeight <= 0 || s.Gap < 0 {
			return nil, fmt.Errorf("size preset %q: dimensions must be positive", name)
		}
	}
	return &p, nil
}

// LoadPresetsFile reads presets from path. An empty path yields the builtin presets.
func LoadPresetsFile(path string) (*Presets, error) {
	if path == "" {
		return DefaultPresets(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}
	return LoadPresets(data)
}

// ApplySize overwrites cardWidth, cardHeight, imageWidth, imageHeight and gap
// together. No other option is touched apart from the sizePreset marker.
func (p *Presets) ApplySize(cfg Config, name string) (Config, error) {
	s, ok := p.Sizes[name]
	if !ok {
		return cfg, fmt.Errorf("%w: size %q", ErrUnknownPreset, name)
	}
	cfg.CardWidth = s.CardWidth
	cfg.CardHeight = s.CardHeight
	cfg.ImageWidth = s.ImageWidth
	cfg.ImageHeight = s.ImageHeight
	cfg.Gap = s.Gap
	cfg.SizePreset = name
	return cfg, nil
}

// ApplyTheme overwrites backgroundColor, textColor, borderColor and fontFamily.
func (p *Presets) ApplyTheme(cfg Config, name string) (Config, error) {
	t, ok := p.Themes[name]
	if !ok {
		return cfg, fmt.Errorf("%w: theme %q", ErrUnknownPreset, name)
	}
	cfg.BackgroundColor = t.BackgroundColor
	cfg.TextColor = t.TextColor
	cfg.BorderColor = t.BorderColor
	cfg.FontFamily = t.FontFamily
	if IsTransparent(cfg.BorderColor) {
		cfg.BorderColor = DefaultBorderColor
	}
	return cfg, nil
}

func (p *Presets) SizeNames() []string {
	names := make([]string, 0, len(p.Sizes))
	for n := range p.Sizes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (p *Presets) ThemeNames() []string {
	names := make([]string, 0, len(p.Themes))
	for n := range p.Themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
