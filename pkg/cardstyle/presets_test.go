package cardstyle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySizeTouchesOnlySizingKeys(t *testing.T) {
	p := DefaultPresets()

	base := Default()
	base.BackgroundColor = "#123456"
	base.Layout = LayoutRightImage
	base.Padding = 30

	for _, name := range []string{"small", "medium", "large"} {
		got, err := p.ApplySize(base, name)
		require.NoError(t, err)

		s := p.Sizes[name]
		assert.Equal(t, s.CardWidth, got.CardWidth)
		assert.Equal(t, s.CardHeight, got.CardHeight)
		assert.Equal(t, s.ImageWidth, got.ImageWidth)
		assert.Equal(t, s.ImageHeight, got.ImageHeight)
		assert.Equal(t, s.Gap, got.Gap)
		assert.Equal(t, name, got.SizePreset)

		// everything else is untouched
		got.CardWidth, got.CardHeight = base.CardWidth, base.CardHeight
		got.ImageWidth, got.ImageHeight = base.ImageWidth, base.ImageHeight
		got.Gap, got.SizePreset = base.Gap, base.SizePreset
		assert.Equal(t, base, got)
	}
}

func TestApplySizeSmallValues(t *testing.T) {
	got, err := DefaultPresets().ApplySize(Default(), "small")
	require.NoError(t, err)
	assert.Equal(t, 240, got.CardWidth)
	assert.Equal(t, 300, got.CardHeight)
	assert.Equal(t, 80, got.ImageWidth)
	assert.Equal(t, 80, got.ImageHeight)
	assert.Equal(t, 6, got.Gap)
}

func TestApplyUnknownPreset(t *testing.T) {
	base := Default()
	got, err := DefaultPresets().ApplySize(base, "huge")
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.Equal(t, base, got)

	_, err = DefaultPresets().ApplyTheme(base, "neon")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestApplyTheme(t *testing.T) {
	got, err := DefaultPresets().ApplyTheme(Default(), "navy")
	require.NoError(t, err)
	assert.Equal(t, "#001f3f", got.BackgroundColor)
	assert.Equal(t, "#ffd700", got.TextColor)
	assert.Equal(t, "Verdana, sans-serif", got.FontFamily)
	assert.Equal(t, Default().CardWidth, got.CardWidth)
}

func TestLoadPresetsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sizes:
  tiny:
    card_width: 100
    card_height: 120
    image_width: 40
    image_height: 40
    gap: 2
themes:
  ghost:
    background_color: "#fff"
    text_color: "#000"
    border_color: "transparent"
    font_family: "serif"
`), 0o644))

	p, err := LoadPresetsFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"tiny"}, p.SizeNames())

	got, err := p.ApplyTheme(Default(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, DefaultBorderColor, got.BorderColor)
}

func TestLoadPresetsRejectsNonPositiveSizes(t *testing.T) {
	_, err := LoadPresets([]byte("sizes:\n  bad:\n    card_width: 0\n"))
	assert.Error(t, err)
}

func TestBuiltinPresetNames(t *testing.T) {
	p := DefaultPresets()
	assert.Equal(t, []string{"large", "medium", "small"}, p.SizeNames())
	assert.Contains(t, p.ThemeNames(), "classic")
}
