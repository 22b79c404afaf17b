package cards

import (
	"github.com/locvowork/pawsheets/pkg/cardstyle"
)

const (
	// ContainerClass marks the card container; the embed equalisation script selects on it.
	ContainerClass = "card-container"
	Placeholder    = "No data available for cards"

	buttonColor = "#001f3f"
)

// Layout is the complete, renderer-agnostic description of a card set.
// When Empty is set only the placeholder is rendered.
type Layout struct {
	Empty     bool
	Container Style
	Cards     []CardBox
}

// CardBox describes one card and its conditional children.
type CardBox struct {
	Style     Style
	Image     *ImageBox
	FieldList Style
	Fields    []FieldBox
	Button    *ButtonBox
}

type ImageBox struct {
	Src   string
	Alt   string
	Style Style
}

type FieldBox struct {
	Label      string
	Value      string
	RowStyle   Style
	LabelStyle Style
	ValueStyle Style
}

type ButtonBox struct {
	Text  string
	Href  string
	Style Style
}

// Decide computes the layout for projs under cfg.
func Decide(projs []Projection, cfg cardstyle.Config) Layout {
	cfg = cardstyle.Sanitize(cfg)
	if len(projs) == 0 {
		return Layout{Empty: true}
	}

	l := Layout{
		Container: containerStyle(cfg),
		Cards:     make([]CardBox, 0, len(projs)),
	}
	for _, p := range projs {
		l.Cards = append(l.Cards, decideCard(p, cfg))
	}
	return l
}

func containerStyle(cfg cardstyle.Config) Style {
	if cfg.CardArrangement == cardstyle.ArrangementGrid {
		return Style{
			{"display", "grid"},
			{"grid-template-columns", "repeat(auto-fill, minmax(" + px(cfg.CardWidth) + ", 1fr))"},
			{"gap", px(cfg.Gap)},
		}
	}
	direction := "column"
	if cfg.CardArrangement == cardstyle.ArrangementRow {
		direction = "row"
	}
	return Style{
		{"display", "flex"},
		{"flex-direction", direction},
		{"gap", px(cfg.Gap)},
	}
}

// FlexDirection maps the image layout to the card's flex direction.
// right-image uses row-reverse so the image trails without reordering fields.
func FlexDirection(layout cardstyle.Layout) string {
	switch layout {
	case cardstyle.LayoutLeftImage:
		return "row"
	case cardstyle.LayoutRightImage:
		return "row-reverse"
	default:
		return "column"
	}
}

func decideCard(p Projection, cfg cardstyle.Config) CardBox {
	shadow := "none"
	if cfg.CardShadow {
		shadow = cardstyle.ShadowValue
	}

	card := CardBox{
		Style: Style{
			{"background-color", cfg.BackgroundColor},
			{"border", px(cfg.BorderWidth) + " solid " + cfg.BorderColor},
			{"border-radius", px(cfg.BorderRadius)},
			{"padding", px(cfg.Padding)},
			{"box-shadow", shadow},
			{"width", px(cfg.CardWidth)},
			{"min-height", px(cfg.CardHeight)},
			{"box-sizing", "border-box"},
			{"overflow", "hidden"},
			{"font-family", cfg.FontFamily},
			{"color", cfg.TextColor},
			{"text-align", cfg.TextAlign},
			{"display", "flex"},
			{"flex-direction", FlexDirection(cfg.Layout)},
			{"gap", px(cfg.Gap)},
		},
		FieldList: Style{
			{"display", "flex"},
			{"flex-direction", "column"},
			{"gap", "6px"},
			{"flex", "1"},
		},
		Fields: make([]FieldBox, 0, len(p.Fields)),
	}

	if p.ImageField.Value != "" {
		width := px(cfg.ImageWidth)
		if cfg.Layout == cardstyle.LayoutTopImage {
			width = "100%"
		}
		card.Image = &ImageBox{
			Src: p.ImageField.Value,
			Style: Style{
				{"width", width},
				{"height", px(cfg.ImageHeight)},
				{"object-fit", cfg.ImageObjectFit},
				{"border-radius", px(cfg.BorderRadius)},
				{"flex", "0 0 auto"},
			},
		}
	}

	for _, f := range p.Fields {
		card.Fields = append(card.Fields, FieldBox{
			Label: f.Header + ":",
			Value: f.Value,
			RowStyle: Style{
				{"display", "flex"},
				{"gap", "4px"},
				{"flex-wrap", "wrap"},
				{"align-items", "baseline"},
			},
			LabelStyle: Style{
				{"font-weight", "700"},
				{"font-size", px(cfg.FontSizeSecondary)},
			},
			ValueStyle: Style{
				{"font-size", px(cfg.FontSizePrimary)},
			},
		})
	}

	if cfg.HasButton() {
		card.Button = &ButtonBox{
			Text: cfg.CardButtonText,
			Href: cfg.ButtonHref(),
			Style: Style{
				{"display", "inline-block"},
				{"padding", "6px 12px"},
				{"background-color", buttonColor},
				{"color", "#fff"},
				{"text-decoration", "none"},
				{"border-radius", "4px"},
				{"margin-top", "auto"},
				{"text-align", "center"},
				{"font-size", "14px"},
			},
		}
	}
	return card
}
