package cards

import (
	"html"
	"strings"

	"github.com/locvowork/pawsheets/pkg/cardstyle"
)

// BuildMarkup renders a layout as a standalone HTML fragment. Text and
// attribute values are escaped.
func BuildMarkup(l Layout) string {
	var b strings.Builder
	if l.Empty {
		b.WriteString("<div>")
		b.WriteString(html.EscapeString(Placeholder))
		b.WriteString("</div>")
		return b.String()
	}

	b.WriteString(`<div class="` + ContainerClass + `"`)
	writeStyle(&b, l.Container)
	b.WriteString(">")
	for _, c := range l.Cards {
		writeCard(&b, c)
	}
	b.WriteString("</div>")
	return b.String()
}

func writeCard(b *strings.Builder, c CardBox) {
	b.WriteString("<div")
	writeStyle(b, c.Style)
	b.WriteString(">")

	if c.Image != nil {
		b.WriteString(`<img src="`)
		b.WriteString(html.EscapeString(c.Image.Src))
		b.WriteString(`" alt="`)
		b.WriteString(html.EscapeString(c.Image.Alt))
		b.WriteString(`"`)
		writeStyle(b, c.Image.Style)
		b.WriteString(" />")
	}

	b.WriteString("<div")
	writeStyle(b, c.FieldList)
	b.WriteString(">")
	for _, f := range c.Fields {
		b.WriteString("<div")
		writeStyle(b, f.RowStyle)
		b.WriteString("><span")
		writeStyle(b, f.LabelStyle)
		b.WriteString(">")
		b.WriteString(html.EscapeString(f.Label))
		b.WriteString("</span><span")
		writeStyle(b, f.ValueStyle)
		b.WriteString(">")
		b.WriteString(html.EscapeString(f.Value))
		b.WriteString("</span></div>")
	}
	if c.Button != nil {
		b.WriteString(`<a href="`)
		b.WriteString(html.EscapeString(c.Button.Href))
		b.WriteString(`" target="_blank" rel="noopener noreferrer"`)
		writeStyle(b, c.Button.Style)
		b.WriteString(">")
		b.WriteString(html.EscapeString(c.Button.Text))
		b.WriteString("</a>")
	}
	b.WriteString("</div></div>")
}

func writeStyle(b *strings.Builder, s Style) {
	if len(s) == 0 {
		return
	}
	b.WriteString(` style="`)
	b.WriteString(html.EscapeString(s.String()))
	b.WriteString(`"`)
}

// Render decides the layout once and hands it to both back-ends.
func Render(projs []Projection, cfg cardstyle.Config) (*Node, string) {
	l := Decide(projs, cfg)
	return BuildTree(l), BuildMarkup(l)
}
