// Package embed wraps rendered card markup into snippets that can be pasted
// into a foreign page.
package embed

import (
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/locvowork/pawsheets/pkg/cards"
)

const (
	// ViewerPath is the hosted route serving the live render of a worksheet.
	ViewerPath          = "/embed/"
	DefaultIFrameHeight = 500
)

// equalizeScript sets every card to the height of the tallest one once the
// snippet is mounted, since host-page fonts can differ from the editor's.
const equalizeScript = `<script>
(function() {
  var cards = document.querySelectorAll('.` + cards.ContainerClass + ` > div');
  var maxHeight = 0;
  cards.forEach(function(card) {
    card.style.minHeight = 'auto';
    maxHeight = Math.max(maxHeight, card.offsetHeight);
  });
  cards.forEach(function(card) {
    card.style.minHeight = maxHeight + 'px';
  });
})();
</script>`

// Options tunes the generated snippets.
type Options struct {
	// SkipEqualize omits the height-equalisation script from the HTML snippet.
	SkipEqualize bool
	// IFrameHeight in pixels; DefaultIFrameHeight when zero.
	IFrameHeight int
}

// Snippets is the export pair offered to the user.
type Snippets struct {
	HTML   string `json:"html"`
	IFrame string `json:"iframe"`
}

// ToEmbed builds the static HTML snippet from markup and the iframe snippet
// pointing at the hosted viewer for worksheetID.
func ToEmbed(markup, worksheetID, hostOrigin string, opts Options) Snippets {
	snippet := markup
	if !opts.SkipEqualize {
		snippet += "\n" + equalizeScript
	}

	height := opts.IFrameHeight
	if height <= 0 {
		height = DefaultIFrameHeight
	}
	iframe := `<iframe src="` + html.EscapeString(ViewerURL(hostOrigin, worksheetID)) +
		`" style="border:none;width:100%;height:` + strconv.Itoa(height) + `px;"></iframe>`

	return Snippets{HTML: snippet, IFrame: iframe}
}

// ViewerURL is the absolute address of the hosted viewer for a worksheet.
func ViewerURL(hostOrigin, worksheetID string) string {
	return strings.TrimRight(hostOrigin, "/") + ViewerPath + url.PathEscape(worksheetID)
}
