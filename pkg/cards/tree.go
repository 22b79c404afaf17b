package cards

// Node is one element of the live preview tree. The editor front-end mounts
// it as-is; Text is set only on leaf nodes.
type Node struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Style    Style             `json:"style,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// BuildTree renders a layout as a node tree.
func BuildTree(l Layout) *Node {
	if l.Empty {
		return &Node{Tag: "div", Text: Placeholder}
	}

	root := &Node{
		Tag:      "div",
		Attrs:    map[string]string{"class": ContainerClass},
		Style:    l.Container,
		Children: make([]*Node, 0, len(l.Cards)),
	}
	for _, c := range l.Cards {
		root.Children = append(root.Children, cardNode(c))
	}
	return root
}

func cardNode(c CardBox) *Node {
	card := &Node{Tag: "div", Style: c.Style}
	if c.Image != nil {
		card.Children = append(card.Children, &Node{
			Tag:   "img",
			Attrs: map[string]string{"src": c.Image.Src, "alt": c.Image.Alt},
			Style: c.Image.Style,
		})
	}

	list := &Node{Tag: "div", Style: c.FieldList}
	for _, f := range c.Fields {
		list.Children = append(list.Children, &Node{
			Tag:   "div",
			Style: f.RowStyle,
			Children: []*Node{
				{Tag: "span", Style: f.LabelStyle, Text: f.Label},
				{Tag: "span", Style: f.ValueStyle, Text: f.Value},
			},
		})
	}
	if c.Button != nil {
		list.Children = append(list.Children, &Node{
			Tag: "a",
			Attrs: map[string]string{
				"href":   c.Button.Href,
				"target": "_blank",
				"rel":    "noopener noreferrer",
			},
			Style: c.Button.Style,
			Text:  c.Button.Text,
		})
	}
	card.Children = append(card.Children, list)
	return card
}

// Find returns the nodes under n, n included, for which match is true, in document order.
func (n *Node) Find(match func(*Node) bool) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	if match(n) {
		out = append(out, n)
	}
	for _, c := range n.Children {
		out = append(out, c.Find(match)...)
	}
	return out
}
