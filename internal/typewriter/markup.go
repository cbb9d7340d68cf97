package typewriter

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fragment is a parsed rich line: its plain-text rendering plus the controls
// embedded in it, in document order.
type Fragment struct {
	Text     string
	Controls []Control
}

// ParseFragment parses a markup fragment such as
//
//	<p><button data-target="STAGE_2">Hello</button> | <button data-target="STAGE_2">World</button></p>
//
// Every <button> becomes a Control labelled with its normalized text; the
// data-target attribute names the state to enter and data-action a host
// action. Text is the fragment's whitespace-collapsed text content.
func ParseFragment(markup string) (Fragment, error) {
	if strings.TrimSpace(markup) == "" {
		return Fragment{}, fmt.Errorf("%w: empty fragment", ErrMarkup)
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return Fragment{}, fmt.Errorf("%w: %v", ErrMarkup, err)
	}

	var text strings.Builder
	var controls []Control
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			text.WriteString(n.Data)
			return
		case n.Type == html.ElementNode && n.DataAtom == atom.Button:
			label := Normalize(textContent(n))
			text.WriteString(label)
			controls = append(controls, Control{
				Label:  label,
				Target: attr(n, "data-target"),
				Action: attr(n, "data-action"),
			})
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return Fragment{Text: Normalize(text.String()), Controls: controls}, nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
