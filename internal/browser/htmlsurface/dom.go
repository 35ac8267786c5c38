package htmlsurface

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func isElement(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == a }
}

// collect walks the tree in document order.
func collect(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	if found := collect(root, match); len(found) > 0 {
		return found[0]
	}
	return nil
}

func byID(root *html.Node, id string) *html.Node {
	return findFirst(root, func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return ok && v == id
	})
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		case n.Type == html.ElementNode && skipText(n):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func skipText(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
		return true
	}
	return false
}

func isFormControl(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Input, atom.Textarea, atom.Select:
		return true
	}
	return false
}

// labelControl finds the control a label points at, by for= or by nesting.
func labelControl(doc, label *html.Node) *html.Node {
	if id, ok := attr(label, "for"); ok && id != "" {
		if n := byID(doc, id); n != nil {
			return n
		}
	}
	return findFirst(label, func(n *html.Node) bool { return n != label && isFormControl(n) })
}

func isButton(n *html.Node) bool {
	if n.DataAtom == atom.Button {
		return true
	}
	if role, ok := attr(n, "role"); ok && strings.EqualFold(role, "button") {
		return true
	}
	if n.DataAtom == atom.Input {
		t, _ := attr(n, "type")
		switch strings.ToLower(t) {
		case "submit", "button", "reset":
			return true
		}
	}
	return false
}

func accessibleName(n *html.Node) string {
	if v, ok := attr(n, "aria-label"); ok && strings.TrimSpace(v) != "" {
		return v
	}
	if text := strings.TrimSpace(textContent(n)); text != "" {
		return text
	}
	if v, ok := attr(n, "value"); ok && v != "" {
		return v
	}
	v, _ := attr(n, "title")
	return v
}

// hidden approximates visibility without layout: hidden attributes, hidden inputs,
// and inline display:none or visibility:hidden on the node or an ancestor.
func hidden(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if _, ok := attr(p, "hidden"); ok {
			return true
		}
		if p.DataAtom == atom.Input {
			if t, _ := attr(p, "type"); strings.EqualFold(t, "hidden") {
				return true
			}
		}
		if style, ok := attr(p, "style"); ok {
			compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
			if strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func firstVisible(nodes []*html.Node) *html.Node {
	for _, n := range nodes {
		if !hidden(n) {
			return n
		}
	}
	return nil
}

func describe(n *html.Node) string {
	text := normalize(textContent(n))
	if text == "" {
		text, _ = attr(n, "placeholder")
	}
	if r := []rune(text); len(r) > 60 {
		text = string(r[:60])
	}
	if text == "" {
		return n.Data
	}
	return n.Data + ` "` + text + `"`
}
