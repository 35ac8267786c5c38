// Package htmlsurface is a read-only schemas.Surface over a saved HTML page. It
// resolves targets with the same four strategies as the browser and records
// interactions instead of performing them.
package htmlsurface

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

const refAttribute = "data-listpilot-ref"

// Event is one recorded interaction.
type Event struct {
	Kind  string
	Ref   string
	Value string
}

// Surface holds a parsed document.
type Surface struct {
	mu      sync.Mutex
	doc     *html.Node
	refs    map[string]*html.Node
	seq     int
	focused *html.Node
	events  []Event
}

var _ schemas.Surface = (*Surface)(nil)

// Parse reads an HTML document.
func Parse(r io.Reader) (*Surface, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &Surface{doc: doc, refs: make(map[string]*html.Node)}, nil
}

// ParseFile reads an HTML document from disk.
func ParseFile(path string) (*Surface, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// CaptureSnapshot renders the current document. The bytes are HTML, not PNG.
func (s *Surface) CaptureSnapshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var buf bytes.Buffer
	if err := html.Render(&buf, s.doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Find resolves query with one strategy and tags the match.
func (s *Surface) Find(ctx context.Context, strategy schemas.LocatorStrategy, query string) (schemas.Element, bool, error) {
	if err := ctx.Err(); err != nil {
		return schemas.Element{}, false, err
	}
	q := normalize(query)
	if q == "" {
		return schemas.Element{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n *html.Node
	switch strategy {
	case schemas.LocateByLabel:
		n = s.byLabel(q)
	case schemas.LocateByPlaceholder:
		n = firstVisible(collect(s.doc, func(n *html.Node) bool {
			v, ok := attr(n, "placeholder")
			return ok && strings.Contains(normalize(v), q)
		}))
	case schemas.LocateByRoleButton:
		n = firstVisible(collect(s.doc, func(n *html.Node) bool {
			return isButton(n) && strings.Contains(normalize(accessibleName(n)), q)
		}))
	case schemas.LocateByText:
		n = s.byText(q)
	default:
		return schemas.Element{}, false, fmt.Errorf("unsupported locator strategy %q", strategy)
	}
	if n == nil {
		return schemas.Element{}, false, nil
	}
	return schemas.Element{Ref: s.tag(n), Strategy: strategy, Description: describe(n)}, true, nil
}

func (s *Surface) byLabel(q string) *html.Node {
	var found []*html.Node
	for _, label := range collect(s.doc, isElement(atom.Label)) {
		if !strings.Contains(normalize(textContent(label)), q) {
			continue
		}
		if control := labelControl(s.doc, label); control != nil {
			found = append(found, control)
		}
	}
	found = append(found, collect(s.doc, func(n *html.Node) bool {
		v, ok := attr(n, "aria-label")
		return ok && strings.Contains(normalize(v), q)
	})...)
	found = append(found, collect(s.doc, func(n *html.Node) bool {
		ids, ok := attr(n, "aria-labelledby")
		if !ok {
			return false
		}
		var parts []string
		for _, id := range strings.Fields(ids) {
			if ref := byID(s.doc, id); ref != nil {
				parts = append(parts, textContent(ref))
			}
		}
		return strings.Contains(normalize(strings.Join(parts, " ")), q)
	})...)
	return firstVisible(found)
}

// byText picks the innermost elements whose text contains q.
func (s *Surface) byText(q string) *html.Node {
	body := findFirst(s.doc, isElement(atom.Body))
	if body == nil {
		return nil
	}
	found := collect(body, func(n *html.Node) bool {
		if n == body || skipText(n) || !strings.Contains(normalize(textContent(n)), q) {
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && !skipText(c) && strings.Contains(normalize(textContent(c)), q) {
				return false
			}
		}
		return true
	})
	return firstVisible(found)
}

func (s *Surface) tag(n *html.Node) string {
	if ref, ok := attr(n, refAttribute); ok {
		s.refs[ref] = n
		return ref
	}
	var ref string
	for {
		s.seq++
		ref = fmt.Sprintf("lp-%d", s.seq)
		if _, taken := s.refs[ref]; !taken {
			break
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: refAttribute, Val: ref})
	s.refs[ref] = n
	return ref
}

func (s *Surface) lookup(el schemas.Element) (*html.Node, error) {
	n, ok := s.refs[el.Ref]
	if !ok {
		return nil, fmt.Errorf("stale element reference %q", el.Ref)
	}
	return n, nil
}

func (s *Surface) record(kind, ref, value string) {
	s.events = append(s.events, Event{Kind: kind, Ref: ref, Value: value})
}

func (s *Surface) Hover(ctx context.Context, el schemas.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(el); err != nil {
		return err
	}
	s.record("hover", el.Ref, "")
	return nil
}

// Click records the click and moves focus to the element.
func (s *Surface) Click(ctx context.Context, el schemas.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(el)
	if err != nil {
		return err
	}
	s.focused = n
	s.record("click", el.Ref, "")
	return nil
}

// TypeUnit appends unit to the focused element's value.
func (s *Surface) TypeUnit(ctx context.Context, unit string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := ""
	if s.focused != nil {
		ref, _ = attr(s.focused, refAttribute)
		current, _ := attr(s.focused, "value")
		setAttr(s.focused, "value", current+unit)
	}
	s.record("type", ref, unit)
	return nil
}

func (s *Surface) Press(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("press", "", key)
	return nil
}

func (s *Surface) Upload(ctx context.Context, el schemas.Element, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(el); err != nil {
		return err
	}
	s.record("upload", el.Ref, path)
	return nil
}

func (s *Surface) Scroll(ctx context.Context, deltaY int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("scroll", "", fmt.Sprint(deltaY))
	return nil
}

// Sleep returns immediately; there is nothing to wait for on a static page.
func (s *Surface) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.record("sleep", "", d.String())
	s.mu.Unlock()
	return ctx.Err()
}

// Events returns a copy of the recorded interactions.
func (s *Surface) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Value returns the current value attribute of el.
func (s *Surface) Value(el schemas.Element) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.refs[el.Ref]
	if !ok {
		return ""
	}
	v, _ := attr(n, "value")
	return v
}
