// Package sink renders committed component trees to HTML for the
// development server. It is a display collaborator of the runtime core:
// the runtime hands it each committed root and patch, and the server asks
// it for the current markup.
package sink

import (
	"context"
	"fmt"
	"html"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/a-h/templ"

	"github.com/ignius299792458/rv-react/internal/fiber"
	"github.com/ignius299792458/rv-react/internal/reconcile"
)

// HTMLSink holds the markup of the most recently committed tree. It is
// safe for concurrent use: the runtime writes on commit, HTTP handlers
// read on request.
type HTMLSink struct {
	mu      sync.RWMutex
	html    string
	commits int
}

// NewHTMLSink creates an empty HTML sink.
func NewHTMLSink() *HTMLSink {
	return &HTMLSink{}
}

// Apply implements the runtime's display sink: it renders the committed
// root to markup and publishes it for readers.
func (s *HTMLSink) Apply(root *fiber.Node, ops []reconcile.PatchOp) error {
	var builder strings.Builder
	if err := WriteNode(&builder, root); err != nil {
		return err
	}

	s.mu.Lock()
	s.html = builder.String()
	s.commits++
	s.mu.Unlock()
	return nil
}

// HTML returns the markup of the last committed tree.
func (s *HTMLSink) HTML() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.html
}

// Commits returns how many trees have been applied.
func (s *HTMLSink) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// Component bridges the last committed tree into a templ component so it
// can be embedded in templ layouts.
func (s *HTMLSink) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s.HTML())
		return err
	})
}

// NodeComponent wraps one committed subtree as a templ component.
func NodeComponent(node *fiber.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return WriteNode(w, node)
	})
}

// WriteNode writes the markup for a committed subtree. Host leaves map to
// tags with their props as attributes ("text" becomes escaped text
// content); component nodes contribute only their children.
func WriteNode(w io.Writer, node *fiber.Node) error {
	if node == nil {
		return nil
	}

	if !node.IsHost() {
		for _, child := range node.Children {
			if err := WriteNode(w, child); err != nil {
				return err
			}
		}
		return nil
	}

	if _, err := fmt.Fprintf(w, "<%s%s>", node.Name, attributes(node)); err != nil {
		return err
	}
	if text, ok := node.Props["text"]; ok {
		if _, err := io.WriteString(w, html.EscapeString(fmt.Sprintf("%v", text))); err != nil {
			return err
		}
	}
	for _, child := range node.Children {
		if err := WriteNode(w, child); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "</%s>", node.Name)
	return err
}

// attributes renders a host node's props as HTML attributes in sorted
// order so output is deterministic. "text" is content, not an attribute.
func attributes(node *fiber.Node) string {
	if len(node.Props) == 0 {
		return ""
	}

	names := make([]string, 0, len(node.Props))
	for name := range node.Props {
		if name == "text" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var builder strings.Builder
	for _, name := range names {
		value := fmt.Sprintf("%v", node.Props[name])
		builder.WriteString(" ")
		builder.WriteString(name)
		builder.WriteString(`="`)
		builder.WriteString(html.EscapeString(value))
		builder.WriteString(`"`)
	}
	return builder.String()
}
