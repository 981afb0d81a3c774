package sink

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/ignius299792458/rv-react/internal/fiber"
	"github.com/ignius299792458/rv-react/internal/types"
)

func host(tag string, props types.Props, children ...*fiber.Node) *fiber.Node {
	node := fiber.NewNode(types.ChildRequest{Name: tag, Props: props})
	node.Children = children
	return node
}

func component(name string, children ...*fiber.Node) *fiber.Node {
	node := fiber.NewNode(types.ChildRequest{
		Name: name,
		Render: func(types.Props, types.Cursor) ([]types.ChildRequest, error) {
			return nil, nil
		},
	})
	node.Children = children
	return node
}

func TestWriteNode_HostTree(t *testing.T) {
	root := host("div", types.Props{"class": "card"},
		host("h1", types.Props{"text": "Title"}),
		host("p", types.Props{"text": "Body"}),
	)

	var builder strings.Builder
	require.NoError(t, WriteNode(&builder, root))
	assert.Equal(t, `<div class="card"><h1>Title</h1><p>Body</p></div>`, builder.String())
}

func TestWriteNode_ComponentNodesAreTransparent(t *testing.T) {
	root := component("App",
		component("Header", host("h1", types.Props{"text": "Hi"})),
		host("main", nil),
	)

	var builder strings.Builder
	require.NoError(t, WriteNode(&builder, root))
	assert.Equal(t, `<h1>Hi</h1><main></main>`, builder.String())
}

func TestWriteNode_EscapesTextAndAttributes(t *testing.T) {
	root := host("div", types.Props{
		"title": `a "quoted" <value>`,
		"text":  "<script>alert(1)</script>",
	})

	var builder strings.Builder
	require.NoError(t, WriteNode(&builder, root))

	out := builder.String()
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "&#34;quoted&#34;")
}

func TestWriteNode_AttributeOrderDeterministic(t *testing.T) {
	root := host("input", types.Props{"type": "text", "name": "q", "id": "search"})

	var first strings.Builder
	require.NoError(t, WriteNode(&first, root))
	for i := 0; i < 20; i++ {
		var again strings.Builder
		require.NoError(t, WriteNode(&again, root))
		assert.Equal(t, first.String(), again.String())
	}
	assert.Equal(t, `<input id="search" name="q" type="text"></input>`, first.String())
}

func TestHTMLSink_ApplyPublishesMarkup(t *testing.T) {
	s := NewHTMLSink()
	assert.Empty(t, s.HTML())

	root := component("App", host("p", types.Props{"text": "one"}))
	require.NoError(t, s.Apply(root, nil))
	assert.Equal(t, "<p>one</p>", s.HTML())
	assert.Equal(t, 1, s.Commits())

	root = component("App", host("p", types.Props{"text": "two"}))
	require.NoError(t, s.Apply(root, nil))
	assert.Equal(t, "<p>two</p>", s.HTML())
	assert.Equal(t, 2, s.Commits())
}

func TestHTMLSink_OutputParsesAsHTML(t *testing.T) {
	s := NewHTMLSink()
	root := component("App",
		host("ul", nil,
			host("li", types.Props{"text": "first"}),
			host("li", types.Props{"text": "second"}),
		),
	)
	require.NoError(t, s.Apply(root, nil))

	doc, err := html.Parse(strings.NewReader(s.HTML()))
	require.NoError(t, err)

	items := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" {
			items++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	assert.Equal(t, 2, items)
}

func TestHTMLSink_Component(t *testing.T) {
	s := NewHTMLSink()
	root := component("App", host("p", types.Props{"text": "embedded"}))
	require.NoError(t, s.Apply(root, nil))

	var builder strings.Builder
	require.NoError(t, s.Component().Render(t.Context(), &builder))
	assert.Equal(t, "<p>embedded</p>", builder.String())
}

func TestNodeComponent(t *testing.T) {
	node := host("span", types.Props{"text": "sub"})

	var builder strings.Builder
	require.NoError(t, NodeComponent(node).Render(t.Context(), &builder))
	assert.Equal(t, `<span>sub</span>`, builder.String())
}
