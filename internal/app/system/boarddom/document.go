// Package boarddom keeps the server-side copy of what a board tab shows and
// applies the smallest change that brings it up to date.
//
// The tree is a plain golang.org/x/net/html node tree:
//
//	<div id="board">
//	  <div id="columns" class="columns">
//	    <section id="column-<id>" class="column">
//	      <header id="column-<id>-header">…</header>
//	      <ul id="column-<id>-tasks" class="task-list">…</ul>
//	    </section>
//	    …
//	    <div id="add-column">…</div>
//	  </div>
//	</div>
//
// Every change made to the tree is also emitted as a Patch so the browser
// can make the same change to its DOM.
package boarddom

import (
	"bytes"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element ids used in the tree.
const (
	BoardID     = "board"
	StripID     = "columns"
	AddColumnID = "add-column"
)

// ColumnElementID returns the id of a column's section element.
func ColumnElementID(id primitive.ObjectID) string { return "column-" + id.Hex() }

// ColumnHeaderID returns the id of a column's header element.
func ColumnHeaderID(id primitive.ObjectID) string { return ColumnElementID(id) + "-header" }

// ColumnTitleID returns the id of a column's title element.
func ColumnTitleID(id primitive.ObjectID) string { return ColumnElementID(id) + "-title" }

// TaskListID returns the id of a column's task list element.
func TaskListID(id primitive.ObjectID) string { return ColumnElementID(id) + "-tasks" }

// TaskCardID returns the id of a task card element.
func TaskCardID(id primitive.ObjectID) string { return "task-" + id.Hex() }

// Document is the retained tree of one board view.
type Document struct {
	root      *html.Node
	mutations int
	layout    Layout
	scroll    ScrollState
}

// NewDocument returns a document holding an empty board: the column strip
// and the add-column affordance.
func NewDocument(layout Layout, clientWidth int) *Document {
	root := element(atom.Div, "id", BoardID, "class", "board")
	strip := element(atom.Div, "id", StripID, "class", "columns")
	root.AppendChild(strip)
	strip.AppendChild(addColumnNode())
	return &Document{
		root:   root,
		layout: layout,
		scroll: ScrollState{ClientWidth: clientWidth},
	}
}

// Detach drops the tree, as when the tab navigates away. Operations on a
// detached document do nothing.
func (d *Document) Detach() { d.root = nil }

// Attached reports whether the document still has a tree.
func (d *Document) Attached() bool { return d.root != nil }

// Mutations returns how many changes have been made to the tree.
func (d *Document) Mutations() int { return d.mutations }

// ElementByID returns the element with the given id, or nil.
func (d *Document) ElementByID(id string) *html.Node {
	if d.root == nil {
		return nil
	}
	return findByID(d.root, id)
}

// Strip returns the column strip element, or nil when detached.
func (d *Document) Strip() *html.Node { return d.ElementByID(StripID) }

// ColumnIDs returns the ids of the column elements in strip order.
func (d *Document) ColumnIDs() []string {
	strip := d.Strip()
	if strip == nil {
		return nil
	}
	var ids []string
	for c := strip.FirstChild; c != nil; c = c.NextSibling {
		if hasClass(c, "column") {
			ids = append(ids, attr(c, "id"))
		}
	}
	return ids
}

// Render writes the whole tree as HTML.
func (d *Document) Render(w io.Writer) error {
	if d.root == nil {
		return nil
	}
	return html.Render(w, d.root)
}

// HTML returns the rendered tree.
func (d *Document) HTML() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

/*─────────────────────────────────────────────────────────────────────────────*
| counted mutations                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (d *Document) appendChild(parent, child *html.Node) {
	parent.AppendChild(child)
	d.mutations++
}

func (d *Document) insertBefore(parent, child, ref *html.Node) {
	parent.InsertBefore(child, ref)
	d.mutations++
}

func (d *Document) removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		d.mutations++
		c = next
	}
}

// setText replaces the text content of n. It reports whether anything
// changed.
func (d *Document) setText(n *html.Node, s string) bool {
	if n.FirstChild != nil && n.FirstChild == n.LastChild &&
		n.FirstChild.Type == html.TextNode && n.FirstChild.Data == s {
		return false
	}
	if n.FirstChild != nil && n.FirstChild == n.LastChild && n.FirstChild.Type == html.TextNode {
		n.FirstChild.Data = s
		d.mutations++
		return true
	}
	d.removeChildren(n)
	d.appendChild(n, textNode(s))
	return true
}

// setAttr sets key on n. It reports whether anything changed.
func (d *Document) setAttr(n *html.Node, key, val string) bool {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			if n.Attr[i].Val == val {
				return false
			}
			n.Attr[i].Val = val
			d.mutations++
			return true
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	d.mutations++
	return true
}

/*─────────────────────────────────────────────────────────────────────────────*
| node helpers                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func element(a atom.Atom, kv ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}

func renderChildren(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}
