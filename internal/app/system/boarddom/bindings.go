package boarddom

import "golang.org/x/net/html"

// BoundAttr marks an element whose behaviour bindings are attached.
const BoundAttr = "data-bound"

// bindingFor returns the binding attribute an element needs, if any.
func bindingFor(n *html.Node) (key, val string, ok bool) {
	switch {
	case attr(n, "id") == StripID:
		return "data-sortable", "columns", true
	case hasClass(n, "task-list"):
		return "data-sortable", "tasks", true
	case hasClass(n, "column"):
		return "data-action-root", "column", true
	case hasClass(n, "task-card"):
		return "data-draggable", "task", true
	}
	return "", "", false
}

// bind attaches bindings to n and every bindable element under it. Nodes
// already carrying the marker are left alone. It returns how many nodes
// were newly bound.
func (d *Document) bind(n *html.Node) int {
	bound := 0
	if n.Type == html.ElementNode && !hasAttr(n, BoundAttr) {
		if key, val, ok := bindingFor(n); ok {
			d.setAttr(n, key, val)
			d.setAttr(n, BoundAttr, "true")
			bound++
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		bound += d.bind(c)
	}
	return bound
}

// Rebind walks the strip and binds anything not yet bound.
func (d *Document) Rebind() int {
	strip := d.Strip()
	if strip == nil {
		return 0
	}
	return d.bind(strip)
}
