package boarddom

import (
	"strconv"

	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Op names a browser-side DOM operation.
type Op string

const (
	// OpInner replaces the children of Target with HTML.
	OpInner Op = "inner"
	// OpBefore inserts HTML immediately before Target.
	OpBefore Op = "before"
	// OpText sets the text content of Target to Value.
	OpText Op = "text"
	// OpAttr sets attribute Attr of Target to Value.
	OpAttr Op = "attr"
	// OpScroll sets the horizontal scroll offset of Target.
	OpScroll Op = "scroll"
)

// Patch is one DOM operation for the browser to replay.
type Patch struct {
	Op     Op     `json:"op"`
	Target string `json:"target"`
	HTML   string `json:"html,omitempty"`
	Attr   string `json:"attr,omitempty"`
	Value  string `json:"value,omitempty"`
	Scroll int    `json:"scroll,omitempty"`
}

// Sink receives patches in the order they were applied.
type Sink func(Patch)

// Patcher applies render decisions to a Document.
type Patcher struct {
	doc  *Document
	sink Sink
}

// NewPatcher returns a patcher over doc. A nil sink discards patches.
func NewPatcher(doc *Document, sink Sink) *Patcher {
	if sink == nil {
		sink = func(Patch) {}
	}
	return &Patcher{doc: doc, sink: sink}
}

// Document returns the patched document.
func (p *Patcher) Document() *Document { return p.doc }

func sel(id string) string { return "#" + id }

// FullRender rebuilds the strip from cols and tasks.
func (p *Patcher) FullRender(cols []models.Column, tasks []models.Task, scrollToNew bool) {
	strip := p.doc.Strip()
	if strip == nil {
		return
	}
	before := p.doc.scroll.Left

	p.doc.removeChildren(strip)
	for _, c := range cols {
		p.doc.appendChild(strip, columnNode(c, tasks))
	}
	p.doc.appendChild(strip, addColumnNode())
	p.doc.bind(strip)

	p.sink(Patch{Op: OpInner, Target: sel(StripID), HTML: renderChildren(strip)})
	p.restoreScroll(before, scrollToNew)
}

// AppendColumns adds the columns of cols not already shown, in order,
// before the add-column affordance. Existing columns are not touched. It
// returns how many columns were added.
func (p *Patcher) AppendColumns(cols []models.Column, tasks []models.Task, scrollToNew bool) int {
	strip := p.doc.Strip()
	if strip == nil {
		return 0
	}
	before := p.doc.scroll.Left

	present := make(map[string]bool)
	for _, id := range p.doc.ColumnIDs() {
		present[id] = true
	}
	add := p.doc.ElementByID(AddColumnID)

	added := 0
	for _, c := range cols {
		if present[ColumnElementID(c.ID)] {
			continue
		}
		node := columnNode(c, tasks)
		if add != nil {
			p.doc.insertBefore(strip, node, add)
		} else {
			p.doc.appendChild(strip, node)
		}
		p.doc.bind(node)
		added++
		if add != nil {
			p.sink(Patch{Op: OpBefore, Target: sel(AddColumnID), HTML: renderNode(node)})
		} else {
			p.sink(Patch{Op: OpInner, Target: sel(StripID), HTML: renderChildren(strip)})
		}
	}
	if added > 0 || scrollToNew {
		p.restoreScroll(before, scrollToNew)
	}
	return added
}

// PatchColumns updates the title and task count of each shown column in
// place. Task lists and headers keep their nodes.
func (p *Patcher) PatchColumns(cols []models.Column, tasks []models.Task) {
	if p.doc.Strip() == nil {
		return
	}
	for _, c := range cols {
		if title := p.doc.ElementByID(ColumnTitleID(c.ID)); title != nil {
			if p.doc.setText(title, c.Name) {
				p.sink(Patch{Op: OpText, Target: sel(ColumnTitleID(c.ID)), Value: c.Name})
			}
		}
		p.patchCount(c.ID, countIn(c.ID, tasks))
	}
}

// PatchTasks replaces the cards of each column task list. When changed is
// non-nil only the columns it names are rebuilt. Column headers are never
// touched.
func (p *Patcher) PatchTasks(cols []models.Column, tasks []models.Task, changed map[primitive.ObjectID]bool) {
	if p.doc.Strip() == nil {
		return
	}
	for _, c := range cols {
		if changed != nil && !changed[c.ID] {
			continue
		}
		list := p.doc.ElementByID(TaskListID(c.ID))
		if list == nil {
			continue
		}
		cards := cardsFor(c.ID, tasks)
		p.doc.removeChildren(list)
		for _, card := range cards {
			p.doc.appendChild(list, card)
		}
		p.doc.bind(list)
		p.sink(Patch{Op: OpInner, Target: sel(TaskListID(c.ID)), HTML: renderChildren(list)})
		p.patchCount(c.ID, len(cards))
	}
}

// ScrollToEnd scrolls the strip to its maximum extent.
func (p *Patcher) ScrollToEnd() {
	if p.doc.Strip() == nil {
		return
	}
	p.restoreScroll(p.doc.scroll.Left, true)
}

func (p *Patcher) patchCount(column primitive.ObjectID, n int) {
	list := p.doc.ElementByID(TaskListID(column))
	if list == nil {
		return
	}
	v := strconv.Itoa(n)
	if p.doc.setAttr(list, "data-count", v) {
		p.sink(Patch{Op: OpAttr, Target: sel(TaskListID(column)), Attr: "data-count", Value: v})
	}
}

func (p *Patcher) restoreScroll(before int, scrollToNew bool) {
	left := p.doc.clamp(before)
	if scrollToNew {
		left = p.doc.MaxScroll()
	}
	p.doc.scroll.Left = left
	p.sink(Patch{Op: OpScroll, Target: sel(StripID), Scroll: left})
}
