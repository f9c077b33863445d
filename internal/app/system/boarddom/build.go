package boarddom

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dalemusser/taskboard/internal/app/system/htmlsanitize"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func addColumnNode() *html.Node {
	n := element(atom.Div, "id", AddColumnID, "class", "add-column")
	btn := element(atom.Button, "type", "button", "data-action", "add-column")
	btn.AppendChild(textNode("+ Add column"))
	n.AppendChild(btn)
	return n
}

// columnNode builds a column section with its header and task list.
func columnNode(c models.Column, tasks []models.Task) *html.Node {
	hex := c.ID.Hex()
	sec := element(atom.Section,
		"id", ColumnElementID(c.ID),
		"class", "column",
		"data-column-id", hex,
	)

	header := element(atom.Header, "id", ColumnHeaderID(c.ID), "class", "column-header")
	title := element(atom.H2, "id", ColumnTitleID(c.ID), "class", "column-title")
	title.AppendChild(textNode(c.Name))
	header.AppendChild(title)
	menu := element(atom.Button, "type", "button", "class", "column-menu",
		"data-action", "open-menu", "data-target", hex)
	menu.AppendChild(textNode("⋯"))
	header.AppendChild(menu)
	sec.AppendChild(header)

	list := element(atom.Ul,
		"id", TaskListID(c.ID),
		"class", "task-list",
		"data-column-id", hex,
		"data-count", "0",
	)
	cards := cardsFor(c.ID, tasks)
	setCount(list, len(cards))
	for _, card := range cards {
		list.AppendChild(card)
	}
	sec.AppendChild(list)
	return sec
}

// cardsFor builds the cards of the tasks in column, sorted by order.
func cardsFor(column primitive.ObjectID, tasks []models.Task) []*html.Node {
	var in []models.Task
	for _, t := range tasks {
		if t.ColumnID == column {
			in = append(in, t)
		}
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].Order < in[j].Order })
	cards := make([]*html.Node, 0, len(in))
	for _, t := range in {
		cards = append(cards, taskNode(t))
	}
	return cards
}

func taskNode(t models.Task) *html.Node {
	hex := t.ID.Hex()
	li := element(atom.Li,
		"id", TaskCardID(t.ID),
		"class", "task-card",
		"data-task-id", hex,
		"data-order", strconv.Itoa(t.Order),
	)
	title := element(atom.P, "class", "task-title")
	title.AppendChild(textNode(t.Title))
	li.AppendChild(title)

	if desc := htmlsanitize.Description(t.Description); desc != "" {
		body := element(atom.Div, "class", "task-description")
		nodes, err := html.ParseFragment(strings.NewReader(desc), body)
		if err != nil {
			body.AppendChild(textNode(t.Description))
		} else {
			for _, n := range nodes {
				body.AppendChild(n)
			}
		}
		li.AppendChild(body)
	}

	actions := element(atom.Div, "class", "task-actions")
	for _, a := range []string{"edit", "archive", "delete"} {
		b := element(atom.Button, "type", "button", "data-action", a, "data-target", hex)
		b.AppendChild(textNode(a))
		actions.AppendChild(b)
	}
	li.AppendChild(actions)
	return li
}

func setCount(list *html.Node, n int) {
	for i := range list.Attr {
		if list.Attr[i].Key == "data-count" {
			list.Attr[i].Val = strconv.Itoa(n)
			return
		}
	}
	list.Attr = append(list.Attr, html.Attribute{Key: "data-count", Val: strconv.Itoa(n)})
}

func countIn(column primitive.ObjectID, tasks []models.Task) int {
	n := 0
	for _, t := range tasks {
		if t.ColumnID == column {
			n++
		}
	}
	return n
}
