// Package boardactions turns the click events delegated from a board page
// into typed actions and dispatches them.
package boardactions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind is the closed set of actions a board page can send.
type Kind string

const (
	Edit          Kind = "edit"
	Archive       Kind = "archive"
	Delete        Kind = "delete"
	RenameColumn  Kind = "rename-column"
	ArchiveColumn Kind = "archive-column"
	OpenMenu      Kind = "open-menu"
	CloseMenu     Kind = "close-menu"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrBadTarget     = errors.New("invalid action target")
	ErrEmptyValue    = errors.New("action value required")
)

// Action is one user action against a task or column.
type Action struct {
	Kind     Kind
	TargetID primitive.ObjectID
	// Value carries the new title or name for edit and rename.
	Value string
}

// Parse validates the raw fields posted by the page.
func Parse(kind, target, value string) (Action, error) {
	a := Action{Kind: Kind(strings.TrimSpace(kind)), Value: strings.TrimSpace(value)}
	switch a.Kind {
	case Edit, Archive, Delete, RenameColumn, ArchiveColumn, OpenMenu:
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(target))
		if err != nil {
			return Action{}, fmt.Errorf("%s: %w", a.Kind, ErrBadTarget)
		}
		a.TargetID = id
	case CloseMenu:
		if target != "" {
			if id, err := primitive.ObjectIDFromHex(strings.TrimSpace(target)); err == nil {
				a.TargetID = id
			}
		}
	default:
		return Action{}, fmt.Errorf("%q: %w", kind, ErrUnknownAction)
	}
	if (a.Kind == Edit || a.Kind == RenameColumn) && a.Value == "" {
		return Action{}, fmt.Errorf("%s: %w", a.Kind, ErrEmptyValue)
	}
	return a, nil
}

// Handler performs the store side of each action.
type Handler interface {
	EditTask(ctx context.Context, id primitive.ObjectID, title string) error
	ArchiveTask(ctx context.Context, id primitive.ObjectID) error
	DeleteTask(ctx context.Context, id primitive.ObjectID) error
	RenameColumn(ctx context.Context, id primitive.ObjectID, name string) error
	ArchiveColumn(ctx context.Context, id primitive.ObjectID) error
}

// Result tells the caller what the page should show after an action.
type Result struct {
	MenuOpen   bool
	MenuTarget primitive.ObjectID
}

// Dispatch runs a against h. Column actions started from the menu hold
// it open until the write finishes and then close it.
func Dispatch(ctx context.Context, a Action, h Handler, menu *Menu) (Result, error) {
	var err error
	switch a.Kind {
	case Edit:
		err = h.EditTask(ctx, a.TargetID, a.Value)
	case Archive:
		err = h.ArchiveTask(ctx, a.TargetID)
	case Delete:
		err = h.DeleteTask(ctx, a.TargetID)
	case RenameColumn:
		err = withMenuHeld(menu, func() error { return h.RenameColumn(ctx, a.TargetID, a.Value) })
	case ArchiveColumn:
		err = withMenuHeld(menu, func() error { return h.ArchiveColumn(ctx, a.TargetID) })
	case OpenMenu:
		menu.Open(a.TargetID)
	case CloseMenu:
		menu.RequestClose()
	default:
		return Result{}, fmt.Errorf("%q: %w", a.Kind, ErrUnknownAction)
	}
	open, target := menu.State()
	return Result{MenuOpen: open, MenuTarget: target}, err
}

func withMenuHeld(menu *Menu, fn func() error) error {
	tok := menu.Suspend()
	defer tok.ReleaseAndClose()
	return fn()
}
