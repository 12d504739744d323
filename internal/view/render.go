// Package view turns a task collection into a display tree. Rendering is a
// full rebuild on every call; surfaces repaint from the returned Tree.
package view

import (
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

const timestampLayout = "2006-01-02 15:04:05"

type ActionKind string

const (
	ActionToggle ActionKind = "toggle"
	ActionEdit   ActionKind = "edit"
	ActionDelete ActionKind = "delete"
)

// Action is an affordance bound to one task.
type Action struct {
	Kind   ActionKind
	TaskID string
	Label  string
}

type Item struct {
	ID   string
	Name string
	Done bool

	Status      string
	ToggleLabel string

	Created    string
	CreatedAgo string
	// Edited and EditedAgo are empty until the task is renamed.
	Edited    string
	EditedAgo string

	Actions []Action
}

func (i Item) Meta() string {
	meta := "Created: " + i.Created
	if i.Edited != "" {
		meta += " • Edited: " + i.Edited
	}
	return meta
}

type Tree struct {
	Items     []Item
	Total     int
	Remaining int
}

// Render builds the display tree for tasks. now anchors the relative
// timestamps so the result depends only on its arguments.
func Render(tasks model.Collection, now time.Time) Tree {
	tree := Tree{
		Items:     make([]Item, 0, len(tasks)),
		Total:     len(tasks),
		Remaining: tasks.Remaining(),
	}
	for _, task := range tasks {
		tree.Items = append(tree.Items, renderItem(task, now))
	}
	return tree
}

func renderItem(task model.Task, now time.Time) Item {
	item := Item{
		ID:          task.ID,
		Name:        sanitize(task.Name),
		Done:        task.Done,
		Status:      "pending",
		ToggleLabel: "Mark as done",
		Created:     formatTimestamp(task.CreatedAt),
		CreatedAgo:  humanize.RelTime(task.CreatedAt, now, "ago", "from now"),
	}
	if task.Done {
		item.Status = "done"
		item.ToggleLabel = "Mark as undone"
	}
	if task.UpdatedAt != nil {
		item.Edited = formatTimestamp(*task.UpdatedAt)
		item.EditedAgo = humanize.RelTime(*task.UpdatedAt, now, "ago", "from now")
	}
	item.Actions = []Action{
		{Kind: ActionToggle, TaskID: task.ID, Label: item.ToggleLabel},
		{Kind: ActionEdit, TaskID: task.ID, Label: "Edit"},
		{Kind: ActionDelete, TaskID: task.ID, Label: "Delete"},
	}
	return item
}

func formatTimestamp(t time.Time) string {
	return t.Local().Format(timestampLayout)
}

// sanitize replaces control characters so a name can never carry terminal
// escape sequences or break a line. Markup escaping happens in WriteHTML.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, name)
}
