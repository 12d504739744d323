package tui

import (
	"context"
	"testing"

	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/lazytodo/internal/app"
	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

func TestSubmitInputAddsTaskAndClears(t *testing.T) {
	ui, repo, cleanup := newTestUI(t)
	defer cleanup()

	ui.focus = viewInput
	ui.input = "   "
	if err := ui.submitInput(nil, nil); err != nil {
		t.Fatalf("submit blank: %v", err)
	}
	if len(repo.Tasks()) != 0 {
		t.Fatalf("expected blank input to be ignored")
	}

	ui.input = "Buy milk"
	if err := ui.submitInput(nil, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ui.input != "" {
		t.Fatalf("expected input to be cleared, got %q", ui.input)
	}
	if names := taskNames(repo.Tasks()); len(names) != 1 || names[0] != "Buy milk" {
		t.Fatalf("expected one task 'Buy milk', got %v", names)
	}
}

func TestToggleSelectedTask(t *testing.T) {
	ui, repo, cleanup := newTestUI(t)
	defer cleanup()
	addTasks(t, ui, "First", "Second")

	ui.selected = 1
	if err := ui.toggleDone(nil, nil); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	got := repo.Tasks()
	if got[0].Done || !got[1].Done {
		t.Fatalf("expected only the selected task to be done, got %+v", got)
	}

	if err := ui.toggleDone(nil, nil); err != nil {
		t.Fatalf("toggle again: %v", err)
	}
	if repo.Tasks()[1].Done {
		t.Fatalf("expected second toggle to restore pending")
	}
}

func TestEditDialog(t *testing.T) {
	ui, repo, cleanup := newTestUI(t)
	defer cleanup()
	addTasks(t, ui, "Old name")

	if err := ui.beginEdit(nil, nil); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if ui.draft != "Old name" {
		t.Fatalf("expected draft prefilled with current name, got %q", ui.draft)
	}

	ui.draft = "  "
	if err := ui.submitEdit(nil, nil); err != nil {
		t.Fatalf("submit empty edit: %v", err)
	}
	if ui.ctrl.State().Mode != app.ModeEditing {
		t.Fatalf("expected dialog to stay open after empty edit")
	}
	if ui.status != tasks.ErrEmptyName.Error() {
		t.Fatalf("expected status %q, got %q", tasks.ErrEmptyName.Error(), ui.status)
	}

	ui.draft = "New name"
	if err := ui.submitEdit(nil, nil); err != nil {
		t.Fatalf("submit edit: %v", err)
	}
	if ui.ctrl.State().Mode != app.ModeIdle {
		t.Fatalf("expected dialog to close")
	}
	task := repo.Tasks()[0]
	if task.Name != "New name" || task.UpdatedAt == nil {
		t.Fatalf("expected renamed task with updatedAt, got %+v", task)
	}
}

func TestDeleteDialogCancelAndConfirm(t *testing.T) {
	ui, repo, cleanup := newTestUI(t)
	defer cleanup()
	addTasks(t, ui, "Keep", "Drop")

	ui.selected = 0
	if err := ui.beginDelete(nil, nil); err != nil {
		t.Fatalf("begin delete: %v", err)
	}
	if want := `Are you sure you want to delete "Drop"?`; ui.ctrl.State().Prompt != want {
		t.Fatalf("expected prompt %q, got %q", want, ui.ctrl.State().Prompt)
	}

	if err := ui.toggleDone(nil, nil); err != nil {
		t.Fatalf("toggle while dialog open: %v", err)
	}
	if repo.Tasks()[0].Done {
		t.Fatalf("expected list actions to be ignored while a dialog is open")
	}

	if err := ui.dismissDialog(nil); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if len(repo.Tasks()) != 2 || ui.dialogOpen() {
		t.Fatalf("expected cancel to keep tasks and close the dialog")
	}

	if err := ui.beginDelete(nil, nil); err != nil {
		t.Fatalf("begin delete again: %v", err)
	}
	if err := ui.confirmDelete(nil, nil); err != nil {
		t.Fatalf("confirm delete: %v", err)
	}
	if names := taskNames(repo.Tasks()); len(names) != 1 || names[0] != "Keep" {
		t.Fatalf("expected only 'Keep' to remain, got %v", names)
	}
}

func TestSelectionClampsAfterDelete(t *testing.T) {
	ui, _, cleanup := newTestUI(t)
	defer cleanup()
	addTasks(t, ui, "One", "Two")

	ui.selected = 1
	if err := ui.beginDelete(nil, nil); err != nil {
		t.Fatalf("begin delete: %v", err)
	}
	if err := ui.confirmDelete(nil, nil); err != nil {
		t.Fatalf("confirm delete: %v", err)
	}
	if ui.selected != 0 {
		t.Fatalf("expected selection clamped to 0, got %d", ui.selected)
	}

	if err := ui.moveDown(nil, nil); err != nil {
		t.Fatalf("move down: %v", err)
	}
	if ui.selected != 0 {
		t.Fatalf("expected selection to stay on the only task, got %d", ui.selected)
	}
}

func addTasks(t *testing.T, ui *UI, names ...string) {
	t.Helper()
	ui.focus = viewInput
	for _, name := range names {
		ui.input = name
		if err := ui.submitInput(nil, nil); err != nil {
			t.Fatalf("add %q: %v", name, err)
		}
	}
	ui.focus = viewTasks
}

func taskNames(list model.Collection) []string {
	names := make([]string, 0, len(list))
	for _, task := range list {
		names = append(names, task.Name)
	}
	return names
}

func newTestUI(t *testing.T) (*UI, *tasks.Repository, func()) {
	t.Helper()
	dbConn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	repo := tasks.New(context.Background(), db.NewStore(dbConn, nil), nil)
	return New(app.NewController(repo, nil), nil), repo, func() {
		_ = dbConn.Close()
	}
}

func TestLineEditorKeepsSingleLine(t *testing.T) {
	value := "ab"
	editor := &lineEditor{value: &value}

	editor.Edit(nil, 0, 'c', gocui.ModNone)
	editor.Edit(nil, gocui.KeySpace, 0, gocui.ModNone)
	editor.Edit(nil, 0, '\n', gocui.ModNone)
	editor.Edit(nil, gocui.KeyBackspace2, 0, gocui.ModNone)
	editor.Edit(nil, 0, 'é', gocui.ModNone)
	if value != "abcé" {
		t.Fatalf("expected 'abcé', got %q", value)
	}

	editor.Edit(nil, gocui.KeyCtrlU, 0, gocui.ModNone)
	if value != "" {
		t.Fatalf("expected ctrl-u to clear, got %q", value)
	}
}
