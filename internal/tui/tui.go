package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
	"go.uber.org/zap"

	"github.com/Joseda-hg/lazytodo/internal/app"
	"github.com/Joseda-hg/lazytodo/internal/view"
)

const (
	viewHeader = "header"
	viewFooter = "footer"
	viewInput  = "input"
	viewTasks  = "tasks"
	viewEdit   = "edit"
	viewDelete = "delete"
	viewHelp   = "help"
)

type UI struct {
	ctrl *app.Controller
	log  *zap.Logger

	mu  sync.Mutex
	gui *gocui.Gui

	focus      string
	selected   int
	input      string
	draft      string
	helpActive bool
	status     string

	inputEditor *lineEditor
	draftEditor *lineEditor
}

func New(ctrl *app.Controller, log *zap.Logger) *UI {
	if log == nil {
		log = zap.NewNop()
	}
	u := &UI{ctrl: ctrl, log: log, focus: viewTasks}
	u.inputEditor = &lineEditor{value: &u.input}
	u.draftEditor = &lineEditor{value: &u.draft}
	return u
}

func (u *UI) Run() error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	u.mu.Lock()
	u.gui = gui
	u.mu.Unlock()
	defer func() {
		u.mu.Lock()
		u.gui = nil
		u.mu.Unlock()
	}()

	gui.Mouse = true
	gui.SetManagerFunc(u.layout)
	u.log.Debug("terminal ui started", zap.Int("tasks", u.ctrl.Tree().Total))
	if err := u.bindKeys(gui); err != nil {
		return err
	}

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

// Refresh asks the running UI to repaint from the shared repository. It is
// safe to call from other goroutines, e.g. after a web request changed tasks.
func (u *UI) Refresh() {
	u.mu.Lock()
	gui := u.gui
	u.mu.Unlock()
	if gui == nil {
		return
	}
	gui.Update(func(*gocui.Gui) error {
		u.ctrl.Rerender()
		u.clampSelection()
		return nil
	})
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	if err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'q', gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'j', gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'k', gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'x', gocui.ModNone, u.toggleDone); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeySpace, gocui.ModNone, u.toggleDone); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'e', gocui.ModNone, u.beginEdit); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'd', gocui.ModNone, u.beginDelete); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'a', gocui.ModNone, u.focusInput); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'i', gocui.ModNone, u.focusInput); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeyTab, gocui.ModNone, u.focusInput); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, 'r', gocui.ModNone, u.reload); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, '?', gocui.ModNone, u.toggleHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewInput, gocui.KeyEnter, gocui.ModNone, u.submitInput); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewInput, gocui.KeyEsc, gocui.ModNone, u.focusTasks); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewInput, gocui.KeyTab, gocui.ModNone, u.focusTasks); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewEdit, gocui.KeyEnter, gocui.ModNone, u.submitEdit); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewEdit, gocui.KeyEsc, gocui.ModNone, u.cancelEdit); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewDelete, 'y', gocui.ModNone, u.confirmDelete); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewDelete, gocui.KeyEnter, gocui.ModNone, u.confirmDelete); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewDelete, 'n', gocui.ModNone, u.cancelDelete); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewDelete, gocui.KeyEsc, gocui.ModNone, u.cancelDelete); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, gocui.KeyEsc, gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, 'q', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, '?', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewTasks, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onListClick(gui, opts)
	}}); err != nil {
		return err
	}
	if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewInput, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		if u.dialogOpen() {
			return u.dismissDialog(gui)
		}
		return u.focusInput(gui, nil)
	}}); err != nil {
		return err
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView)

	footerY1 := max(maxY-2, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	inputView, err := gui.SetView(viewInput, 0, 1, maxX-1, 3, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	inputView.Editable = true
	inputView.Editor = u.inputEditor
	inputView.Title = "Add task"
	if app.CanAdd(u.input) {
		inputView.Title = "Add task (enter to add)"
	}
	applyViewStyle(inputView, u.focus == viewInput && !u.dialogOpen(), false)
	u.inputEditor.render(inputView)

	tasksY1 := max(footerY0-1, 5)
	tasksView, err := gui.SetView(viewTasks, 0, 4, maxX-1, tasksY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		tasksView.Title = "Tasks"
		tasksView.TitleColor = gocui.ColorRed
	}
	applyViewStyle(tasksView, u.focus == viewTasks && !u.dialogOpen(), len(u.ctrl.Tree().Items) > 0)
	u.renderTaskList(tasksView)

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	state := u.ctrl.State()
	if state.Mode == app.ModeEditing {
		if err := u.showEdit(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewEdit)
	}

	if state.Mode == app.ModeConfirmingDelete {
		if err := u.showDeleteConfirm(gui, state.Prompt); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewDelete)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if !u.dialogOpen() && !u.helpActive {
		_, _ = gui.SetCurrentView(u.focus)
	}

	gui.Cursor = u.focus == viewInput || state.Mode == app.ModeEditing

	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	tree := u.ctrl.Tree()
	fmt.Fprintf(view, "lazytodo | %d of %d remaining", tree.Remaining, tree.Total)
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, "a add | x/space done | e edit | d delete | j/k move | r reload | ? help | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderTaskList(v *gocui.View) {
	v.Clear()
	tree := u.ctrl.Tree()
	if len(tree.Items) == 0 {
		fmt.Fprint(v, "  No tasks yet. Press a to add one.")
		return
	}
	focused := u.focus == viewTasks
	for i, line := range view.Lines(tree) {
		prefix := " "
		if i == u.selected {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(v, "%s %s\n", prefix, line)
	}
	if focused {
		v.SetCursor(0, min(u.selected, len(tree.Items)-1))
	}
}

func (u *UI) showEdit(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(40, maxX/2)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewEdit, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Edit task (enter save, esc cancel)"
	}
	view.Editable = true
	view.Editor = u.draftEditor
	u.draftEditor.render(view)
	_, _ = gui.SetViewOnTop(viewEdit)
	_, _ = gui.SetCurrentView(viewEdit)
	return nil
}

func (u *UI) showDeleteConfirm(gui *gocui.Gui, prompt string) error {
	maxX, maxY := gui.Size()
	width := max(40, min(maxX-2, len([]rune(prompt))+4))
	height := 3
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewDelete, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Delete task"
		view.Wrap = true
		view.FrameColor = gocui.ColorRed
	}
	view.Clear()
	fmt.Fprintln(view, prompt)
	fmt.Fprint(view, "y/enter delete | n/esc cancel")
	_, _ = gui.SetViewOnTop(viewDelete)
	_, _ = gui.SetCurrentView(viewDelete)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(50, maxX/2)
	height := 14
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetViewOnTop(viewHelp)
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) onListClick(gui *gocui.Gui, opts gocui.ViewMouseBindingOpts) error {
	if u.dialogOpen() {
		return u.dismissDialog(gui)
	}
	if u.helpActive {
		return nil
	}
	view, err := gui.View(viewTasks)
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := max(opts.Y-y0-1+oy, 0)
	u.selected = min(row, len(u.ctrl.Tree().Items)-1)
	u.clampSelection()
	return u.focusTasks(gui, nil)
}

// dismissDialog is the click-outside path: it cancels whichever dialog is open.
func (u *UI) dismissDialog(gui *gocui.Gui) error {
	switch u.ctrl.State().Mode {
	case app.ModeEditing:
		return u.cancelEdit(gui, nil)
	case app.ModeConfirmingDelete:
		return u.cancelDelete(gui, nil)
	}
	return nil
}

func (u *UI) selectedID() (string, bool) {
	items := u.ctrl.Tree().Items
	if u.selected < 0 || u.selected >= len(items) {
		return "", false
	}
	return items[u.selected].ID, true
}

func (u *UI) clampSelection() {
	count := len(u.ctrl.Tree().Items)
	if u.selected >= count {
		u.selected = max(count-1, 0)
	}
	if u.selected < 0 {
		u.selected = 0
	}
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected < len(u.ctrl.Tree().Items)-1 {
		u.selected++
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected > 0 {
		u.selected--
	}
	return nil
}

func (u *UI) focusInput(gui *gocui.Gui, _ *gocui.View) error {
	if u.dialogOpen() || u.helpActive {
		return nil
	}
	return u.setFocus(gui, viewInput)
}

func (u *UI) focusTasks(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewTasks)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	u.focus = name
	if gui != nil {
		_, _ = gui.SetCurrentView(name)
	}
	return nil
}

func (u *UI) submitInput(gui *gocui.Gui, _ *gocui.View) error {
	if !app.CanAdd(u.input) {
		return nil
	}
	if err := u.dispatch(app.AddTask{Text: u.input}); err != nil {
		return nil
	}
	u.input = ""
	u.selected = 0
	return nil
}

func (u *UI) toggleDone(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	id, ok := u.selectedID()
	if !ok {
		return nil
	}
	_ = u.dispatch(app.ToggleDone{ID: id})
	return nil
}

func (u *UI) beginEdit(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	id, ok := u.selectedID()
	if !ok {
		return nil
	}
	if err := u.dispatch(app.BeginEdit{ID: id}); err != nil {
		return nil
	}
	u.draft = u.ctrl.State().Draft
	return nil
}

func (u *UI) submitEdit(gui *gocui.Gui, _ *gocui.View) error {
	if err := u.dispatch(app.ConfirmEdit{Text: u.draft}); err != nil {
		return nil
	}
	return u.closeDialog(gui, viewEdit)
}

func (u *UI) cancelEdit(gui *gocui.Gui, _ *gocui.View) error {
	if err := u.dispatch(app.CancelEdit{}); err != nil {
		return nil
	}
	return u.closeDialog(gui, viewEdit)
}

func (u *UI) beginDelete(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	id, ok := u.selectedID()
	if !ok {
		return nil
	}
	_ = u.dispatch(app.BeginDelete{ID: id})
	return nil
}

func (u *UI) confirmDelete(gui *gocui.Gui, _ *gocui.View) error {
	if err := u.dispatch(app.ConfirmDelete{}); err != nil {
		return nil
	}
	return u.closeDialog(gui, viewDelete)
}

func (u *UI) cancelDelete(gui *gocui.Gui, _ *gocui.View) error {
	if err := u.dispatch(app.CancelDelete{}); err != nil {
		return nil
	}
	return u.closeDialog(gui, viewDelete)
}

func (u *UI) closeDialog(gui *gocui.Gui, name string) error {
	u.draft = ""
	u.clampSelection()
	if gui != nil {
		_ = gui.DeleteView(name)
		_, _ = gui.SetCurrentView(u.focus)
	}
	return nil
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.ctrl.Refresh(context.Background())
	u.clampSelection()
	u.status = ""
	return nil
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.dialogOpen() {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	if gui != nil {
		_ = gui.DeleteView(viewHelp)
		_, _ = gui.SetCurrentView(u.focus)
	}
	return nil
}

// dispatch sends intent to the controller and mirrors the outcome on the
// status line.
func (u *UI) dispatch(intent app.Intent) error {
	err := u.ctrl.Dispatch(context.Background(), intent)
	if err != nil {
		u.status = err.Error()
		return err
	}
	u.status = ""
	u.clampSelection()
	return nil
}

func (u *UI) dialogOpen() bool {
	return u.ctrl.State().Mode != app.ModeIdle
}

func (u *UI) inputActive() bool {
	return u.dialogOpen() || u.helpActive || u.focus == viewInput
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Tasks:",
		"  j/k or arrows move selection",
		"  x or space toggle done",
		"  e edit | d delete | r reload",
		"  mouse click selects a task",
		"",
		"Add:",
		"  a/i/tab focus the input | enter add | esc/tab back",
		"",
		"Dialogs:",
		"  edit: enter save | esc cancel",
		"  delete: y/enter confirm | n/esc cancel",
		"  clicking outside a dialog cancels it",
		"",
		"? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}
