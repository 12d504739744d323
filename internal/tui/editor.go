package tui

import (
	"fmt"

	"github.com/jesseduffield/gocui"
)

// lineEditor edits a single line of text held outside the view, so the UI
// state survives the view being deleted and recreated.
type lineEditor struct {
	value *string
}

func (e *lineEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	if e == nil || e.value == nil {
		return false
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(*e.value)
		if len(runes) > 0 {
			*e.value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		*e.value += " "
	case gocui.KeyCtrlU:
		*e.value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		*e.value += string(ch)
	}

	e.render(view)
	return true
}

func (e *lineEditor) render(view *gocui.View) {
	if view == nil {
		return
	}
	view.Clear()
	fmt.Fprint(view, *e.value)
	view.SetCursor(len([]rune(*e.value)), 0)
}
