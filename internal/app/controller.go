// Package app routes user intents to the task repository and re-renders the
// view after every change. It owns the dialog state (editing or confirming a
// delete) that the surfaces display.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/go-errors/errors"
	"go.uber.org/zap"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
	"github.com/Joseda-hg/lazytodo/internal/view"
)

// ErrInvalidIntent is returned for an intent that does not apply in the
// current mode, such as ConfirmEdit with no edit open.
var ErrInvalidIntent = errors.New("action not available right now")

type Mode int

const (
	ModeIdle Mode = iota
	ModeEditing
	ModeConfirmingDelete
)

func (m Mode) String() string {
	switch m {
	case ModeEditing:
		return "editing"
	case ModeConfirmingDelete:
		return "confirming-delete"
	default:
		return "idle"
	}
}

// Repository is the part of tasks.Repository the controller drives.
type Repository interface {
	Tasks() model.Collection
	Get(id string) (model.Task, bool)
	Reload(ctx context.Context)
	Add(ctx context.Context, rawName string) (model.Task, error)
	ToggleDone(ctx context.Context, id string) (model.Task, error)
	Rename(ctx context.Context, id, rawName string) (model.Task, error)
	Remove(ctx context.Context, id string) error
}

// State is a snapshot of the pending dialog, if any.
type State struct {
	Mode   Mode
	TaskID string
	// Draft is the edit text the dialog opens with.
	Draft string
	// Prompt is the delete confirmation message.
	Prompt string
}

// Dialog returns the open dialog for display, or nil when idle.
func (s State) Dialog() *view.Dialog {
	switch s.Mode {
	case ModeEditing:
		return &view.Dialog{Kind: view.DialogEdit, TaskID: s.TaskID, Draft: s.Draft}
	case ModeConfirmingDelete:
		return &view.Dialog{Kind: view.DialogDelete, TaskID: s.TaskID, Prompt: s.Prompt}
	default:
		return nil
	}
}

type Controller struct {
	mu    sync.Mutex
	repo  Repository
	log   *zap.Logger
	now   func() time.Time
	state State
	tree  view.Tree

	// OnRender, when set, receives every freshly rendered tree.
	OnRender func(view.Tree)
}

func NewController(repo Repository, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{repo: repo, log: log, now: time.Now}
	c.tree = view.Render(repo.Tasks(), c.now())
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tree returns the most recent render.
func (c *Controller) Tree() view.Tree {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree
}

// CanAdd reports whether the add affordance should be enabled for text.
func CanAdd(text string) bool {
	return strings.TrimSpace(text) != ""
}

// Refresh reloads the collection from the store and re-renders.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	c.repo.Reload(ctx)
	tree := c.renderLocked()
	c.mu.Unlock()
	c.notify(tree)
}

// Rerender rebuilds the tree from the repository without reloading it. Other
// controllers may share the repository, so a dialog whose task is gone is
// closed here as well.
func (c *Controller) Rerender() {
	c.mu.Lock()
	tree := c.renderLocked()
	c.mu.Unlock()
	c.notify(tree)
}

// Dispatch handles one intent. tasks.ErrEmptyName and ErrInvalidIntent are
// returned for rejected input; stale ids are ignored.
func (c *Controller) Dispatch(ctx context.Context, in Intent) error {
	c.mu.Lock()
	rendered, err := c.dispatchLocked(ctx, in)
	var tree view.Tree
	if rendered {
		tree = c.renderLocked()
	}
	c.mu.Unlock()

	if rendered {
		c.notify(tree)
	}
	if err != nil {
		c.log.Debug("intent rejected", zap.String("intent", fmt.Sprintf("%T", in)), zap.Error(err))
	}
	return err
}

func (c *Controller) dispatchLocked(ctx context.Context, in Intent) (bool, error) {
	switch in := in.(type) {
	case AddTask:
		if c.state.Mode != ModeIdle {
			return false, ErrInvalidIntent
		}
		if _, err := c.repo.Add(ctx, in.Text); err != nil {
			return false, err
		}
		return true, nil

	case ToggleDone:
		if c.state.Mode != ModeIdle {
			return false, ErrInvalidIntent
		}
		_, err := c.repo.ToggleDone(ctx, in.ID)
		return true, ignoreNotFound(err)

	case BeginEdit:
		if c.state.Mode != ModeIdle {
			return false, ErrInvalidIntent
		}
		task, ok := c.repo.Get(in.ID)
		if !ok {
			return false, nil
		}
		c.state = State{Mode: ModeEditing, TaskID: task.ID, Draft: task.Name}
		return false, nil

	case ConfirmEdit:
		if c.state.Mode != ModeEditing {
			return false, ErrInvalidIntent
		}
		if !CanAdd(in.Text) {
			// The dialog stays open so the user can fix the text.
			return false, tasks.ErrEmptyName
		}
		_, err := c.repo.Rename(ctx, c.state.TaskID, in.Text)
		c.state = State{}
		return true, ignoreNotFound(err)

	case CancelEdit:
		if c.state.Mode != ModeEditing {
			return false, ErrInvalidIntent
		}
		c.state = State{}
		return false, nil

	case BeginDelete:
		if c.state.Mode != ModeIdle {
			return false, ErrInvalidIntent
		}
		task, ok := c.repo.Get(in.ID)
		if !ok {
			return false, nil
		}
		c.state = State{
			Mode:   ModeConfirmingDelete,
			TaskID: task.ID,
			Prompt: fmt.Sprintf("Are you sure you want to delete \"%s\"?", task.Name),
		}
		return false, nil

	case ConfirmDelete:
		if c.state.Mode != ModeConfirmingDelete {
			return false, ErrInvalidIntent
		}
		err := c.repo.Remove(ctx, c.state.TaskID)
		c.state = State{}
		return true, err

	case CancelDelete:
		if c.state.Mode != ModeConfirmingDelete {
			return false, ErrInvalidIntent
		}
		c.state = State{}
		return false, nil

	default:
		return false, fmt.Errorf("unknown intent %T", in)
	}
}

func (c *Controller) renderLocked() view.Tree {
	if c.state.Mode != ModeIdle {
		if _, ok := c.repo.Get(c.state.TaskID); !ok {
			c.state = State{}
		}
	}
	c.tree = view.Render(c.repo.Tasks(), c.now())
	return c.tree
}

func (c *Controller) notify(tree view.Tree) {
	if c.OnRender != nil {
		c.OnRender(tree)
	}
}

func ignoreNotFound(err error) error {
	if goerrors.Is(err, tasks.ErrNotFound) {
		return nil
	}
	return err
}
