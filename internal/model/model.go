package model

import "time"

type Task struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Done      bool       `json:"done"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

// Collection is the ordered task list, newest first. It is the unit of persistence.
type Collection []Task

// Index returns the position of the task with id, or -1 if there is none.
func (c Collection) Index(id string) int {
	for i, task := range c {
		if task.ID == id {
			return i
		}
	}
	return -1
}

// Clone copies the slice and each task's UpdatedAt pointer so mutations on the
// result never leak into c.
func (c Collection) Clone() Collection {
	if c == nil {
		return Collection{}
	}
	out := make(Collection, len(c))
	for i, task := range c {
		if task.UpdatedAt != nil {
			updated := *task.UpdatedAt
			task.UpdatedAt = &updated
		}
		out[i] = task
	}
	return out
}

func (c Collection) Remaining() int {
	count := 0
	for _, task := range c {
		if !task.Done {
			count++
		}
	}
	return count
}
