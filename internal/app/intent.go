package app

// Intent is a user action the Controller knows how to handle. The set is
// closed: only types in this file implement it.
type Intent interface {
	intent()
}

type AddTask struct{ Text string }

type ToggleDone struct{ ID string }

type BeginEdit struct{ ID string }

type ConfirmEdit struct{ Text string }

type CancelEdit struct{}

type BeginDelete struct{ ID string }

type ConfirmDelete struct{}

type CancelDelete struct{}

func (AddTask) intent()       {}
func (ToggleDone) intent()    {}
func (BeginEdit) intent()     {}
func (ConfirmEdit) intent()   {}
func (CancelEdit) intent()    {}
func (BeginDelete) intent()   {}
func (ConfirmDelete) intent() {}
func (CancelDelete) intent()  {}
