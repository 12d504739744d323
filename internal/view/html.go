package view

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.tmpl"))

const (
	DialogEdit   = "edit"
	DialogDelete = "delete"
)

// Dialog is an open modal: an edit form prefilled with Draft, or a delete
// confirmation showing Prompt.
type Dialog struct {
	Kind   string
	TaskID string
	Draft  string
	Prompt string
}

type Page struct {
	Tree   Tree
	Dialog *Dialog
	Input  string
	Status string
}

// WriteHTML writes page as a full HTML document. All task text goes through
// html/template's contextual escaping.
func WriteHTML(w io.Writer, page Page) error {
	return indexTemplate.Execute(w, page)
}
