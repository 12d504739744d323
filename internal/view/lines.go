package view

import "fmt"

// Lines projects tree for the terminal, one line per item in tree order.
func Lines(tree Tree) []string {
	lines := make([]string, 0, len(tree.Items))
	for _, item := range tree.Items {
		lines = append(lines, item.Line())
	}
	return lines
}

func (i Item) Line() string {
	mark := " "
	if i.Done {
		mark = "x"
	}
	return fmt.Sprintf("[%s] %s | %s", mark, i.Name, i.age())
}

func (i Item) age() string {
	if i.Edited != "" {
		return fmt.Sprintf("created %s, edited %s", i.CreatedAgo, i.EditedAgo)
	}
	return "created " + i.CreatedAgo
}
