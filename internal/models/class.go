package models

// Class represents an academic class or section.
type Class struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Grade   string `db:"grade" json:"grade"`
	Section string `db:"section" json:"section"`
}
