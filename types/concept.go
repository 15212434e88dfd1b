package types

// UmlsTerm spans tokens From..To. Both are token ids kept as opaque strings.
type UmlsTerm struct {
	ID       string    `json:"id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Concepts []Concept `json:"concepts"`
}

type Concept struct {
	ID        string `json:"id"`
	CUI       string `json:"cui"`
	Preferred string `json:"preferred"`
	TUI       string `json:"tui"`
	Mshs      []Msh  `json:"mshs"`
}

// Msh is a MeSH subject heading code.
type Msh struct {
	Code string `json:"code"`
}
