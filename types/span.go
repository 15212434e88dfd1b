package types

// ConceptSpan is a coreference concept resolved against its text file.
// Line is 0-based; tokens [Start, End) index the whitespace split of that line.
type ConceptSpan struct {
	Type   string   `json:"type"`
	Tokens []string `json:"tokens"`
	Line   int      `json:"line"`
	Start  int      `json:"start"`
	End    int      `json:"end"`
}

func (span ConceptSpan) Len() int {
	return span.End - span.Start
}
