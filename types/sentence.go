package types

type Sentence struct {
	ID        string     `json:"id"`
	Corresp   *string    `json:"corresp"`
	UmlsTerms []UmlsTerm `json:"umlsterms"`
	EwnTerms  []EwnTerm  `json:"ewnterms"`
	SemRels   []SemRel   `json:"semrels"`
	Chunks    []Chunk    `json:"chunks"`
	Tokens    []Token    `json:"tokens"`
}

// EwnTerm links a token span to EuroWordNet senses.
type EwnTerm struct {
	ID     string  `json:"id"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Senses []Sense `json:"senses"`
}

type Sense struct {
	Offset string `json:"offset"`
}

// SemRel is a labeled relation between two UMLS terms. Term1 and Term2 are not resolved.
type SemRel struct {
	ID      string `json:"id"`
	Term1   string `json:"term1"`
	Term2   string `json:"term2"`
	RelType string `json:"reltype"`
}

type Chunk struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}
