package types

import "text2phenotype.com/corpora/utils"

// Document is one annotated abstract. Field names and nesting form the published record shape.
type Document struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Language  string     `json:"language"`
	Corresp   *string    `json:"corresp"`
	Sentences []Sentence `json:"sentences"`
}

func (doc Document) GetHashCode() uint64 {
	return utils.HashString(doc.Language + "/" + doc.ID)
}

// TokenCount sums the tokens of all sentences.
func (doc Document) TokenCount() int {
	n := 0
	for _, sent := range doc.Sentences {
		n += len(sent.Tokens)
	}
	return n
}
