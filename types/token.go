package types

type Token struct {
	ID    string `json:"id"`
	Pos   string `json:"pos"`
	Lemma string `json:"lemma"`
	Text  string `json:"text"`
}
