package ingest

import (
	"encoding/json"
	"io"

	"text2phenotype.com/corpora/types"
)

// Sink receives every parsed document. Runners serialize calls to Write.
type Sink interface {
	Write(doc types.Document) error
}

type SinkFunc func(doc types.Document) error

func (f SinkFunc) Write(doc types.Document) error {
	return f(doc)
}

// Discard drops every document.
var Discard Sink = SinkFunc(func(types.Document) error { return nil })

type jsonLinesSink struct {
	enc *json.Encoder
}

// NewJSONLinesSink writes one JSON record per document and line.
func NewJSONLinesSink(w io.Writer) Sink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &jsonLinesSink{enc: enc}
}

func (s *jsonLinesSink) Write(doc types.Document) error {
	return s.enc.Encode(doc)
}
