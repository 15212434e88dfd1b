package muchmore

import (
	"encoding/xml"
	"io"

	"text2phenotype.com/corpora/types"
)

type attr struct {
	name  string
	value *string
}

func required(name, value string) attr {
	return attr{name: name, value: &value}
}

// Encode writes doc back in the annotation layout Parse reads. Sentences, tokens and every other
// child sequence keep their order; an absent corresp stays absent.
func Encode(w io.Writer, doc types.Document) error {
	enc := xml.NewEncoder(w)
	e := &encoder{enc: enc}

	e.start(documentElement,
		required("id", doc.ID),
		required("type", doc.Type),
		required("lang", doc.Language),
		attr{"corresp", doc.Corresp},
	)
	for _, sent := range doc.Sentences {
		e.sentence(sent)
	}
	e.end(documentElement)

	if e.err != nil {
		return e.err
	}
	return enc.Flush()
}

type encoder struct {
	enc *xml.Encoder
	err error
}

func (e *encoder) start(name string, attrs ...attr) {
	if e.err != nil {
		return
	}
	start := xml.StartElement{Name: xml.Name{Local: name}}
	for _, a := range attrs {
		if a.value == nil {
			continue
		}
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.name}, Value: *a.value})
	}
	e.err = e.enc.EncodeToken(start)
}

func (e *encoder) end(name string) {
	if e.err != nil {
		return
	}
	e.err = e.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func (e *encoder) text(s string) {
	if e.err != nil || s == "" {
		return
	}
	e.err = e.enc.EncodeToken(xml.CharData(s))
}

func (e *encoder) leaf(name string, attrs ...attr) {
	e.start(name, attrs...)
	e.end(name)
}

func (e *encoder) sentence(sent types.Sentence) {
	e.start(sentenceElement, required("id", sent.ID), attr{"corresp", sent.Corresp})

	e.start(umlsTermsBlock)
	for _, term := range sent.UmlsTerms {
		e.start(umlsTermElement, required("id", term.ID), required("from", term.From), required("to", term.To))
		for _, c := range term.Concepts {
			e.start(conceptElement,
				required("id", c.ID),
				required("cui", c.CUI),
				required("preferred", c.Preferred),
				required("tui", c.TUI),
			)
			for _, msh := range c.Mshs {
				e.leaf(mshElement, required("code", msh.Code))
			}
			e.end(conceptElement)
		}
		e.end(umlsTermElement)
	}
	e.end(umlsTermsBlock)

	e.leaf(xrceTermsBlock)

	e.start(ewnTermsBlock)
	for _, term := range sent.EwnTerms {
		e.start(ewnTermElement, required("id", term.ID), required("from", term.From), required("to", term.To))
		for _, sense := range term.Senses {
			e.leaf(senseElement, required("offset", sense.Offset))
		}
		e.end(ewnTermElement)
	}
	e.end(ewnTermsBlock)

	e.start(semRelsBlock)
	for _, rel := range sent.SemRels {
		e.leaf(semRelElement,
			required("id", rel.ID),
			required("term1", rel.Term1),
			required("term2", rel.Term2),
			required("reltype", rel.RelType),
		)
	}
	e.end(semRelsBlock)

	e.start(chunksBlock)
	for _, chunk := range sent.Chunks {
		e.leaf(chunkElement, required("id", chunk.ID), required("from", chunk.From), required("to", chunk.To), required("type", chunk.Type))
	}
	e.end(chunksBlock)

	e.start(textBlock)
	for _, token := range sent.Tokens {
		e.start(tokenElement, required("id", token.ID), required("pos", token.Pos), required("lemma", token.Lemma))
		e.text(token.Text)
		e.end(tokenElement)
	}
	e.end(textBlock)

	e.end(sentenceElement)
}
