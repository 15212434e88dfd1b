// Package muchmore reads the MuchMore Springer annotation XML into the document model.
package muchmore

import (
	"strings"

	"text2phenotype.com/corpora/types"
)

// Element names of the annotation grammar.
const (
	umlsTermsBlock = "umlsterms"
	xrceTermsBlock = "xrceterms"
	ewnTermsBlock  = "ewnterms"
	semRelsBlock   = "semrels"
	chunksBlock    = "chunks"
	textBlock      = "text"

	documentElement = "document"
	sentenceElement = "sentence"
	umlsTermElement = "umlsterm"
	conceptElement  = "concept"
	mshElement      = "msh"
	ewnTermElement  = "ewnterm"
	senseElement    = "sense"
	semRelElement   = "semrel"
	chunkElement    = "chunk"
	tokenElement    = "token"
)

// Parse turns one decoded annotation document into a Document. Attribute values are copied
// verbatim; ids referenced across blocks are not resolved.
func Parse(text string) (types.Document, error) {
	root, err := buildTree(strings.NewReader(text))
	if err != nil {
		return types.Document{}, &MalformedAnnotationError{Reason: "invalid xml", Err: err}
	}
	if root == nil {
		return types.Document{}, &MalformedAnnotationError{Reason: "missing root element"}
	}

	doc := types.Document{
		ID:        root.get("id"),
		Type:      root.get("type"),
		Language:  root.get("lang"),
		Corresp:   root.optional("corresp"),
		Sentences: make([]types.Sentence, 0, len(root.children)),
	}
	for _, xsent := range root.children {
		sent, err := parseSentence(xsent)
		if err != nil {
			return types.Document{}, err
		}
		doc.Sentences = append(doc.Sentences, sent)
	}
	return doc, nil
}

func parseSentence(xsent *element) (types.Sentence, error) {
	sent := types.Sentence{
		ID:      xsent.get("id"),
		Corresp: xsent.optional("corresp"),
	}

	xumlsterms, err := requireBlock(xsent, umlsTermsBlock)
	if err != nil {
		return sent, err
	}
	if err := checkEmptyBlock(xsent, xrceTermsBlock); err != nil {
		return sent, err
	}
	xewnterms, err := requireBlock(xsent, ewnTermsBlock)
	if err != nil {
		return sent, err
	}
	xsemrels, err := requireBlock(xsent, semRelsBlock)
	if err != nil {
		return sent, err
	}
	xchunks, err := requireBlock(xsent, chunksBlock)
	if err != nil {
		return sent, err
	}
	xtext, err := requireBlock(xsent, textBlock)
	if err != nil {
		return sent, err
	}
	if n := len(xsent.findAll(textBlock)); n > 1 {
		return sent, &MalformedAnnotationError{Sentence: sent.ID, Block: textBlock, Reason: "more than one token block"}
	}

	sent.UmlsTerms = getUmlsTerms(xumlsterms)
	sent.EwnTerms = getEwnTerms(xewnterms)
	sent.SemRels = getSemRels(xsemrels)
	sent.Chunks = getChunks(xchunks)
	sent.Tokens = getTokens(xtext)
	return sent, nil
}

func requireBlock(xsent *element, block string) (*element, error) {
	xblock := xsent.find(block)
	if xblock == nil {
		return nil, &MalformedAnnotationError{Sentence: xsent.get("id"), Block: block, Reason: "missing block"}
	}
	return xblock, nil
}

// checkEmptyBlock accepts an absent or empty block and rejects one with children,
// so content the model has no place for is never dropped silently.
func checkEmptyBlock(xsent *element, block string) error {
	xblock := xsent.find(block)
	if xblock == nil || len(xblock.children) == 0 {
		return nil
	}
	return &UnsupportedAnnotationError{Sentence: xsent.get("id"), Block: block, Count: len(xblock.children)}
}

func getUmlsTerms(xumlsterms *element) []types.UmlsTerm {
	xterms := xumlsterms.findAll(umlsTermElement)
	umlsterms := make([]types.UmlsTerm, 0, len(xterms))
	for _, xterm := range xterms {
		xconcepts := xterm.findAll(conceptElement)
		concepts := make([]types.Concept, 0, len(xconcepts))
		for _, xconcept := range xconcepts {
			xmshs := xconcept.findAll(mshElement)
			mshs := make([]types.Msh, 0, len(xmshs))
			for _, xmsh := range xmshs {
				mshs = append(mshs, types.Msh{Code: xmsh.get("code")})
			}
			concepts = append(concepts, types.Concept{
				ID:        xconcept.get("id"),
				CUI:       xconcept.get("cui"),
				Preferred: xconcept.get("preferred"),
				TUI:       xconcept.get("tui"),
				Mshs:      mshs,
			})
		}
		umlsterms = append(umlsterms, types.UmlsTerm{
			ID:       xterm.get("id"),
			From:     xterm.get("from"),
			To:       xterm.get("to"),
			Concepts: concepts,
		})
	}
	return umlsterms
}

func getEwnTerms(xewnterms *element) []types.EwnTerm {
	xterms := xewnterms.findAll(ewnTermElement)
	ewnterms := make([]types.EwnTerm, 0, len(xterms))
	for _, xterm := range xterms {
		xsenses := xterm.findAll(senseElement)
		senses := make([]types.Sense, 0, len(xsenses))
		for _, xsense := range xsenses {
			senses = append(senses, types.Sense{Offset: xsense.get("offset")})
		}
		ewnterms = append(ewnterms, types.EwnTerm{
			ID:     xterm.get("id"),
			From:   xterm.get("from"),
			To:     xterm.get("to"),
			Senses: senses,
		})
	}
	return ewnterms
}

func getSemRels(xsemrels *element) []types.SemRel {
	xrels := xsemrels.findAll(semRelElement)
	semrels := make([]types.SemRel, 0, len(xrels))
	for _, xrel := range xrels {
		semrels = append(semrels, types.SemRel{
			ID:      xrel.get("id"),
			Term1:   xrel.get("term1"),
			Term2:   xrel.get("term2"),
			RelType: xrel.get("reltype"),
		})
	}
	return semrels
}

func getChunks(xchunks *element) []types.Chunk {
	xs := xchunks.findAll(chunkElement)
	chunks := make([]types.Chunk, 0, len(xs))
	for _, xchunk := range xs {
		chunks = append(chunks, types.Chunk{
			ID:   xchunk.get("id"),
			From: xchunk.get("from"),
			To:   xchunk.get("to"),
			Type: xchunk.get("type"),
		})
	}
	return chunks
}

func getTokens(xtext *element) []types.Token {
	xtokens := xtext.findAll(tokenElement)
	tokens := make([]types.Token, 0, len(xtokens))
	for _, xtoken := range xtokens {
		tokens = append(tokens, types.Token{
			ID:    xtoken.get("id"),
			Pos:   xtoken.get("pos"),
			Lemma: xtoken.get("lemma"),
			Text:  xtoken.text.String(),
		})
	}
	return tokens
}
