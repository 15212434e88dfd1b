// Package coref validates n2c2 2011 coreference concept annotations against their raw text.
package coref

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"text2phenotype.com/corpora/types"
)

const (
	fieldSeparator = "||"
	conceptMarker  = "c="
	typeMarker     = "t="
)

// Position is a declared `line:token` marker: line is 1-based, token 0-based.
type Position struct {
	Line  int
	Token int
}

// Concept is a concept line as declared, before it is resolved against the text.
type Concept struct {
	Tokens []string
	Start  Position
	End    Position
	Type   string
}

// ParseConceptLine reads `c="<tokens>" <L1>:<T1> <L2>:<T2>||t="<type>"`.
func ParseConceptLine(line string) (Concept, error) {
	parts := strings.Split(line, fieldSeparator)
	if len(parts) != 2 {
		return Concept{}, &MalformedConceptError{Line: line, Reason: "expected two fields separated by ||"}
	}
	cpart := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(parts[0]), conceptMarker), `"`, "")
	tpart := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(parts[1]), typeMarker), `"`, "")

	pieces := strings.Fields(cpart)
	if len(pieces) < 3 {
		return Concept{}, &MalformedConceptError{Line: line, Reason: "expected tokens followed by two positions"}
	}
	start, err := parsePosition(pieces[len(pieces)-2])
	if err != nil {
		return Concept{}, &MalformedConceptError{Line: line, Reason: "bad start position", Err: err}
	}
	end, err := parsePosition(pieces[len(pieces)-1])
	if err != nil {
		return Concept{}, &MalformedConceptError{Line: line, Reason: "bad end position", Err: err}
	}
	return Concept{
		Tokens: pieces[:len(pieces)-2],
		Start:  start,
		End:    end,
		Type:   strings.TrimSpace(tpart),
	}, nil
}

func parsePosition(s string) (Position, error) {
	lineStr, tokenStr, ok := strings.Cut(s, ":")
	if !ok {
		return Position{}, strconv.ErrSyntax
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil {
		return Position{}, err
	}
	token, err := strconv.Atoi(tokenStr)
	if err != nil {
		return Position{}, err
	}
	return Position{Line: line, Token: token}, nil
}

// Text is a raw text file as whitespace-tokenized lines.
type Text [][]string

func NewText(raw string) Text {
	lines := splitLines(raw)
	text := make(Text, len(lines))
	for i, line := range lines {
		text[i] = strings.Fields(line)
	}
	return text
}

// Resolve slices the declared line at [start, end+1) and compares it to the declared tokens,
// both lower-cased. line is the raw concept line, used in errors.
func Resolve(sampleID string, text Text, c Concept, line string) (types.ConceptSpan, error) {
	if c.Start.Line != c.End.Line {
		return types.ConceptSpan{}, &CrossLineSpanError{
			SampleID:  sampleID,
			StartLine: c.Start.Line,
			EndLine:   c.End.Line,
			Line:      line,
		}
	}

	span := types.ConceptSpan{
		Type:   c.Type,
		Tokens: lower(c.Tokens),
		Line:   c.Start.Line - 1,
		Start:  c.Start.Token,
		End:    c.End.Token + 1,
	}

	var resolved []string
	if span.Line >= 0 && span.Line < len(text) {
		resolved = lower(clamp(text[span.Line], span.Start, span.End))
	}
	if span.Len() != len(span.Tokens) || !equal(resolved, span.Tokens) {
		return types.ConceptSpan{}, &OffsetMismatchError{
			SampleID: sampleID,
			Declared: span.Tokens,
			Resolved: resolved,
			Line:     line,
		}
	}
	return span, nil
}

// ValidateLine parses one concept line and resolves it against text.
func ValidateLine(sampleID string, text Text, line string) (types.ConceptSpan, error) {
	c, err := ParseConceptLine(line)
	if err != nil {
		return types.ConceptSpan{}, err
	}
	return Resolve(sampleID, text, c, line)
}

func clamp(tokens []string, start, end int) []string {
	if start < 0 {
		start = 0
	}
	if end > len(tokens) {
		end = len(tokens)
	}
	if start >= end {
		return nil
	}
	return tokens[start:end]
}

func lower(tokens []string) []string {
	result := make([]string, len(tokens))
	for i, tok := range tokens {
		result[i] = strings.ToLower(tok)
	}
	return result
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// splitLines breaks on the same boundaries the corpus line numbers were counted with:
// \n, \r, \r\n, \v, \f, \x1c-\x1e, \x85, U+2028 and U+2029. A trailing boundary adds no line.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch r {
		case '\r':
			lines = append(lines, s[start:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				size++
			}
			start = i + size
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			lines = append(lines, s[start:i])
			start = i + size
		}
		i += size
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
