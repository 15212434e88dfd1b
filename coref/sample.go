package coref

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"text2phenotype.com/corpora/archive"
	"text2phenotype.com/corpora/logger"
	"text2phenotype.com/corpora/types"
)

const (
	textExt     = "txt"
	conceptsExt = "txt.con"
)

// Sample is one raw text file paired with its concept annotation file.
type Sample struct {
	ID string
	// Metapath is the directory of the text member, split on "/".
	Metapath     []string
	TextPath     string
	ConceptsPath string
	Text         string
	Concepts     string
}

// Validate resolves every non-blank concept line of the sample and stops at the first failure.
func (s Sample) Validate() ([]types.ConceptSpan, error) {
	text := NewText(s.Text)
	var spans []types.ConceptSpan
	for i, line := range splitLines(s.Concepts) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		span, err := ValidateLine(s.ID, text, line)
		if err != nil {
			return spans, fmt.Errorf("%s line %d: %w", s.ConceptsPath, i+1, err)
		}
		spans = append(spans, span)
	}
	return spans, nil
}

// splitMember returns the sample id (base name up to the first dot) and the remaining extension.
func splitMember(name string) (string, string) {
	id, ext, _ := strings.Cut(path.Base(name), ".")
	return id, ext
}

// Collect drains r and pairs `<id>.txt` with `<id>.txt.con` members. Other members are ignored,
// samples missing either file are dropped with a warning. Samples are returned sorted by id.
func Collect(r *archive.Reader) ([]Sample, error) {
	log := logger.NewLogger("Coref")

	byID := map[string]*Sample{}
	sample := func(id string) *Sample {
		s, ok := byID[id]
		if !ok {
			s = &Sample{ID: id}
			byID[id] = s
		}
		return s
	}
	seenText := map[string]bool{}
	seenConcepts := map[string]bool{}
	add := func(name, content string) {
		id, ext := splitMember(name)
		switch ext {
		case textExt:
			s := sample(id)
			s.TextPath, s.Text = name, content
			if dir := path.Dir(name); dir != "." {
				s.Metapath = strings.Split(dir, "/")
			}
			seenText[id] = true
		case conceptsExt:
			s := sample(id)
			s.ConceptsPath, s.Concepts = name, content
			seenConcepts[id] = true
		}
	}

	for r.Next() {
		m := r.Member()
		add(m.Name, m.Text)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	// an empty concepts file is a sample without concepts
	for _, name := range r.Stats().Skipped {
		add(name, "")
	}

	samples := make([]Sample, 0, len(byID))
	for id, s := range byID {
		if !seenText[id] || !seenConcepts[id] {
			log.Warn().Str("sample", id).Bool("text", seenText[id]).Bool("concepts", seenConcepts[id]).
				Msg("Unpaired coreference sample")
			continue
		}
		samples = append(samples, *s)
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].ID < samples[j].ID })
	return samples, nil
}
