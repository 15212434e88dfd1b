package ingest

import (
	"text2phenotype.com/corpora/align"
	"text2phenotype.com/corpora/types"
)

type ArchiveResult struct {
	Path      string            `json:"path"`
	Language  types.Language    `json:"language,omitempty"`
	Content   types.ContentType `json:"content,omitempty"`
	Members   int               `json:"members"`
	Documents int               `json:"documents"`
	Bytes     int               `json:"bytes"`
	Skipped   []string          `json:"skipped,omitempty"`
}

// Failure is a document or sample that was tolerated because ContinueOnError is set.
type Failure struct {
	Archive string `json:"archive"`
	Member  string `json:"member"`
	Error   string `json:"error"`
}

type Result struct {
	Dataset    string          `json:"dataset"`
	Kind       string          `json:"kind"`
	Archives   []ArchiveResult `json:"archives"`
	Documents  int             `json:"documents"`
	Tokens     int             `json:"tokens"`
	Duplicates []string        `json:"duplicates,omitempty"`
	// Identical lists members whose raw bytes equal an earlier member of the run.
	Identical  []string        `json:"identical,omitempty"`
	Samples    int             `json:"samples,omitempty"`
	Concepts   int             `json:"concepts,omitempty"`
	Failures   []Failure       `json:"failures,omitempty"`
	Alignments []align.Summary `json:"alignments,omitempty"`
	Reports    []align.Report  `json:"-"`
}

func (r *Result) fail(archive, member string, err error) {
	r.Failures = append(r.Failures, Failure{Archive: archive, Member: member, Error: err.Error()})
}
