// Package ingest runs configured datasets: it reads their archives, parses or validates every member
// and checks the corpus-level alignment counts.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"text2phenotype.com/corpora/align"
	"text2phenotype.com/corpora/archive"
	"text2phenotype.com/corpora/coref"
	"text2phenotype.com/corpora/logger"
	"text2phenotype.com/corpora/muchmore"
	"text2phenotype.com/corpora/types"
)

type Ingester struct {
	config Config
	log    zerolog.Logger
}

func New(config Config) *Ingester {
	return &Ingester{config: config, log: logger.NewLogger("Ingest")}
}

func (in *Ingester) Config() Config {
	return in.config
}

// Run processes every archive of ds. Parsed documents go to sink. The returned result is
// non-nil whenever the archives could be read, even when the expected counts were not met.
func (in *Ingester) Run(ctx context.Context, ds types.Dataset, sink Sink) (*Result, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	dec, err := in.decoder(ds)
	if err != nil {
		return nil, err
	}
	switch ds.Kind {
	case types.MuchMoreKind:
		return in.runMuchMore(ctx, ds, dec, sink)
	case types.CorefKind:
		return in.runCoref(ctx, ds, dec)
	}
	return nil, fmt.Errorf("dataset %s: wrong kind %q", ds.Name, ds.Kind)
}

// ParseDocument decodes and parses one annotated document.
func (in *Ingester) ParseDocument(name string, raw []byte) (types.Document, error) {
	dec, err := archive.NewDecoder(in.config.LegacyEncoding, in.config.OutputEncoding)
	if err != nil {
		return types.Document{}, err
	}
	text, err := dec.Decode(name, raw)
	if err != nil {
		return types.Document{}, err
	}
	return muchmore.Parse(text)
}

func (in *Ingester) decoder(ds types.Dataset) (*archive.Decoder, error) {
	legacy := in.config.LegacyEncoding
	if ds.LegacyEncoding != "" {
		legacy = ds.LegacyEncoding
	}
	return archive.NewDecoder(legacy, in.config.OutputEncoding)
}

func (in *Ingester) archivePath(a types.Archive) string {
	if filepath.IsAbs(a.Path) {
		return a.Path
	}
	return filepath.Join(in.config.BasePath, a.Path)
}

// tolerated reports whether err may be recorded instead of aborting the run.
func (in *Ingester) tolerated(err error) bool {
	if !in.config.ContinueOnError {
		return false
	}
	var encErr *archive.EncodingError
	var unsupported *muchmore.UnsupportedAnnotationError
	return !errors.As(err, &encErr) && !errors.As(err, &unsupported)
}

type sideKey struct {
	content  types.ContentType
	language types.Language
}

type muchMoreRun struct {
	mu     sync.Mutex
	sink   Sink
	result *Result
	names  map[sideKey][]string
	seen   map[uint64]string
	bytes  map[uint64]string
}

func (run *muchMoreRun) addNames(names map[sideKey][]string) {
	run.mu.Lock()
	defer run.mu.Unlock()
	for key, list := range names {
		run.names[key] = append(run.names[key], list...)
	}
}

func (run *muchMoreRun) checksum(archivePath string, m archive.Member) {
	run.mu.Lock()
	defer run.mu.Unlock()
	member := archivePath + ":" + m.Name
	if prev, ok := run.bytes[m.Checksum]; ok {
		run.result.Identical = append(run.result.Identical, prev+", "+member)
		return
	}
	run.bytes[m.Checksum] = member
}

func (run *muchMoreRun) write(doc types.Document, member string) error {
	run.mu.Lock()
	defer run.mu.Unlock()
	hash := doc.GetHashCode()
	if prev, ok := run.seen[hash]; ok {
		run.result.Duplicates = append(run.result.Duplicates, fmt.Sprintf("%s/%s: %s, %s", doc.Language, doc.ID, prev, member))
	} else {
		run.seen[hash] = member
	}
	run.result.Documents++
	run.result.Tokens += doc.TokenCount()
	return run.sink.Write(doc)
}

func (in *Ingester) runMuchMore(ctx context.Context, ds types.Dataset, dec *archive.Decoder, sink Sink) (*Result, error) {
	run := &muchMoreRun{
		sink:   sink,
		result: &Result{Dataset: ds.Name, Kind: ds.Kind, Archives: make([]ArchiveResult, len(ds.Archives))},
		names:  map[sideKey][]string{},
		seen:   map[uint64]string{},
		bytes:  map[uint64]string{},
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range ds.Archives {
		i, a := i, a
		g.Go(func() error {
			res, err := in.readMuchMoreArchive(gctx, run, a, dec)
			run.mu.Lock()
			run.result.Archives[i] = res
			run.mu.Unlock()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(run.result.Duplicates)
	sort.Strings(run.result.Identical)
	sortFailures(run.result.Failures)

	reports := alignments(run.names)
	run.result.Reports = reports
	for _, r := range reports {
		run.result.Alignments = append(run.result.Alignments, r.Summary())
		in.log.Info().Str("dataset", ds.Name).Interface("alignment", r.Summary()).Msg("Aligned")
	}
	for _, r := range reports {
		if err := r.Consistent(); err != nil {
			return run.result, err
		}
		if content := types.ContentType(r.Name); content == types.ContentPlain || content == types.ContentAnnotated {
			if err := r.Check(ds.Expected[content]); err != nil {
				return run.result, err
			}
		}
	}
	return run.result, nil
}

func (in *Ingester) readMuchMoreArchive(ctx context.Context, run *muchMoreRun, a types.Archive, dec *archive.Decoder) (ArchiveResult, error) {
	path := in.archivePath(a)
	res := ArchiveResult{Path: a.Path, Language: a.Language, Content: a.Content}
	log := in.log.With().Str("archive", path).Logger()

	r, err := archive.Open(path, dec)
	if err != nil {
		return res, err
	}
	defer r.Close()

	names := map[sideKey][]string{}
	add := func(name string) types.MemberName {
		parsed := types.ParseMemberName(name)
		if !parsed.Known() {
			log.Warn().Str("member", name).Msg("Member name has no corpus suffix")
		}
		key := sideKey{content: a.Content, language: a.Language}
		if key.content == types.ContentUnknown {
			key.content = parsed.Content
		}
		if key.language == types.LanguageUnknown {
			key.language = parsed.Language
		}
		names[key] = append(names[key], name)
		return parsed
	}

	for r.Next() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		m := r.Member()
		parsed := add(m.Name)
		res.Bytes += m.Size
		run.checksum(a.Path, m)
		content := a.Content
		if content == types.ContentUnknown {
			content = parsed.Content
		}
		if content != types.ContentAnnotated {
			continue
		}

		doc, err := muchmore.Parse(m.Text)
		if err != nil {
			memberErr := &MemberError{Archive: a.Path, Member: m.Name, Err: err}
			if !in.tolerated(err) {
				return res, memberErr
			}
			log.Warn().Err(err).Str("member", m.Name).Msg("Skipping malformed document")
			run.mu.Lock()
			run.result.fail(a.Path, m.Name, err)
			run.mu.Unlock()
			continue
		}
		if err := run.write(doc, m.Name); err != nil {
			return res, fmt.Errorf("write %s: %w", m.Name, err)
		}
		res.Documents++
	}
	if err := r.Err(); err != nil {
		return res, err
	}

	stats := r.Stats()
	for _, name := range stats.Skipped {
		add(name)
	}
	res.Members = stats.Members
	res.Skipped = stats.Skipped
	run.addNames(names)

	log.Info().Int("members", res.Members).Int("documents", res.Documents).Int("skipped", len(res.Skipped)).
		Msg("Finished archive")
	return res, nil
}

// alignments builds the en/de report of every content type and the plain/annotated report of every
// language for which both sides were read.
func alignments(names map[sideKey][]string) []align.Report {
	sides := map[sideKey]align.Side{}
	for key, list := range names {
		label := string(key.language)
		c := align.NewCollector(label)
		for _, name := range list {
			c.Add(name)
		}
		sides[key] = c.Side()
	}
	relabel := func(s align.Side, label string) align.Side {
		s.Label = label
		return s
	}

	var reports []align.Report
	for _, content := range []types.ContentType{types.ContentPlain, types.ContentAnnotated} {
		en, okEn := sides[sideKey{content, types.LanguageEnglish}]
		de, okDe := sides[sideKey{content, types.LanguageGerman}]
		if okEn && okDe {
			reports = append(reports, align.Align(string(content), en, de))
		}
	}
	for _, lang := range []types.Language{types.LanguageEnglish, types.LanguageGerman} {
		plain, okPlain := sides[sideKey{types.ContentPlain, lang}]
		annotated, okAnnotated := sides[sideKey{types.ContentAnnotated, lang}]
		if okPlain && okAnnotated {
			reports = append(reports, align.Align(string(lang),
				relabel(plain, string(types.ContentPlain)),
				relabel(annotated, string(types.ContentAnnotated))))
		}
	}
	return reports
}

func (in *Ingester) runCoref(ctx context.Context, ds types.Dataset, dec *archive.Decoder) (*Result, error) {
	result := &Result{Dataset: ds.Name, Kind: ds.Kind}
	for _, a := range ds.Archives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := in.archivePath(a)
		r, err := archive.Open(path, dec)
		if err != nil {
			return nil, err
		}
		samples, err := coref.Collect(r)
		stats := r.Stats()
		_ = r.Close()
		if err != nil {
			return nil, err
		}

		res := ArchiveResult{Path: a.Path, Members: stats.Members, Skipped: stats.Skipped}
		for _, s := range samples {
			spans, err := s.Validate()
			if err != nil {
				if !in.tolerated(err) {
					return nil, &MemberError{Archive: a.Path, Member: s.ConceptsPath, Err: err}
				}
				in.log.Warn().Err(err).Str("sample", s.ID).Msg("Skipping sample with invalid offsets")
				result.fail(a.Path, s.ConceptsPath, err)
				continue
			}
			res.Documents++
			result.Concepts += len(spans)
		}
		result.Samples += len(samples)
		result.Archives = append(result.Archives, res)
		in.log.Info().Str("archive", path).Int("samples", len(samples)).Int("valid", res.Documents).
			Msg("Finished archive")
	}
	sortFailures(result.Failures)
	return result, nil
}

func sortFailures(failures []Failure) {
	sort.Slice(failures, func(i, j int) bool {
		if failures[i].Archive != failures[j].Archive {
			return failures[i].Archive < failures[j].Archive
		}
		return failures[i].Member < failures[j].Member
	})
}
