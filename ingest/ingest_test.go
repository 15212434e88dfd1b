package ingest

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"text2phenotype.com/corpora/align"
	"text2phenotype.com/corpora/archive"
	"text2phenotype.com/corpora/coref"
	"text2phenotype.com/corpora/muchmore"
	"text2phenotype.com/corpora/types"
)

func writeTarGz(t *testing.T, path string, members map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for name, body := range members {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeZip(t *testing.T, path string, members map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// annotated returns a latin-1 encoded annotation document with one sentence.
func annotated(id, lang, word string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="ISO-8859-1"?>
<document id="%s" type="abstract" lang="%s">
<sentence id="s1"><umlsterms/><xrceterms/><ewnterms/><semrels/><chunks/>
<text><token id="w1" pos="NN" lemma="%s">%s</token><token id="w2" pos="." lemma=".">.</token></text>
</sentence></document>`, id, lang, strings.ToLower(word), word)
}

const (
	enAnnotatedSuffix = ".eng.abstr.chunkmorph.annotated.xml"
	deAnnotatedSuffix = ".ger.abstr.chunkmorph.annotated.xml"
)

func muchMoreFixture(t *testing.T, deAnnotated map[string]string) (Config, types.Dataset) {
	t.Helper()
	dir := t.TempDir()
	writeTarGz(t, filepath.Join(dir, "en_plain.tar.gz"), map[string]string{
		"springer/A.00001.eng.abstr": "Knee arthroplasty.",
		"springer/B.00002.eng.abstr": "Hip fracture.",
		"springer/E.00003.eng.abstr": "Empty annotation.",
	})
	writeTarGz(t, filepath.Join(dir, "de_plain.tar.gz"), map[string]string{
		"springer/A.00001.ger.abstr": "Kniegelenk.",
		"springer/C.00004.ger.abstr": "Fr\xfchergebnisse.",
	})
	writeTarGz(t, filepath.Join(dir, "en_annotated.tar.gz"), map[string]string{
		"springer/A.00001" + enAnnotatedSuffix: annotated("A.00001", "en", "Knee"),
		"springer/B.00002" + enAnnotatedSuffix: annotated("B.00002", "en", "Hip"),
		"springer/E.00003" + enAnnotatedSuffix: "",
	})
	if deAnnotated == nil {
		deAnnotated = map[string]string{
			"springer/A.00001" + deAnnotatedSuffix: annotated("A.00001", "de", "Knie"),
			"springer/C.00004" + deAnnotatedSuffix: annotated("C.00004", "de", "Fr\xfch"),
		}
	}
	writeTarGz(t, filepath.Join(dir, "de_annotated.tar.gz"), deAnnotated)

	ds := types.Dataset{
		Name: "muchmore",
		Kind: types.MuchMoreKind,
		Archives: []types.Archive{
			{Path: "en_plain.tar.gz", Language: types.LanguageEnglish, Content: types.ContentPlain},
			{Path: "de_plain.tar.gz", Language: types.LanguageGerman, Content: types.ContentPlain},
			{Path: "en_annotated.tar.gz", Language: types.LanguageEnglish, Content: types.ContentAnnotated},
			{Path: "de_annotated.tar.gz", Language: types.LanguageGerman, Content: types.ContentAnnotated},
		},
		Expected: map[types.ContentType]*types.Expectation{
			types.ContentPlain: {
				Matched:   1,
				Exclusive: map[types.Language]int{types.LanguageEnglish: 2, types.LanguageGerman: 1},
			},
		},
	}
	cfg := Config{
		LegacyEncoding: archive.DefaultLegacyEncoding,
		OutputEncoding: archive.DefaultOutputEncoding,
		BasePath:       dir,
	}
	return cfg, ds
}

func TestRunMuchMore(t *testing.T) {
	cfg, ds := muchMoreFixture(t, nil)

	var docs []types.Document
	sink := SinkFunc(func(doc types.Document) error {
		docs = append(docs, doc)
		return nil
	})
	result, err := New(cfg).Run(context.Background(), ds, sink)
	require.NoError(t, err)

	require.Equal(t, 4, result.Documents)
	require.Len(t, docs, 4)
	require.Equal(t, 8, result.Tokens)
	require.Empty(t, result.Failures)
	require.Empty(t, result.Duplicates)
	require.Empty(t, result.Identical)

	var german types.Document
	for _, doc := range docs {
		if doc.ID == "C.00004" {
			german = doc
		}
	}
	require.Equal(t, "Früh", german.Sentences[0].Tokens[0].Text)

	enAnnotated := result.Archives[2]
	require.Equal(t, 3, enAnnotated.Members)
	require.Equal(t, 2, enAnnotated.Documents)
	require.Equal(t, len(annotated("A.00001", "en", "Knee"))+len(annotated("B.00002", "en", "Hip")), enAnnotated.Bytes)
	require.Equal(t, []string{"springer/E.00003" + enAnnotatedSuffix}, enAnnotated.Skipped)

	byName := map[string]align.Summary{}
	for _, s := range result.Alignments {
		byName[s.Name] = s
	}
	require.Len(t, byName, 4)
	require.Equal(t, 1, byName["plain"].Matched)
	require.Equal(t, map[string]int{"en": 2, "de": 1}, byName["plain"].Exclusive)
	require.Equal(t, 1, byName["annotated"].Matched)
	require.Equal(t, map[string]int{"en": 3, "de": 2}, byName["annotated"].Totals)
	require.Equal(t, 3, byName["en"].Matched)
	require.Equal(t, map[string]int{"plain": 0, "annotated": 0}, byName["en"].Exclusive)
	require.Equal(t, 2, byName["de"].Matched)
}

func TestRunMuchMoreExpectationMismatch(t *testing.T) {
	cfg, ds := muchMoreFixture(t, nil)
	ds.Expected[types.ContentPlain].Matched = 6374

	result, err := New(cfg).Run(context.Background(), ds, Discard)
	var mismatch *align.CountMismatchError
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	require.Equal(t, "plain", mismatch.Content)
	require.NotNil(t, result)
	require.Equal(t, 4, result.Documents)
}

func TestRunMuchMoreMalformed(t *testing.T) {
	deAnnotated := map[string]string{
		"springer/A.00001" + deAnnotatedSuffix: annotated("A.00001", "de", "Knie"),
		"springer/C.00004" + deAnnotatedSuffix: `<document id="C.00004"><sentence id="s1"><text/></sentence></document>`,
	}

	t.Run("abort", func(t *testing.T) {
		cfg, ds := muchMoreFixture(t, deAnnotated)
		_, err := New(cfg).Run(context.Background(), ds, Discard)

		var memberErr *MemberError
		require.True(t, errors.As(err, &memberErr), "got %v", err)
		require.Equal(t, "springer/C.00004"+deAnnotatedSuffix, memberErr.Member)
		var malformed *muchmore.MalformedAnnotationError
		require.True(t, errors.As(err, &malformed))
		require.Equal(t, "umlsterms", malformed.Block)
	})

	t.Run("continue", func(t *testing.T) {
		cfg, ds := muchMoreFixture(t, deAnnotated)
		cfg.ContinueOnError = true
		result, err := New(cfg).Run(context.Background(), ds, Discard)
		require.NoError(t, err)
		require.Equal(t, 3, result.Documents)
		require.Len(t, result.Failures, 1)
		require.Equal(t, "de_annotated.tar.gz", result.Failures[0].Archive)
	})
}

func TestRunMuchMoreUnsupportedAlwaysAborts(t *testing.T) {
	cfg, ds := muchMoreFixture(t, map[string]string{
		"springer/A.00001" + deAnnotatedSuffix: `<document id="A.00001"><sentence id="s1"><umlsterms/>` +
			`<xrceterms><xrceterm id="x1"/></xrceterms><ewnterms/><semrels/><chunks/><text/></sentence></document>`,
	})
	cfg.ContinueOnError = true

	_, err := New(cfg).Run(context.Background(), ds, Discard)
	var unsupported *muchmore.UnsupportedAnnotationError
	require.True(t, errors.As(err, &unsupported), "got %v", err)
}

func TestRunMuchMoreDuplicates(t *testing.T) {
	cfg, ds := muchMoreFixture(t, map[string]string{
		"springer/A.00001" + deAnnotatedSuffix: annotated("A.00001", "de", "Knie"),
		"springer/C.00004" + deAnnotatedSuffix: annotated("A.00001", "de", "Knie"),
	})
	ds.Expected = nil

	result, err := New(cfg).Run(context.Background(), ds, Discard)
	require.NoError(t, err)
	require.Len(t, result.Duplicates, 1)
	require.Contains(t, result.Duplicates[0], "de/A.00001")

	require.Len(t, result.Identical, 1)
	require.Contains(t, result.Identical[0], "de_annotated.tar.gz:springer/A.00001"+deAnnotatedSuffix)
	require.Contains(t, result.Identical[0], "de_annotated.tar.gz:springer/C.00004"+deAnnotatedSuffix)
}

func TestRunMuchMoreCancelled(t *testing.T) {
	cfg, ds := muchMoreFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg).Run(ctx, ds, Discard)
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func corefFixture(t *testing.T, concepts string) (Config, types.Dataset) {
	t.Helper()
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "Task_1C.zip"), map[string]string{
		"Task_1C/i2b2_Beth_Train/docs/clinical-1.txt":         "Admission Date :\nTotal knee arthroplasty was performed .\n",
		"Task_1C/i2b2_Beth_Train/concepts/clinical-1.txt.con": `c="total knee arthroplasty" 2:0 2:2||t="treatment"` + "\n",
		"Task_1C/i2b2_Beth_Train/docs/clinical-2.txt":         "Chest pain resolved .\n",
		"Task_1C/i2b2_Beth_Train/concepts/clinical-2.txt.con": concepts,
	})
	ds := types.Dataset{
		Name:           types.CorefDataset,
		Kind:           types.CorefKind,
		LegacyEncoding: "UTF-8",
		Archives:       []types.Archive{{Path: "Task_1C.zip"}},
	}
	cfg := Config{
		LegacyEncoding: archive.DefaultLegacyEncoding,
		OutputEncoding: archive.DefaultOutputEncoding,
		BasePath:       dir,
	}
	return cfg, ds
}

func TestRunCoref(t *testing.T) {
	cfg, ds := corefFixture(t, `c="chest pain" 1:0 1:1||t="problem"`+"\n")
	result, err := New(cfg).Run(context.Background(), ds, Discard)
	require.NoError(t, err)
	require.Equal(t, 2, result.Samples)
	require.Equal(t, 2, result.Concepts)
	require.Equal(t, 2, result.Archives[0].Documents)
}

func TestRunCorefMismatch(t *testing.T) {
	line := `c="chest pain" 1:1 1:2||t="problem"`

	t.Run("abort", func(t *testing.T) {
		cfg, ds := corefFixture(t, line)
		_, err := New(cfg).Run(context.Background(), ds, Discard)
		var mismatch *coref.OffsetMismatchError
		require.True(t, errors.As(err, &mismatch), "got %v", err)
		require.Equal(t, "clinical-2", mismatch.SampleID)
		var memberErr *MemberError
		require.True(t, errors.As(err, &memberErr))
		require.Equal(t, "Task_1C/i2b2_Beth_Train/concepts/clinical-2.txt.con", memberErr.Member)
	})

	t.Run("continue", func(t *testing.T) {
		cfg, ds := corefFixture(t, line)
		cfg.ContinueOnError = true
		result, err := New(cfg).Run(context.Background(), ds, Discard)
		require.NoError(t, err)
		require.Equal(t, 1, result.Concepts)
		require.Len(t, result.Failures, 1)
		require.Contains(t, result.Failures[0].Error, "pain resolved")
	})
}

func TestParseDocument(t *testing.T) {
	in := New(Config{LegacyEncoding: "ISO-8859-1", OutputEncoding: "UTF-8"})
	doc, err := in.ParseDocument("C.00004"+deAnnotatedSuffix, []byte(annotated("C.00004", "de", "Gr\xfcn")))
	require.NoError(t, err)
	require.Equal(t, "Grün", doc.Sentences[0].Tokens[0].Text)
}

func TestJSONLinesSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLinesSink(&buf)
	corresp := "A.ger"
	require.NoError(t, sink.Write(types.Document{ID: "A", Language: "en", Corresp: &corresp, Sentences: []types.Sentence{}}))
	require.NoError(t, sink.Write(types.Document{ID: "B", Language: "en"}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, `{"id":"A","type":"","language":"en","corresp":"A.ger","sentences":[]}`, lines[0])
}

func TestReadConfig(t *testing.T) {
	t.Setenv("CORPORA_BASE_PATH", "/data/big_science_biomedical")
	t.Setenv("CORPORA_CONTINUE_ON_ERROR", "true")

	cfg, err := ReadConfig()
	require.NoError(t, err)
	require.Equal(t, Config{
		LegacyEncoding:  "ISO-8859-1",
		OutputEncoding:  "UTF-8",
		BasePath:        "/data/big_science_biomedical",
		ContinueOnError: true,
	}, cfg)

	datasets, err := cfg.Datasets()
	require.NoError(t, err)
	_, ok := types.FindDataset(datasets, types.MuchMoreDataset)
	require.True(t, ok)
}
