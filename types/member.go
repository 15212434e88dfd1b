package types

import (
	"path"
	"strings"
)

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageGerman  Language = "de"
	LanguageUnknown Language = ""
)

type ContentType string

const (
	ContentPlain     ContentType = "plain"
	ContentAnnotated ContentType = "annotated"
	ContentUnknown   ContentType = ""
)

const (
	plainSuffix     = ".abstr"
	annotatedSuffix = ".abstr.chunkmorph.annotated.xml"
)

var languageCodes = map[string]Language{
	"eng": LanguageEnglish,
	"ger": LanguageGerman,
}

// MemberName is an archive member file name split into its join key (Stem), language and content type.
type MemberName struct {
	Name     string
	Stem     string
	Language Language
	Content  ContentType
}

// ParseMemberName strips `.<eng|ger>.abstr` or `.<eng|ger>.abstr.chunkmorph.annotated.xml` from the end
// of the base name. A name without one of these exact suffixes keeps its whole base name as Stem.
func ParseMemberName(name string) MemberName {
	base := path.Base(name)
	parsed := MemberName{Name: name, Stem: base}

	var rest string
	switch {
	case strings.HasSuffix(base, annotatedSuffix):
		rest, parsed.Content = strings.TrimSuffix(base, annotatedSuffix), ContentAnnotated
	case strings.HasSuffix(base, plainSuffix):
		rest, parsed.Content = strings.TrimSuffix(base, plainSuffix), ContentPlain
	default:
		return parsed
	}

	dot := strings.LastIndexByte(rest, '.')
	if dot <= 0 {
		return MemberName{Name: name, Stem: base}
	}
	lang, ok := languageCodes[rest[dot+1:]]
	if !ok {
		return MemberName{Name: name, Stem: base}
	}
	parsed.Stem = rest[:dot]
	parsed.Language = lang
	return parsed
}

// JoinKey is the stem shared by a document's plain and annotated files in both languages.
func JoinKey(name string) string {
	return ParseMemberName(name).Stem
}

func (name MemberName) Known() bool {
	return name.Content != ContentUnknown
}
