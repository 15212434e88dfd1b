package archive

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

const (
	DefaultLegacyEncoding = "ISO-8859-1"
	DefaultOutputEncoding = "UTF-8"
)

var errRoundTrip = errors.New("re-encoded bytes differ from the original")

// Decoder turns raw member bytes into text using a fixed legacy encoding and checks that the text
// survives a trip through the output encoding and back.
type Decoder struct {
	legacyName string
	legacy     encoding.Encoding
	output     encoding.Encoding
}

func LookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}
	return enc, nil
}

func NewDecoder(legacyName, outputName string) (*Decoder, error) {
	legacy, err := LookupEncoding(legacyName)
	if err != nil {
		return nil, err
	}
	output, err := LookupEncoding(outputName)
	if err != nil {
		return nil, err
	}
	return &Decoder{legacyName: legacyName, legacy: legacy, output: output}, nil
}

// Decode returns the text of raw. The text is rejected with an *EncodingError when encoding it to
// the output encoding, decoding it back and re-encoding it with the legacy encoding does not
// reproduce raw exactly.
func (d *Decoder) Decode(member string, raw []byte) (string, error) {
	text, err := d.legacy.NewDecoder().Bytes(raw)
	if err != nil {
		return "", d.encodingError(member, raw, err)
	}
	out, err := d.output.NewEncoder().Bytes(text)
	if err != nil {
		return "", d.encodingError(member, raw, err)
	}
	back, err := d.output.NewDecoder().Bytes(out)
	if err != nil {
		return "", d.encodingError(member, raw, err)
	}
	legacy, err := d.legacy.NewEncoder().Bytes(back)
	if err != nil {
		return "", d.encodingError(member, raw, err)
	}
	if !bytes.Equal(legacy, raw) {
		return "", d.encodingError(member, raw, errRoundTrip)
	}
	return string(text), nil
}

func (d *Decoder) encodingError(member string, raw []byte, err error) error {
	encErr := &EncodingError{
		Member:   member,
		Encoding: d.legacyName,
		Guess:    "unknown",
		Err:      err,
	}
	if best, detectErr := chardet.NewTextDetector().DetectBest(raw); detectErr == nil {
		encErr.Guess = best.Charset
		encErr.Confidence = best.Confidence
	}
	return encErr
}
