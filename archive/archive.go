package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"text2phenotype.com/corpora/logger"
	"text2phenotype.com/corpora/utils"
)

// Member is one decoded archive member.
type Member struct {
	Name     string
	Text     string
	Size     int
	Checksum uint64
}

// Stats summarizes a finished iteration.
type Stats struct {
	Members int      `json:"members"`
	Skipped []string `json:"skipped"`
}

type source interface {
	// next returns io.EOF after the last regular file.
	next() (string, io.Reader, error)
	close() error
}

// Reader iterates the members of one archive in archive order. It is forward-only:
// once Next returns false the archive has to be reopened to read it again.
type Reader struct {
	path   string
	src    source
	dec    *Decoder
	cur    Member
	err    error
	stats  Stats
	closed bool
	log    zerolog.Logger
}

func newReader(path string, src source, dec *Decoder) *Reader {
	return &Reader{
		path: path,
		src:  src,
		dec:  dec,
		log:  logger.NewLogger("Archive").With().Str("archive", path).Logger(),
	}
}

// Open picks the container format from the file suffix: .tar, .tar.gz / .tgz or .zip.
func Open(path string, dec *Decoder) (*Reader, error) {
	switch {
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		fp, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		rz, err := gzip.NewReader(fp)
		if err != nil {
			_ = fp.Close()
			return nil, fmt.Errorf("open gzip stream %s: %w", path, err)
		}
		return newReader(path, &tarSource{r: tar.NewReader(rz), closers: []io.Closer{rz, fp}}, dec), nil
	case strings.HasSuffix(path, ".tar"):
		fp, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return newReader(path, &tarSource{r: tar.NewReader(fp), closers: []io.Closer{fp}}, dec), nil
	case strings.HasSuffix(path, ".zip"):
		zr, err := zip.OpenReader(path)
		if err != nil {
			return nil, err
		}
		return newReader(path, &zipSource{files: zr.File, closer: zr}, dec), nil
	}
	return nil, fmt.Errorf("unknown archive type for %s", path)
}

// NewTarReader reads an uncompressed tar stream. Closing the Reader does not close r.
func NewTarReader(r io.Reader, dec *Decoder) *Reader {
	return newReader("tar stream", &tarSource{r: tar.NewReader(r)}, dec)
}

// NewZipReader reads an opened zip archive. Closing the Reader does not close zr.
func NewZipReader(zr *zip.Reader, dec *Decoder) *Reader {
	return newReader("zip stream", &zipSource{files: zr.File}, dec)
}

// Walk opens path, calls fn for every member and closes the archive on every return path.
func Walk(path string, dec *Decoder, fn func(Member) error) (Stats, error) {
	r, err := Open(path, dec)
	if err != nil {
		return Stats{}, err
	}
	defer r.Close()
	for r.Next() {
		if err := fn(r.Member()); err != nil {
			return r.Stats(), err
		}
	}
	return r.Stats(), r.Err()
}

// Next advances to the next non-empty member. Members whose text is empty are skipped and listed in
// Stats().Skipped. It returns false at the end of the archive or on the first error.
func (r *Reader) Next() bool {
	if r.err != nil || r.closed {
		return false
	}
	for {
		name, body, err := r.src.next()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			r.err = fmt.Errorf("read %s: %w", r.path, err)
			return false
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			r.err = fmt.Errorf("read member %s: %w", name, err)
			return false
		}
		r.stats.Members++

		text, err := r.dec.Decode(name, raw)
		if err != nil {
			r.log.Err(err).Str("member", name).Msg("Member failed encoding round trip")
			r.err = err
			return false
		}
		if text == "" {
			r.log.Warn().Str("member", name).Msg("Skipping empty member")
			r.stats.Skipped = append(r.stats.Skipped, name)
			continue
		}
		r.cur = Member{
			Name:     name,
			Text:     text,
			Size:     len(raw),
			Checksum: utils.HashBytes(raw),
		}
		return true
	}
}

func (r *Reader) Member() Member {
	return r.cur
}

func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) Stats() Stats {
	return r.stats
}

func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.src.close()
}

type tarSource struct {
	r       *tar.Reader
	closers []io.Closer
}

func (s *tarSource) next() (string, io.Reader, error) {
	for {
		h, err := s.r.Next()
		if err != nil {
			return "", nil, err
		}
		if !h.FileInfo().Mode().IsRegular() {
			continue
		}
		return h.Name, s.r, nil
	}
}

func (s *tarSource) close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type zipSource struct {
	files  []*zip.File
	idx    int
	body   io.ReadCloser
	closer io.Closer
}

func (s *zipSource) next() (string, io.Reader, error) {
	if s.body != nil {
		_ = s.body.Close()
		s.body = nil
	}
	for s.idx < len(s.files) {
		f := s.files[s.idx]
		s.idx++
		if f.FileInfo().IsDir() {
			continue
		}
		body, err := f.Open()
		if err != nil {
			return "", nil, err
		}
		s.body = body
		return f.Name, body, nil
	}
	return "", nil, io.EOF
}

func (s *zipSource) close() error {
	if s.body != nil {
		_ = s.body.Close()
		s.body = nil
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
