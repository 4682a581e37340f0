// Package decoder reads delimited text into raw records, one row at a time.
package decoder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"areagroup/internal/models"
)

// Decoding errors.
var (
	ErrNoHeader     = errors.New("input has no header row")
	ErrInvalidComma = errors.New("invalid delimiter")
)

// DefaultComma is the delimiter used when none is configured.
const DefaultComma = ','

// Options configures a Source.
type Options struct {
	// Comma is the field delimiter. Zero selects DefaultComma.
	Comma rune
}

// Source yields one RawRecord per data row. It is single pass: once Next
// has returned io.EOF it keeps returning io.EOF.
type Source struct {
	reader *csv.Reader
	closer io.Closer
	header []string
	line   int
	done   bool
}

// Open opens the file at path and reads its header row.
func Open(path string, opts Options) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	src, err := NewSource(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	src.closer = f

	return src, nil
}

// NewSource reads the header row from r. A leading UTF-8 byte order mark is
// dropped.
func NewSource(r io.Reader, opts Options) (*Source, error) {
	comma := opts.Comma
	if comma == 0 {
		comma = DefaultComma
	}

	if comma == '"' || comma == '\r' || comma == '\n' || comma == utf8.RuneError || !utf8.ValidRune(comma) {
		return nil, ErrInvalidComma
	}

	cr := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}

	if err != nil {
		return nil, err
	}

	return &Source{reader: cr, header: header, line: 1}, nil
}

// Header returns the column labels in source order.
func (s *Source) Header() []string {
	out := make([]string, len(s.header))
	copy(out, s.header)

	return out
}

// Line returns the 1-based line number of the last row read.
func (s *Source) Line() int {
	return s.line
}

// Next returns the next row. It returns io.EOF after the last row; any other
// error is terminal. Short rows lack their trailing columns and surplus cells
// are ignored.
func (s *Source) Next() (models.RawRecord, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		row, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			s.done = true
			return nil, io.EOF
		}

		if err != nil {
			s.done = true
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}

		s.line, _ = s.reader.FieldPos(0)

		if blank(row) {
			continue
		}

		rec := make(models.RawRecord, len(s.header))
		for i, label := range s.header {
			if i >= len(row) {
				break
			}

			rec[label] = row[i]
		}

		return rec, nil
	}
}

// Close releases the underlying file, if any.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	err := s.closer.Close()
	s.closer = nil

	return err
}

func blank(row []string) bool {
	return len(row) == 1 && row[0] == ""
}
