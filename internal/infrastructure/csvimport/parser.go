// Package csvimport parses and validates the CSV sheets operators export from
// Excel for bulk master-data registration.
package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// Encoding is the detected text encoding of a sheet
type Encoding string

const (
	EncodingUTF8  Encoding = "UTF-8"
	EncodingEUCKR Encoding = "EUC-KR"
)

// sniffSize is how much of the file is inspected to detect the encoding
const sniffSize = 4096

// Parser reads a CSV sheet row by row. The first record is the header.
type Parser struct {
	delimiter rune
	trimSpace bool
	encoding  Encoding
	headers   []string
	headerMap map[string]int
	reader    *csv.Reader
}

// ParserOption configures a Parser
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) { p.delimiter = d }
}

// WithTrimSpace controls trimming of header and cell values (default on)
func WithTrimSpace(trim bool) ParserOption {
	return func(p *Parser) { p.trimSpace = trim }
}

// NewParser wraps r. A UTF-8 BOM is dropped; content that is not valid UTF-8
// is decoded as EUC-KR, the default of Korean Excel.
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		delimiter: ',',
		trimSpace: true,
		encoding:  EncodingUTF8,
		headerMap: make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	buf := bufio.NewReaderSize(r, sniffSize)
	head, err := buf.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, ErrEmptyFile
	}

	var src io.Reader = buf
	switch {
	case bytes.HasPrefix(head, utf8BOM):
		_, _ = buf.Discard(len(utf8BOM))
	case !validUTF8Prefix(head):
		p.encoding = EncodingEUCKR
		src = transform.NewReader(buf, korean.EUCKR.NewDecoder())
	}

	p.reader = csv.NewReader(src)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = p.trimSpace
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// ParseBytes creates a parser over data
func ParseBytes(data []byte, opts ...ParserOption) (*Parser, error) {
	return NewParser(bytes.NewReader(data), opts...)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// validUTF8Prefix reports whether b is valid UTF-8, tolerating a rune cut off
// at the end of the sniffed window
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}

// Encoding returns the detected encoding
func (p *Parser) Encoding() Encoding { return p.encoding }

// ParseHeader reads the header row
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	p.headers = make([]string, len(record))
	for i, h := range record {
		h = p.clean(h)
		p.headers[i] = h
		if _, dup := p.headerMap[h]; !dup {
			p.headerMap[h] = i
		}
	}
	return nil
}

// Headers returns the header names in column order
func (p *Parser) Headers() []string { return p.headers }

// HasHeader reports whether a column named name exists
func (p *Parser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// MissingHeaders returns the names in required that the sheet lacks
func (p *Parser) MissingHeaders(required ...string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data record keyed by header. Line is the 1-based line in the
// sheet, header included, so it matches what the operator sees in Excel.
type Row struct {
	Line int
	Data map[string]string
}

// Get returns the cell under header
func (r *Row) Get(header string) string { return r.Data[header] }

// GetOrDefault returns the cell under header or def when it is blank
func (r *Row) GetOrDefault(header, def string) string {
	if v := r.Data[header]; v != "" {
		return v
	}
	return def
}

// IsEmpty reports whether every cell is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow returns the next record or io.EOF
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	line, _ := p.reader.FieldPos(0)
	row := &Row{Line: line, Data: make(map[string]string, len(p.headers))}
	for i, h := range p.headers {
		if i < len(record) {
			row.Data[h] = p.clean(record[i])
		} else {
			row.Data[h] = ""
		}
	}
	return row, nil
}

// ReadAll returns the remaining non-blank rows. It fails with ErrTooManyRows
// once more than maxRows rows were read; maxRows <= 0 means no limit.
func (p *Parser) ReadAll(maxRows int) ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
		if maxRows > 0 && len(rows) > maxRows {
			return rows, fmt.Errorf("%w: limit is %d", ErrTooManyRows, maxRows)
		}
	}
	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

func (p *Parser) clean(s string) string {
	if !p.trimSpace {
		return s
	}
	return strings.TrimSpace(s)
}
