// Package tsv provides header-aware reading of tab-separated reference tables.
package tsv

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseError reports a malformed line in a tab-separated file.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("tsv parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("%s: tsv parse error at line %d: %s", e.Path, e.Line, e.Message)
}

// Row is one data line, addressable by column name.
type Row struct {
	Line   int
	fields []string
	index  map[string]int
}

// Get returns the value of the named column, or "" if the column is absent
// or the row is short.
func (r Row) Get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// Fields returns the raw field values in header order.
func (r Row) Fields() []string {
	return r.fields
}

// Reader reads a header line followed by tab-separated rows.
// Lines starting with "#" before the header are skipped.
type Reader struct {
	path       string
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	header     []string
	index      map[string]int
}

// Open opens a TSV file, transparently decompressing gzip input.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tsv file: %w", err)
	}

	r := &Reader{path: path, file: file}

	// Check for gzip magic number (0x1f, 0x8b)
	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.reader = bufio.NewReader(r.gzipReader)
	} else {
		r.reader = br
	}

	if err := r.parseHeader(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// NewReader creates a Reader from an io.Reader (e.g. test fixtures).
func NewReader(rd io.Reader) (*Reader, error) {
	r := &Reader{reader: bufio.NewReader(rd)}
	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) parseHeader() error {
	for {
		line, err := r.readLine()
		if err == io.EOF {
			return &ParseError{Path: r.path, Line: r.lineNumber, Message: "no header line found"}
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r.header = strings.Split(line, "\t")
		r.index = make(map[string]int, len(r.header))
		for i, col := range r.header {
			col = strings.Trim(strings.TrimSpace(col), `"`)
			r.header[i] = col
			if _, dup := r.index[col]; !dup {
				r.index[col] = i
			}
		}
		return nil
	}
}

// readLine returns the next line without its terminator.
func (r *Reader) readLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	r.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// Header returns the column names in file order.
func (r *Reader) Header() []string {
	return r.header
}

// Has reports whether the header contains the named column.
func (r *Reader) Has(col string) bool {
	_, ok := r.index[col]
	return ok
}

// Rename renames header columns in place. Columns not present are ignored.
// A rename onto an already existing name leaves the existing column in place.
func (r *Reader) Rename(mapping map[string]string) {
	for i, col := range r.header {
		to, ok := mapping[col]
		if !ok {
			continue
		}
		if _, taken := r.index[to]; taken {
			continue
		}
		delete(r.index, col)
		r.index[to] = i
		r.header[i] = to
	}
}

// Require returns a ParseError naming the first missing column.
func (r *Reader) Require(cols ...string) error {
	for _, c := range cols {
		if !r.Has(c) {
			return &ParseError{Path: r.path, Line: 1, Message: fmt.Sprintf("missing %q column", c)}
		}
	}
	return nil
}

// Next returns the next non-empty row. It returns io.EOF when the input is exhausted.
func (r *Reader) Next() (Row, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			if err == io.EOF {
				return Row{}, io.EOF
			}
			return Row{}, fmt.Errorf("read line %d: %w", r.lineNumber+1, err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		return Row{Line: r.lineNumber, fields: strings.Split(line, "\t"), index: r.index}, nil
	}
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// IsMissing reports whether a cell holds no value. Exports produced by
// dataframe tooling write "nan" for missing cells.
func IsMissing(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "nan") || v == "NA"
}
