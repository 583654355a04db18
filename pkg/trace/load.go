package trace

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// ErrOptions is returned for an unusable delimiter or column.
var ErrOptions = errors.New("invalid trace options")

// Options controls how records are turned into keys.
type Options struct {
	// Delimiter separates fields within a record. Default is a single space.
	Delimiter rune
	// Column is the 0-based field holding the key. Default is 1.
	Column int
	// MaxRecords caps the trace length. 0 means no cap.
	MaxRecords int
	// SkipHeader discards the first record.
	SkipHeader bool
}

// DefaultOptions matches the layout of the photo-cache traces the harness was first run on.
func DefaultOptions() Options {
	return Options{
		Delimiter:  ' ',
		Column:     1,
		MaxRecords: 5_000_000,
	}
}

func (o Options) validate() error {
	d := o.Delimiter
	if d == 0 || d == '"' || d == '\r' || d == '\n' || !utf8.ValidRune(d) || d == utf8.RuneError {
		return fmt.Errorf("%w: delimiter %q", ErrOptions, d)
	}
	if o.Column < 0 {
		return fmt.Errorf("%w: column %d", ErrOptions, o.Column)
	}
	if o.MaxRecords < 0 {
		return fmt.Errorf("%w: max records %d", ErrOptions, o.MaxRecords)
	}
	return nil
}

// Load reads the trace at path. Compressed files are decoded based on their extension.
// Errors wrap ErrIO when the file cannot be read and ErrParse when a record is malformed.
func Load(path string, opts Options) (*Trace, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	src, err := decompress(path, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}
	defer src.Close() //nolint:errcheck // read-only

	t, err := Read(src, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read parses records from r until EOF or opts.MaxRecords keys have been collected.
func Read(r io.Reader, opts Options) (*Trace, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	cr := csv.NewReader(bufio.NewReaderSize(r, 1<<20))
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	var keys []string
	if opts.MaxRecords > 0 {
		keys = make([]string, 0, min(opts.MaxRecords, 1<<20))
	}
	skip := opts.SkipHeader
	for opts.MaxRecords == 0 || len(keys) < opts.MaxRecords {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, fmt.Errorf("%w: %w", ErrParse, err)
			}
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		if skip {
			skip = false
			continue
		}
		if opts.Column >= len(rec) {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{Line: line, Column: opts.Column, Fields: len(rec)}
		}
		// Clone so the key does not pin the whole record line in memory.
		keys = append(keys, strings.Clone(rec[opts.Column]))
	}
	return &Trace{keys: keys}, nil
}
