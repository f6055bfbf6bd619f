// Package fetcher opens data sources (local files, HTTP, FTP) and streams CSV rows.
package fetcher

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNoHeader is returned by OpenCSV when the input holds no records at all.
var ErrNoHeader = errors.New("csv: no header row")

// CSVOptions configures OpenCSV.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // 0 = none
	LazyQuotes bool
	TrimSpace  bool
	// Buffer is the row channel capacity. Default 64.
	Buffer int
}

// CSVRow is one data row and the 1-based source line it started on.
type CSVRow struct {
	Line   int
	Fields []string
}

// CSVStream is a parsed header plus the data rows that follow it.
type CSVStream struct {
	Header []string
	Rows   <-chan CSVRow

	errCh <-chan error
}

// Err returns the error that ended the stream, if any. It blocks until the
// reader goroutine exits, so call it after Rows is drained or ctx is cancelled.
func (s *CSVStream) Err() error {
	return <-s.errCh
}

// OpenCSV reads the header row synchronously and streams the remaining rows
// from a goroutine. Rows may have any number of fields. Cancelling ctx stops
// the goroutine even when nobody drains Rows.
func OpenCSV(ctx context.Context, r io.Reader, opts CSVOptions) (*CSVStream, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.Comment = opts.Comment
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	if opts.TrimSpace {
		trimFields(header)
	}

	buf := opts.Buffer
	if buf <= 0 {
		buf = 64
	}
	rowCh := make(chan CSVRow, buf)
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		defer close(rowCh)

		for {
			if err := ctx.Err(); err != nil {
				errCh <- eris.Wrap(err, "csv: context cancelled")
				return
			}

			fields, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			if opts.TrimSpace {
				trimFields(fields)
			}
			line, _ := reader.FieldPos(0)

			select {
			case rowCh <- CSVRow{Line: line, Fields: fields}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return &CSVStream{Header: header, Rows: rowCh, errCh: errCh}, nil
}

func trimFields(fields []string) {
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
}
