// Package usage loads the per-country internet usage time series.
package usage

import (
	"context"
	"errors"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/inetdash/internal/fetcher"
	"github.com/sells-group/inetdash/internal/model"
)

// Canonical column names.
const (
	ColumnEntity = "Entity"
	ColumnCode   = "Code"
	ColumnYear   = "Year"
	ColumnUsage  = "Usage"
)

// DefaultUsageColumn is the verbose header of the usage percentage in the
// Our World in Data export.
const DefaultUsageColumn = "Individuals using the Internet (% of population)"

// Options configures Load.
type Options struct {
	// UsageColumn is the source header renamed to the canonical usage field.
	// Defaults to DefaultUsageColumn.
	UsageColumn string
}

// columns maps canonical fields to their index in a CSV row.
type columns struct {
	entity, code, year, usage int
}

// Load parses the usage CSV. Rows are never dropped: empty or malformed
// numeric fields become nil Year/Usage values.
func Load(ctx context.Context, r io.Reader, opts Options) ([]model.UsageRecord, error) {
	if opts.UsageColumn == "" {
		opts.UsageColumn = DefaultUsageColumn
	}

	// Spreadsheet exports often prepend a UTF-8 BOM to the first header.
	r = transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := fetcher.OpenCSV(ctx, r, fetcher.CSVOptions{TrimSpace: true})
	if errors.Is(err, fetcher.ErrNoHeader) {
		return []model.UsageRecord{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "usage: read csv")
	}

	cols, err := resolveColumns(stream.Header, opts.UsageColumn)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("component", "usage"))
	records := make([]model.UsageRecord, 0, 1024)
	var malformed int
	for row := range stream.Rows {
		rec, ok := parseRow(row.Fields, cols)
		if !ok {
			malformed++
			log.Debug("usage: malformed numeric field", zap.Int("line", row.Line), zap.Strings("fields", row.Fields))
		}
		records = append(records, rec)
	}
	if err := stream.Err(); err != nil {
		return nil, eris.Wrap(err, "usage: read csv")
	}

	log.Debug("usage: parsed csv", zap.Int("records", len(records)), zap.Int("malformed", malformed))
	return records, nil
}

// resolveColumns locates the canonical columns in header. The usage column is
// the configured header, else a literal "Usage" header, else the only
// remaining column.
func resolveColumns(header []string, usageColumn string) (*columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	c := &columns{entity: -1, code: -1, year: -1, usage: -1}
	var missing []string
	for name, dst := range map[string]*int{
		ColumnEntity: &c.entity,
		ColumnCode:   &c.code,
		ColumnYear:   &c.year,
	} {
		i, ok := idx[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		*dst = i
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, eris.Errorf("usage: missing required columns %s", strings.Join(missing, ", "))
	}

	switch {
	case hasKey(idx, usageColumn):
		c.usage = idx[usageColumn]
	case hasKey(idx, ColumnUsage):
		c.usage = idx[ColumnUsage]
	case hasKey(idx, strings.ToLower(ColumnUsage)):
		c.usage = idx[strings.ToLower(ColumnUsage)]
	default:
		var rest []int
		for i := range header {
			if i != c.entity && i != c.code && i != c.year {
				rest = append(rest, i)
			}
		}
		if len(rest) != 1 {
			return nil, eris.Errorf("usage: cannot identify usage column %q in header", usageColumn)
		}
		c.usage = rest[0]
	}

	return c, nil
}

func hasKey(m map[string]int, k string) bool {
	_, ok := m[k]
	return ok
}

// parseRow converts one CSV row. ok is false when a non-empty year or usage
// field failed to parse; the record is still returned with that value nil.
func parseRow(row []string, c *columns) (rec model.UsageRecord, ok bool) {
	rec = model.UsageRecord{
		Entity: field(row, c.entity),
		Code:   field(row, c.code),
	}
	ok = true
	if s := field(row, c.year); s != "" {
		if y, err := strconv.Atoi(s); err == nil {
			rec.Year = &y
		} else {
			ok = false
		}
	}
	if s := field(row, c.usage); s != "" {
		if u, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(u) {
			rec.Usage = &u
		} else {
			ok = false
		}
	}
	rec.Date = model.DateForYear(rec.Year)
	return rec, ok
}

// field returns row[i], or "" when the row is too short.
func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
