// Package export writes the rows of a view as CSV or XLSX downloads.
package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/inetdash/internal/model"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// SheetName is the worksheet name used for XLSX exports.
const SheetName = "Internet Usage"

const dateLayout = "2006-01-02"

// ParseFormat parses a case-insensitive format name. An empty name means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("export: unsupported format %q (want csv or xlsx)", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns the download file name for a selection.
func (f Format) Filename(selection string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, selection)
	if name == "" {
		name = "All"
	}
	return "internet-usage-" + name + "." + string(f)
}

// Write writes rows to w in format f.
func Write(w io.Writer, f Format, rows []model.JoinedRecord) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	default:
		return eris.Errorf("export: unsupported format %q", string(f))
	}
}

// Row is the flat export shape of one joined record.
type Row struct {
	Entity string   `csv:"entity"`
	Code   string   `csv:"code"`
	Year   *int     `csv:"year"`
	Usage  *float64 `csv:"usage"`
	Date   string   `csv:"date"`
	Lat    *float64 `csv:"lat"`
	Lon    *float64 `csv:"lon"`
}

// Header lists the export columns in order.
var Header = []string{"entity", "code", "year", "usage", "date", "lat", "lon"}

// RowOf flattens a joined record.
func RowOf(r model.JoinedRecord) Row {
	row := Row{
		Entity: r.Entity,
		Code:   r.Code,
		Year:   r.Year,
		Usage:  r.Usage,
		Lat:    r.Lat,
		Lon:    r.Lon,
	}
	if r.Date != nil {
		row.Date = r.Date.Format(dateLayout)
	}
	return row
}

// WriteCSV writes rows as CSV with a header line. Missing values are empty fields.
func WriteCSV(w io.Writer, rows []model.JoinedRecord) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(rows) == 0 {
		if err := enc.EncodeHeader(Row{}); err != nil {
			return eris.Wrap(err, "export: encode csv header")
		}
	}
	for _, r := range rows {
		if err := enc.Encode(RowOf(r)); err != nil {
			return eris.Wrap(err, "export: encode csv row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

// WriteXLSX writes rows as a single-sheet workbook. Numeric columns are
// numeric cells and missing values are left blank.
func WriteXLSX(w io.Writer, rows []model.JoinedRecord) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := RowOf(r)
		xr := sheet.AddRow()
		xr.AddCell().SetString(row.Entity)
		xr.AddCell().SetString(row.Code)
		if row.Year != nil {
			xr.AddCell().SetInt(*row.Year)
		} else {
			xr.AddCell()
		}
		addFloat(xr, row.Usage)
		xr.AddCell().SetString(row.Date)
		addFloat(xr, row.Lat)
		addFloat(xr, row.Lon)
	}

	if err := file.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

func addFloat(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}
