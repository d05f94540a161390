// Package spreadsheet moves clients and orders in and out of XLSX, XLS, CSV
// and PDF files using app-side field names as column headers.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"

	maxImportRows = 20000
	sheetName     = "Sheet1"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported_format")
	ErrEmptySheet        = errors.New("empty_sheet")
	ErrTooManyRows       = errors.New("too_many_rows")
)

func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "."))); f {
	case FormatXLSX, FormatXLS, FormatCSV, FormatPDF:
		return f, nil
	case "":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, value)
	}
}

// FormatFromFilename picks the reader from the file extension.
func FormatFromFilename(name string) (Format, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	f, err := ParseFormat(ext)
	if err != nil || f == FormatPDF {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return f, nil
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatXLS:
		return "application/vnd.ms-excel"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// Table is a header row plus data rows of cell text.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ReadRows returns every row of the first worksheet, header included.
func ReadRows(data []byte, format Format) ([][]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatXLS:
		rows, err = readXLS(data)
	case FormatXLSX:
		rows, err = readXLSX(data)
	case FormatCSV:
		rows, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	rows = trimEmpty(rows)
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	if len(rows) > maxImportRows+1 {
		return nil, ErrTooManyRows
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if workbook.NumSheets() == 0 {
		return nil, ErrEmptySheet
	}
	return workbook.ReadAllCells(maxImportRows + 1), nil
}

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	name := file.GetSheetName(0)
	if name == "" {
		return nil, ErrEmptySheet
	}
	return file.GetRows(name)
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if firstLine, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		r.Comma = ';'
	}
	return r.ReadAll()
}

func trimEmpty(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, t Table) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	sw, err := file.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}
	if err := sw.SetPanes(&excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = excelize.Cell{StyleID: style, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = file.WriteTo(w)
	return err
}

// rowsFor renders records under headers, reading values by their JSON names.
func rowsFor[T any](headers []string, records []T) ([][]string, error) {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		var values map[string]any
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, err
		}
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = cellText(values[h])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
			return t.UTC().Format("2006-01-02 15:04:05")
		}
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}
