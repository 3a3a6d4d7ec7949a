package excel

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"facility-export/internal/models"

	"github.com/xuri/excelize/v2"
)

var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrEmptySheet    = errors.New("sheet has no header row")
)

// nullMarkers are cell texts that load as missing values.
var nullMarkers = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// Table is a sheet read into memory, keyed by its header row.
type Table struct {
	Header []string
	Rows   [][]models.Value
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// ParseCoord reads a coordinate written as text.
func ParseCoord(val string) (float64, error) {
	// Replace comma with dot for locales that use a decimal comma
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, fmt.Errorf("empty")
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", val)
	}
	return f, nil
}

func OpenFile(filename string) (*excelize.File, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", filename, err)
	}
	return f, nil
}

// ReadTable loads sheetName from f. The first non-empty row is the header;
// every following row is padded with nulls to the header width.
func ReadTable(f *excelize.File, sheetName string) (*Table, error) {
	idx, err := f.GetSheetIndex(sheetName)
	if err != nil {
		return nil, fmt.Errorf("looking up sheet %q: %w", sheetName, err)
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetName)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheetName, err)
	}

	headerAt := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt == -1 {
		return nil, fmt.Errorf("%w: %q", ErrEmptySheet, sheetName)
	}

	t := &Table{Header: rows[headerAt]}
	for i := headerAt + 1; i < len(rows); i++ {
		row := rows[i]
		values := make([]models.Value, len(t.Header))
		for col := 0; col < len(row) && col < len(values); col++ {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+1)
			v, err := cellValue(f, sheetName, cell, row[col])
			if err != nil {
				return nil, err
			}
			values[col] = v
		}
		t.Rows = append(t.Rows, values)
	}
	return t, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

// cellValue types a raw cell string using the cell type stored in the sheet.
func cellValue(f *excelize.File, sheet, cell, raw string) (models.Value, error) {
	if _, ok := nullMarkers[raw]; ok {
		return models.Null(), nil
	}

	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return models.Null(), fmt.Errorf("cell %s: %w", cell, err)
	}

	switch typ {
	case excelize.CellTypeBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return models.Bool(b), nil
		}
	case excelize.CellTypeNumber, excelize.CellTypeDate, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return models.Null(), nil
			}
			return models.Number(n), nil
		}
	}
	return models.Text(raw), nil
}

// WriteFacilities saves data as a single-sheet workbook at path.
func WriteFacilities(path string, data []models.Facility, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	// Use Stream Writer for performance
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	headers := make([]interface{}, len(models.Columns))
	for i, c := range models.Columns {
		headers[i] = c
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}

	for i, r := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := r.Values()
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v.Raw()
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)
	// Delete default sheet if exists
	if sheetName != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}
