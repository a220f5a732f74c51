package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/holdings/internal/contracts"
	"github.com/wonny/holdings/internal/schema"
)

// templateRows returns every declared header and one example row
func templateRows(kind contracts.Kind) ([]string, []string, error) {
	s, err := schema.For(kind)
	if err != nil {
		return nil, nil, err
	}
	headers := s.Headers()
	example := make([]string, len(headers))
	for i, h := range headers {
		example[i] = s.Example[h]
	}
	return headers, example, nil
}

// Template renders the example file of kind in format
func Template(kind contracts.Kind, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return TemplateCSV(kind)
	case FormatJSON:
		return TemplateJSON(kind)
	case FormatXLSX:
		return TemplateXLSX(kind)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// TemplateCSV returns a header row plus one example row
func TemplateCSV(kind contracts.Kind) ([]byte, error) {
	headers, example, err := templateRows(kind)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll([][]string{headers, example}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TemplateJSON returns a one-element array keeping header order
func TemplateJSON(kind contracts.Kind) ([]byte, error) {
	headers, example, err := templateRows(kind)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("[\n  {")
	for i, h := range headers {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(h)
		v, _ := json.Marshal(example[i])
		fmt.Fprintf(&buf, "\n    %s: %s", k, v)
	}
	buf.WriteString("\n  }\n]\n")
	return buf.Bytes(), nil
}

// TemplateXLSX returns a workbook whose first sheet holds the header and example row
func TemplateXLSX(kind contracts.Kind) ([]byte, error) {
	headers, example, err := templateRows(kind)
	if err != nil {
		return nil, err
	}
	return WriteXLSX(kind.Collection(), headers, [][]string{example})
}

// WriteXLSX builds a single-sheet workbook
func WriteXLSX(sheet string, headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	if err := setRow(f, sheet, 1, headers); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, n int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return f.SetSheetRow(sheet, cell, &values)
}
