package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/holdings/internal/contracts"
)

// Format is a bulk file encoding
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported formats
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatXLSX}
}

// ParseFormat accepts a format name with or without a leading dot
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	switch f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// DetectFormat picks the format from a file name's extension
func DetectFormat(name string) (Format, error) {
	return ParseFormat(filepath.Ext(name))
}

// Table is a decoded file: a header plus raw data rows
type Table struct {
	Headers []string
	Rows    []TableRow
}

// TableRow is one data row with its 1-based line in the source (header = 1)
type TableRow struct {
	Line  int
	Cells []string
}

// Decode splits data into a Table. A file without a header row yields
// contracts.ErrEmptyFile; undecodable files wrap contracts.ErrUnparsable.
func Decode(format Format, data []byte) (*Table, error) {
	switch format {
	case FormatCSV:
		return decodeCSV(data)
	case FormatJSON:
		return decodeJSON(data)
	case FormatXLSX:
		return decodeXLSX(data)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func decodeCSV(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // 열 개수 불일치는 행 단위 에러로 처리
	r.TrimLeadingSpace = true

	t := &Table{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contracts.ErrUnparsable, err)
		}
		line, _ := r.FieldPos(0)
		if t.Headers == nil {
			t.Headers = rec
			continue
		}
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, TableRow{Line: line, Cells: rec})
	}

	if len(t.Headers) == 0 {
		return nil, contracts.ErrEmptyFile
	}
	return t, nil
}

// decodeJSON reads an array of flat objects. Headers are the keys of the
// first object in document order; later objects fill missing keys with "".
func decodeJSON(data []byte) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, contracts.ErrEmptyFile
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrUnparsable, err)
	}
	if len(raws) == 0 {
		return nil, contracts.ErrEmptyFile
	}

	t := &Table{}
	for i, raw := range raws {
		keys, values, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", contracts.ErrUnparsable, i, err)
		}
		if i == 0 {
			t.Headers = keys
		}
		cells := make([]string, len(t.Headers))
		for j, h := range t.Headers {
			cells[j] = values[h]
		}
		t.Rows = append(t.Rows, TableRow{Line: i + 2, Cells: cells})
	}
	return t, nil
}

// decodeObject returns an object's keys in order and its values as text
func decodeObject(raw json.RawMessage) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected an object")
	}

	var keys []string
	values := map[string]string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key := tok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, dup := values[key]; !dup {
			keys = append(keys, key)
		}
		values[key] = cellText(v)
	}
	return keys, values, nil
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	// 중첩 값은 원문 JSON으로 남겨 행 단위에서 거부되게 함
	b, _ := json.Marshal(v)
	return string(b)
}

// decodeXLSX reads the first sheet. Trailing empty cells are dropped by
// excelize, so short rows are padded to the header width.
func decodeXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrUnparsable, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrUnparsable, err)
	}

	t := &Table{}
	for i, rec := range rows {
		if t.Headers == nil {
			if blank(rec) {
				continue
			}
			t.Headers = rec
			continue
		}
		if blank(rec) {
			continue
		}
		if len(rec) < len(t.Headers) {
			padded := make([]string, len(t.Headers))
			copy(padded, rec)
			rec = padded
		}
		t.Rows = append(t.Rows, TableRow{Line: i + 1, Cells: rec})
	}

	if len(t.Headers) == 0 {
		return nil, contracts.ErrEmptyFile
	}
	return t, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
