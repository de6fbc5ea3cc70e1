// Package seed loads customer records from exported files into the cache.
package seed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/unclebandit/customer-sync/internal/model"
)

// ReadFile parses a seed file by extension: .xlsx workbooks, otherwise JSON.
func ReadFile(name string, r io.Reader) ([]any, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return ReadXLSX(r)
	}
	return ReadJSON(r)
}

// ReadJSON accepts a bare array of customers or a saved API page response.
func ReadJSON(r io.Reader) ([]any, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		var raws []any
		if err := dec.Decode(&raws); err != nil {
			return nil, fmt.Errorf("decode customer array: %w", err)
		}
		return raws, nil
	}

	var page model.PageResponse
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("decode page response: %w", err)
	}
	if page.Data == nil {
		return nil, fmt.Errorf("page response has no data")
	}
	return page.Data.Customers, nil
}

// ReadXLSX reads the first sheet; row 1 holds the column names.
func ReadXLSX(r io.Reader) ([]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = columnKey(h)
	}

	raws := make([]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		raw := model.RawCustomer{}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" || cell == "" {
				continue
			}
			raw[header[i]] = cell
		}
		if len(raw) > 0 {
			raws = append(raws, raw)
		}
	}
	return raws, nil
}

// columnKey maps export headers ("CG ID") and API names ("cgId") to API names.
func columnKey(h string) string {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(h), " ", "")) {
	case "id":
		return "id"
	case "cgid", "cg_id":
		return "cgId"
	case "name":
		return "name"
	case "email":
		return "email"
	case "mobile":
		return "mobile"
	}
	return ""
}
