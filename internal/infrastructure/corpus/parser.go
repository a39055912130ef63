package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

// Parser reads FAQ sheets. CSV and XLSX carry the same logical table: a
// header row naming at least question and answer columns, then one FAQ entry
// per row. Unknown columns survive in the row's extra fields.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(ctx context.Context, filename string, r io.Reader) ([]domain.FAQRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(ctx, r)
	case ".xlsx":
		return parseXLSX(ctx, r)
	default:
		return nil, fmt.Errorf("unsupported corpus format: %s", filename)
	}
}

func parseCSV(ctx context.Context, r io.Reader) ([]domain.FAQRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []domain.FAQRow
	for rowNum := 1; ; rowNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", rowNum, err)
		}
		if row, ok := cols.toFAQRow(rowNum, record); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func parseXLSX(ctx context.Context, r io.Reader) ([]domain.FAQRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("xlsx sheet %s is empty", sheets[0])
	}

	cols, err := mapColumns(records[0])
	if err != nil {
		return nil, err
	}

	var rows []domain.FAQRow
	for i, record := range records[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if row, ok := cols.toFAQRow(i+1, record); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// columnMap resolves header names to column positions. Matching is
// case-insensitive on trimmed names.
type columnMap struct {
	question int
	answer   int
	category int
	extras   map[string]int
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{question: -1, answer: -1, category: -1, extras: map[string]int{}}
	for i, name := range header {
		switch normalized := strings.ToLower(strings.TrimSpace(name)); normalized {
		case "question", "questions":
			cols.question = i
		case "answer", "answers":
			cols.answer = i
		case "category", "categories":
			cols.category = i
		case "":
		default:
			cols.extras[normalized] = i
		}
	}
	if cols.question < 0 || cols.answer < 0 {
		return columnMap{}, fmt.Errorf("corpus header must name question and answer columns, got %v", header)
	}
	return cols, nil
}

// toFAQRow builds one row, reporting ok=false for incomplete entries so the
// caller can skip them without failing the whole upload.
func (c columnMap) toFAQRow(rowNum int, record []string) (domain.FAQRow, bool) {
	question := strings.TrimSpace(cell(record, c.question))
	answer := strings.TrimSpace(cell(record, c.answer))
	if question == "" || answer == "" {
		return domain.FAQRow{}, false
	}

	row := domain.FAQRow{
		Row:      rowNum,
		Category: strings.TrimSpace(cell(record, c.category)),
		Question: question,
		Answer:   answer,
	}
	for name, idx := range c.extras {
		if v := strings.TrimSpace(cell(record, idx)); v != "" {
			if row.Extra == nil {
				row.Extra = make(map[string]string)
			}
			row.Extra[name] = v
		}
	}
	return row, true
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
