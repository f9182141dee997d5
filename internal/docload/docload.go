// Package docload reads diligence source material from disk into plain-text
// documents: text and markdown files as-is, spreadsheets flattened row by
// row. Non-UTF-8 text is decoded as Windows-1252, the usual encoding of
// exported data-room files.
package docload

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/sells-group/diligence-cli/internal/model"
)

// textExtensions are loaded verbatim.
var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".csv": true,
}

// LoadDir loads every supported file directly under dir, sorted by name.
// Unsupported extensions are skipped with a log line, not an error.
func LoadDir(dir string) ([]model.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "docload: read dir %s", dir)
	}

	var docs []model.Document
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		doc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			zap.L().Debug("docload: skipping unsupported file", zap.String("path", path))
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// LoadFile loads one file. Returns nil for unsupported extensions.
func LoadFile(path string) (*model.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	name := filepath.Base(path)

	switch {
	case textExtensions[ext]:
		text, err := readText(path)
		if err != nil {
			return nil, err
		}
		return &model.Document{Name: name, Text: text}, nil
	case ext == ".xlsx":
		text, err := readXLSX(path)
		if err != nil {
			return nil, err
		}
		return &model.Document{Name: name, Text: text}, nil
	default:
		return nil, nil
	}
}

// readText reads a file and transcodes it from Windows-1252 when it is not
// valid UTF-8.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "docload: read %s", path)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", eris.Wrapf(err, "docload: decode %s", path)
	}
	zap.L().Debug("docload: transcoded non-UTF-8 file", zap.String("path", path))
	return string(decoded), nil
}

// readXLSX flattens every sheet into tab-separated lines, one per row, with
// sheet headers so extraction regexes see cell values in context.
func readXLSX(path string) (string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "docload: open xlsx %s", path)
	}

	var b strings.Builder
	for _, sheet := range f.Sheets {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("--- " + sheet.Name + " ---\n")
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			line := strings.TrimRight(strings.Join(cells, "\t"), "\t ")
			if line == "" {
				continue
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String(), nil
}
