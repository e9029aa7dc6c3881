package localmatch

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

// Dataset column names, matched case-insensitively against the header row.
const (
	ColumnAuthor = "autor"
	ColumnTitle  = "titulo"
	ColumnKind   = "tipo"
	ColumnExtra  = "extra"
	ColumnYear   = "ano"
	ColumnRef    = "ref"
)

// RequiredColumns lists the columns every dataset must provide.
var RequiredColumns = []string{ColumnAuthor, ColumnTitle, ColumnKind, ColumnExtra, ColumnYear, ColumnRef}

// Row is one curated reference of the local dataset.
type Row struct {
	Author string
	Title  string
	Kind   string
	Extra  string
	Year   string
	Ref    string
}

// Dataset is the in-memory curated reference table.
type Dataset struct {
	Source string
	Rows   []Row
}

// LoadWorkbook reads the active sheet of an xlsx workbook. The first row is the
// header. A missing required column is reported as *domain.MissingColumnsError.
func LoadWorkbook(path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook %s: %v", domain.ErrConfiguration, path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		if sheets := f.GetSheetList(); len(sheets) > 0 {
			sheet = sheets[0]
		}
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", domain.ErrConfiguration, sheet, err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: workbook %s has no header row", domain.ErrConfiguration, path)
	}

	ds, err := FromRecords(records[0], records[1:])
	if err != nil {
		return nil, err
	}
	ds.Source = path
	return ds, nil
}

// FromRecords builds a dataset from a header and its data rows. Short rows are
// padded and fully blank rows are skipped.
func FromRecords(header []string, records [][]string) (*Dataset, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewMissingColumnsError(missing, RequiredColumns)
	}

	cell := func(rec []string, col string) string {
		i := index[col]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	ds := &Dataset{Rows: make([]Row, 0, len(records))}
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		ds.Rows = append(ds.Rows, Row{
			Author: cell(rec, ColumnAuthor),
			Title:  cell(rec, ColumnTitle),
			Kind:   cell(rec, ColumnKind),
			Extra:  cell(rec, ColumnExtra),
			Year:   cell(rec, ColumnYear),
			Ref:    cell(rec, ColumnRef),
		})
	}
	return ds, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
