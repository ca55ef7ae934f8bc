package lexicon

import (
	"bufio"
	"bytes"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/muesli/gitcha"

	_ "modernc.org/sqlite"
)

// Columns names the two fields a dataset must provide.
type Columns struct {
	Mora    string
	Pattern string
}

// DefaultColumns matches the published core mora dataset.
func DefaultColumns() Columns {
	return Columns{Mora: "Romaji", Pattern: "Rhythmic Pattern"}
}

// DefaultTable is the SQLite table read when none is configured.
const DefaultTable = "moras"

// datasetExtensions lists the file patterns Open understands.
var datasetExtensions = []string{"*.csv", "*.jsonl", "*.db", "*.sqlite", "*.sqlite3"}

// Open returns a dataset for path, chosen by file extension. A directory is
// searched for the first dataset file it contains.
func Open(path string, cols Columns) (Dataset, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, newDatasetError(path, "cannot expand path", err)
	}

	info, err := os.Stat(expanded)
	if err != nil {
		return nil, newDatasetError(expanded, "missing", err)
	}
	if info.IsDir() {
		found, err := findDataset(expanded)
		if err != nil {
			return nil, err
		}
		expanded = found
	}

	switch strings.ToLower(filepath.Ext(expanded)) {
	case ".csv":
		return &CSVDataset{Path: expanded, Columns: cols}, nil
	case ".jsonl":
		return &JSONLDataset{Path: expanded, Columns: cols}, nil
	case ".db", ".sqlite", ".sqlite3":
		return &SQLiteDataset{Path: expanded, Table: DefaultTable, Columns: cols}, nil
	default:
		return nil, newDatasetError(expanded, "unsupported dataset format", nil)
	}
}

// findDataset returns the lexically first dataset file below dir.
func findDataset(dir string) (string, error) {
	ch, err := gitcha.FindAllFilesExcept(dir, datasetExtensions, nil)
	if err != nil {
		return "", newDatasetError(dir, "cannot search directory", err)
	}

	var paths []string
	for res := range ch {
		paths = append(paths, res.Path)
	}
	if len(paths) == 0 {
		return "", newDatasetError(dir, "no dataset file found", nil)
	}
	sort.Strings(paths)
	return paths[0], nil
}

// CSVDataset reads rows from a CSV file with a header line.
type CSVDataset struct {
	Path    string
	Columns Columns
}

// Source implements Dataset.
func (d *CSVDataset) Source() string { return d.Path }

// Rows implements Dataset.
func (d *CSVDataset) Rows() ([]Row, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, newDatasetError(d.Path, "unreadable", err)
	}
	defer f.Close() //nolint:errcheck

	return readCSV(d.Path, f, d.Columns)
}

func readCSV(path string, r io.Reader, cols Columns) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, newDatasetError(path, "empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, newDatasetError(path, "malformed header", err)
	}

	moraIdx, patternIdx := -1, -1
	for i, name := range header {
		// Spreadsheet exports often prefix the first cell with a BOM.
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch name {
		case cols.Mora:
			moraIdx = i
		case cols.Pattern:
			patternIdx = i
		}
	}
	if moraIdx < 0 || patternIdx < 0 {
		return nil, newDatasetError(path,
			fmt.Sprintf("header must contain %q and %q", cols.Mora, cols.Pattern), ErrMissingColumn)
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, newDatasetError(path, "malformed record", err)
		}
		rows = append(rows, Row{
			Mora:    field(rec, moraIdx),
			Pattern: field(rec, patternIdx),
		})
	}
	return rows, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

// JSONLDataset reads one JSON object per line, keyed by the column names.
type JSONLDataset struct {
	Path    string
	Columns Columns
}

// Source implements Dataset.
func (d *JSONLDataset) Source() string { return d.Path }

// Rows implements Dataset.
func (d *JSONLDataset) Rows() ([]Row, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, newDatasetError(d.Path, "unreadable", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var (
		rows       []Row
		lineNum    int
		sawColumns bool
	)
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			return nil, newDatasetError(d.Path, fmt.Sprintf("line %d is not valid JSON", lineNum), err)
		}

		mora, okM := obj[d.Columns.Mora]
		pattern, okP := obj[d.Columns.Pattern]
		if okM && okP {
			sawColumns = true
		}
		rows = append(rows, Row{Mora: stringValue(mora), Pattern: stringValue(pattern)})
	}
	if err := scanner.Err(); err != nil {
		return nil, newDatasetError(d.Path, "unreadable", err)
	}
	if !sawColumns {
		return nil, newDatasetError(d.Path,
			fmt.Sprintf("no record contains %q and %q", d.Columns.Mora, d.Columns.Pattern), ErrMissingColumn)
	}
	return rows, nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// SQLiteDataset reads rows from a table in an SQLite database.
type SQLiteDataset struct {
	Path    string
	Table   string
	Columns Columns
}

// Source implements Dataset.
func (d *SQLiteDataset) Source() string { return d.Path + "#" + d.Table }

// Rows implements Dataset.
func (d *SQLiteDataset) Rows() ([]Row, error) {
	if _, err := os.Stat(d.Path); err != nil {
		return nil, newDatasetError(d.Path, "missing", err)
	}

	db, err := sql.Open("sqlite", d.Path)
	if err != nil {
		return nil, newDatasetError(d.Path, "cannot open database", err)
	}
	defer db.Close() //nolint:errcheck

	if err := d.checkColumns(db); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s, %s FROM %s",
		quoteIdent(d.Columns.Mora), quoteIdent(d.Columns.Pattern), quoteIdent(d.Table))
	res, err := db.Query(query)
	if err != nil {
		return nil, newDatasetError(d.Path, "query failed", err)
	}
	defer res.Close() //nolint:errcheck

	var rows []Row
	for res.Next() {
		var mora, pattern sql.NullString
		if err := res.Scan(&mora, &pattern); err != nil {
			return nil, newDatasetError(d.Path, "scanning row", err)
		}
		rows = append(rows, Row{Mora: mora.String, Pattern: pattern.String})
	}
	if err := res.Err(); err != nil {
		return nil, newDatasetError(d.Path, "reading rows", err)
	}
	return rows, nil
}

func (d *SQLiteDataset) checkColumns(db *sql.DB) error {
	res, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(d.Table)))
	if err != nil {
		return newDatasetError(d.Path, "cannot inspect table", err)
	}
	defer res.Close() //nolint:errcheck

	found := map[string]bool{}
	for res.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := res.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return newDatasetError(d.Path, "cannot inspect table", err)
		}
		found[name] = true
	}
	if err := res.Err(); err != nil {
		return newDatasetError(d.Path, "cannot inspect table", err)
	}

	if !found[d.Columns.Mora] || !found[d.Columns.Pattern] {
		return newDatasetError(d.Path,
			fmt.Sprintf("table %q must contain %q and %q", d.Table, d.Columns.Mora, d.Columns.Pattern), ErrMissingColumn)
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
