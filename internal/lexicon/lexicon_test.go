package lexicon

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// countingDataset counts how often its rows are read.
type countingDataset struct {
	rows  []Row
	reads int
}

func (d *countingDataset) Rows() ([]Row, error) {
	d.reads++
	return d.rows, nil
}

func (d *countingDataset) Source() string { return "counting" }

func TestBuildReadsDatasetOnce(t *testing.T) {
	ds := &countingDataset{rows: []Row{
		{Mora: "ka", Pattern: "s-S"},
		{Mora: "ki", Pattern: "s-s"},
		{Mora: "bi", Pattern: "m-ŝ"},
	}}

	lx, err := Build(ds)
	if err != nil {
		t.Fatal(err)
	}
	if ds.reads != 1 {
		t.Fatalf("reads after Build = %d, want 1", ds.reads)
	}

	for range 100 {
		for _, m := range []string{"ka", "ki", "bi", "zz"} {
			lx.Lookup(m)
			lx.Suggest(m, 2)
		}
		lx.Moras()
		lx.Len()
	}
	if ds.reads != 1 {
		t.Errorf("reads after lookups = %d, want 1", ds.reads)
	}
	if p, ok := lx.Lookup("ka"); !ok || p != "s-S" {
		t.Errorf("Lookup(ka) = %q, %v", p, ok)
	}
}

func TestBuildFromCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "moras.csv",
		"Romaji,Kana,Rhythmic Pattern\n"+
			"Ka,カ,s-S\n"+
			" BI ,ビ,  m-ŝ  \n"+
			",ア,s\n"+
			"no,ノ,\n")

	ds, err := Open(path, DefaultColumns())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	lx, err := Build(ds)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if got, ok := lx.Lookup("ka"); !ok || got != "s-S" {
		t.Errorf("Lookup(ka) = %q, %v; want s-S, true", got, ok)
	}
	if got, ok := lx.Lookup("bi"); !ok || got != "m-ŝ" {
		t.Errorf("Lookup(bi) = %q, %v; want m-ŝ, true", got, ok)
	}
	if _, ok := lx.Lookup("no"); ok {
		t.Error("row with empty pattern should be skipped")
	}
	if _, ok := lx.Lookup("Ka"); ok {
		t.Error("lookup must be on the normalized key")
	}
	if lx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", lx.Len())
	}
	if skipped, _ := lx.Stats(); skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if lx.Source() != path {
		t.Errorf("Source() = %q, want %q", lx.Source(), path)
	}
}

func TestBuildDuplicateLastWins(t *testing.T) {
	lx := FromRows([]Row{
		{Mora: "ka", Pattern: "s"},
		{Mora: "KA", Pattern: "S-S"},
		{Mora: "ka ", Pattern: "S-S"},
	})

	if got, _ := lx.Lookup("ka"); got != "S-S" {
		t.Errorf("Lookup(ka) = %q, want S-S", got)
	}
	if _, replaced := lx.Stats(); replaced != 1 {
		t.Errorf("replaced = %d, want 1", replaced)
	}
}

func TestLookupMissIsNotAnError(t *testing.T) {
	lx := FromRows([]Row{{Mora: "ka", Pattern: "s-S"}})
	if p, ok := lx.Lookup("zz"); ok || p != "" {
		t.Errorf("Lookup(zz) = %q, %v; want empty, false", p, ok)
	}
}

func TestCSVWithBOMHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bom.csv", "\ufeffRomaji,Rhythmic Pattern\nka,s-S\n")

	lx, err := Build(&CSVDataset{Path: path, Columns: DefaultColumns()})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, ok := lx.Lookup("ka"); !ok {
		t.Error("expected ka after BOM header")
	}
}

func TestDatasetErrors(t *testing.T) {
	dir := t.TempDir()
	noColumn := writeFile(t, dir, "bad.csv", "Romaji,Pattern\nka,s\n")
	empty := writeFile(t, dir, "empty.csv", "")
	badJSON := writeFile(t, dir, "bad.jsonl", "{\"Romaji\": \"ka\"\n")
	noJSONColumns := writeFile(t, dir, "cols.jsonl", "{\"romaji\": \"ka\", \"pattern\": \"s\"}\n")

	tests := []struct {
		name          string
		ds            Dataset
		missingColumn bool
	}{
		{"missing file", &CSVDataset{Path: filepath.Join(dir, "nope.csv"), Columns: DefaultColumns()}, false},
		{"missing column", &CSVDataset{Path: noColumn, Columns: DefaultColumns()}, true},
		{"empty file", &CSVDataset{Path: empty, Columns: DefaultColumns()}, true},
		{"malformed json", &JSONLDataset{Path: badJSON, Columns: DefaultColumns()}, false},
		{"json without columns", &JSONLDataset{Path: noJSONColumns, Columns: DefaultColumns()}, true},
		{"missing sqlite file", &SQLiteDataset{Path: filepath.Join(dir, "nope.db"), Table: DefaultTable, Columns: DefaultColumns()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.ds)
			if err == nil {
				t.Fatal("expected error")
			}
			var de *DatasetError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DatasetError, got %T: %v", err, err)
			}
			if got := errors.Is(err, ErrMissingColumn); got != tt.missingColumn {
				t.Errorf("errors.Is(ErrMissingColumn) = %v, want %v", got, tt.missingColumn)
			}
		})
	}
}

func TestOpenUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "moras.txt", "ka s")

	_, err := Open(path, DefaultColumns())
	var de *DatasetError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DatasetError, got %v", err)
	}
}

func TestJSONLDataset(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "moras.jsonl",
		"{\"Romaji\": \"Ka\", \"Rhythmic Pattern\": \"s-S\"}\n"+
			"\n"+
			"{\"Romaji\": \"bi\", \"Rhythmic Pattern\": 3}\n")

	ds, err := Open(path, DefaultColumns())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	lx, err := Build(ds)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got, _ := lx.Lookup("ka"); got != "s-S" {
		t.Errorf("Lookup(ka) = %q", got)
	}
	if _, ok := lx.Lookup("bi"); ok {
		t.Error("non-string pattern should be skipped")
	}
}

func TestSQLiteDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "moras.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	stmts := []string{
		`CREATE TABLE moras ("Romaji" TEXT, "Rhythmic Pattern" TEXT)`,
		`INSERT INTO moras VALUES ('Ka', 's-S'), ('mi', NULL), ('ŝa', 'ŝ-m')`,
		`CREATE TABLE other (x TEXT)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	db.Close()

	ds, err := Open(path, DefaultColumns())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	lx, err := Build(ds)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got, _ := lx.Lookup("ka"); got != "s-S" {
		t.Errorf("Lookup(ka) = %q", got)
	}
	if got, _ := lx.Lookup("ŝa"); got != "ŝ-m" {
		t.Errorf("Lookup(ŝa) = %q", got)
	}
	if lx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", lx.Len())
	}

	_, err = Build(&SQLiteDataset{Path: path, Table: "other", Columns: DefaultColumns()})
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn for table without columns, got %v", err)
	}
}

func TestOpenDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "ignored")
	sub := filepath.Join(dir, "data")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	want := writeFile(t, sub, "core.csv", "Romaji,Rhythmic Pattern\nka,s\n")

	ds, err := Open(dir, DefaultColumns())
	if err != nil {
		t.Fatalf("Open(dir) failed: %v", err)
	}
	if filepath.Base(ds.Source()) != filepath.Base(want) {
		t.Errorf("Source() = %q, want %q", ds.Source(), want)
	}

	empty := t.TempDir()
	if _, err := Open(empty, DefaultColumns()); err == nil {
		t.Error("expected error for directory without datasets")
	}
}

func TestSuggest(t *testing.T) {
	lx := FromRows([]Row{
		{Mora: "ka", Pattern: "s"},
		{Mora: "ki", Pattern: "s"},
		{Mora: "sa", Pattern: "m"},
		{Mora: "zu", Pattern: "S"},
	})

	got := lx.Suggest("ka", 3)
	for _, s := range got {
		if s == "ka" {
			t.Error("Suggest must not return the query itself")
		}
	}

	if got := lx.Suggest("zz", 2); len(got) == 0 || got[0] != "zu" {
		t.Errorf("Suggest(zz) = %v, want [zu]", got)
	}
	if got := lx.Suggest("", 2); got != nil {
		t.Errorf("Suggest(\"\") = %v, want nil", got)
	}
	if got := lx.Suggest("qq", 2); len(got) != 0 {
		t.Errorf("Suggest(qq) = %v, want none", got)
	}
}
