package playlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write temp playlist: %v", err)
	}
	return path
}

func TestParseM3U(t *testing.T) {
	content := `#EXTM3U
#EXTINF:261,Radiohead - Karma Police
Radiohead - Karma Police

Portishead - Mysterons
`
	path := writeTemp(t, "test.m3u", []byte(content))

	pl, err := Parse(path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if pl.Name != "test" {
		t.Errorf("expected playlist name from stem, got %q", pl.Name)
	}
	if len(pl.Queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(pl.Queries))
	}
	q := pl.Queries[0]
	if q.Artist != "Radiohead" || q.Title != "Karma Police" {
		t.Errorf("expected artist/title split, got %+v", q)
	}
	if q.Raw != "Radiohead - Karma Police" {
		t.Errorf("raw line should be preserved, got %q", q.Raw)
	}
}

func TestParseM3UPathEntries(t *testing.T) {
	content := "/lib/Radiohead/OK Computer/02 Karma Police.flac\n"
	path := writeTemp(t, "paths.m3u", []byte(content))

	pl, err := Parse(path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(pl.Queries) != 1 {
		t.Fatalf("expected 1 query, got %d", len(pl.Queries))
	}
	q := pl.Queries[0]
	if q.Artist != "Radiohead" || q.Title != "Karma Police" {
		t.Errorf("expected metadata recovered from path, got %+v", q)
	}
}

func TestParseM3ULatin1(t *testing.T) {
	// "Björk - Jóga" encoded as ISO 8859-1, invalid as UTF-8
	line := append([]byte("Bj"), 0xF6)
	line = append(line, []byte("rk - J")...)
	line = append(line, 0xF3)
	line = append(line, []byte("ga\n")...)
	path := writeTemp(t, "latin1.m3u", line)

	pl, err := Parse(path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(pl.Queries) != 1 {
		t.Fatalf("expected 1 query, got %d", len(pl.Queries))
	}
	if pl.Queries[0].Artist != "Björk" || pl.Queries[0].Title != "Jóga" {
		t.Errorf("expected decoded latin-1 text, got %+v", pl.Queries[0])
	}
}

func TestParseJSON(t *testing.T) {
	content := `{
  "name": "Favourites",
  "tracks": [
    {"artist": "Radiohead", "album": "OK Computer", "title": "Karma Police"},
    {"artist": "Portishead", "title": "Mysterons", "isrc": "GBAAA9400123"}
  ]
}`
	path := writeTemp(t, "list.json", []byte(content))

	pl, err := Parse(path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if pl.Name != "Favourites" {
		t.Errorf("expected name from payload, got %q", pl.Name)
	}
	if len(pl.Queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(pl.Queries))
	}
	if pl.Queries[1].ISRC != "GBAAA9400123" {
		t.Errorf("expected ISRC carried through, got %q", pl.Queries[1].ISRC)
	}
}

func TestParseJSONListEnvelope(t *testing.T) {
	content := `[{"name": "Wrapped", "tracks": [{"artist": "Radiohead", "title": "Let Down"}]}]`
	path := writeTemp(t, "wrapped.json", []byte(content))

	pl, err := Parse(path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if pl.Name != "Wrapped" {
		t.Errorf("expected name from list envelope, got %q", pl.Name)
	}
	if len(pl.Queries) != 1 || pl.Queries[0].Title != "Let Down" {
		t.Errorf("unexpected queries: %+v", pl.Queries)
	}
}

func TestParseCSV(t *testing.T) {
	content := `artist,album,title
Radiohead,OK Computer,Karma Police
Portishead,Dummy,Mysterons
,,
`
	path := writeTemp(t, "list.csv", []byte(content))

	pl, err := Parse(path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(pl.Queries) != 2 {
		t.Fatalf("expected 2 queries (empty row dropped), got %d", len(pl.Queries))
	}
	if pl.Queries[0].Album != "OK Computer" {
		t.Errorf("expected album column mapped, got %q", pl.Queries[0].Album)
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetSheetRow(sheet, "A1", &[]string{"artist", "title", "album"})
	f.SetSheetRow(sheet, "A2", &[]string{"Radiohead", "Karma Police", "OK Computer"})
	f.SetSheetRow(sheet, "A3", &[]string{"Portishead", "Mysterons", "Dummy"})

	path := filepath.Join(t.TempDir(), "list.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	f.Close()

	pl, err := Parse(path)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(pl.Queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(pl.Queries))
	}
	if pl.Queries[0].Artist != "Radiohead" || pl.Queries[0].Title != "Karma Police" {
		t.Errorf("unexpected first query: %+v", pl.Queries[0])
	}
}

func TestParseUnsupported(t *testing.T) {
	path := writeTemp(t, "list.pdf", []byte("x"))
	if _, err := Parse(path); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseMissingFile(t *testing.T) {
	if _, err := Parse("/does/not/exist.m3u"); err == nil {
		t.Fatal("expected error for missing playlist")
	}
}
