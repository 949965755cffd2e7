package index

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/starford/tether/internal/catalog"
	"github.com/starford/tether/internal/models"
	"github.com/starford/tether/internal/parser"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "tether-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func links(targets ...string) []parser.Link {
	out := make([]parser.Link, 0, len(targets))
	for _, t := range targets {
		out = append(out, parser.Link{Target: t, Count: 1})
	}
	return out
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{Path: "hello.md", Name: "hello", Checksum: "abc123", UpdatedAt: time.Now()}
	if err := db.UpsertNote(row, links("other")); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "c.md", Name: "c", Checksum: "2"}, links("B"))
	_ = db.UpsertNote(NoteRow{Path: "a.md", Name: "a", Checksum: "1"}, links("b"))

	bl, err := db.Backlinks("b")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if !reflect.DeepEqual(bl, []string{"a.md", "c.md"}) {
		t.Fatalf("backlinks = %v", bl)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "del.md", Name: "del", Checksum: "x"}, links("target"))

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("target")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "up.md", Name: "up", Checksum: "1"}, links("x"))
	_ = db.UpsertNote(NoteRow{Path: "up.md", Name: "up", Checksum: "2"}, links("y"))

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	if bl, _ := db.Backlinks("x"); len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	if bl, _ := db.Backlinks("y"); len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestDocuments_OrderedByPath(t *testing.T) {
	db := testDB(t)
	_ = db.IndexFile("notes/zeta.md", []byte("z"))
	_ = db.IndexFile("Alpha.md", []byte("a"))

	docs, err := db.Documents()
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	want := []models.Document{
		{Name: "Alpha", Path: "Alpha.md"},
		{Name: "zeta", Path: "notes/zeta.md"},
	}
	if !reflect.DeepEqual(docs, want) {
		t.Errorf("documents = %v, want %v", docs, want)
	}
}

func TestUnresolvedLinks(t *testing.T) {
	db := testDB(t)
	_ = db.IndexFile("Project.md", []byte("body"))
	_ = db.IndexFile("notes/keep.md", []byte("body"))
	_ = db.IndexFile("a.md", []byte("[[project]] [[notes/keep]] [[Ghost]] [[Ghost|g]] [[keep]]"))
	_ = db.IndexFile("b.md", []byte("[[Phantom#Intro]]"))

	got, err := db.UnresolvedLinks()
	if err != nil {
		t.Fatalf("UnresolvedLinks: %v", err)
	}
	want := map[string]map[string]int{
		"a.md": {"Ghost": 2},
		"b.md": {"Phantom": 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unresolved = %v, want %v", got, want)
	}
}

func TestCatalogFromIndex(t *testing.T) {
	db := testDB(t)
	_ = db.IndexFile("Keep.md", []byte("[[Later]]"))

	c, err := catalog.Build(db)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []models.Page{
		{Name: "Keep", Path: "Keep.md"},
		{Name: "Later", Path: catalog.UnresolvedPath},
	}
	if !reflect.DeepEqual(c.Pages(), want) {
		t.Errorf("pages = %v, want %v", c.Pages(), want)
	}
}

func TestSync_IndexesAndRemoves(t *testing.T) {
	vaultDir, store, db := watcherTestEnv(t)
	logger := testLogger()

	_ = os.WriteFile(vaultDir+"/one.md", []byte("[[two]]"), 0o644)
	_ = db.UpsertNote(NoteRow{Path: "gone.md", Name: "gone", Checksum: "old"}, nil)

	rep, err := Sync(db, store, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if rep.Indexed != 1 || rep.Removed != 1 || !rep.Changed() {
		t.Errorf("report = %+v", rep)
	}

	rep, err = Sync(db, store, logger)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if rep.Changed() {
		t.Errorf("second sync changed index: %+v", rep)
	}
}
