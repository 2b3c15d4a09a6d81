package ship

import (
	"path/filepath"
	"strings"
	"testing"
)

func openTestSQL(t *testing.T, limit int) *SQLStore {
	t.Helper()
	s, err := OpenSQLStore(filepath.Join(t.TempDir(), "ship.db"), limit, 5)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestQueryExecAndSelect(t *testing.T) {
	s := openTestSQL(t, 100)

	if _, err := s.Query("CREATE TABLE kills (player TEXT, count INT)", "\n", "\t"); err != nil {
		t.Fatalf("create: %v", err)
	}

	affected, err := s.Query("INSERT INTO kills VALUES ('rico', 41), ('kireek', 7)", "\n", "\t")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if affected != "2" {
		t.Fatalf("expected 2 affected rows, got %q", affected)
	}

	rows, err := s.Query("SELECT player, count FROM kills ORDER BY player", "\n", "\t")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	want := "kireek\t7\nrico\t41"
	if rows != want {
		t.Fatalf("expected %q, got %q", want, rows)
	}
}

func TestQueryRowLimit(t *testing.T) {
	s := openTestSQL(t, 2)

	s.Query("CREATE TABLE t (n INT)", "\n", "\t")
	s.Query("INSERT INTO t VALUES (1), (2), (3), (4)", "\n", "\t")

	rows, err := s.Query("SELECT n FROM t ORDER BY n", "\n", "\t")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := len(strings.Split(rows, "\n")); got != 2 {
		t.Fatalf("expected 2 rows, got %d (%q)", got, rows)
	}
}

func TestQueryCustomDelimiters(t *testing.T) {
	s := openTestSQL(t, 100)

	s.Query("CREATE TABLE t (a TEXT, b TEXT)", "\n", "\t")
	s.Query("INSERT INTO t VALUES ('x', 'y'), ('z', 'w')", "\n", "\t")

	rows, err := s.Query("SELECT a, b FROM t ORDER BY a", "|", ",")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if rows != "x,y|z,w" {
		t.Fatalf("expected %q, got %q", "x,y|z,w", rows)
	}
}

func TestQuerySyntaxError(t *testing.T) {
	s := openTestSQL(t, 100)
	if _, err := s.Query("SELEKT garbage", "\n", "\t"); err == nil {
		t.Fatal("expected error for bad SQL")
	}
}

func TestEscape(t *testing.T) {
	s := openTestSQL(t, 100)
	if got := s.Escape("it's a 'trap'"); got != "it''s a ''trap''" {
		t.Fatalf("escape: got %q", got)
	}
}
