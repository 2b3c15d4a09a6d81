package scriptstore

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "scriptdata.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := openTestStore(t)

	if err := s.Set("kills", "41"); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, ok, err := s.Get("kills")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || v != "41" {
		t.Fatalf("expected (41,true), got (%q,%v)", v, ok)
	}

	if err := s.Delete("kills"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get("kills"); ok {
		t.Fatal("key survived delete")
	}
}

func TestGetAbsentKey(t *testing.T) {
	s := openTestStore(t)

	v, ok, err := s.Get("nothing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok || v != "" {
		t.Fatalf("expected absent key, got (%q,%v)", v, ok)
	}
}

func TestDeleteAbsentKeyIsNoop(t *testing.T) {
	s := openTestStore(t)
	if err := s.Delete("nothing"); err != nil {
		t.Fatalf("delete of absent key should succeed, got %v", err)
	}
}

func TestOverwrite(t *testing.T) {
	s := openTestStore(t)

	s.Set("flag", "a")
	s.Set("flag", "b")

	v, _, _ := s.Get("flag")
	if v != "b" {
		t.Fatalf("expected b, got %q", v)
	}
}

func TestKeys(t *testing.T) {
	s := openTestStore(t)

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}

	s.Set("a", "1")
	s.Set("b", "2")

	keys, err = s.Keys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scriptdata.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Set("counter", "7")
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	v, ok, err := s2.Get("counter")
	if err != nil || !ok || v != "7" {
		t.Fatalf("expected (7,true,nil), got (%q,%v,%v)", v, ok, err)
	}
}
