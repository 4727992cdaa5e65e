package storage

import (
	"bytes"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("want error for empty path")
	}
}

func TestLoadAbsentKey(t *testing.T) {
	s, _ := openTestStore(t)
	value, found, err := s.Load(KeyTasks)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Errorf("fresh store reported key present with value %q", value)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, _ := openTestStore(t)
	want := []byte(`[{"id":1,"text":"Buy milk"}]`)
	if err := s.Save(KeyTasks, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, found, err := s.Load(KeyTasks)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found || !bytes.Equal(got, want) {
		t.Errorf("got %q found=%v, want %q", got, found, want)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s, _ := openTestStore(t)
	if err := s.Save(KeyTheme, []byte("light")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(KeyTheme, []byte("dark")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _, err := s.Load(KeyTheme)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "dark" {
		t.Errorf("got %q, want dark", got)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	s, _ := openTestStore(t)
	if err := s.Save(KeyTasks, []byte(`[]`)); err != nil {
		t.Fatalf("Save tasks: %v", err)
	}
	if err := s.Save(KeyTheme, []byte("dark")); err != nil {
		t.Fatalf("Save theme: %v", err)
	}
	tasks, _, err := s.Load(KeyTasks)
	if err != nil {
		t.Fatalf("Load tasks: %v", err)
	}
	if string(tasks) != "[]" {
		t.Errorf("theme write leaked into tasks: %q", tasks)
	}
}

func TestDelete(t *testing.T) {
	s, _ := openTestStore(t)
	if err := s.Save(KeyTasks, []byte(`[]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(KeyTasks); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, found, err := s.Load(KeyTasks)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Error("key still present after delete")
	}
	if err := s.Delete("missing"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save(KeyTasks, []byte(`[{"id":7}]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, found, err := s.Load(KeyTasks)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found || string(got) != `[{"id":7}]` {
		t.Errorf("got %q found=%v after reopen", got, found)
	}
}

func TestKeyedBindsOneKey(t *testing.T) {
	s, _ := openTestStore(t)
	k := s.Keyed(KeyTasks)

	if _, found, err := k.Load(); err != nil || found {
		t.Fatalf("fresh keyed load: found=%v err=%v", found, err)
	}
	if err := k.Save([]byte(`[1]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, found, err := k.Load()
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if string(got) != "[1]" {
		t.Errorf("got %q", got)
	}

	// Same record as the store-level key.
	direct, _, err := s.Load(KeyTasks)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(direct) != "[1]" {
		t.Errorf("keyed write not visible under the raw key: %q", direct)
	}
}
