// internal/storage/archive/localfs_test.go
package archive

import (
	"context"
	"testing"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"id":"bitcoin"}`)

	if err := fs.Write(ctx, "coins/bitcoin/1.json", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "coins/bitcoin/1.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_RejectsEscape(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	if err := fs.Write(ctx, "../outside.json", []byte("x")); err == nil {
		t.Error("expected error writing outside the archive root")
	}
	if _, err := fs.Read(ctx, "../../etc/passwd"); err == nil {
		t.Error("expected error reading outside the archive root")
	}
}

func TestLocalFS_List(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "coins/bitcoin/1.json", []byte("a"))
	fs.Write(ctx, "coins/bitcoin/2.json", []byte("b"))
	fs.Write(ctx, "coins/ethereum/1.json", []byte("c"))

	paths, err := fs.List(ctx, "coins/bitcoin")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(paths) != 2 {
		t.Errorf("expected 2 paths, got %d: %v", len(paths), paths)
	}

	missing, err := fs.List(ctx, "coins/dogecoin")
	if err != nil {
		t.Fatalf("List missing: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("expected no paths, got %v", missing)
	}
}
