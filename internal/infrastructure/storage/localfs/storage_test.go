package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const body = "Contenido del protocolo."
	if err := store.Save(context.Background(), "src-1_guia.txt", strings.NewReader(body)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rc, err := store.Open(context.Background(), "src-1_guia.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != body {
		t.Fatalf("read %q, want %q", data, body)
	}
}

func TestOpenMissingKeyFails(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Open(context.Background(), "nope.txt"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestTraversalKeysRejected(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Save(context.Background(), "../escape.txt", strings.NewReader("x")); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
	if err := store.Save(context.Background(), "", strings.NewReader("x")); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
}
