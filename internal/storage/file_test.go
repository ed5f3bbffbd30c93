package storage

import (
	"context"
	"testing"
)

func TestFilePutGetBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	artifact := Artifact{Namespace: "mock-namespace", Name: "mock-package", Version: "1.0.0", Kind: "npm"}
	keys, err := f.PutBlob(ctx, artifact, []byte("archive-bytes"))
	if err != nil {
		t.Fatalf("PutBlob: %v", err)
	}

	data, err := f.GetBlob(ctx, keys[0])
	if err != nil {
		t.Fatalf("GetBlob: %v", err)
	}
	if string(data) != "archive-bytes" {
		t.Errorf("got %q", data)
	}
}

func TestFilePutBlobIdempotentDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	artifact := Artifact{Namespace: "ns", Name: "pkg", Version: "1.0.0", Kind: "npm"}

	if _, err := f.PutBlob(ctx, artifact, []byte("first")); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	keys, err := f.PutBlob(ctx, artifact, []byte("second"))
	if err != nil {
		t.Fatalf("PutBlob: %v", err)
	}

	data, err := f.GetBlob(ctx, keys[0])
	if err != nil {
		t.Fatalf("GetBlob: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("existing blob was overwritten: got %q", data)
	}
}

func TestFileGetBlobNotFound(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if _, err := f.GetBlob(context.Background(), NamedKey("missing/archive")); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFilePointerRoundTrip(t *testing.T) {
	ctx := context.Background()
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	artifact := Artifact{Namespace: "ns", Name: "pkg", Version: "1.0.0", Kind: "npm"}

	p := Pointer{Artifact: artifact, AddressB: "0xabc", Descriptor: []byte(`{}`)}
	if _, err := f.PutPointer(ctx, p); err != nil {
		t.Fatalf("PutPointer: %v", err)
	}

	got, err := f.GetPointer(ctx, artifact)
	if err != nil {
		t.Fatalf("GetPointer: %v", err)
	}
	if got == nil || got.AddressB != "0xabc" {
		t.Errorf("got %+v", got)
	}
}

func TestFileSupportsContentID(t *testing.T) {
	f, _ := NewFile(t.TempDir())
	if f.SupportsContentID() {
		t.Errorf("file backend should be path-addressed")
	}
}
