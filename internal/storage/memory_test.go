package storage

import (
	"context"
	"testing"
)

func TestMemoryPutGetBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	artifact := Artifact{Namespace: "mock-namespace", Name: "mock-package", Version: "1.0.0", Kind: "npm"}

	keys, err := m.PutBlob(ctx, artifact, []byte("archive-bytes"))
	if err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	if len(keys) != 1 || keys[0].Kind != KindNamed {
		t.Fatalf("got %+v", keys)
	}

	data, err := m.GetBlob(ctx, keys[0])
	if err != nil {
		t.Fatalf("GetBlob: %v", err)
	}
	if string(data) != "archive-bytes" {
		t.Errorf("got %q", data)
	}
}

func TestMemoryPutBlobIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	artifact := Artifact{Namespace: "ns", Name: "pkg", Version: "1.0.0", Kind: "npm"}

	k1, err := m.PutBlob(ctx, artifact, []byte("bytes"))
	if err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	k2, err := m.PutBlob(ctx, artifact, []byte("bytes"))
	if err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	if k1[0] != k2[0] {
		t.Errorf("repeated put under same key changed object key: %+v vs %+v", k1, k2)
	}
}

func TestMemoryGetBlobNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.GetBlob(context.Background(), NamedKey("missing"))
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryPointerRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	artifact := Artifact{Namespace: "ns", Name: "pkg", Version: "1.0.0", Kind: "npm"}

	p := Pointer{
		Artifact:   artifact,
		Object:     []ObjectKey{NamedKey(artifact.DeterministicPath("archive"))},
		AddressB:   "0xabc",
		SignatureB: "sig",
		Descriptor: []byte(`{"name":"pkg","version":"1.0.0"}`),
	}

	if _, err := m.PutPointer(ctx, p); err != nil {
		t.Fatalf("PutPointer: %v", err)
	}

	got, err := m.GetPointer(ctx, artifact)
	if err != nil {
		t.Fatalf("GetPointer: %v", err)
	}
	if got == nil || got.AddressB != "0xabc" {
		t.Errorf("got %+v", got)
	}
}

func TestMemorySupportsContentID(t *testing.T) {
	if NewMemory().SupportsContentID() {
		t.Errorf("memory backend should be path-addressed")
	}
}
