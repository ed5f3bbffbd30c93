package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"testing"
)

func buildArchive(t *testing.T, entryPath string, body []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	if err := tw.WriteHeader(&tar.Header{
		Name: entryPath,
		Size: int64(len(body)),
		Mode: 0644,
	}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := tw.Write(body); err != nil {
		t.Fatalf("write body: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

func TestParseExtractsDescriptor(t *testing.T) {
	archiveBytes := buildArchive(t, NPMKind.EntryPath, []byte(`{"name":"mock-package","version":"1.0.0"}`))

	d, err := Parse(bytes.NewReader(archiveBytes), NPMKind, DefaultMaxDescriptorBytes)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Name != "mock-package" || d.Version != "1.0.0" {
		t.Errorf("got %+v", d)
	}
}

func TestParseNoDescriptor(t *testing.T) {
	archiveBytes := buildArchive(t, "other/file.json", []byte(`{}`))

	_, err := Parse(bytes.NewReader(archiveBytes), NPMKind, DefaultMaxDescriptorBytes)
	if err != ErrNoDescriptor {
		t.Errorf("err = %v, want ErrNoDescriptor", err)
	}
}

func TestParseMalformedArchive(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte("not a gzip stream")), NPMKind, DefaultMaxDescriptorBytes)
	if err != ErrMalformedArchive {
		t.Errorf("err = %v, want ErrMalformedArchive", err)
	}
}

func TestParseDescriptorTooLarge(t *testing.T) {
	big := bytes.Repeat([]byte("x"), 100)
	body := append([]byte(`{"name":"n","version":"1.0.0","pad":"`), big...)
	body = append(body, []byte(`"}`)...)
	archiveBytes := buildArchive(t, NPMKind.EntryPath, body)

	_, err := Parse(bytes.NewReader(archiveBytes), NPMKind, 10)
	if err != ErrDescriptorTooLarge {
		t.Errorf("err = %v, want ErrDescriptorTooLarge", err)
	}
}
