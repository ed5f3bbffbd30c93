package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File is a local-directory, path-addressed Layer. Blob writes are
// idempotent by existence check rather than atomic rename, because the
// path is fixed and the archive bytes are already signature-verified
// before this is called — the index row, not the file, is the commit
// point (spec.md §4.D).
type File struct {
	root string
}

// NewFile returns a Layer rooted at dir, creating it if necessary.
func NewFile(dir string) (*File, error) {
	if err := ensureDir(dir); err != nil {
		return nil, fmt.Errorf("storage: create root dir: %w", err)
	}
	return &File{root: dir}, nil
}

func (f *File) abs(relPath string) string {
	return filepath.Join(f.root, filepath.FromSlash(relPath))
}

func (f *File) PutBlob(ctx context.Context, artifact Artifact, data []byte) ([]ObjectKey, error) {
	rel := artifact.DeterministicPath("archive")
	full := f.abs(rel)

	if fileExists(full) {
		// Idempotent: same deterministic path, do not rewrite.
		return []ObjectKey{NamedKey(rel)}, nil
	}

	if err := ensureDir(filepath.Dir(full)); err != nil {
		return nil, fmt.Errorf("storage: ensure dir: %w", err)
	}
	if err := atomicWriteFile(full, data, 0644); err != nil {
		return nil, fmt.Errorf("storage: write blob: %w", err)
	}
	return []ObjectKey{NamedKey(rel)}, nil
}

func (f *File) GetBlob(ctx context.Context, key ObjectKey) ([]byte, error) {
	if key.Kind != KindNamed {
		return nil, ErrBadKeyKind
	}
	data, err := os.ReadFile(f.abs(key.Path))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read blob: %w", err)
	}
	return data, nil
}

func (f *File) PutPointer(ctx context.Context, p Pointer) (ObjectKey, error) {
	rel := p.Artifact.DeterministicPath("meta.json")
	full := f.abs(rel)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return ObjectKey{}, err
	}
	if err := ensureDir(filepath.Dir(full)); err != nil {
		return ObjectKey{}, fmt.Errorf("storage: ensure dir: %w", err)
	}
	if err := atomicWriteFile(full, data, 0644); err != nil {
		return ObjectKey{}, fmt.Errorf("storage: write pointer: %w", err)
	}
	return NamedKey(rel), nil
}

func (f *File) GetPointer(ctx context.Context, artifact Artifact) (*Pointer, error) {
	rel := artifact.DeterministicPath("meta.json")
	data, err := os.ReadFile(f.abs(rel))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read pointer: %w", err)
	}

	var p Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (f *File) SupportsContentID() bool { return false }

// ensureDir creates dir (and parents) if it does not already exist,
// mirroring the teacher's pkg/storage.EnsureDir helper.
func ensureDir(dir string) error {
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// fileExists mirrors the teacher's pkg/storage.FileExists helper.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// atomicWriteFile writes data to path via a temp file in the same
// directory, fsync, then rename — the same pattern as the teacher's
// pkg/storage.AtomicWriteFile, generalized from YAML metadata files to
// arbitrary blob and pointer-document bytes.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
