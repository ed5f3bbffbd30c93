package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	shell "github.com/ipfs/go-ipfs-api"
)

// IPFS is a content-addressed Layer backed by a kubo HTTP RPC endpoint.
// Blobs are added and pinned recursively; pointers are written at the
// deterministic hierarchical path via MFS (files_write) and then pinned by
// the CID the write resolves to (spec.md §4.D).
type IPFS struct {
	sh *shell.Shell
}

// NewIPFS returns a Layer backed by the kubo API at apiURL (e.g.
// "localhost:5001").
func NewIPFS(apiURL string) *IPFS {
	return &IPFS{sh: shell.NewShell(apiURL)}
}

func (i *IPFS) PutBlob(ctx context.Context, artifact Artifact, data []byte) ([]ObjectKey, error) {
	cid, err := i.sh.Add(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("storage: ipfs add: %w", err)
	}
	if err := i.sh.Pin(cid); err != nil {
		return nil, fmt.Errorf("storage: ipfs pin: %w", err)
	}
	return []ObjectKey{ContentKey(cid)}, nil
}

func (i *IPFS) GetBlob(ctx context.Context, key ObjectKey) ([]byte, error) {
	if key.Kind != KindContent {
		return nil, ErrBadKeyKind
	}
	r, err := i.sh.Cat(key.CID)
	if err != nil {
		return nil, ErrNotFound
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (i *IPFS) PutPointer(ctx context.Context, p Pointer) (ObjectKey, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return ObjectKey{}, err
	}

	mfsPath := "/" + p.Artifact.DeterministicPath("meta.json")
	if err := i.sh.FilesWrite(ctx, mfsPath, bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true),
	); err != nil {
		return ObjectKey{}, fmt.Errorf("storage: ipfs files_write: %w", err)
	}

	stat, err := i.sh.FilesStat(ctx, mfsPath)
	if err != nil {
		return ObjectKey{}, fmt.Errorf("storage: ipfs files_stat: %w", err)
	}
	if err := i.sh.Pin(stat.Hash); err != nil {
		return ObjectKey{}, fmt.Errorf("storage: ipfs pin pointer: %w", err)
	}

	return ContentKey(stat.Hash), nil
}

func (i *IPFS) GetPointer(ctx context.Context, artifact Artifact) (*Pointer, error) {
	mfsPath := "/" + artifact.DeterministicPath("meta.json")
	r, err := i.sh.FilesRead(ctx, mfsPath)
	if err != nil {
		return nil, nil
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var p Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (i *IPFS) SupportsContentID() bool { return true }
