package api

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/libreseed/registry/internal/archive"
	"github.com/libreseed/registry/internal/index"
	"github.com/libreseed/registry/internal/registry"
	"github.com/libreseed/registry/internal/signature"
	"github.com/libreseed/registry/internal/storage"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	idx, err := index.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	reg := registry.New(idx, storage.NewMemory(), zap.NewNop(), registry.Config{
		ArchiveKind:        archive.NPMKind,
		StorageKind:        "npm",
		MaxDescriptorBytes: archive.DefaultMaxDescriptorBytes,
	})

	router := NewRouter("1.0.0-test")
	NewHandlers(reg).Register(router)
	return router
}

func buildArchive(t *testing.T, name, version string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	body := []byte(`{"name":"` + name + `","version":"` + version + `"}`)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: archive.NPMKind.EntryPath, Size: int64(len(body)), Mode: 0644}))
	_, err := tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestRouterVersion(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestMiddlewareChainAttachesRequestID(t *testing.T) {
	router := newTestRouter(t)
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(zap.NewNop()))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestPublishFetchRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	signupSig, err := signature.SignRecoverable(priv, signature.SignupMessage)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/publisher", nil)
	req.Header.Set("X-Signature", hex.EncodeToString(signupSig[:]))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	nsSig, err := signature.SignRecoverable(priv, []byte("mock-namespace"))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/namespace/mock-namespace", nil)
	req.Header.Set("X-Signature", hex.EncodeToString(nsSig[:]))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	body := buildArchive(t, "widget", "1.0.0")
	bodySig, err := signature.SignRecoverable(priv, body)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/package/mock-namespace", bytes.NewReader(body))
	req.Header.Set("X-Signature", hex.EncodeToString(bodySig[:]))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/package?id=mock-namespace/widget/1.0.0", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, body, w.Body.Bytes())

	req = httptest.NewRequest(http.MethodGet, "/api/package/mock-namespace/widget/1.0.0", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"1.0.0"`)
}

func TestFetchUnknownPackageKeyReturnsNotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/package?id=mock-namespace/widget/9.9.9", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
