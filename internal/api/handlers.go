package api

import (
	"encoding/hex"
	"io"
	"net/http"

	"github.com/libreseed/registry/internal/index"
	"github.com/libreseed/registry/internal/registry"
	"github.com/libreseed/registry/internal/signature"
)

// Handlers wires the registry orchestrator onto HTTP, in the shape
// pkg/api/packages.go's PackageHandlers establishes: one method per route,
// request bodies read as raw bytes (archives and signatures are binary,
// not JSON), every signature arriving as a hex-encoded header.
type Handlers struct {
	reg *registry.Registry
}

// NewHandlers builds a Handlers bound to reg.
func NewHandlers(reg *registry.Registry) *Handlers { return &Handlers{reg: reg} }

// Register wires every route this package exposes onto router, matching
// spec.md §6's table plus SPEC_FULL.md §12's recovered endpoints.
func (h *Handlers) Register(router *Router) {
	router.RegisterHealth()

	router.Handle("POST /api/publisher", h.Signup)
	router.Handle("POST /api/namespace/{ns}", h.RegisterNamespace)
	router.Handle("POST /api/namespace/{ns}/publisher/{address}", h.AddNamespaceMember)
	router.Handle("DELETE /api/namespace/{ns}/publisher/{address}", h.RemoveNamespaceMember)

	router.Handle("POST /api/package/{ns}", h.Publish)
	router.Handle("GET /api/package", h.Fetch)
	router.Handle("GET /api/package/{ns}/{name}/{version}", h.VersionRecord)
	router.Handle("POST /api/package/yank", h.Yank)
	router.Handle("POST /api/package/deprecate", h.Deprecate)

	router.Handle("GET /api/namespace/{ns}/package", h.ListPackages)
	router.Handle("GET /api/package/{ns}/{name}/versions", h.ListVersions)
	router.Handle("GET /api/package/{ns}/{name}/find", h.FindVersions)
}

func signatureFromHeader(r *http.Request) ([65]byte, error) {
	var sig [65]byte
	raw, err := hex.DecodeString(r.Header.Get("X-Signature"))
	if err != nil || len(raw) != 65 {
		return sig, signature.ErrBadSignatureLength
	}
	copy(sig[:], raw)
	return sig, nil
}

func addressFromPath(s string) (signature.Address, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 20 {
		return signature.Address{}, signature.ErrBadPublicKey
	}
	var addr signature.Address
	copy(addr[:], raw)
	return addr, nil
}

// Signup handles POST /api/publisher: the body is empty, the signature
// alone recovers the new publisher's address (spec.md §4.C).
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	sig, err := signatureFromHeader(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	pub, err := h.reg.Signup(r.Context(), sig)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, pub)
}

// RegisterNamespace handles POST /api/namespace/{ns}: the signed payload is
// the namespace name itself.
func (h *Handlers) RegisterNamespace(w http.ResponseWriter, r *http.Request) {
	sig, err := signatureFromHeader(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	ns, err := h.reg.RegisterNamespace(r.Context(), sig, r.PathValue("ns"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ns)
}

type membershipRequest struct {
	Restrictions []string `json:"restrictions"`
}

// AddNamespaceMember handles POST /api/namespace/{ns}/publisher/{address}.
func (h *Handlers) AddNamespaceMember(w http.ResponseWriter, r *http.Request) {
	sig, err := signatureFromHeader(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	member, err := addressFromPath(r.PathValue("address"))
	if err != nil {
		WriteError(w, err)
		return
	}
	var body membershipRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			WriteError(w, newAPIError(ErrCodeBadRequest, "malformed request body", http.StatusBadRequest))
			return
		}
	}
	if err := h.reg.AddNamespaceMember(r.Context(), sig, r.PathValue("ns"), member, body.Restrictions); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveNamespaceMember handles DELETE /api/namespace/{ns}/publisher/{address}.
func (h *Handlers) RemoveNamespaceMember(w http.ResponseWriter, r *http.Request) {
	sig, err := signatureFromHeader(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	member, err := addressFromPath(r.PathValue("address"))
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.reg.RemoveNamespaceMember(r.Context(), sig, r.PathValue("ns"), member); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Publish handles POST /api/package/{ns}: the request body is the raw
// archive bytes, signed whole (spec.md §4.G).
func (h *Handlers) Publish(w http.ResponseWriter, r *http.Request) {
	sig, err := signatureFromHeader(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, newAPIError(ErrCodeBadRequest, "failed to read request body", http.StatusBadRequest))
		return
	}
	receipt, err := h.reg.Publish(r.Context(), sig, r.PathValue("ns"), body)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, receipt)
}

// Fetch handles GET /api/package?id={key}, where key is either a
// {namespace}/{name}/{version} triple or a bare content identifier
// (registry.ParsePackageKey disambiguates).
func (h *Handlers) Fetch(w http.ResponseWriter, r *http.Request) {
	key, err := registry.ParsePackageKey(r.URL.Query().Get("id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	h.writeFetch(w, r, key)
}

// VersionRecord handles GET /api/package/{ns}/{name}/{version}: spec.md §6
// answers this route with the version's metadata row, not the archive
// bytes (that is GET /api/package?id={key}'s job, served by Fetch).
func (h *Handlers) VersionRecord(w http.ResponseWriter, r *http.Request) {
	version, err := h.reg.GetVersion(r.Context(), r.PathValue("ns"), r.PathValue("name"), r.PathValue("version"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, version)
}

func (h *Handlers) writeFetch(w http.ResponseWriter, r *http.Request, key registry.PackageKey) {
	data, version, err := h.reg.Fetch(r.Context(), key)
	if err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Version", version.Number.String())
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type yankRequest struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Message   string `json:"message"`
}

// Yank handles POST /api/package/yank: the signed payload is message
// alone, matching Deprecate's scheme.
func (h *Handlers) Yank(w http.ResponseWriter, r *http.Request) {
	sig, err := signatureFromHeader(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body yankRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, newAPIError(ErrCodeBadRequest, "malformed request body", http.StatusBadRequest))
		return
	}
	if err := h.reg.Yank(r.Context(), sig, body.Namespace, body.Name, body.Version, body.Message); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deprecateRequest struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Message   string `json:"message"`
}

// Deprecate handles POST /api/package/deprecate.
func (h *Handlers) Deprecate(w http.ResponseWriter, r *http.Request) {
	sig, err := signatureFromHeader(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	var body deprecateRequest
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, newAPIError(ErrCodeBadRequest, "malformed request body", http.StatusBadRequest))
		return
	}
	if err := h.reg.Deprecate(r.Context(), sig, body.Namespace, body.Name, body.Message); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPackages handles GET /api/namespace/{ns}/package?versions=latest|none.
func (h *Handlers) ListPackages(w http.ResponseWriter, r *http.Request) {
	includeVersions := index.VersionIncludesNone
	if r.URL.Query().Get("versions") == "latest" {
		includeVersions = index.VersionIncludesLatest
	}
	pager := ParsePager(r)
	result, err := h.reg.ListPackages(r.Context(), r.PathValue("ns"), pager, includeVersions)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse{
		Records: result.Records,
		Meta:    Meta{Offset: pager.Offset, Limit: pager.Limit, Total: result.Count},
	})
}

// ListVersions handles GET /api/package/{ns}/{name}/versions.
func (h *Handlers) ListVersions(w http.ResponseWriter, r *http.Request) {
	pager := ParsePager(r)
	result, err := h.reg.ListVersions(r.Context(), r.PathValue("ns"), r.PathValue("name"), pager)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse{
		Records: result.Records,
		Meta:    Meta{Offset: pager.Offset, Limit: pager.Limit, Total: result.Count},
	})
}

// FindVersions handles GET /api/package/{ns}/{name}/find?range={expr}&prerelease=true,
// driving spec.md §4.E's SemVer range planner.
func (h *Handlers) FindVersions(w http.ResponseWriter, r *http.Request) {
	pager := ParsePager(r)
	includePrerelease := r.URL.Query().Get("prerelease") == "true"
	result, err := h.reg.FindVersions(r.Context(), r.PathValue("ns"), r.PathValue("name"), r.URL.Query().Get("range"), includePrerelease, pager)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse{
		Records: result.Records,
		Meta:    Meta{Offset: pager.Offset, Limit: pager.Limit, Total: result.Count},
	})
}
