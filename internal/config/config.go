// Package config defines the registry's declarative configuration struct
// (spec.md §6), its defaults, and an environment-variable overlay, in the
// shape pkg/daemon/config.go's DaemonConfig already establishes for this
// codebase. Loading a config file (TOML or otherwise) is out of scope per
// spec.md §1; this package only defines the struct, defaults, and env
// overrides.
package config

import (
	"os"
	"strconv"
	"strings"
)

// RegistryConfig is the "registry" block of spec.md §6's configuration
// shape: the archive kind, its MIME type, the publish body size cap, and
// the optional global allow/deny address lists.
type RegistryConfig struct {
	Mime      string   `yaml:"mime"`
	Kind      string   `yaml:"kind"`
	BodyLimit int64    `yaml:"body_limit"`
	Allow     []string `yaml:"allow,omitempty"` // hex-encoded addresses, 0x-prefixed
	Deny      []string `yaml:"deny,omitempty"`
}

// TLSConfig names the cert/key pair for TLS termination. Actual TLS
// termination is an external collaborator per spec.md §1; this struct only
// carries the paths so the server entrypoint can decide whether to call
// ListenAndServeTLS.
type TLSConfig struct {
	CertFile string `yaml:"cert_file,omitempty"`
	KeyFile  string `yaml:"key_file,omitempty"`
}

// Config is the full declarative configuration spec.md §6 describes,
// loaded once at boot, plus the ambient fields (listen address, index DSN,
// logging) every teacher service also carries.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	IndexDSN   string `yaml:"index_dsn"`

	IPFSURL   string `yaml:"ipfs_url,omitempty"`
	S3Profile string `yaml:"s3_profile,omitempty"`
	S3Region  string `yaml:"s3_region,omitempty"`
	S3Bucket  string `yaml:"s3_bucket,omitempty"`
	FileDir   string `yaml:"file_dir,omitempty"`

	// Backend selects which storage.Layer implementation to construct:
	// "memory", "file", "ipfs", or "s3".
	Backend string `yaml:"backend"`

	Registry RegistryConfig `yaml:"registry"`
	TLS      *TLSConfig     `yaml:"tls,omitempty"`

	CORSOrigins []string `yaml:"cors_origins"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	MaxDescriptorBytes int64 `yaml:"max_descriptor_bytes"`
}

// DefaultConfig returns a Config with sensible defaults: a memory backend,
// the npm descriptor kind, a 64 MiB body limit, and no allow/deny
// restriction, matching pkg/daemon/config.go's DefaultConfig shape.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr: "127.0.0.1:8080",
		IndexDSN:   ":memory:",
		Backend:    "memory",
		FileDir:    "./data/blobs",
		Registry: RegistryConfig{
			Mime:      "application/gzip",
			Kind:      "npm",
			BodyLimit: 64 << 20, // 64 MiB
		},
		CORSOrigins:        []string{"*"},
		LogLevel:           "info",
		LogFormat:          "console",
		MaxDescriptorBytes: 8 << 20, // 8 MiB
	}
}

// LoadFromEnv applies environment variable overrides, following the same
// 12-factor precedence DaemonConfig.LoadFromEnv documents: env vars win
// over whatever populated the struct beforehand.
//
// Supported environment variables:
//   - REGISTRY_LISTEN_ADDR
//   - REGISTRY_INDEX_DSN
//   - REGISTRY_BACKEND
//   - REGISTRY_IPFS_URL
//   - REGISTRY_S3_PROFILE
//   - REGISTRY_S3_REGION
//   - REGISTRY_S3_BUCKET
//   - REGISTRY_FILE_DIR
//   - REGISTRY_MIME
//   - REGISTRY_KIND
//   - REGISTRY_BODY_LIMIT
//   - REGISTRY_ALLOW (comma-separated 0x-addresses)
//   - REGISTRY_DENY (comma-separated 0x-addresses)
//   - REGISTRY_CORS_ORIGINS (comma-separated)
//   - REGISTRY_LOG_LEVEL
//   - REGISTRY_LOG_FORMAT
//   - REGISTRY_MAX_DESCRIPTOR_BYTES
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("REGISTRY_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("REGISTRY_INDEX_DSN"); v != "" {
		c.IndexDSN = v
	}
	if v := os.Getenv("REGISTRY_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("REGISTRY_IPFS_URL"); v != "" {
		c.IPFSURL = v
	}
	if v := os.Getenv("REGISTRY_S3_PROFILE"); v != "" {
		c.S3Profile = v
	}
	if v := os.Getenv("REGISTRY_S3_REGION"); v != "" {
		c.S3Region = v
	}
	if v := os.Getenv("REGISTRY_S3_BUCKET"); v != "" {
		c.S3Bucket = v
	}
	if v := os.Getenv("REGISTRY_FILE_DIR"); v != "" {
		c.FileDir = v
	}
	if v := os.Getenv("REGISTRY_MIME"); v != "" {
		c.Registry.Mime = v
	}
	if v := os.Getenv("REGISTRY_KIND"); v != "" {
		c.Registry.Kind = v
	}
	if v := os.Getenv("REGISTRY_BODY_LIMIT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.Registry.BodyLimit = n
	}
	if v := os.Getenv("REGISTRY_ALLOW"); v != "" {
		c.Registry.Allow = splitCSV(v)
	}
	if v := os.Getenv("REGISTRY_DENY"); v != "" {
		c.Registry.Deny = splitCSV(v)
	}
	if v := os.Getenv("REGISTRY_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitCSV(v)
	}
	if v := os.Getenv("REGISTRY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("REGISTRY_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("REGISTRY_MAX_DESCRIPTOR_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.MaxDescriptorBytes = n
	}
	return nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
