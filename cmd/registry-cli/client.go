package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/libreseed/registry/internal/signature"
)

// loadPrivateKey reads the raw hex secp256k1 private key from
// REGISTRY_CLI_KEY, matching spec.md §1's "no passwords, no bearer
// tokens" model: the only secret a client ever holds is this key.
func loadPrivateKey() (*secp256k1.PrivateKey, error) {
	hexKey := os.Getenv("REGISTRY_CLI_KEY")
	if hexKey == "" {
		return nil, fmt.Errorf("REGISTRY_CLI_KEY is not set")
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(hexKey, "0x"))
	if err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("REGISTRY_CLI_KEY must be a 32-byte hex string")
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	return priv, nil
}

// signMessage signs message with the configured key and returns the
// hex-encoded 65-byte recoverable signature for the X-Signature header.
func signMessage(message []byte) (string, error) {
	priv, err := loadPrivateKey()
	if err != nil {
		return "", err
	}
	sig, err := signature.SignRecoverable(priv, message)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig[:]), nil
}

// doRequest issues an HTTP request against the configured registryd,
// attaching a signature header over body (or over signOverride when
// the signed payload differs from the request body, e.g. a bare name).
func doRequest(method, path string, body []byte, signOverride []byte) (*http.Response, error) {
	payload := body
	if signOverride != nil {
		payload = signOverride
	}
	sigHex, err := signMessage(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, addr+path, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Signature", sigHex)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	client := &http.Client{}
	return client.Do(req)
}

func readResponseBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
