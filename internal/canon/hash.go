package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash domains. The version suffix allows the encoding to change later
// without colliding with old hashes.
const (
	DomainScene   = "animeval/scene/v1"
	DomainSamples = "animeval/samples/v1"
)

// HashBytes returns SHA256(domain || 0x00 || data) as hex.
func HashBytes(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the domain-separated hash of the canonical encoding of v.
func Hash(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return HashBytes(domain, data), nil
}

// SceneHash identifies a scene source document.
func SceneHash(source []byte) string {
	return HashBytes(DomainScene, source)
}
