package merkle

import (
	"encoding/hex"
	"strings"

	"github.com/spacemeshos/sha256-simd"
)

// HashFunc digests a string and returns the digest as lowercase hex.
type HashFunc func(data string) (string, error)

// DigestHexLen is the length of a hex encoded Sha256Hex digest.
const DigestHexLen = 2 * sha256.Size

// Sha256Hex hashes the UTF-8 bytes of data with SHA-256.
func Sha256Hex(data string) (string, error) {
	h := sha256.New()
	if _, err := h.Write([]byte(data)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NormalizeAddress lowercases an address and strips a leading 0x.
// No checksum validation is done.
func NormalizeAddress(address string) string {
	return strings.TrimPrefix(strings.ToLower(address), "0x")
}

func LeafHash(hash HashFunc, address string) (string, error) {
	return hash(NormalizeAddress(address))
}

// ParentHash hashes the concatenation of the two children's hex strings.
// The service builds its roots over the hex text, not over the decoded bytes,
// so the children must not be decoded here.
func ParentHash(hash HashFunc, left, right string) (string, error) {
	return hash(left + right)
}
