package auth

import (
	"crypto/rand"  // secure random bytes
	"encoding/hex" // hex encoding
)

// randomHex returns n bytes of crypto/rand output, hex-encoded (2n chars).
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
