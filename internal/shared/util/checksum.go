package util

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// SHA256Hex streams r through SHA-256 and returns the hex digest and byte count.
func SHA256Hex(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
