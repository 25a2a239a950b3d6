package blob

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"admissions-backend/internal/shared/util"
)

const keyRoot = "documents"

// BuildKey derives the storage key for a new document blob:
//
//	documents/{ownerID}/{ownerID}_{type}_{unixMillis}_{nonce}{ext}
//
// The nonce keeps keys distinct when the same owner uploads the same type
// within one millisecond, so keys are never reused.
func BuildKey(ownerID, docType string, at time.Time, ext string) string {
	owner := util.SanitizeSegment(ownerID)
	typ := util.SanitizeSegment(docType)
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := fmt.Sprintf("%s_%s_%d_%s%s", owner, typ, at.UTC().UnixMilli(), nonce(), ext)
	return path.Join(keyRoot, owner, name)
}

// CleanKey validates a key and returns it in canonical slash form.
func CleanKey(key string) (string, error) {
	k := strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if k == "" || strings.HasPrefix(k, "/") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(k)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

func nonce() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return hex.EncodeToString(b[:])
}
