package api

import (
	"crypto/md5"
	"encoding/base64"
)

// ContentHash returns the MD5 digest of content in standard base64. This is
// the fingerprint clients compare to detect local changes; it is recomputed
// on every write whether or not the content changed.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return base64.StdEncoding.EncodeToString(sum[:])
}
