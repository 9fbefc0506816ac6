package cleaning

import (
	"crypto/md5" //nolint:gosec // lineage fingerprint, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// The extract/clean stage and the load stage historically fingerprinted
// records differently. Both schemes are kept and stored side by side:
//
//   - SourceHash: MD5 over symbol_name_country_industry (32 hex chars).
//     Lineage only; matches hashes written by the cleaning stage.
//   - ContentHash: SHA-256 over symbol|name|country|industry (64 hex chars).
//     Drives change detection in the merge.
//
// Both take the raw field values after default substitution.

// SourceHash returns the cleaning-stage fingerprint of a record.
func SourceHash(symbol, name, country, industry string) string {
	sum := md5.Sum([]byte(symbol + "_" + name + "_" + country + "_" + industry)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// ContentHash returns the change-detection fingerprint of a record.
func ContentHash(symbol, name, country, industry string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{symbol, name, country, industry}, "|")))
	return hex.EncodeToString(sum[:])
}
