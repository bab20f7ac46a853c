package diagnostics

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// fingerprintSize is the number of bytes of digest kept for log fields.
// Sixteen bytes (32 hex characters) is enough to tell witnesses apart in a
// log stream without printing a full witness set on every debug line.
const fingerprintSize = 16

// Fingerprint hashes an arbitrary byte-encoded value (typically the sorted
// string form of a witness or record set) into a short, stable hex string
// suitable for a structured log field.
//
// This plays the same "cheap stable identifier for a large structural
// value" role that API-key hashing plays elsewhere in this corpus,
// repurposed from secret-hashing to log-field compaction: there is nothing
// here worth keeping secret, only something too large to print in full.
func Fingerprint(value []byte) string {
	digest := blake2b.Sum256(value)

	return hex.EncodeToString(digest[:fingerprintSize])
}
