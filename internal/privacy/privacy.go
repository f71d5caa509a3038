// Package privacy keeps patient-session identifiers out of logs and metrics.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
)

// logIDLength is the number of hex characters kept by LogID
const logIDLength = 12

// Anonymize returns the SHA-256 hex digest of data
func Anonymize(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// LogID returns a stable pseudonym for a session ID. The session ID is the
// cookie value that grants access to a clinician's inputs, so it is never
// written to logs as-is. An empty ID stays empty.
func LogID(id string) string {
	if id == "" {
		return ""
	}
	return Anonymize(id)[:logIDLength]
}
