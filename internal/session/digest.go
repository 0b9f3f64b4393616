package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"fathom/internal/domain/models/research"
)

// Digest computes the ValidationDigest of a session's canonical JSON
// representation, stored alongside the record so a later load can detect
// silent corruption.
func Digest(s *research.Session) (research.ValidationDigest, error) {
	canonical, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("session: marshal for digest: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return research.ValidationDigest(hex.EncodeToString(sum[:])), nil
}
