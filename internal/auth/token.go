// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// GenerateToken mints an opaque token (a random UUIDv4, 122 bits of entropy).
func GenerateToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", oops.Code("TOKEN_GENERATION_FAILED").Wrap(err)
	}
	return id.String(), nil
}

// HashToken returns the hex SHA-256 digest of a token. Only digests are
// written to storage.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyToken reports whether token hashes to storedHash in constant time.
func VerifyToken(token, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(storedHash)) == 1
}
