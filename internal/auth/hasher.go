// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	argon2idPrefix = "$argon2id$"
	saltLen        = 16
	keyLen         = 32

	maxArgon2Memory = 1 << 20 // KiB
	maxArgon2Time   = 16
	maxKeyLen       = 1024
)

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// argon2Params are the cost settings carried inside a PHC string.
type argon2Params struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
}

// OWASP baseline for argon2id.
var defaultArgon2 = argon2Params{Memory: 64 * 1024, Time: 1, Threads: 4}

func (p argon2Params) key(password string, salt []byte, n uint32) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, n)
}

// encode renders $argon2id$v=19$m=...,t=...,p=...$<salt>$<key>.
func (p argon2Params) encode(salt, key []byte) string {
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix, argon2.Version, p.Memory, p.Time, p.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key))
}

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password. Two calls with the
	// same password return different encodings.
	Hash(password string) (string, error)

	// Verify reports whether password matches the encoded hash.
	// Malformed hashes never match.
	Verify(password, encodedHash string) bool

	// NeedsUpgrade returns true if the hash should be upgraded to argon2id.
	NeedsUpgrade(encodedHash string) bool
}

// Argon2idHasher hashes with argon2id. It also accepts bcrypt hashes written
// by earlier deployments so they can be upgraded on the next successful
// login.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}
	p := defaultArgon2
	return p.encode(salt, p.key(password, salt, keyLen)), nil
}

// Verify checks password against an argon2id or bcrypt hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) bool {
	if isBcryptHash(encodedHash) {
		return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
	}
	p, salt, want, err := decodeArgon2id(encodedHash)
	if err != nil {
		return false
	}
	got := p.key(password, salt, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// NeedsUpgrade returns true for anything that is not argon2id.
func (h *Argon2idHasher) NeedsUpgrade(encodedHash string) bool {
	return !strings.HasPrefix(encodedHash, argon2idPrefix)
}

func isBcryptHash(encodedHash string) bool {
	return lo.SomeBy(bcryptPrefixes, func(prefix string) bool {
		return strings.HasPrefix(encodedHash, prefix)
	})
}

// decodeArgon2id parses a PHC string and bounds its parameters so that a
// hostile hash cannot make argon2 panic or allocate without limit.
func decodeArgon2id(encoded string) (argon2Params, []byte, []byte, error) {
	var p argon2Params
	invalid := oops.Code("AUTH_INVALID_HASH")

	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return p, nil, nil, invalid.Errorf("invalid hash format")
	}
	if fields[1] != "argon2id" {
		return p, nil, nil, invalid.Errorf("unsupported hash algorithm: %s", fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return p, nil, nil, invalid.With("field", "version").Wrap(err)
	}
	if version != argon2.Version {
		return p, nil, nil, invalid.Errorf("unsupported argon2 version: %d", version)
	}

	var threads uint32
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &threads); err != nil {
		return p, nil, nil, invalid.With("field", "params").Wrap(err)
	}
	switch {
	case threads == 0 || threads > math.MaxUint8:
		return p, nil, nil, invalid.Errorf("invalid threads value: %d", threads)
	case p.Time == 0 || p.Time > maxArgon2Time:
		return p, nil, nil, invalid.Errorf("invalid time value: %d", p.Time)
	case p.Memory > maxArgon2Memory:
		return p, nil, nil, invalid.Errorf("memory value %d exceeds limit", p.Memory)
	}
	p.Threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		return p, nil, nil, invalid.With("field", "salt").Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil {
		return p, nil, nil, invalid.With("field", "key").Wrap(err)
	}
	if len(key) == 0 || len(key) > maxKeyLen {
		return p, nil, nil, invalid.Errorf("invalid hash key length: %d", len(key))
	}
	return p, salt, key, nil
}
