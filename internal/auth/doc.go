// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides the credential and session primitives behind authgate.
//
// # Domain Types
//
// Principal is an account record keyed by a ULID and a unique email. Session
// and reset tokens are handed to clients in plaintext but only their SHA-256
// digests are stored, see HashToken.
//
// SessionRow is the durable mirror of a strategy-issued session and is owned by
// a SessionRepository.
//
// # Services
//
//   - Service - registration, login validation, the single-token session model
//     and password reset tokens
//   - PasswordHasher - argon2id hashing with legacy bcrypt verification
//   - PathMatcher - authentication exemptions for request paths
//
// The strategy engine that authenticates individual HTTP requests lives in the
// strategy subpackage. Store implementations live in the postgres, memory and
// bolt subpackages.
package auth
