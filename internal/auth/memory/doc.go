// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memory provides process-local implementations of the auth
// repositories. Contents are lost on restart.
package memory
